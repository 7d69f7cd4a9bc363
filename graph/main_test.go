package graph

import (
	"context"
	"io"
	"log"
	"log/slog"
	"testing"

	"github.com/loremaker/loregraph/database"
	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/markdown"
	loresql "github.com/loremaker/loregraph/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initStore(t *testing.T) (*Store, *database.NodesDBHandler, *database.EdgesDBHandler) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loresql.Init(db.Instance)
	require.NoError(t, err)

	nodes, err := database.NewNodesDBHandler(db, true)
	require.NoError(t, err)
	edges, err := database.NewEdgesDBHandler(db, true)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(nodes, edges, markdown.NewHeuristicClassifier(), logger)
	require.NoError(t, store.ClearAll())

	return store, nodes, edges
}
