// Package loregraph turns markdown game design documents into a property
// graph in Postgres and uses that graph as the source of truth for
// consistency-preserving LLM document updates.
package loregraph

import (
	"context"
	"log/slog"
	"os"

	"github.com/loremaker/loregraph/database"
	"github.com/loremaker/loregraph/graph"
	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/ingest"
	"github.com/loremaker/loregraph/llm"
	"github.com/loremaker/loregraph/markdown"
	"github.com/loremaker/loregraph/model"
	"github.com/loremaker/loregraph/retrieval"
	loadSql "github.com/loremaker/loregraph/sql"
)

// LoreGraph provides a unified interface to ingestion, retrieval and the
// graph-constrained document updater
type LoreGraph struct {
	DB        *helper.Database
	Nodes     *database.NodesDBHandler
	Edges     *database.EdgesDBHandler
	Documents *database.DocumentsDBHandler
	Store     *graph.Store
	Provider  llm.Provider
	Retriever *retrieval.Retriever
	Updater   *retrieval.Updater
	Ingestor  *ingest.Ingestor
	// Logging
	log *slog.Logger
}

// New creates a LoreGraph instance with the LLM provider built from the
// given config
func New(ctx context.Context, dbConfig *helper.DatabaseConfiguration, llmConfig *llm.Config) (*LoreGraph, error) {
	provider, err := llm.NewProvider(ctx, llmConfig)
	if err != nil {
		return nil, helper.NewError("create llm provider", err)
	}
	return NewWithProvider(dbConfig, provider)
}

// NewWithProvider creates a LoreGraph instance over an existing provider.
// Useful for tests and offline runs with llm.Static.
func NewWithProvider(dbConfig *helper.DatabaseConfiguration, provider llm.Provider) (*LoreGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("loregraph", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (nodes first, edges reference
	// them through foreign keys). force=false to not reload if functions
	// already exist.
	nodes, err := database.NewNodesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create nodes handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	store := graph.NewStore(nodes, edges, markdown.NewHeuristicClassifier(), logger)
	inferencer := llm.NewInferencer(provider, logger)
	retriever := retrieval.NewRetriever(store, logger)
	updater := retrieval.NewUpdater(provider, inferencer, retriever, store, logger)
	ingestor := ingest.NewIngestor(inferencer, store, documents, logger)

	return &LoreGraph{
		DB:        db,
		Nodes:     nodes,
		Edges:     edges,
		Documents: documents,
		Store:     store,
		Provider:  provider,
		Retriever: retriever,
		Updater:   updater,
		Ingestor:  ingestor,
		log:       logger,
	}, nil
}

// Close closes the database connection
func (l *LoreGraph) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// IngestDocument ingests raw markdown content into the graph. With
// fullRebuild the graph is cleared first.
func (l *LoreGraph) IngestDocument(ctx context.Context, content string, fullRebuild bool) (*ingest.Result, error) {
	return l.Ingestor.IngestDocument(ctx, content, fullRebuild)
}

// IngestFile reads a markdown file and ingests it into the graph
func (l *LoreGraph) IngestFile(ctx context.Context, filePath string, fullRebuild bool) (*ingest.Result, error) {
	return l.Ingestor.IngestFile(ctx, filePath, fullRebuild)
}

// UpdateDocument rewrites a document per the request, constrained by the
// facts recorded in the graph. The model output is returned verbatim.
func (l *LoreGraph) UpdateDocument(ctx context.Context, original, request, contextType string) (string, error) {
	return l.Updater.UpdateDocument(ctx, original, request, contextType)
}

// SyncGraphFromDocument extracts entities from an updated document and
// merges the new ones into the graph
func (l *LoreGraph) SyncGraphFromDocument(ctx context.Context, doc string) (*retrieval.Stats, error) {
	return l.Updater.SyncGraphFromDocument(ctx, doc)
}

// Retrieve extracts the graph context relevant to a request
func (l *LoreGraph) Retrieve(gameTitle, request, contextType string) (*retrieval.Context, error) {
	return l.Retriever.Retrieve(gameTitle, request, contextType)
}

// UpdateChapter overwrites the outline and details of an existing chapter.
// A missing chapter yields (false, nil).
func (l *LoreGraph) UpdateChapter(gameTitle string, number int, outline, details string) (bool, error) {
	return l.Store.UpdateChapter(gameTitle, number, outline, details)
}

// SuggestChapterContent drafts an outline and details for a chapter,
// grounded in its graph neighborhood
func (l *LoreGraph) SuggestChapterContent(ctx context.Context, gameTitle string, number int, guideline string) (string, error) {
	return l.Updater.SuggestChapterContent(ctx, gameTitle, number, guideline)
}

// DeleteChapter removes a chapter with its owned goal, event and challenge
// nodes. A missing chapter yields (false, nil).
func (l *LoreGraph) DeleteChapter(gameTitle string, number int) (bool, error) {
	return l.Store.DeleteChapter(gameTitle, number)
}

// BFSTraversal performs breadth-first search from a node
func (l *LoreGraph) BFSTraversal(sourceID int64, maxHops int, edgeTypes []model.EdgeType, followIncoming bool) ([]*graph.TraversalResult, error) {
	db := struct {
		*database.NodesDBHandler
		*database.EdgesDBHandler
	}{l.Nodes, l.Edges}
	return graph.BFS(db, sourceID, maxHops, edgeTypes, followIncoming)
}
