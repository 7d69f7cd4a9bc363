package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/model"
	"github.com/loremaker/loregraph/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.Edge) error
	SelectEdgesFromNode(nodeID int64) ([]*model.Edge, error)
	SelectEdgesToNode(nodeID int64) ([]*model.Edge, error)
	SelectCharacterEdges(gameTitle string) ([]*model.CharacterRelation, error)
	CountEdges() (int64, error)
	CountEdgesByType(edgeType model.EdgeType) (int64, error)
	DeleteEdge(id int64) error
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := sql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
// The nodes table must exist first because of the foreign keys.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		log.Panicf("error initializing edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// InsertEdge inserts an edge or returns the existing one when the triple
// (source, target, type) already exists. Edge.Inserted reports whether this
// call created the row.
func (h *EdgesDBHandler) InsertEdge(edge *model.Edge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4)`,
		edge.SourceID,
		edge.TargetID,
		edge.Type,
		edge.Properties,
	)

	err := row.Scan(
		&edge.ID,
		&edge.SourceID,
		&edge.TargetID,
		&edge.Type,
		&edge.Properties,
		&edge.CreatedAt,
		&edge.Inserted,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEdgesFromNode retrieves all outgoing edges of a node
func (h *EdgesDBHandler) SelectEdgesFromNode(nodeID int64) ([]*model.Edge, error) {
	return h.selectEdges(`SELECT * FROM select_edges_from_node($1)`, nodeID)
}

// SelectEdgesToNode retrieves all incoming edges of a node
func (h *EdgesDBHandler) SelectEdgesToNode(nodeID int64) ([]*model.Edge, error) {
	return h.selectEdges(`SELECT * FROM select_edges_to_node($1)`, nodeID)
}

func (h *EdgesDBHandler) selectEdges(query string, nodeID int64) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(query, nodeID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		edge := &model.Edge{}
		err := rows.Scan(
			&edge.ID,
			&edge.SourceID,
			&edge.TargetID,
			&edge.Type,
			&edge.Properties,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

// SelectCharacterEdges retrieves all character-to-character edges of a game,
// resolved to character names
func (h *EdgesDBHandler) SelectCharacterEdges(gameTitle string) ([]*model.CharacterRelation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_character_edges($1)`,
		gameTitle,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relations []*model.CharacterRelation
	for rows.Next() {
		relation := &model.CharacterRelation{}
		err := rows.Scan(
			&relation.Source,
			&relation.Type,
			&relation.Target,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relations = append(relations, relation)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relations, nil
}

// CountEdges returns the total edge count
func (h *EdgesDBHandler) CountEdges() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_edges()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// CountEdgesByType returns the edge count for one type
func (h *EdgesDBHandler) CountEdgesByType(edgeType model.EdgeType) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_edges_by_type($1)`, edgeType).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteEdge deletes an edge by ID
func (h *EdgesDBHandler) DeleteEdge(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
