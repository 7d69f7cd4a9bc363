// Package database holds the per-table handlers over the SQL functions of
// the graph schema. Handlers never build SQL strings at runtime; every
// statement is a SELECT against a function loaded by the sql package.
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

// NodesDBHandlerFunctions defines the interface for Nodes database operations.
type NodesDBHandlerFunctions interface {
	UpsertNode(node *model.Node) error
	SelectNode(label model.Label, key string) (*model.Node, error)
	SelectNodeByID(id int64) (*model.Node, error)
	SelectNodesByLabel(gameTitle string, label model.Label) ([]*model.Node, error)
	SelectNeighbors(id int64) ([]*model.Neighbor, error)
	CountNodes() (int64, error)
	CountNodesByLabel(label model.Label) (int64, error)
	DeleteNode(id int64) error
	DeleteChapterChildren(chapterID int64) (int, error)
	ClearNodes() error
}

// NodesDBHandler handles node-related database operations
type NodesDBHandler struct {
	db *helper.Database
}

// NewNodesDBHandler creates a new nodes database handler.
// It initializes the database connection and loads node-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNodesDBHandler(db *helper.Database, force bool) (*NodesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	nodesDbHandler := &NodesDBHandler{
		db: db,
	}

	err := sql.LoadNodesSql(nodesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = nodesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized NodesDBHandler")

	return nodesDbHandler, nil
}

// CreateTable creates the 'nodes' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *NodesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_nodes();`)
	if err != nil {
		log.Panicf("error initializing nodes table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table nodes")

	return nil
}

// UpsertNode inserts a node or refreshes it when the natural key exists.
// Node.Inserted reports whether this call created the row.
func (h *NodesDBHandler) UpsertNode(node *model.Node) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_node($1, $2, $3, $4, $5, $6)`,
		node.Label,
		node.Key,
		node.GameTitle,
		node.Name,
		node.Number,
		node.Properties,
	)

	err := row.Scan(
		&node.ID,
		&node.RID,
		&node.Label,
		&node.Key,
		&node.GameTitle,
		&node.Name,
		&node.Number,
		&node.Properties,
		&node.CreatedAt,
		&node.UpdatedAt,
		&node.Inserted,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNode retrieves a node by label and natural key.
// A missing node yields (nil, nil) so callers can check existence.
func (h *NodesDBHandler) SelectNode(label model.Label, key string) (*model.Node, error) {
	node := &model.Node{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node($1, $2)`,
		label,
		key,
	)

	err := scanNode(row, node)
	if err == errNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectNodeByID retrieves a node by ID.
// A missing node yields (nil, nil).
func (h *NodesDBHandler) SelectNodeByID(id int64) (*model.Node, error) {
	node := &model.Node{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_node_by_id($1)`,
		id,
	)

	err := scanNode(row, node)
	if err == errNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectNodesByLabel retrieves all nodes of one label within a game,
// ordered by number, then name
func (h *NodesDBHandler) SelectNodesByLabel(gameTitle string, label model.Label) ([]*model.Node, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_nodes_by_label($1, $2)`,
		gameTitle,
		label,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []*model.Node
	for rows.Next() {
		node := &model.Node{}
		err := rows.Scan(
			&node.ID,
			&node.RID,
			&node.Label,
			&node.Key,
			&node.GameTitle,
			&node.Name,
			&node.Number,
			&node.Properties,
			&node.CreatedAt,
			&node.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}

// SelectNeighbors retrieves the one-hop neighborhood of a node in both
// directions
func (h *NodesDBHandler) SelectNeighbors(id int64) ([]*model.Neighbor, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_neighbors($1)`,
		id,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var neighbors []*model.Neighbor
	for rows.Next() {
		neighbor := &model.Neighbor{}
		err := rows.Scan(
			&neighbor.EdgeType,
			&neighbor.Direction,
			&neighbor.Node.ID,
			&neighbor.Node.RID,
			&neighbor.Node.Label,
			&neighbor.Node.Key,
			&neighbor.Node.GameTitle,
			&neighbor.Node.Name,
			&neighbor.Node.Number,
			&neighbor.Node.Properties,
			&neighbor.Node.CreatedAt,
			&neighbor.Node.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		neighbors = append(neighbors, neighbor)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return neighbors, nil
}

// CountNodes returns the total node count
func (h *NodesDBHandler) CountNodes() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_nodes()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// CountNodesByLabel returns the node count for one label
func (h *NodesDBHandler) CountNodesByLabel(label model.Label) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_nodes_by_label($1)`, label).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteNode deletes a node by ID. Its edges cascade.
func (h *NodesDBHandler) DeleteNode(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_node($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteChapterChildren deletes the Event, Goal and Challenge nodes owned by
// a chapter and returns how many were removed. Nodes shared with other
// chapters through non-ownership edges survive.
func (h *NodesDBHandler) DeleteChapterChildren(chapterID int64) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_chapter_children($1)`,
		chapterID,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}

// ClearNodes deletes all nodes. Edges cascade, documents stay.
func (h *NodesDBHandler) ClearNodes() error {
	_, err := h.db.Instance.Exec(`SELECT clear_nodes()`)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
