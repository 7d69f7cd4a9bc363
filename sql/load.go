// Package sql embeds the SQL function definitions for the graph schema and
// loads them into the database. Every statement the handlers run is a
// SELECT against one of these functions.
package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed nodes.sql
var nodesSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed documents.sql
var documentsSQL string

// Function lists for verification
var NodesFunctions = []string{
	"init_nodes",
	"upsert_node",
	"select_node",
	"select_node_by_id",
	"select_nodes_by_label",
	"select_neighbors",
	"count_nodes",
	"count_nodes_by_label",
	"delete_node",
	"delete_chapter_children",
	"clear_nodes",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge",
	"select_edges_from_node",
	"select_edges_to_node",
	"select_character_edges",
	"count_edges",
	"count_edges_by_type",
	"delete_edge",
}

var DocumentsFunctions = []string{
	"init_documents",
	"upsert_document",
	"select_document",
	"select_document_by_title",
	"select_all_documents",
	"delete_document",
}

// Init initializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadNodesSql loads node-related SQL functions
func LoadNodesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, NodesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing nodes functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(nodesSQL)
	if err != nil {
		return fmt.Errorf("error executing nodes SQL: %w", err)
	}

	exist, err := checkFunctions(db, NodesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL nodes functions loaded successfully")
	return nil
}

// LoadEdgesSql loads edge-related SQL functions
func LoadEdgesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, EdgesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing edges functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(edgesSQL)
	if err != nil {
		return fmt.Errorf("error executing edges SQL: %w", err)
	}

	exist, err := checkFunctions(db, EdgesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL edges functions loaded successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DocumentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing documents functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkFunctions(db, DocumentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL documents functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadNodesSql(db, force); err != nil {
		return err
	}

	if err := LoadEdgesSql(db, force); err != nil {
		return err
	}

	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
