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

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	UpsertDocument(doc *model.Document) error
	SelectDocument(id int64) (*model.Document, error)
	SelectDocumentByTitle(title string) (*model.Document, error)
	SelectAllDocuments() ([]*model.Document, error)
	DeleteDocument(id int64) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := sql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// UpsertDocument inserts a document or refreshes source and metadata when
// the title exists
func (h *DocumentsDBHandler) UpsertDocument(doc *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_document($1, $2, $3)`,
		doc.Title,
		doc.Source,
		doc.Metadata,
	)

	err := scanDocument(row, doc)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by ID.
// A missing document yields (nil, nil).
func (h *DocumentsDBHandler) SelectDocument(id int64) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		id,
	)

	err := scanDocument(row, doc)
	if err == errNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectDocumentByTitle retrieves a document by title.
// A missing document yields (nil, nil).
func (h *DocumentsDBHandler) SelectDocumentByTitle(title string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document_by_title($1)`,
		title,
	)

	err := scanDocument(row, doc)
	if err == errNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents ordered by ID
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Source,
			&doc.Metadata,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document by ID
func (h *DocumentsDBHandler) DeleteDocument(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
