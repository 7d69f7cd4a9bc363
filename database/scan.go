package database

import (
	dbsql "database/sql"

	"github.com/loremaker/loregraph/model"
)

// errNoRows aliases the stdlib sentinel; the sql import name is taken by
// this module's own sql package.
var errNoRows = dbsql.ErrNoRows

// scanNode scans one full node row
func scanNode(row *dbsql.Row, node *model.Node) error {
	return row.Scan(
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
}

// scanDocument scans one full document row
func scanDocument(row *dbsql.Row, doc *model.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Source,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}
