package postgres

import (
	"context"
	"database/sql"

	"github.com/tahaislam/hybrid-rag-parser/internal/core/domain"
)

// TableRepository serves the structured side of hybrid retrieval. Lookup
// is scoped to one source document and ordered by document layout, never
// by similarity.
type TableRepository struct {
	db *sql.DB
}

func NewTableRepository(db *sql.DB) *TableRepository {
	return &TableRepository{db: db}
}

func (r *TableRepository) SaveTables(ctx context.Context, tables []domain.Table) error {
	if len(tables) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrTableUnavailable, "save tables", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range tables {
		_, err := tx.ExecContext(ctx, `
INSERT INTO document_tables (id, document_id, source_filename, content, content_type, page, position, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, table.ID, table.DocumentID, table.SourceFilename, table.Content, string(table.ContentType), table.Page, table.Position, table.CreatedAt)
		if err != nil {
			return domain.WrapError(domain.ErrTableUnavailable, "insert table", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrTableUnavailable, "commit tables", err)
	}
	return nil
}

func (r *TableRepository) ListBySource(ctx context.Context, sourceFilename string, limit int) ([]domain.Table, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, source_filename, content, content_type, page, position, created_at
FROM document_tables
WHERE source_filename = $1
ORDER BY page, position, id
LIMIT $2
`, sourceFilename, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTableUnavailable, "list tables", err)
	}
	defer rows.Close()

	out := make([]domain.Table, 0, limit)
	for rows.Next() {
		var table domain.Table
		var contentType string
		if err := rows.Scan(
			&table.ID, &table.DocumentID, &table.SourceFilename,
			&table.Content, &contentType, &table.Page, &table.Position, &table.CreatedAt,
		); err != nil {
			return nil, domain.WrapError(domain.ErrTableUnavailable, "scan table", err)
		}
		table.ContentType = domain.TableContentType(contentType)
		out = append(out, table)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTableUnavailable, "iterate tables", err)
	}
	return out, nil
}
