package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Repository defines persistence for document metadata.
type Repository interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Document, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const documentColumns = `id, application_id, file_name, content_type, size_bytes, category, storage_path, uploaded_by, created_at`

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.ApplicationID, &doc.FileName, &doc.ContentType,
		&doc.SizeBytes, &doc.Category, &doc.StoragePath, &doc.UploadedBy, &doc.CreatedAt)
	return doc, err
}

// Create inserts a metadata row.
func (r *PGRepository) Create(ctx context.Context, doc Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, application_id, file_name, content_type, size_bytes, category, storage_path, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		doc.ID, doc.ApplicationID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.Category, doc.StoragePath, doc.UploadedBy)
	return err
}

// Get fetches a document by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByApplication returns an application's documents, newest first.
func (r *PGRepository) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE application_id=$1 ORDER BY created_at DESC`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a metadata row.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
