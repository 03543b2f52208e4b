package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/simplepublish"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplepublish.PersistenceStore using PostgreSQL.
// Documents are stored with their frequently queried fields as columns
// and the full document as a jsonb payload.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("document with this slug already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simplepublish.ErrDocumentNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Upsert stores the document, replacing any previous row with the same
// ID, and returns the stored form.
func (r *Repository) Upsert(ctx context.Context, doc *simplepublish.ContentDocument) (*simplepublish.ContentDocument, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (
			id, slug, status, processing_status, category, author, payload,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			status = EXCLUDED.status,
			processing_status = EXCLUDED.processing_status,
			category = EXCLUDED.category,
			author = EXCLUDED.author,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		doc.ID, doc.Slug, doc.Status, doc.ProcessingStatus,
		doc.Category, doc.Author, payload, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, r.handlePostgresError("upsert document", err)
	}

	return doc.Clone(), nil
}

// ExistsBySlug reports whether any stored document owns the slug.
func (r *Repository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM documents WHERE slug = $1)`

	if err := r.db.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, r.handlePostgresError("check slug", err)
	}
	return exists, nil
}

// GetDocument fetches a stored document by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*simplepublish.ContentDocument, error) {
	var payload []byte
	query := `SELECT payload FROM documents WHERE id = $1`

	if err := r.db.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		return nil, r.handlePostgresError("get document", err)
	}

	var doc simplepublish.ContentDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}
