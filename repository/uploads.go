// Package repository records document uploads in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Status string

const (
	StatusReceived Status = "received"
	StatusIngested Status = "ingested"
	StatusFailed   Status = "failed"
)

const defaultListLimit = 50

var ErrNotFound = errors.New("upload not found")

// Upload is one document handed to the dashboard.
type Upload struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	ObjectKey  string    `json:"object_key"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Uploads struct {
	db DB
}

func NewUploads(db DB) *Uploads {
	return &Uploads{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS document_uploads (
	id          UUID PRIMARY KEY,
	filename    TEXT NOT NULL,
	object_key  TEXT NOT NULL,
	size_bytes  BIGINT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	document_id TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS document_uploads_created_at_idx ON document_uploads (created_at DESC);`

// Migrate creates the uploads table if needed.
func (u *Uploads) Migrate(ctx context.Context) error {
	if _, err := u.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create document_uploads: %w", err)
	}
	return nil
}

// Record inserts up. A zero ID is replaced with a new one, which is returned.
func (u *Uploads) Record(ctx context.Context, up Upload) (uuid.UUID, error) {
	if up.ID == uuid.Nil {
		up.ID = uuid.New()
	}
	if up.Status == "" {
		up.Status = StatusReceived
	}
	_, err := u.db.Exec(ctx,
		`INSERT INTO document_uploads (id, filename, object_key, size_bytes, status, error, document_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		up.ID, up.Filename, up.ObjectKey, up.SizeBytes, string(up.Status), up.Error, up.DocumentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record upload: %w", err)
	}
	return up.ID, nil
}

// MarkStatus moves an upload to status. errMsg is stored for failures.
func (u *Uploads) MarkStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string) error {
	return u.mark(ctx, id, status, errMsg, "")
}

// MarkIngested records the backend's document ID for a successful ingestion.
func (u *Uploads) MarkIngested(ctx context.Context, id uuid.UUID, documentID string) error {
	return u.mark(ctx, id, StatusIngested, "", documentID)
}

func (u *Uploads) mark(ctx context.Context, id uuid.UUID, status Status, errMsg, documentID string) error {
	tag, err := u.db.Exec(ctx,
		`UPDATE document_uploads
		 SET status = $2, error = $3, document_id = COALESCE(NULLIF($4, ''), document_id), updated_at = now()
		 WHERE id = $1`,
		id, string(status), errMsg, documentID)
	if err != nil {
		return fmt.Errorf("failed to update upload %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `id, filename, object_key, size_bytes, status, error, document_id, created_at, updated_at`

func scanUpload(row pgx.Row) (Upload, error) {
	var (
		up     Upload
		status string
	)
	err := row.Scan(&up.ID, &up.Filename, &up.ObjectKey, &up.SizeBytes, &status,
		&up.Error, &up.DocumentID, &up.CreatedAt, &up.UpdatedAt)
	up.Status = Status(status)
	return up, err
}

func (u *Uploads) Get(ctx context.Context, id uuid.UUID) (Upload, error) {
	up, err := scanUpload(u.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM document_uploads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	if err != nil {
		return Upload{}, fmt.Errorf("failed to get upload %s: %w", id, err)
	}
	return up, nil
}

// List returns the most recent uploads first. limit <= 0 uses 50.
func (u *Uploads) List(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := u.db.Query(ctx,
		`SELECT `+selectColumns+` FROM document_uploads ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}
