package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/scribe/internal/apperr"
)

// UpsertDocument inserts or replaces the record for (source, target).
func (db *DB) UpsertDocument(row DocumentRow) error {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO documents (source, target, slug, filename, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, target) DO UPDATE SET
			slug       = excluded.slug,
			filename   = excluded.filename,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, row.Source, row.Target, row.Slug, row.Filename, row.Checksum, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ledger: upsert document: %w", err)
	}
	return nil
}

// GetDocument returns the record for (source, target) or apperr.ErrNotFound.
func (db *DB) GetDocument(source, target string) (*DocumentRow, error) {
	row := DocumentRow{Source: source, Target: target}
	err := db.conn.QueryRow(`
		SELECT slug, filename, checksum, updated_at FROM documents
		WHERE source = ? AND target = ?
	`, source, target).Scan(&row.Slug, &row.Filename, &row.Checksum, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get document: %w", err)
	}
	return &row, nil
}

// DeleteDocument removes the record for (source, target).
func (db *DB) DeleteDocument(source, target string) error {
	if _, err := db.conn.Exec(`DELETE FROM documents WHERE source = ? AND target = ?`, source, target); err != nil {
		return fmt.Errorf("ledger: delete document: %w", err)
	}
	return nil
}

// UpsertUpload records the URL an uploaded file's content lives at.
func (db *DB) UpsertUpload(row UploadRow) error {
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO uploads (checksum, source, url, uploaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET
			source      = excluded.source,
			url         = excluded.url,
			uploaded_at = excluded.uploaded_at
	`, row.Checksum, row.Source, row.URL, row.UploadedAt)
	if err != nil {
		return fmt.Errorf("ledger: upsert upload: %w", err)
	}
	return nil
}

// GetUpload returns the upload recorded for checksum or apperr.ErrNotFound.
func (db *DB) GetUpload(checksum string) (*UploadRow, error) {
	row := UploadRow{Checksum: checksum}
	err := db.conn.QueryRow(`
		SELECT source, url, uploaded_at FROM uploads WHERE checksum = ?
	`, checksum).Scan(&row.Source, &row.URL, &row.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get upload: %w", err)
	}
	return &row, nil
}
