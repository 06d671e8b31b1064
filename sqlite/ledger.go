package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/akarpov/shelfwatch"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ shelfwatch.Ledger = (*LedgerService)(nil)

// LedgerService implements shelfwatch.Ledger using SQLite. Rows are the
// tracked URLs ordered by position; each completed cycle is stored as a
// run with one cell per position.
type LedgerService struct {
	db *DB
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(db *DB) *LedgerService {
	return &LedgerService{db: db}
}

// ReadURLs returns the tracked URLs in row order.
func (s *LedgerService) ReadURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM urls ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// WriteRecords stores one completed cycle as a run. All cells are
// written in a single transaction so a run is either fully recorded or
// not at all.
func (s *LedgerService) WriteRecords(ctx context.Context, records []shelfwatch.Record) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runID := uuid.New().String()
	startedAt := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at) VALUES (?, ?)
	`, runID, startedAt); err != nil {
		return err
	}

	for i, record := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cells (run_id, position, quantity, price, discounted)
			VALUES (?, ?, ?, ?, ?)
		`, runID, i, record.Quantity, record.Price, record.Discounted); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReplaceURL rewrites a tracked URL in place, preserving its position.
func (s *LedgerService) ReplaceURL(ctx context.Context, oldURL, newURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE urls SET url = ? WHERE url = ?
	`, newURL, oldURL)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return shelfwatch.Errorf(shelfwatch.ENOTFOUND, "url not tracked: %s", oldURL)
	}

	return nil
}

// AddURL appends a URL after the last tracked row.
func (s *LedgerService) AddURL(ctx context.Context, url string) error {
	var next int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM urls
	`).Scan(&next); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO urls (id, url, position, created_at) VALUES (?, ?, ?, ?)
	`, uuid.New().String(), url, next, time.Now().UTC().Format(time.RFC3339))
	return err
}

// RemoveURL stops tracking a URL. Positions of the remaining rows are
// left as-is; row order only depends on their relative values.
func (s *LedgerService) RemoveURL(ctx context.Context, url string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM urls WHERE url = ?
	`, url)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return shelfwatch.Errorf(shelfwatch.ENOTFOUND, "url not tracked: %s", url)
	}

	return nil
}

// LastRecords returns the cells of the most recent run in row order, or
// ENOTFOUND when no run has completed yet.
func (s *LedgerService) LastRecords(ctx context.Context) ([]shelfwatch.Record, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1
	`).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, shelfwatch.Errorf(shelfwatch.ENOTFOUND, "no completed runs")
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT quantity, price, discounted FROM cells
		WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []shelfwatch.Record
	for rows.Next() {
		var record shelfwatch.Record
		if err := rows.Scan(&record.Quantity, &record.Price, &record.Discounted); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
