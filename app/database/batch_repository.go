package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var _ BatchRepository = (*SQLiteBatchRepository)(nil)

// SQLiteBatchRepository handles database operations for submission batches
type SQLiteBatchRepository struct {
	db *DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *DB) *SQLiteBatchRepository {
	return &SQLiteBatchRepository{db: db}
}

// RecordBatch inserts one batch outcome and returns its ID
func (r *SQLiteBatchRepository) RecordBatch(url string, eventsFound, successful, failed int) (string, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO batches (id, url, events_found, successful, failed)
		VALUES (?, ?, ?, ?, ?)
	`, id, url, eventsFound, successful, failed)
	if err != nil {
		return "", fmt.Errorf("failed to record batch: %w", err)
	}

	return id, nil
}

// GetStats returns aggregate counts across all recorded batches
func (r *SQLiteBatchRepository) GetStats() (*Stats, error) {
	var stats Stats

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(events_found), 0),
		       COALESCE(SUM(successful), 0),
		       COALESCE(SUM(failed), 0)
		FROM batches
	`).Scan(&stats.Batches, &stats.EventsFound, &stats.Successful, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch stats: %w", err)
	}

	return &stats, nil
}

// GetRecentBatches returns the most recent batches, newest first
func (r *SQLiteBatchRepository) GetRecentBatches(limit int) ([]Batch, error) {
	rows, err := r.db.Query(`
		SELECT id, url, events_found, successful, failed, created_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	batches := make([]Batch, 0, limit)

	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.URL, &b.EventsFound, &b.Successful, &b.Failed, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batches: %w", err)
	}

	return batches, nil
}

// GetBatchCount returns the total number of recorded batches
func (r *SQLiteBatchRepository) GetBatchCount() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM batches`).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}

	return count, nil
}
