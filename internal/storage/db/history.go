package db

import (
	"fmt"
	"time"

	"wmm/internal/domain"
)

// HistoryEntry is one persisted terminal download record
type HistoryEntry struct {
	ID         string
	Name       string
	Kind       domain.Kind
	Status     domain.Status
	Error      string
	ItemID     string
	InstanceID string
	SizeBytes  int64
	StartedAt  time.Time
	EndedAt    time.Time
}

// RecordDownload inserts or updates the history row for a terminal download
func (d *DB) RecordDownload(dl *domain.Download) error {
	_, err := d.Exec(`
		INSERT INTO download_history (id, name, kind, status, error, item_id, instance_id, size_bytes, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			ended_at = excluded.ended_at
	`, dl.ID, dl.Name, string(dl.Kind), string(dl.Status), dl.Error, dl.ItemID,
		dl.TargetInstanceID, dl.SizeBytes, dl.StartedAt, dl.EndedAt)
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// History returns the most recent terminal downloads, newest first
func (d *DB) History(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.Query(`
		SELECT id, name, kind, status, COALESCE(error, ''), COALESCE(item_id, ''), COALESCE(instance_id, ''), size_bytes, started_at, ended_at
		FROM download_history
		ORDER BY ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var kind, status string
		if err := rows.Scan(&e.ID, &e.Name, &kind, &status, &e.Error, &e.ItemID,
			&e.InstanceID, &e.SizeBytes, &e.StartedAt, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Kind = domain.Kind(kind)
		e.Status = domain.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneHistory deletes history rows older than maxAge, returning the count
func (d *DB) PruneHistory(maxAge time.Duration) (int, error) {
	res, err := d.Exec(`DELETE FROM download_history WHERE ended_at < ?`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
