package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wmm/internal/domain"
)

// SaveItem caches catalog metadata for a Workshop item
func (d *DB) SaveItem(item *domain.ItemDetail) error {
	_, err := d.Exec(`
		INSERT INTO workshop_items (item_id, name, author, description, tags, thumbnail_url, size_bytes, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			name = excluded.name,
			author = excluded.author,
			description = excluded.description,
			tags = excluded.tags,
			thumbnail_url = excluded.thumbnail_url,
			size_bytes = excluded.size_bytes,
			cached_at = excluded.cached_at
	`, item.ID, item.Name, item.Author, item.Description, strings.Join(item.Tags, ","),
		item.ThumbnailURL, item.SizeBytes, time.Now())
	if err != nil {
		return fmt.Errorf("caching workshop item: %w", err)
	}
	return nil
}

// GetItem returns cached catalog metadata for a Workshop item, or
// domain.ErrItemNotFound when the item has never been cached.
func (d *DB) GetItem(itemID string) (*domain.ItemDetail, error) {
	var item domain.ItemDetail
	var tags string
	err := d.QueryRow(`
		SELECT item_id, name, COALESCE(author, ''), COALESCE(description, ''), COALESCE(tags, ''), COALESCE(thumbnail_url, ''), size_bytes
		FROM workshop_items WHERE item_id = ?
	`, itemID).Scan(&item.ID, &item.Name, &item.Author, &item.Description, &tags, &item.ThumbnailURL, &item.SizeBytes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("querying workshop item: %w", err)
	}
	if tags != "" {
		item.Tags = strings.Split(tags, ",")
	}
	return &item, nil
}
