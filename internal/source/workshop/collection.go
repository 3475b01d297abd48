package workshop

import (
	"context"
	"fmt"

	"wmm/internal/domain"

	"golang.org/x/sync/errgroup"
)

// ParseCollection resolves a collection's own details and its member list
// concurrently, and optionally batch-resolves per-member details so the
// queue can label child downloads without further catalog calls.
func (c *Client) ParseCollection(ctx context.Context, collectionID string, includeItemDetails bool) (*domain.Collection, error) {
	var (
		self    *domain.ItemDetail
		itemIDs []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := c.GetItemDetails(gctx, collectionID)
		if err != nil {
			return fmt.Errorf("collection %s: %w", collectionID, err)
		}
		self = d
		return nil
	})
	g.Go(func() error {
		ids, err := c.GetCollectionDetails(gctx, collectionID)
		if err != nil {
			return fmt.Errorf("collection %s members: %w", collectionID, err)
		}
		itemIDs = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(itemIDs) == 0 {
		return nil, domain.ErrEmptyCollection
	}

	col := &domain.Collection{
		ID:          collectionID,
		Title:       self.Name,
		Description: self.Description,
		ImageURL:    self.ThumbnailURL,
		ItemIDs:     itemIDs,
	}

	if includeItemDetails {
		details, err := c.GetItemsDetails(ctx, itemIDs)
		if err != nil {
			// Member details are advisory; the queue falls back to
			// minimal child metadata.
			return col, nil
		}
		col.Details = details
	}
	return col, nil
}
