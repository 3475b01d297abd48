package domain

import "time"

// ItemDetail is catalog metadata for a single Workshop item
type ItemDetail struct {
	ID           string
	Name         string
	Author       string
	Description  string
	Tags         []string
	ThumbnailURL string
	SizeBytes    int64
	TimeCreated  time.Time
	TimeUpdated  time.Time
}

// Collection is catalog metadata for a Workshop collection and its members
type Collection struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	ItemIDs     []string
	// Details holds pre-fetched per-member metadata, keyed positionally.
	// May be empty when the caller skipped detail resolution.
	Details []ItemDetail
}

// DetailFor returns the member detail with the given id, if present.
func (c *Collection) DetailFor(itemID string) (ItemDetail, bool) {
	for _, d := range c.Details {
		if d.ID == itemID {
			return d, true
		}
	}
	return ItemDetail{}, false
}
