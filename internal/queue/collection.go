package queue

import (
	"context"
	"math"
	"math/rand"
	"time"

	"wmm/internal/domain"
)

// runCollection expands a collection request into one child item request per
// member and returns. The collection itself never calls the fetcher; it stays
// in Downloading until the child fan-in (recomputeParentLocked) resolves it,
// and it does not hold a concurrency slot while its children download.
func (m *Manager) runCollection(id string) error {
	m.mu.Lock()
	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		m.mu.Unlock()
		return nil
	}
	if len(d.ItemIDs) == 0 {
		m.mu.Unlock()
		return domain.ErrEmptyCollection
	}

	details, _ := d.Metadata["details"].([]domain.ItemDetail)
	byID := make(map[string]domain.ItemDetail, len(details))
	for _, det := range details {
		byID[det.ID] = det
	}

	m.log.Info().Str("id", id).Int("items", len(d.ItemIDs)).
		Str("instance", d.TargetInstanceID).Msg("expanding collection")

	for _, itemID := range d.ItemIDs {
		child := &domain.Download{
			Kind:             domain.KindItem,
			ItemID:           itemID,
			ParentID:         id,
			TargetInstanceID: d.TargetInstanceID,
		}
		if det, found := byID[itemID]; found {
			child.Name = det.Name
			child.SizeBytes = det.SizeBytes
			child.Metadata = map[string]any{
				"item_id":       itemID,
				"title":         det.Name,
				"author":        det.Author,
				"tags":          det.Tags,
				"thumbnail_url": det.ThumbnailURL,
			}
		} else {
			child.Name = "Mod " + itemID
			child.Metadata = map[string]any{"item_id": itemID}
		}
		if child.SizeBytes == 0 {
			// No catalog size; synthesize one for progress display.
			child.SizeBytes = (rand.Int63n(50) + 10) * 1024 * 1024
		}
		m.enqueueLocked(child)
		d.ChildIDs = append(d.ChildIDs, child.ID)
	}

	d.Progress = 0
	m.emitLocked(EventUpdated, d)
	m.mu.Unlock()
	return nil
}

// recomputeParentLocked is the collection fan-in: called on every child
// mutation, it refreshes the parent's aggregate progress and, once every
// child is terminal, resolves the parent and kicks off installation.
func (m *Manager) recomputeParentLocked(parentID string) {
	p, ok := m.downloads[parentID]
	if !ok || p.Kind != domain.KindCollection || p.Status.Terminal() {
		return
	}
	if len(p.ChildIDs) == 0 {
		return
	}

	var sum, done, completed int
	for _, cid := range p.ChildIDs {
		c, exists := m.downloads[cid]
		if !exists {
			done++
			continue
		}
		sum += c.Progress
		if c.Status.Terminal() {
			done++
			if c.Status == domain.StatusComplete {
				completed++
			}
		}
	}

	if done < len(p.ChildIDs) {
		p.Progress = int(math.Round(float64(sum) / float64(len(p.ChildIDs))))
		m.emitLocked(EventUpdated, p)
		return
	}

	allOK := completed == len(p.ChildIDs)
	p.Progress = 100
	p.EndedAt = time.Now()
	p.SpeedBPS = 0
	if allOK {
		p.Status = domain.StatusComplete
	} else {
		p.Status = domain.StatusFailed
		p.Error = "some items failed to download"
	}
	m.log.Info().Str("id", parentID).Bool("all_ok", allOK).Msg("collection finished")
	m.emitLocked(EventUpdated, p)

	if p.TargetInstanceID != "" {
		collectionID, _ := p.Metadata["collection_id"].(string)
		go m.finalizeCollection(parentID, p.TargetInstanceID, collectionID, allOK)
	}
}

// finalizeCollection installs every successfully completed child into the
// target instance, updates the instance's persisted state, and emits the
// instance-complete notification. Siblings that failed are not rolled back;
// partial success is a first-class outcome.
func (m *Manager) finalizeCollection(parentID, instanceID, collectionID string, allOK bool) {
	type childInfo struct {
		id     string
		itemID string
		name   string
		meta   map[string]any
	}

	m.mu.Lock()
	p, ok := m.downloads[parentID]
	if !ok {
		m.mu.Unlock()
		return
	}
	var completed []childInfo
	for _, cid := range p.ChildIDs {
		c, exists := m.downloads[cid]
		if !exists || c.Status != domain.StatusComplete || c.ItemID == "" {
			continue
		}
		completed = append(completed, childInfo{
			id:     cid,
			itemID: c.ItemID,
			name:   c.Name,
			meta:   c.Clone().Metadata,
		})
	}
	m.mu.Unlock()

	if m.installer != nil {
		installed := 0
		for _, c := range completed {
			m.installItem(c.id, c.itemID, instanceID, c.name, c.meta)
			installed++
		}
		m.log.Info().Str("instance", instanceID).
			Int("installed", installed).Int("members", len(completed)).
			Msg("collection installs complete")

		if err := m.installer.FinalizeInstance(context.Background(), instanceID, allOK, collectionID); err != nil {
			m.log.Error().Str("instance", instanceID).Err(err).Msg("updating instance after downloads")
		}
	}

	m.mu.Lock()
	m.emitInstanceLocked(InstanceComplete{
		InstanceID:   instanceID,
		Succeeded:    allOK,
		CollectionID: collectionID,
	})
	m.mu.Unlock()
}
