package queue

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"wmm/internal/domain"
)

// runItem executes a single-item download: fetch through the external tool,
// then install into the target instance when one is set. The fetcher gives no
// fine-grained progress, so a ticker advances simulated progress for UI
// liveness while the fetch is in flight.
func (m *Manager) runItem(id string) error {
	m.mu.Lock()
	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		m.mu.Unlock()
		return nil
	}
	itemID := d.ItemID
	name := d.Name
	target := d.TargetInstanceID
	parentID := d.ParentID
	meta := d.Clone().Metadata
	m.mu.Unlock()

	if itemID == "" {
		return domain.ErrMissingItemID
	}

	m.simulateProgress(id)

	ctx := context.Background()
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}

	err := m.fetcher.Fetch(ctx, itemID)

	m.mu.Lock()
	d, ok = m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		// Paused, cancelled, or removed while the fetch was in flight;
		// discard the result rather than overwrite the user's action.
		m.mu.Unlock()
		m.log.Debug().Str("id", id).Str("item", itemID).Msg("discarding stale fetch result")
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("fetching item %s: %w", itemID, err)
	}

	d.Status = domain.StatusComplete
	d.Progress = 100
	d.EndedAt = time.Now()
	d.DownloadedBytes = d.SizeBytes
	d.SpeedBPS = 0
	m.log.Info().Str("id", id).Str("item", itemID).Msg("download complete")
	m.touchLocked(d)
	m.mu.Unlock()

	if target != "" {
		m.installItem(id, itemID, target, name, meta)
	}

	// Children report to their parent again after install so the fan-in
	// sees the final install state.
	if parentID != "" {
		m.mu.Lock()
		m.recomputeParentLocked(parentID)
		m.mu.Unlock()
	} else if target != "" {
		m.notifyInstanceIfIdle(target)
	}
	return nil
}

// notifyInstanceIfIdle emits the instance-complete notification when no
// downloads targeting the instance remain in flight. Collections handle this
// through their own finalization instead.
func (m *Manager) notifyInstanceIfIdle(instanceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	succeeded := true
	for _, d := range m.downloads {
		if d.TargetInstanceID != instanceID {
			continue
		}
		if !d.Status.Terminal() {
			return
		}
		if d.Status != domain.StatusComplete || d.InstallState == domain.InstallFailed {
			succeeded = false
		}
	}
	m.emitInstanceLocked(InstanceComplete{InstanceID: instanceID, Succeeded: succeeded})
}

// installItem runs the installation side effect for a completed fetch. A
// failed install never reverts the completed fetch; the outcome lands on the
// request's InstallState field and in the logs.
func (m *Manager) installItem(id, itemID, instanceID, name string, meta map[string]any) {
	state := domain.InstallDone
	if m.installer == nil {
		return
	}
	ok, err := m.installer.InstallItem(context.Background(), itemID, instanceID, name, meta)
	if err != nil {
		m.log.Error().Str("item", itemID).Str("instance", instanceID).Err(err).Msg("install failed")
		state = domain.InstallFailed
	} else if !ok {
		m.log.Warn().Str("item", itemID).Str("instance", instanceID).Msg("no artifacts installed")
		state = domain.InstallFailed
	}

	m.mu.Lock()
	if d, exists := m.downloads[id]; exists {
		d.InstallState = state
		m.emitLocked(EventUpdated, d)
	}
	m.mu.Unlock()
}

// simulateProgress advances a synthetic progress figure once per interval
// while the request stays in Downloading. The goroutine checks status on
// every tick and exits the moment the request leaves Downloading, so no
// timer outlives its request.
func (m *Manager) simulateProgress(id string) {
	interval := m.progressInterval
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			m.mu.Lock()
			d, ok := m.downloads[id]
			if !ok || d.Status != domain.StatusDownloading {
				m.mu.Unlock()
				return
			}
			if d.Progress < progressCap {
				d.Progress += progressStep
				if d.Progress > progressCap {
					d.Progress = progressCap
				}
			}
			d.SpeedBPS = rand.Float64() * 2 * 1024 * 1024
			size := d.SizeBytes
			if size <= 0 {
				size = 1_000_000
			}
			d.DownloadedBytes = int64(float64(d.Progress) / 100 * float64(size))
			m.touchLocked(d)
			m.mu.Unlock()
		}
	}()
}
