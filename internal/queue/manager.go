// Package queue implements the download queue and orchestration engine:
// bounded-concurrency scheduling of Workshop item and collection downloads,
// per-request and aggregate progress tracking, and post-download installation
// side effects.
package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wmm/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fetcher retrieves a Workshop item's payload onto local disk by id.
type Fetcher interface {
	Fetch(ctx context.Context, itemID string) error
}

// Installer performs post-download installation into a target instance.
type Installer interface {
	// InstallItem copies a fetched item's artifacts into the instance mod
	// directory and merges the item into the instance metadata. Returns
	// true iff at least one artifact was installed.
	InstallItem(ctx context.Context, itemID, instanceID, name string, metadata map[string]any) (bool, error)

	// FinalizeInstance records the aggregate outcome of an instance's
	// downloads (Ready on success, Error otherwise) and persists it.
	FinalizeInstance(ctx context.Context, instanceID string, succeeded bool, collectionID string) error
}

const (
	defaultMaxConcurrent    = 3
	defaultFetchTimeout     = 15 * time.Minute
	defaultProgressInterval = time.Second

	// simulated progress never reaches 100 before the fetch resolves
	progressCap  = 95
	progressStep = 5
)

// Config configures a Manager. Fetcher is required; Installer is optional
// (downloads without a target instance skip installation anyway).
type Config struct {
	MaxConcurrent    int
	FetchTimeout     time.Duration // 0 means no timeout on fetcher calls
	ProgressInterval time.Duration
	Fetcher          Fetcher
	Installer        Installer
	Logger           zerolog.Logger
}

// Manager owns the download queue. All state is guarded by mu; execution
// happens in per-request goroutines that re-check request status after every
// blocking call, so a pause or cancel issued mid-flight wins over the
// in-flight result.
type Manager struct {
	mu        sync.Mutex
	downloads map[string]*domain.Download
	active    map[string]struct{}
	seq       map[string]uint64
	nextSeq   uint64

	subs    map[int]chan Event
	nextSub int

	maxConcurrent    int
	fetchTimeout     time.Duration
	progressInterval time.Duration
	fetcher          Fetcher
	installer        Installer
	log              zerolog.Logger
}

// New creates a download manager. Zero config fields take defaults.
func New(cfg Config) *Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.FetchTimeout < 0 {
		cfg.FetchTimeout = 0
	} else if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}
	return &Manager{
		downloads:        make(map[string]*domain.Download),
		active:           make(map[string]struct{}),
		seq:              make(map[string]uint64),
		subs:             make(map[int]chan Event),
		maxConcurrent:    cfg.MaxConcurrent,
		fetchTimeout:     cfg.FetchTimeout,
		progressInterval: cfg.ProgressInterval,
		fetcher:          cfg.Fetcher,
		installer:        cfg.Installer,
		log:              cfg.Logger,
	}
}

// ItemRequest describes a single Workshop item to queue.
type ItemRequest struct {
	ItemID           string
	Name             string
	TargetInstanceID string
	SizeBytes        int64
	Metadata         map[string]any
}

// Enqueue inserts a request into the queue, filling defaults, and runs a
// scheduling pass. Never blocks. Returns the request id.
func (m *Manager) Enqueue(d *domain.Download) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.enqueueLocked(d)
	m.scheduleLocked()
	return id
}

func (m *Manager) enqueueLocked(d *domain.Download) string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Name == "" {
		d.Name = "Download " + d.ID
	}
	if d.Kind == "" {
		d.Kind = domain.KindUnknown
	}
	d.Status = domain.StatusPending
	d.Progress = 0
	d.DownloadedBytes = 0
	d.Error = ""
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	m.downloads[d.ID] = d
	m.nextSeq++
	m.seq[d.ID] = m.nextSeq

	m.log.Info().Str("id", d.ID).Str("name", d.Name).Str("kind", string(d.Kind)).Msg("download queued")
	m.emitLocked(EventAdded, d)
	return d.ID
}

// QueueItem queues a single Workshop item download.
func (m *Manager) QueueItem(req ItemRequest) string {
	meta := req.Metadata
	if meta == nil {
		meta = map[string]any{"item_id": req.ItemID}
	}
	name := req.Name
	if name == "" {
		name = "Mod " + req.ItemID
	}
	return m.Enqueue(&domain.Download{
		Name:             name,
		Kind:             domain.KindItem,
		ItemID:           req.ItemID,
		TargetInstanceID: req.TargetInstanceID,
		SizeBytes:        req.SizeBytes,
		Metadata:         meta,
	})
}

// QueueCollection queues a collection download. The collection expands into
// child item requests when it begins executing. Returns an error without
// queueing anything when the collection has no members.
func (m *Manager) QueueCollection(col *domain.Collection, targetInstanceID string) (string, error) {
	if col == nil || len(col.ItemIDs) == 0 {
		return "", domain.ErrEmptyCollection
	}
	name := col.Title
	if name == "" {
		name = "Collection " + col.ID
	}
	return m.Enqueue(&domain.Download{
		Name:             name,
		Kind:             domain.KindCollection,
		ItemIDs:          append([]string(nil), col.ItemIDs...),
		TargetInstanceID: targetInstanceID,
		Metadata: map[string]any{
			"collection_id": col.ID,
			"title":         col.Title,
			"details":       col.Details,
		},
	}), nil
}

// Cancel cancels a request, cascading into collection children. In-flight
// fetches are not preempted; their results are discarded on resolution.
// Returns true iff the request existed.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.cancelLocked(id)
	if ok {
		m.scheduleLocked()
	}
	return ok
}

func (m *Manager) cancelLocked(id string) bool {
	d, ok := m.downloads[id]
	if !ok {
		return false
	}
	delete(m.active, id)

	// The parent transitions before the cascade so the child fan-in sees it
	// terminal and does not resolve it as failed.
	wasOpen := !d.Status.Terminal()
	if wasOpen {
		d.Status = domain.StatusCancelled
		d.EndedAt = time.Now()
		d.SpeedBPS = 0
		m.log.Info().Str("id", id).Str("name", d.Name).Msg("download cancelled")
		m.touchLocked(d)
	}

	for _, cid := range d.ChildIDs {
		m.cancelLocked(cid)
	}

	// A cancelled collection still settles its instance: completed members
	// are installed and the instance leaves the downloading state.
	if wasOpen && d.Kind == domain.KindCollection && d.TargetInstanceID != "" && len(d.ChildIDs) > 0 {
		collectionID, _ := d.Metadata["collection_id"].(string)
		go m.finalizeCollection(id, d.TargetInstanceID, collectionID, false)
	}
	return true
}

// Pause pauses a downloading request. Valid only from Downloading.
func (m *Manager) Pause(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		return false
	}
	delete(m.active, id)
	d.Status = domain.StatusPaused
	d.SpeedBPS = 0
	m.touchLocked(d)
	m.scheduleLocked()
	return true
}

// Resume re-enters a paused request into the queue.
func (m *Manager) Resume(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusPaused {
		return false
	}
	d.Status = domain.StatusPending
	m.touchLocked(d)
	m.scheduleLocked()
	return true
}

// Retry resets a failed or cancelled request to pending.
func (m *Manager) Retry(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.downloads[id]
	if !ok || (d.Status != domain.StatusFailed && d.Status != domain.StatusCancelled) {
		return false
	}
	d.Status = domain.StatusPending
	d.Error = ""
	d.Progress = 0
	d.DownloadedBytes = 0
	d.EndedAt = time.Time{}
	m.touchLocked(d)
	m.scheduleLocked()
	return true
}

// CleanupOlderThan removes terminal requests whose end time (start time when
// never started) is older than maxAge. Returns the removed count.
func (m *Manager) CleanupOlderThan(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	count := 0
	for id, d := range m.downloads {
		if !d.Status.Terminal() {
			continue
		}
		end := d.EndedAt
		if end.IsZero() {
			end = d.StartedAt
		}
		if now.Sub(end) > maxAge {
			m.removeLocked(id)
			count++
		}
	}
	return count
}

// ClearFinished removes all terminal requests regardless of age.
func (m *Manager) ClearFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, d := range m.downloads {
		if d.Status.Terminal() {
			m.removeLocked(id)
			count++
		}
	}
	return count
}

func (m *Manager) removeLocked(id string) {
	delete(m.downloads, id)
	delete(m.seq, id)
	delete(m.active, id)
}

// Get returns a snapshot of one request.
func (m *Manager) Get(id string) (*domain.Download, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.downloads[id]
	if !ok {
		return nil, false
	}
	return d.Snapshot(), true
}

// List returns snapshots of all requests in enqueue order.
func (m *Manager) List() []*domain.Download {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Download, 0, len(m.downloads))
	for _, d := range m.downloads {
		out = append(out, d.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return m.seq[out[i].ID] < m.seq[out[j].ID]
	})
	return out
}

// Stats aggregates queue state.
func (m *Manager) Stats() domain.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s domain.Stats
	var speedSum float64
	for _, d := range m.downloads {
		s.Total++
		switch d.Status {
		case domain.StatusDownloading:
			s.Active++
			speedSum += d.SpeedBPS
		case domain.StatusPaused:
			s.Paused++
		case domain.StatusComplete:
			s.Completed++
		case domain.StatusCancelled:
			s.Cancelled++
		case domain.StatusFailed:
			s.Failed++
		}
	}
	if s.Active > 0 {
		s.AvgSpeed = speedSum / float64(s.Active)
	}
	return s
}

// scheduleLocked admits pending requests up to the concurrency bound, oldest
// first (enqueue order breaks timestamp ties). Admission and slot accounting
// happen under the lock, so the bound holds across concurrent completions.
func (m *Manager) scheduleLocked() {
	if len(m.active) >= m.maxConcurrent {
		return
	}

	pending := make([]*domain.Download, 0)
	for _, d := range m.downloads {
		if d.Status == domain.StatusPending {
			pending = append(pending, d)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].StartedAt.Equal(pending[j].StartedAt) {
			return pending[i].StartedAt.Before(pending[j].StartedAt)
		}
		return m.seq[pending[i].ID] < m.seq[pending[j].ID]
	})

	for _, d := range pending {
		if len(m.active) >= m.maxConcurrent {
			break
		}
		d.Status = domain.StatusDownloading
		d.StartedAt = time.Now()
		m.active[d.ID] = struct{}{}
		m.touchLocked(d)
		go m.run(d.ID)
	}
}

// run executes one admitted request. Faults never escape: any error or panic
// becomes a Failed transition, and the slot is released and rescheduled in
// all paths.
func (m *Manager) run(id string) {
	defer func() {
		if r := recover(); r != nil {
			m.failIfDownloading(id, fmt.Sprintf("download panic: %v", r))
		}
		m.mu.Lock()
		delete(m.active, id)
		m.scheduleLocked()
		m.mu.Unlock()
	}()

	m.mu.Lock()
	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		m.mu.Unlock()
		return
	}
	kind := d.Kind
	m.mu.Unlock()

	var err error
	switch kind {
	case domain.KindItem:
		err = m.runItem(id)
	case domain.KindCollection:
		err = m.runCollection(id)
	default:
		err = domain.ErrUnknownKind
	}
	if err != nil {
		m.log.Error().Str("id", id).Err(err).Msg("download failed")
		m.failIfDownloading(id, err.Error())
	}
}

// failIfDownloading transitions a request to Failed unless a user action
// (pause, cancel) already moved it out of Downloading.
func (m *Manager) failIfDownloading(id, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.downloads[id]
	if !ok || d.Status != domain.StatusDownloading {
		return
	}
	d.Status = domain.StatusFailed
	d.Error = msg
	d.EndedAt = time.Now()
	d.SpeedBPS = 0
	m.touchLocked(d)
}

// touchLocked emits an updated event and propagates the mutation to the
// request's collection parent, if any.
func (m *Manager) touchLocked(d *domain.Download) {
	m.emitLocked(EventUpdated, d)
	if d.ParentID != "" {
		m.recomputeParentLocked(d.ParentID)
	}
}
