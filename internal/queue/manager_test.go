package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wmm/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher records fetch calls and optionally blocks each one on a gate
// channel so tests control when downloads resolve.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []string
	inflight int
	maxSeen  int
	failIDs  map[string]bool
	failOnce map[string]bool
	gate     chan struct{}
}

func newGatedFetcher() *fakeFetcher {
	return &fakeFetcher{gate: make(chan struct{})}
}

func (f *fakeFetcher) Fetch(ctx context.Context, itemID string) error {
	f.mu.Lock()
	f.calls = append(f.calls, itemID)
	f.inflight++
	if f.inflight > f.maxSeen {
		f.maxSeen = f.inflight
	}
	gate := f.gate
	fail := f.failIDs[itemID]
	if f.failOnce[itemID] {
		fail = true
		delete(f.failOnce, itemID)
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.mu.Lock()
			f.inflight--
			f.mu.Unlock()
			return ctx.Err()
		}
	}

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if fail {
		return errors.New("steamcmd exited with status 8")
	}
	return nil
}

// release lets n blocked fetches resolve.
func (f *fakeFetcher) release(n int) {
	for i := 0; i < n; i++ {
		f.gate <- struct{}{}
	}
}

func (f *fakeFetcher) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFetcher) maxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

type finalizeCall struct {
	instanceID   string
	succeeded    bool
	collectionID string
}

// fakeInstaller records installation side effects.
type fakeInstaller struct {
	mu        sync.Mutex
	installed []string
	finalized []finalizeCall
	failItems map[string]bool
	noopItems map[string]bool
}

func (f *fakeInstaller) InstallItem(_ context.Context, itemID, _, _ string, _ map[string]any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failItems[itemID] {
		return false, errors.New("copy failed")
	}
	if f.noopItems[itemID] {
		return false, nil
	}
	f.installed = append(f.installed, itemID)
	return true, nil
}

func (f *fakeInstaller) FinalizeInstance(_ context.Context, instanceID string, succeeded bool, collectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, finalizeCall{instanceID, succeeded, collectionID})
	return nil
}

func (f *fakeInstaller) installedItems() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.installed...)
}

func (f *fakeInstaller) finalizeCalls() []finalizeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]finalizeCall(nil), f.finalized...)
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = 10 * time.Millisecond
	}
	cfg.Logger = zerolog.Nop()
	return New(cfg)
}

func waitStatus(t *testing.T, m *Manager, id string, want domain.Status) *domain.Download {
	t.Helper()
	var got *domain.Download
	require.Eventually(t, func() bool {
		d, ok := m.Get(id)
		if !ok {
			return false
		}
		got = d
		return d.Status == want
	}, 2*time.Second, 5*time.Millisecond, "download %s never reached %s (last: %+v)", id, want, got)
	return got
}

func TestQueueItem_Completes(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := newTestManager(t, Config{Fetcher: fetcher})

	id := m.QueueItem(ItemRequest{ItemID: "100", Name: "Brita's Weapon Pack", SizeBytes: 2048})

	d := waitStatus(t, m, id, domain.StatusComplete)
	assert.Equal(t, 100, d.Progress)
	assert.Equal(t, int64(2048), d.DownloadedBytes)
	assert.False(t, d.EndedAt.IsZero())
	assert.Equal(t, []string{"100"}, fetcher.callOrder())
}

func TestQueueItem_InstallsIntoInstance(t *testing.T) {
	fetcher := &fakeFetcher{}
	installer := &fakeInstaller{}
	m := newTestManager(t, Config{Fetcher: fetcher, Installer: installer})

	id := m.QueueItem(ItemRequest{ItemID: "100", TargetInstanceID: "inst-1"})

	waitStatus(t, m, id, domain.StatusComplete)
	require.Eventually(t, func() bool {
		d, _ := m.Get(id)
		return d.InstallState == domain.InstallDone
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"100"}, installer.installedItems())
}

func TestQueueItem_InstallFailureKeepsFetchComplete(t *testing.T) {
	fetcher := &fakeFetcher{}
	installer := &fakeInstaller{failItems: map[string]bool{"100": true}}
	m := newTestManager(t, Config{Fetcher: fetcher, Installer: installer})

	id := m.QueueItem(ItemRequest{ItemID: "100", TargetInstanceID: "inst-1"})

	require.Eventually(t, func() bool {
		d, _ := m.Get(id)
		return d.InstallState == domain.InstallFailed
	}, 2*time.Second, 5*time.Millisecond)

	d, _ := m.Get(id)
	assert.Equal(t, domain.StatusComplete, d.Status)
	assert.Empty(t, d.Error)
}

func TestQueueItem_MissingItemIDFails(t *testing.T) {
	m := newTestManager(t, Config{Fetcher: &fakeFetcher{}})

	id := m.Enqueue(&domain.Download{Kind: domain.KindItem, Name: "broken"})

	d := waitStatus(t, m, id, domain.StatusFailed)
	assert.Equal(t, domain.ErrMissingItemID.Error(), d.Error)
}

func TestUnknownKindFails(t *testing.T) {
	m := newTestManager(t, Config{Fetcher: &fakeFetcher{}})

	id := m.Enqueue(&domain.Download{Name: "mystery"})

	d := waitStatus(t, m, id, domain.StatusFailed)
	assert.Equal(t, domain.ErrUnknownKind.Error(), d.Error)
}

func TestConcurrencyBound(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 2})

	for _, itemID := range []string{"1", "2", "3", "4", "5"} {
		m.QueueItem(ItemRequest{ItemID: itemID})
	}

	// Exactly two admitted, three left pending.
	require.Eventually(t, func() bool {
		return len(fetcher.callOrder()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, m.Stats().Active)

	fetcher.release(5)

	require.Eventually(t, func() bool {
		return m.Stats().Completed == 5
	}, 2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, fetcher.maxConcurrent(), 2)
}

func TestFIFOOrder(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	ids := make([]string, 0, 4)
	for _, itemID := range []string{"a", "b", "c", "d"} {
		ids = append(ids, m.QueueItem(ItemRequest{ItemID: itemID}))
	}

	for range ids {
		fetcher.release(1)
	}
	require.Eventually(t, func() bool {
		return m.Stats().Completed == 4
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c", "d"}, fetcher.callOrder())
}

func TestPauseDiscardsInflightResult(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	id := m.QueueItem(ItemRequest{ItemID: "100"})
	waitStatus(t, m, id, domain.StatusDownloading)

	require.True(t, m.Pause(id))
	d, _ := m.Get(id)
	assert.Equal(t, domain.StatusPaused, d.Status)

	// The fetch resolves after the pause; its result must be discarded.
	fetcher.release(1)
	time.Sleep(50 * time.Millisecond)
	d, _ = m.Get(id)
	assert.Equal(t, domain.StatusPaused, d.Status)

	require.True(t, m.Resume(id))
	fetcher.release(1)
	waitStatus(t, m, id, domain.StatusComplete)
}

func TestPauseOnlyFromDownloading(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	first := m.QueueItem(ItemRequest{ItemID: "1"})
	second := m.QueueItem(ItemRequest{ItemID: "2"})

	waitStatus(t, m, first, domain.StatusDownloading)

	// Second is still pending; pausing it is rejected.
	assert.False(t, m.Pause(second))
	assert.False(t, m.Resume(second))
	assert.False(t, m.Pause("nope"))

	fetcher.release(2)
	waitStatus(t, m, second, domain.StatusComplete)
}

func TestPauseFreesSlotForNextPending(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	first := m.QueueItem(ItemRequest{ItemID: "1"})
	second := m.QueueItem(ItemRequest{ItemID: "2"})

	waitStatus(t, m, first, domain.StatusDownloading)
	require.True(t, m.Pause(first))

	// The freed slot admits the second request.
	waitStatus(t, m, second, domain.StatusDownloading)

	fetcher.release(2)
	waitStatus(t, m, second, domain.StatusComplete)
}

func TestCancelPending(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	first := m.QueueItem(ItemRequest{ItemID: "1"})
	second := m.QueueItem(ItemRequest{ItemID: "2"})

	waitStatus(t, m, first, domain.StatusDownloading)
	require.True(t, m.Cancel(second))

	d, _ := m.Get(second)
	assert.Equal(t, domain.StatusCancelled, d.Status)
	assert.False(t, d.EndedAt.IsZero())

	fetcher.release(1)
	waitStatus(t, m, first, domain.StatusComplete)
	assert.Equal(t, []string{"1"}, fetcher.callOrder())
}

func TestCancelInflightDiscardsResult(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher})

	id := m.QueueItem(ItemRequest{ItemID: "100"})
	waitStatus(t, m, id, domain.StatusDownloading)

	require.True(t, m.Cancel(id))
	fetcher.release(1)

	time.Sleep(50 * time.Millisecond)
	d, _ := m.Get(id)
	assert.Equal(t, domain.StatusCancelled, d.Status)
}

func TestCancelUnknownID(t *testing.T) {
	m := newTestManager(t, Config{Fetcher: &fakeFetcher{}})
	assert.False(t, m.Cancel("missing"))
}

func TestRetryFailedDownload(t *testing.T) {
	fetcher := &fakeFetcher{failOnce: map[string]bool{"100": true}}
	m := newTestManager(t, Config{Fetcher: fetcher})

	id := m.QueueItem(ItemRequest{ItemID: "100"})

	d := waitStatus(t, m, id, domain.StatusFailed)
	assert.NotEmpty(t, d.Error)

	require.True(t, m.Retry(id))
	d = waitStatus(t, m, id, domain.StatusComplete)
	assert.Empty(t, d.Error)
	assert.Equal(t, 100, d.Progress)
}

func TestRetryOnlyTerminalFailures(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher})

	id := m.QueueItem(ItemRequest{ItemID: "100"})
	waitStatus(t, m, id, domain.StatusDownloading)

	assert.False(t, m.Retry(id))

	m.Cancel(id)
	assert.True(t, m.Retry(id))
	fetcher.release(2) // stale fetch plus the retried one
	waitStatus(t, m, id, domain.StatusComplete)
}

func TestClearFinished(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 2})

	done := m.QueueItem(ItemRequest{ItemID: "1"})
	running := m.QueueItem(ItemRequest{ItemID: "2"})

	fetcher.release(1)
	waitStatus(t, m, done, domain.StatusComplete)
	waitStatus(t, m, running, domain.StatusDownloading)

	assert.Equal(t, 1, m.ClearFinished())

	_, ok := m.Get(done)
	assert.False(t, ok)
	_, ok = m.Get(running)
	assert.True(t, ok)

	fetcher.release(1)
	waitStatus(t, m, running, domain.StatusComplete)
}

func TestCleanupOlderThan(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := newTestManager(t, Config{Fetcher: fetcher})

	id := m.QueueItem(ItemRequest{ItemID: "1"})
	waitStatus(t, m, id, domain.StatusComplete)

	// Fresh entries survive a long threshold.
	assert.Equal(t, 0, m.CleanupOlderThan(time.Hour))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, m.CleanupOlderThan(10*time.Millisecond))
	_, ok := m.Get(id)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 2})

	a := m.QueueItem(ItemRequest{ItemID: "1"})
	b := m.QueueItem(ItemRequest{ItemID: "2"})
	c := m.QueueItem(ItemRequest{ItemID: "3"})

	waitStatus(t, m, a, domain.StatusDownloading)
	waitStatus(t, m, b, domain.StatusDownloading)
	m.Pause(a)
	m.Cancel(c)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Paused)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 3, stats.Total)

	fetcher.release(2) // stale fetch for a, live fetch for b
	waitStatus(t, m, b, domain.StatusComplete)
	assert.Equal(t, 1, m.Stats().Completed)
}

func TestListEnqueueOrder(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, MaxConcurrent: 1})

	var want []string
	for _, itemID := range []string{"1", "2", "3"} {
		want = append(want, m.QueueItem(ItemRequest{ItemID: itemID}))
	}

	list := m.List()
	require.Len(t, list, 3)
	for i, d := range list {
		assert.Equal(t, want[i], d.ID)
	}

	fetcher.release(3)
}

func TestSubscribeReceivesLifecycleEvents(t *testing.T) {
	fetcher := &fakeFetcher{}
	m := newTestManager(t, Config{Fetcher: fetcher})

	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	id := m.QueueItem(ItemRequest{ItemID: "100"})

	var sawAdded, sawComplete bool
	deadline := time.After(2 * time.Second)
	for !sawAdded || !sawComplete {
		select {
		case ev := <-events:
			if ev.Download == nil || ev.Download.ID != id {
				continue
			}
			switch {
			case ev.Kind == EventAdded:
				sawAdded = true
			case ev.Kind == EventUpdated && ev.Download.Status == domain.StatusComplete:
				sawComplete = true
			}
		case <-deadline:
			t.Fatalf("missing events: added=%v complete=%v", sawAdded, sawComplete)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m := newTestManager(t, Config{Fetcher: &fakeFetcher{}})

	events, unsubscribe := m.Subscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)
}

func TestSimulatedProgressAdvances(t *testing.T) {
	fetcher := newGatedFetcher()
	m := newTestManager(t, Config{Fetcher: fetcher, ProgressInterval: 5 * time.Millisecond})

	id := m.QueueItem(ItemRequest{ItemID: "100", SizeBytes: 1024 * 1024})

	require.Eventually(t, func() bool {
		d, _ := m.Get(id)
		return d.Status == domain.StatusDownloading && d.Progress > 0
	}, 2*time.Second, 5*time.Millisecond)

	// The simulation never claims completion on its own.
	require.Eventually(t, func() bool {
		d, _ := m.Get(id)
		return d.Progress == 95
	}, 2*time.Second, 5*time.Millisecond)

	d, _ := m.Get(id)
	assert.Equal(t, domain.StatusDownloading, d.Status)
	assert.Greater(t, d.DownloadedBytes, int64(0))

	fetcher.release(1)
	d = waitStatus(t, m, id, domain.StatusComplete)
	assert.Equal(t, 100, d.Progress)
}

func TestInstanceNotificationForSingleItem(t *testing.T) {
	fetcher := &fakeFetcher{}
	installer := &fakeInstaller{}
	m := newTestManager(t, Config{Fetcher: fetcher, Installer: installer})

	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.QueueItem(ItemRequest{ItemID: "100", TargetInstanceID: "inst-1"})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind != EventInstanceComplete {
				continue
			}
			require.NotNil(t, ev.Instance)
			assert.Equal(t, "inst-1", ev.Instance.InstanceID)
			assert.True(t, ev.Instance.Succeeded)
			return
		case <-deadline:
			t.Fatal("no instance notification")
		}
	}
}
