package db

import (
	"path/filepath"
	"testing"
	"time"

	"wmm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	d, err := New(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// Reopening must not re-run applied migrations.
	d, err = New(path)
	require.NoError(t, err)
	defer d.Close()

	var version int
	require.NoError(t, d.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestRecordDownloadAndHistory(t *testing.T) {
	d := newTestDB(t)

	now := time.Now()
	dl := &domain.Download{
		ID:               "dl-1",
		Name:             "Brita's Weapon Pack",
		Kind:             domain.KindItem,
		Status:           domain.StatusComplete,
		ItemID:           "100",
		TargetInstanceID: "inst-1",
		SizeBytes:        2048,
		StartedAt:        now.Add(-time.Minute),
		EndedAt:          now,
	}
	require.NoError(t, d.RecordDownload(dl))

	entries, err := d.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "dl-1", e.ID)
	assert.Equal(t, domain.KindItem, e.Kind)
	assert.Equal(t, domain.StatusComplete, e.Status)
	assert.Equal(t, "inst-1", e.InstanceID)
	assert.Equal(t, int64(2048), e.SizeBytes)
}

func TestRecordDownload_UpsertKeepsOneRow(t *testing.T) {
	d := newTestDB(t)

	dl := &domain.Download{
		ID:        "dl-1",
		Name:      "Mod",
		Kind:      domain.KindItem,
		Status:    domain.StatusFailed,
		Error:     "steamcmd exited with status 8",
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
	}
	require.NoError(t, d.RecordDownload(dl))

	// A retry later succeeds; the same row is updated.
	dl.Status = domain.StatusComplete
	dl.Error = ""
	dl.EndedAt = time.Now().Add(time.Minute)
	require.NoError(t, d.RecordDownload(dl))

	entries, err := d.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusComplete, entries[0].Status)
	assert.Empty(t, entries[0].Error)
}

func TestHistoryOrderAndLimit(t *testing.T) {
	d := newTestDB(t)

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, d.RecordDownload(&domain.Download{
			ID:        id,
			Name:      id,
			Kind:      domain.KindItem,
			Status:    domain.StatusComplete,
			StartedAt: base,
			EndedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	entries, err := d.History(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].ID)
	assert.Equal(t, "mid", entries[1].ID)
}

func TestPruneHistory(t *testing.T) {
	d := newTestDB(t)

	now := time.Now()
	require.NoError(t, d.RecordDownload(&domain.Download{
		ID: "ancient", Name: "a", Kind: domain.KindItem, Status: domain.StatusComplete,
		StartedAt: now.Add(-100 * 24 * time.Hour), EndedAt: now.Add(-100 * 24 * time.Hour),
	}))
	require.NoError(t, d.RecordDownload(&domain.Download{
		ID: "recent", Name: "r", Kind: domain.KindItem, Status: domain.StatusComplete,
		StartedAt: now, EndedAt: now,
	}))

	n, err := d.PruneHistory(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := d.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recent", entries[0].ID)
}

func TestSaveAndGetItem(t *testing.T) {
	d := newTestDB(t)

	item := &domain.ItemDetail{
		ID:           "100",
		Name:         "Brita's Weapon Pack",
		Author:       "Brita",
		Description:  "guns",
		Tags:         []string{"weapons", "firearms"},
		ThumbnailURL: "https://example.com/t.png",
		SizeBytes:    4096,
	}
	require.NoError(t, d.SaveItem(item))

	got, err := d.GetItem("100")
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.Author, got.Author)
	assert.Equal(t, []string{"weapons", "firearms"}, got.Tags)
	assert.Equal(t, int64(4096), got.SizeBytes)
}

func TestSaveItem_UpsertRefreshes(t *testing.T) {
	d := newTestDB(t)

	require.NoError(t, d.SaveItem(&domain.ItemDetail{ID: "100", Name: "Old Name"}))
	require.NoError(t, d.SaveItem(&domain.ItemDetail{ID: "100", Name: "New Name", SizeBytes: 1}))

	got, err := d.GetItem("100")
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, int64(1), got.SizeBytes)
}

func TestGetItem_Missing(t *testing.T) {
	d := newTestDB(t)

	_, err := d.GetItem("404")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}
