package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wmm/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		ConfigDir: t.TempDir(),
		DataDir:   t.TempDir(),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewService_Defaults(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, "108600", svc.Config().AppID)
	assert.NotNil(t, svc.Queue())
	assert.NotNil(t, svc.Catalog())
	assert.False(t, svc.SteamCmd().Installed())

	// The database file landed in the data dir.
	_, err := os.Stat(filepath.Join(filepath.Dir(svc.Instances().Dir()), "wmm.db"))
	assert.NoError(t, err)
}

func TestQueueWorkshopItem_UsesCachedMetadata(t *testing.T) {
	svc := newTestService(t)

	// Pre-cache the item so no catalog call is needed.
	require.NoError(t, svc.DB().SaveItem(&domain.ItemDetail{
		ID:        "100",
		Name:      "Cached Mod",
		SizeBytes: 2048,
	}))

	id, err := svc.QueueWorkshopItem(context.Background(), "100", "")
	require.NoError(t, err)

	d, ok := svc.Queue().Get(id)
	require.True(t, ok)
	assert.Equal(t, "Cached Mod", d.Name)
	assert.Equal(t, int64(2048), d.SizeBytes)

	// SteamCMD is absent, so the download resolves to failed and the
	// history pump records it.
	require.Eventually(t, func() bool {
		d, _ := svc.Queue().Get(id)
		return d != nil && d.Status == domain.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		entries, err := svc.DB().History(10)
		return err == nil && len(entries) == 1 && entries[0].ID == id
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueueWorkshopItem_EmptyID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.QueueWorkshopItem(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrMissingItemID)
}

func TestServiceInstanceLifecycle(t *testing.T) {
	svc := newTestService(t)

	inst, err := svc.Instances().Create("target", "test run")
	require.NoError(t, err)

	list, err := svc.Instances().List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inst.ID, list[0].ID)

	require.NoError(t, svc.Instances().Delete(inst.ID, true))
	list, err = svc.Instances().List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
