package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusComplete, StatusFailed, StatusCancelled}
	open := []Status{StatusPending, StatusDownloading, StatusPaused}

	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s", s)
	}
	for _, s := range open {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestDownloadClone(t *testing.T) {
	d := &Download{
		ID:       "dl-1",
		ItemIDs:  []string{"1", "2"},
		ChildIDs: []string{"c1"},
		Metadata: map[string]any{"title": "x"},
	}

	c := d.Clone()
	c.ItemIDs[0] = "changed"
	c.ChildIDs[0] = "changed"
	c.Metadata["title"] = "changed"

	assert.Equal(t, "1", d.ItemIDs[0])
	assert.Equal(t, "c1", d.ChildIDs[0])
	assert.Equal(t, "x", d.Metadata["title"])
}

func TestDownloadSnapshotStripsLinkage(t *testing.T) {
	d := &Download{ID: "dl-1", ParentID: "p", ChildIDs: []string{"c1", "c2"}}

	s := d.Snapshot()
	assert.Nil(t, s.ChildIDs)
	assert.Equal(t, "p", s.ParentID, "the parent link stays visible")
	assert.Len(t, d.ChildIDs, 2, "the original is untouched")
}

func TestCollectionDetailFor(t *testing.T) {
	col := &Collection{
		Details: []ItemDetail{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}},
	}

	d, ok := col.DetailFor("2")
	assert.True(t, ok)
	assert.Equal(t, "B", d.Name)

	_, ok = col.DetailFor("3")
	assert.False(t, ok)
}

func TestInstanceFindInstalled(t *testing.T) {
	inst := &Instance{Installed: []InstalledItem{{ID: "100"}, {ID: "200"}}}

	assert.Equal(t, 1, inst.FindInstalled("200"))
	assert.Equal(t, -1, inst.FindInstalled("300"))
}
