package steamcmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"wmm/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub installs a shell script in place of the SteamCMD executable. It
// records its arguments and exits with the given code.
func writeStub(t *testing.T, c *Client, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	argsFile := filepath.Join(c.Dir, "args.txt")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.MkdirAll(c.Dir, 0755))
	require.NoError(t, os.WriteFile(c.Exe(), []byte(script), 0755))
	return argsFile
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(t.TempDir(), "108600", zerolog.Nop())
}

func TestInstalled(t *testing.T) {
	c := newTestClient(t)
	assert.False(t, c.Installed())

	writeStub(t, c, 0)
	assert.True(t, c.Installed())
}

func TestFetch_NotInstalled(t *testing.T) {
	c := newTestClient(t)

	err := c.Fetch(context.Background(), "100")
	assert.ErrorIs(t, err, domain.ErrSteamCmdMissing)
}

func TestFetch_InvokesWorkshopDownload(t *testing.T) {
	c := newTestClient(t)
	argsFile := writeStub(t, c, 0)

	require.NoError(t, c.Fetch(context.Background(), "2169435993"))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.TrimSpace(string(data))
	assert.Contains(t, args, "+login anonymous")
	assert.Contains(t, args, "+workshop_download_item 108600 2169435993")
	assert.Contains(t, args, "+quit")
}

func TestFetch_NonZeroExit(t *testing.T) {
	c := newTestClient(t)
	writeStub(t, c, 8)

	err := c.Fetch(context.Background(), "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steamcmd")
}

func TestItemPaths_ModsSubdirectory(t *testing.T) {
	c := newTestClient(t)

	itemDir := c.itemDir("100")
	require.NoError(t, os.MkdirAll(filepath.Join(itemDir, "mods", "ModA"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(itemDir, "mods", "ModB"), 0755))
	// Loose files next to the mod dirs are not artifacts.
	require.NoError(t, os.WriteFile(filepath.Join(itemDir, "mods", "readme.txt"), []byte("x"), 0644))

	paths, err := c.ItemPaths("100")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(itemDir, "mods", "ModA"),
		filepath.Join(itemDir, "mods", "ModB"),
	}, paths)
}

func TestItemPaths_RootModInfo(t *testing.T) {
	c := newTestClient(t)

	itemDir := c.itemDir("100")
	require.NoError(t, os.MkdirAll(itemDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(itemDir, "mod.info"), []byte("name=Flat"), 0644))

	paths, err := c.ItemPaths("100")
	require.NoError(t, err)
	assert.Equal(t, []string{itemDir}, paths)
}

func TestItemPaths_NothingRecognizable(t *testing.T) {
	c := newTestClient(t)

	itemDir := c.itemDir("100")
	require.NoError(t, os.MkdirAll(itemDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(itemDir, "random.txt"), []byte("x"), 0644))

	paths, err := c.ItemPaths("100")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestItemPaths_MissingItemDir(t *testing.T) {
	c := newTestClient(t)

	paths, err := c.ItemPaths("100")
	require.NoError(t, err)
	assert.Nil(t, paths)
}

func TestExe(t *testing.T) {
	c := NewClient("/opt/steamcmd", "108600", zerolog.Nop())
	if runtime.GOOS == "windows" {
		assert.Equal(t, filepath.Join("/opt/steamcmd", "steamcmd.exe"), c.Exe())
	} else {
		assert.Equal(t, filepath.Join("/opt/steamcmd", "steamcmd.sh"), c.Exe())
	}
}
