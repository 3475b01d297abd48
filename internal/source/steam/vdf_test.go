package steam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVDF_LibraryFolders(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.steam/steam"
		"label"		""
	}
	"1"
	{
		"path"		"/mnt/games/steam"
		"label"		"Games"
	}
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	require.NotNil(t, root)
	lf, ok := root["libraryfolders"].(VDFMap)
	require.True(t, ok)
	// Keys in libraryfolders are "0", "1", ...; values are nested blocks with "path"
	for _, k := range []string{"0", "1"} {
		entry := lf[k]
		require.NotNil(t, entry, "lf[%q] is nil; keys in lf: %v", k, mapKeys(lf))
		m, ok := entry.(VDFMap)
		require.True(t, ok, "lf[%q] is %T", k, entry)
		if k == "0" {
			assert.Equal(t, "/home/user/.steam/steam", m["path"])
		} else {
			assert.Equal(t, "/mnt/games/steam", m["path"])
		}
	}
}

func mapKeys(m VDFMap) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestGetLibraryPaths(t *testing.T) {
	vdf := `
"libraryfolders"
{
	"0"
	{
		"path"		"/home/user/.steam/steam"
	}
	"1"
	{
		"path"		"/mnt/steam"
	}
}
`
	root, err := ParseVDF(strings.NewReader(vdf))
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/user/.steam/steam", "/mnt/steam"}, getLibraryPaths(root))
}

func TestParseAppManifest(t *testing.T) {
	acf := `
"AppState"
{
	"appid"		"108600"
	"name"		"Project Zomboid"
	"installdir"		"ProjectZomboid"
}
`
	m, err := ParseAppManifest(acf)
	require.NoError(t, err)
	assert.Equal(t, "108600", m.AppID)
	assert.Equal(t, "Project Zomboid", m.Name)
	assert.Equal(t, "ProjectZomboid", m.InstallDir)
}

func TestParseVDF_MalformedNoValue(t *testing.T) {
	// Single key with no value (would panic before bounds check)
	vdf := `"libraryfolders"`
	_, err := ParseVDF(strings.NewReader(vdf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected end after key")
}
