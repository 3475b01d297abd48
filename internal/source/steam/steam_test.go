package steam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGameInstall(t *testing.T) {
	root := t.TempDir()
	steamapps := filepath.Join(root, "steamapps")
	require.NoError(t, os.MkdirAll(filepath.Join(steamapps, "common", "ProjectZomboid"), 0755))

	manifest := `
"AppState"
{
	"appid"		"108600"
	"name"		"Project Zomboid"
	"installdir"		"ProjectZomboid"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "appmanifest_108600.acf"), []byte(manifest), 0644))

	t.Setenv("STEAM_ROOT", root)

	install, err := FindGameInstall("108600")
	require.NoError(t, err)
	require.NotNil(t, install)
	assert.Equal(t, "Project Zomboid", install.Name)
	assert.Equal(t, filepath.Join(steamapps, "common", "ProjectZomboid"), install.InstallPath)
}

func TestFindGameInstall_NotInstalled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "steamapps"), 0755))
	t.Setenv("STEAM_ROOT", root)

	install, err := FindGameInstall("999999")
	require.NoError(t, err)
	assert.Nil(t, install)
}

func TestGetLibraryPaths_MissingVDF(t *testing.T) {
	root := t.TempDir()

	// Without libraryfolders.vdf the root itself is the only library.
	paths, err := GetLibraryPaths(root)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, paths)
}
