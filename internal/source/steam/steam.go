// Package steam locates the local Steam client's game libraries by parsing
// its VDF metadata, so wmm can tell whether the base game is installed.
package steam

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GameInstall is a Steam game found in a local library.
type GameInstall struct {
	AppID       string // Steam App ID
	Name        string // Display name from the app manifest
	InstallPath string // Absolute path to the game install under steamapps/common
}

// FindSteamRoots returns candidate Steam installation roots in search order.
func FindSteamRoots() []string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
	}
	if p := os.Getenv("STEAM_ROOT"); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	var out []string
	for _, p := range candidates {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GetLibraryPaths returns all Steam library paths from a Steam root (reading libraryfolders.vdf).
func GetLibraryPaths(steamRoot string) ([]string, error) {
	vdfPath := filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf")
	data, err := os.ReadFile(vdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Single library: the steam root itself is the library
			return []string{steamRoot}, nil
		}
		return nil, fmt.Errorf("reading libraryfolders: %w", err)
	}
	root, err := ParseVDF(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing libraryfolders: %w", err)
	}
	paths := getLibraryPaths(root)
	if len(paths) == 0 {
		return []string{steamRoot}, nil
	}
	return paths, nil
}

// FindGameInstall scans the local Steam libraries for the given app and
// returns its install, or nil when the game is not installed locally.
func FindGameInstall(appID string) (*GameInstall, error) {
	for _, steamRoot := range FindSteamRoots() {
		libraries, err := GetLibraryPaths(steamRoot)
		if err != nil {
			continue
		}
		for _, libPath := range libraries {
			steamapps := filepath.Join(libPath, "steamapps")
			data, err := os.ReadFile(filepath.Join(steamapps, "appmanifest_"+appID+".acf"))
			if err != nil {
				continue
			}
			manifest, err := ParseAppManifest(string(data))
			if err != nil || manifest.InstallDir == "" {
				continue
			}
			installPath := filepath.Join(steamapps, "common", manifest.InstallDir)
			if _, err := os.Stat(installPath); err != nil {
				continue
			}
			return &GameInstall{
				AppID:       appID,
				Name:        manifest.Name,
				InstallPath: installPath,
			}, nil
		}
	}
	return nil, nil
}
