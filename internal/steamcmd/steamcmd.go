// Package steamcmd wraps the external SteamCMD tool used to fetch Workshop
// item payloads onto local disk.
package steamcmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"wmm/internal/domain"

	"github.com/rs/zerolog"
)

// Client invokes a SteamCMD installation rooted at Dir
type Client struct {
	Dir   string // SteamCMD install directory
	AppID string // Steam app whose Workshop items are fetched
	User  string // Steam login, "anonymous" by default

	log zerolog.Logger
}

// NewClient creates a SteamCMD client
func NewClient(dir, appID string, logger zerolog.Logger) *Client {
	return &Client{
		Dir:   dir,
		AppID: appID,
		User:  "anonymous",
		log:   logger,
	}
}

// Exe returns the platform-specific SteamCMD executable path
func (c *Client) Exe() string {
	name := "steamcmd.sh"
	if runtime.GOOS == "windows" {
		name = "steamcmd.exe"
	}
	return filepath.Join(c.Dir, name)
}

// Installed reports whether the SteamCMD executable is present
func (c *Client) Installed() bool {
	info, err := os.Stat(c.Exe())
	return err == nil && !info.IsDir()
}

// Fetch downloads one Workshop item into the SteamCMD content directory.
// The tool's own process lifetime is bounded by ctx.
func (c *Client) Fetch(ctx context.Context, itemID string) error {
	if !c.Installed() {
		return domain.ErrSteamCmdMissing
	}

	c.log.Info().Str("item", itemID).Str("app", c.AppID).Msg("fetching workshop item")

	cmd := exec.CommandContext(ctx, c.Exe(),
		"+@NoPromptForPassword", "1",
		"+login", c.User,
		"+workshop_download_item", c.AppID, itemID,
		"+quit",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.log.Error().Str("item", itemID).Err(err).Bytes("output", out).Msg("steamcmd failed")
		return fmt.Errorf("steamcmd: %w", err)
	}
	return nil
}

// itemDir is where SteamCMD stages a fetched item's payload
func (c *Client) itemDir(itemID string) string {
	return filepath.Join(c.Dir, "steamapps", "workshop", "content", c.AppID, itemID)
}

// ItemPaths returns the on-disk mod directories a fetched item produced:
// the entries of its mods/ subdirectory when present, the item root itself
// when it holds a mod.info, otherwise nothing.
func (c *Client) ItemPaths(itemID string) ([]string, error) {
	itemPath := c.itemDir(itemID)
	if _, err := os.Stat(itemPath); err != nil {
		if os.IsNotExist(err) {
			c.log.Warn().Str("item", itemID).Str("path", itemPath).Msg("workshop item directory not found")
			return nil, nil
		}
		return nil, fmt.Errorf("checking item directory: %w", err)
	}

	modsPath := filepath.Join(itemPath, "mods")
	if entries, err := os.ReadDir(modsPath); err == nil {
		var paths []string
		for _, e := range entries {
			if e.IsDir() {
				paths = append(paths, filepath.Join(modsPath, e.Name()))
			}
		}
		return paths, nil
	}

	if _, err := os.Stat(filepath.Join(itemPath, "mod.info")); err == nil {
		return []string{itemPath}, nil
	}

	c.log.Warn().Str("item", itemID).Msg("no mod folders found in workshop item")
	return nil, nil
}
