package steamcmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const (
	linuxArchiveURL  = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd_linux.tar.gz"
	darwinArchiveURL = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd_osx.tar.gz"
)

// Install bootstraps SteamCMD: downloads the platform archive into Dir and
// extracts it. The tool updates itself on first run.
func (c *Client) Install(ctx context.Context) error {
	var archiveURL string
	switch runtime.GOOS {
	case "linux":
		archiveURL = linuxArchiveURL
	case "darwin":
		archiveURL = darwinArchiveURL
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating steamcmd dir: %w", err)
	}

	archivePath := filepath.Join(c.Dir, "steamcmd.tar.gz")
	c.log.Info().Str("url", archiveURL).Str("dir", c.Dir).Msg("installing steamcmd")

	if err := downloadFile(ctx, archiveURL, archivePath); err != nil {
		return fmt.Errorf("downloading steamcmd: %w", err)
	}
	defer os.Remove(archivePath)

	tar := exec.CommandContext(ctx, "tar", "-xzf", archivePath, "-C", c.Dir)
	if out, err := tar.CombinedOutput(); err != nil {
		return fmt.Errorf("extracting steamcmd: %w (%s)", err, out)
	}

	if err := os.Chmod(c.Exe(), 0755); err != nil {
		return fmt.Errorf("marking steamcmd executable: %w", err)
	}

	// First run lets the tool update itself; a non-zero exit is tolerated
	// as long as the executable survives.
	update := exec.CommandContext(ctx, c.Exe(), "+quit")
	if err := update.Run(); err != nil {
		c.log.Warn().Err(err).Msg("steamcmd self-update reported an error")
		if !c.Installed() {
			return fmt.Errorf("steamcmd executable missing after install: %w", err)
		}
	}
	return nil
}

// EnsureInstalled installs SteamCMD when missing
func (c *Client) EnsureInstalled(ctx context.Context) error {
	if c.Installed() {
		return nil
	}
	return c.Install(ctx)
}

// downloadFile fetches a URL to a local path
func downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	return nil
}
