package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wmm/internal/domain"
	"wmm/internal/storage/config"

	"github.com/rs/zerolog"
)

// ArtifactLocator resolves the on-disk directories a fetched Workshop item
// produced.
type ArtifactLocator interface {
	ItemPaths(itemID string) ([]string, error)
}

// Installer copies fetched Workshop artifacts into instance mod directories
// and keeps instance metadata in sync.
type Installer struct {
	locator   ArtifactLocator
	instances *config.InstanceStore
	log       zerolog.Logger
	notify    func(instanceID string) // optional instance-changed hook
}

// NewInstaller creates an installer
func NewInstaller(locator ArtifactLocator, instances *config.InstanceStore, logger zerolog.Logger) *Installer {
	return &Installer{
		locator:   locator,
		instances: instances,
		log:       logger,
	}
}

// SetNotify registers a callback invoked after an instance's metadata changes
func (i *Installer) SetNotify(fn func(instanceID string)) {
	i.notify = fn
}

// InstallItem installs a fetched item into an instance: every artifact
// directory is copied into the mods dir with overwrite semantics (existing
// same-named entries are removed first, so reinstalls are idempotent).
// Individual artifact failures are logged and skipped; the install succeeds
// when at least one artifact lands.
func (i *Installer) InstallItem(ctx context.Context, itemID, instanceID, name string, metadata map[string]any) (bool, error) {
	paths, err := i.locator.ItemPaths(itemID)
	if err != nil {
		return false, fmt.Errorf("locating artifacts for %s: %w", itemID, err)
	}
	if len(paths) == 0 {
		i.log.Warn().Str("item", itemID).Msg("no artifacts to install")
		return false, nil
	}

	modsDir, err := i.instances.ModsDir(instanceID)
	if err != nil {
		return false, fmt.Errorf("resolving mods dir: %w", err)
	}
	if err := os.MkdirAll(modsDir, 0755); err != nil {
		return false, fmt.Errorf("creating mods dir: %w", err)
	}

	installed := 0
	for _, src := range paths {
		select {
		case <-ctx.Done():
			return installed > 0, ctx.Err()
		default:
		}

		dst := filepath.Join(modsDir, filepath.Base(src))
		if _, err := os.Stat(dst); err == nil {
			if err := os.RemoveAll(dst); err != nil {
				i.log.Error().Str("path", dst).Err(err).Msg("removing previous install")
				continue
			}
		}
		if err := copyTree(src, dst); err != nil {
			i.log.Error().Str("src", src).Str("dst", dst).Err(err).Msg("copying artifact")
			continue
		}
		installed++
	}

	i.log.Info().Str("item", itemID).Str("instance", instanceID).
		Int("installed", installed).Int("artifacts", len(paths)).Msg("install finished")

	if installed == 0 {
		return false, nil
	}

	if err := i.recordInstall(instanceID, itemID, name, metadata); err != nil {
		// The files are in place; metadata failures are logged, not fatal.
		i.log.Error().Str("instance", instanceID).Err(err).Msg("updating instance metadata")
	}
	return true, nil
}

// recordInstall merges the item into the instance's installed list. An entry
// with the same id is replaced in place; the mod count grows only for
// genuinely new entries.
func (i *Installer) recordInstall(instanceID, itemID, name string, metadata map[string]any) error {
	item := installedItemFrom(itemID, name, metadata)

	_, err := i.instances.Update(instanceID, func(inst *domain.Instance) {
		if idx := inst.FindInstalled(itemID); idx >= 0 {
			item.InstalledAt = inst.Installed[idx].InstalledAt
			inst.Installed[idx] = item
		} else {
			inst.Installed = append(inst.Installed, item)
			inst.ModsCount++
		}
		// A collection keeps the instance in Downloading until finalization.
		if inst.Status != domain.InstanceDownloading {
			inst.Status = domain.InstanceReady
		}
	})
	if err != nil {
		return err
	}

	if i.notify != nil {
		i.notify(instanceID)
	}
	return nil
}

// FinalizeInstance records the aggregate outcome of an instance's downloads
func (i *Installer) FinalizeInstance(ctx context.Context, instanceID string, succeeded bool, collectionID string) error {
	_, err := i.instances.Update(instanceID, func(inst *domain.Instance) {
		if succeeded {
			inst.Status = domain.InstanceReady
		} else {
			inst.Status = domain.InstanceError
		}
		if collectionID != "" {
			inst.CollectionID = collectionID
		}
		inst.ModsCount = len(inst.Installed)
	})
	if err != nil {
		return fmt.Errorf("finalizing instance %s: %w", instanceID, err)
	}

	if i.notify != nil {
		i.notify(instanceID)
	}
	return nil
}

func installedItemFrom(itemID, name string, metadata map[string]any) domain.InstalledItem {
	item := domain.InstalledItem{
		ID:          itemID,
		Name:        name,
		InstalledAt: time.Now(),
	}
	if metadata == nil {
		return item
	}
	if title, ok := metadata["title"].(string); ok && title != "" {
		item.Name = title
	}
	if author, ok := metadata["author"].(string); ok {
		item.Author = author
	}
	if tags, ok := metadata["tags"].([]string); ok {
		item.Tags = tags
	}
	if thumb, ok := metadata["thumbnail_url"].(string); ok {
		item.ThumbnailURL = thumb
	}
	return item
}
