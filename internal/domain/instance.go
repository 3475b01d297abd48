package domain

import "time"

// InstanceStatus is the coarse state of a game instance
type InstanceStatus string

const (
	InstanceReady       InstanceStatus = "Ready"
	InstanceDownloading InstanceStatus = "Downloading"
	InstanceError       InstanceStatus = "Error"
)

// InstalledItem is one Workshop item installed into an instance
type InstalledItem struct {
	ID           string    `yaml:"id"`
	Name         string    `yaml:"name"`
	Author       string    `yaml:"author,omitempty"`
	Tags         []string  `yaml:"tags,omitempty"`
	ThumbnailURL string    `yaml:"thumbnail_url,omitempty"`
	SizeBytes    int64     `yaml:"size_bytes,omitempty"`
	InstalledAt  time.Time `yaml:"installed_at"`
}

// Instance is an isolated, named configuration and file tree of the game
// that mods are installed into.
type Instance struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Path        string          `yaml:"path"`
	Status      InstanceStatus  `yaml:"status"`
	ModsCount   int             `yaml:"mods_count"`
	Installed   []InstalledItem `yaml:"installed_mods"`
	// CollectionID records the collection this instance was created from, if any.
	CollectionID string    `yaml:"collection_id,omitempty"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// FindInstalled returns the index of the installed item with the given
// Workshop id, or -1.
func (i *Instance) FindInstalled(itemID string) int {
	for n, m := range i.Installed {
		if m.ID == itemID {
			return n
		}
	}
	return -1
}
