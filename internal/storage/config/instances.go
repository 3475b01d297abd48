package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"wmm/internal/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const instanceFile = "instance.yaml"

// InstanceStore persists game instances as one directory per instance with a
// YAML metadata file, under a common instances directory.
type InstanceStore struct {
	dir string
}

// NewInstanceStore creates an instance store rooted at dir
func NewInstanceStore(dir string) *InstanceStore {
	return &InstanceStore{dir: dir}
}

// Dir returns the instances root directory
func (s *InstanceStore) Dir() string {
	return s.dir
}

// Create makes a new instance: generated id, metadata file, and the game
// file tree including the mods directory.
func (s *InstanceStore) Create(name, description string) (*domain.Instance, error) {
	id := uuid.NewString()
	now := time.Now()

	inst := &domain.Instance{
		ID:          id,
		Name:        name,
		Description: description,
		Path:        filepath.Join(s.dir, id),
		Status:      domain.InstanceReady,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := os.MkdirAll(s.modsDirFor(inst), 0755); err != nil {
		return nil, fmt.Errorf("creating instance tree: %w", err)
	}
	if err := s.Save(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Get loads an instance by id
func (s *InstanceStore) Get(id string) (*domain.Instance, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id, instanceFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("reading instance: %w", err)
	}

	var inst domain.Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parsing instance: %w", err)
	}
	return &inst, nil
}

// List returns all instances, skipping entries that cannot be loaded
func (s *InstanceStore) List() ([]*domain.Instance, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing instances: %w", err)
	}

	instances := make([]*domain.Instance, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		inst, err := s.Get(e.Name())
		if err != nil {
			continue // Skip instances that can't be loaded
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Save writes an instance's metadata file
func (s *InstanceStore) Save(inst *domain.Instance) error {
	inst.UpdatedAt = time.Now()

	data, err := yaml.Marshal(inst)
	if err != nil {
		return fmt.Errorf("marshaling instance: %w", err)
	}

	dir := filepath.Join(s.dir, inst.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating instance dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, instanceFile), data, 0644); err != nil {
		return fmt.Errorf("writing instance: %w", err)
	}
	return nil
}

// Update applies fn to a loaded instance and saves the result
func (s *InstanceStore) Update(id string, fn func(*domain.Instance)) (*domain.Instance, error) {
	inst, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	fn(inst)
	if err := s.Save(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Delete removes an instance's metadata and, when removeFiles is set, its
// whole file tree.
func (s *InstanceStore) Delete(id string, removeFiles bool) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if removeFiles {
		if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
			return fmt.Errorf("removing instance files: %w", err)
		}
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, id, instanceFile)); err != nil {
		return fmt.Errorf("removing instance metadata: %w", err)
	}
	return nil
}

// InstancePath returns the root directory of an instance's file tree
func (s *InstanceStore) InstancePath(id string) (string, error) {
	inst, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return inst.Path, nil
}

// ModsDir returns the directory mods are installed into for an instance
func (s *InstanceStore) ModsDir(id string) (string, error) {
	inst, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return s.modsDirFor(inst), nil
}

func (s *InstanceStore) modsDirFor(inst *domain.Instance) string {
	return filepath.Join(inst.Path, "Zomboid", "mods")
}

// ModsSize returns the total on-disk size of an instance's installed mods
func (s *InstanceStore) ModsSize(id string) (int64, error) {
	modsDir, err := s.ModsDir(id)
	if err != nil {
		return 0, err
	}

	var totalSize int64
	err = filepath.WalkDir(modsDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("calculating mods size: %w", err)
	}
	return totalSize, nil
}
