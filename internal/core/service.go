// Package core wires the application together: configuration, the Workshop
// catalog client, SteamCMD, instance storage, and the download queue.
package core

import (
	"context"
	"fmt"
	"path/filepath"

	"wmm/internal/domain"
	"wmm/internal/queue"
	"wmm/internal/source/workshop"
	"wmm/internal/steamcmd"
	"wmm/internal/storage/config"
	"wmm/internal/storage/db"

	"github.com/rs/zerolog"
)

// ServiceConfig locates the directories a Service operates in.
type ServiceConfig struct {
	ConfigDir string
	DataDir   string
	Logger    zerolog.Logger
}

// Service is the application facade used by the CLI and the TUI.
type Service struct {
	cfg       *config.Config
	database  *db.DB
	instances *config.InstanceStore
	catalog   *workshop.Client
	steam     *steamcmd.Client
	installer *Installer
	queue     *queue.Manager
	log       zerolog.Logger

	stopPump func()
}

// NewService loads configuration and constructs the full service graph.
func NewService(sc ServiceConfig) (*Service, error) {
	cfg, err := config.Load(sc.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(filepath.Join(sc.DataDir, "wmm.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	instancesDir := cfg.InstancesDir
	if instancesDir == "" {
		instancesDir = filepath.Join(sc.DataDir, "instances")
	}
	instances := config.NewInstanceStore(instancesDir)

	steamDir := cfg.SteamCmdDir
	if steamDir == "" {
		steamDir = filepath.Join(sc.DataDir, "steamcmd")
	}
	steam := steamcmd.NewClient(steamDir, cfg.AppID, sc.Logger)

	installer := NewInstaller(steam, instances, sc.Logger)

	mgr := queue.New(queue.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		FetchTimeout:  cfg.FetchTimeout,
		Fetcher:       steam,
		Installer:     installer,
		Logger:        sc.Logger,
	})

	s := &Service{
		cfg:       cfg,
		database:  database,
		instances: instances,
		catalog:   workshop.NewClient(nil),
		steam:     steam,
		installer: installer,
		queue:     mgr,
		log:       sc.Logger,
	}
	s.startHistoryPump()
	return s, nil
}

// startHistoryPump records terminal downloads into the history table as they
// resolve.
func (s *Service) startHistoryPump() {
	events, unsubscribe := s.queue.Subscribe()
	s.stopPump = unsubscribe

	go func() {
		for ev := range events {
			if ev.Kind != queue.EventUpdated || ev.Download == nil {
				continue
			}
			if !ev.Download.Status.Terminal() {
				continue
			}
			if err := s.database.RecordDownload(ev.Download); err != nil {
				s.log.Error().Str("id", ev.Download.ID).Err(err).Msg("recording download history")
			}
		}
	}()
}

// Close releases the service's resources.
func (s *Service) Close() error {
	if s.stopPump != nil {
		s.stopPump()
	}
	return s.database.Close()
}

// Config returns the loaded application settings.
func (s *Service) Config() *config.Config { return s.cfg }

// Queue returns the download manager.
func (s *Service) Queue() *queue.Manager { return s.queue }

// Instances returns the instance store.
func (s *Service) Instances() *config.InstanceStore { return s.instances }

// Catalog returns the Workshop catalog client.
func (s *Service) Catalog() *workshop.Client { return s.catalog }

// SteamCmd returns the SteamCMD client.
func (s *Service) SteamCmd() *steamcmd.Client { return s.steam }

// DB returns the history database.
func (s *Service) DB() *db.DB { return s.database }

// QueueWorkshopItem resolves an item's catalog metadata (cache first, then the
// Web API) and queues its download. Metadata failures degrade to a minimally
// labelled request rather than blocking the download.
func (s *Service) QueueWorkshopItem(ctx context.Context, itemID, targetInstanceID string) (string, error) {
	if itemID == "" {
		return "", domain.ErrMissingItemID
	}

	detail, err := s.database.GetItem(itemID)
	if err != nil {
		detail, err = s.catalog.GetItemDetails(ctx, itemID)
		if err != nil {
			s.log.Warn().Str("item", itemID).Err(err).Msg("catalog lookup failed, queueing without metadata")
			detail = nil
		} else if err := s.database.SaveItem(detail); err != nil {
			s.log.Warn().Str("item", itemID).Err(err).Msg("caching item metadata")
		}
	}

	req := queue.ItemRequest{
		ItemID:           itemID,
		TargetInstanceID: targetInstanceID,
	}
	if detail != nil {
		req.Name = detail.Name
		req.SizeBytes = detail.SizeBytes
		req.Metadata = map[string]any{
			"item_id":       itemID,
			"title":         detail.Name,
			"author":        detail.Author,
			"tags":          detail.Tags,
			"thumbnail_url": detail.ThumbnailURL,
		}
	}
	return s.queue.QueueItem(req), nil
}

// QueueWorkshopCollection resolves a collection and queues it as one request
// that expands into per-item downloads. When a target instance is given it is
// marked Downloading until the queue finalizes it.
func (s *Service) QueueWorkshopCollection(ctx context.Context, collectionID, targetInstanceID string) (string, error) {
	col, err := s.catalog.ParseCollection(ctx, collectionID, true)
	if err != nil {
		return "", fmt.Errorf("resolving collection %s: %w", collectionID, err)
	}

	for i := range col.Details {
		if err := s.database.SaveItem(&col.Details[i]); err != nil {
			s.log.Warn().Str("item", col.Details[i].ID).Err(err).Msg("caching item metadata")
		}
	}

	if targetInstanceID != "" {
		if _, err := s.instances.Update(targetInstanceID, func(inst *domain.Instance) {
			inst.Status = domain.InstanceDownloading
		}); err != nil {
			return "", fmt.Errorf("marking instance downloading: %w", err)
		}
	}

	return s.queue.QueueCollection(col, targetInstanceID)
}
