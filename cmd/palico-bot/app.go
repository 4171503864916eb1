package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ramonehamilton/palico-bot/internal/config"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
	"github.com/ramonehamilton/palico-bot/internal/mhw/mhwdb"
	"github.com/ramonehamilton/palico-bot/internal/mhw/rawstore"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

// app holds the wired data stack shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	storage   *storage.Service // nil when storage.path is empty
	raw       *rawstore.Store
	cache     *armor.Cache
	catalog   *catalog.Service
	resources []mhw.ResourceKind
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	resources, err := parseResources(cfg.Data.Resources)
	if err != nil {
		return nil, err
	}
	a.resources = resources

	duplicates, err := armor.ParseDuplicatePolicy(cfg.Data.Duplicates)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.GetFetchTimeout()
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Path != "" {
		if err := a.openStorage(); err != nil {
			return nil, err
		}
	}

	client := mhwdb.NewClient(mhwdb.Options{
		BaseURL:           cfg.Fetch.BaseURL,
		Timeout:           timeout,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	})

	rawOpts := rawstore.Options{
		Dir:         cfg.Data.Dir,
		Fetcher:     client,
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      logger,
	}
	if a.storage != nil {
		rawOpts.Recorder = a.storage
	}
	a.raw, err = rawstore.New(rawOpts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache, err = armor.NewCache(armor.CacheOptions{
		Dir:        cfg.Data.Dir,
		Source:     a.raw,
		Duplicates: duplicates,
		Logger:     logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.catalog, err = catalog.NewService(catalog.Options{
		Raw:       a.raw,
		Resources: resources,
		Armor:     a.cache,
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) openStorage() error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	dbCfg := storage.DefaultConfig(a.cfg.Storage.Path)
	dbCfg.AutoMigrate = true
	dbCfg.Logger = a.logger
	db, err := storage.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.storage = storage.NewService(db)
	return nil
}

// Close releases the storage handle.
func (a *app) Close() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
	a.storage = nil
}

func parseResources(names []string) ([]mhw.ResourceKind, error) {
	out := make([]mhw.ResourceKind, 0, len(names))
	for _, n := range names {
		kind, err := mhw.ParseResourceKind(n)
		if err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}
