// Package rawstore mirrors upstream resources to raw JSON files on disk.
package rawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

// Fetcher downloads a raw resource.
type Fetcher interface {
	FetchResource(ctx context.Context, kind mhw.ResourceKind) ([]byte, error)
	ResourceURL(kind mhw.ResourceKind) string
}

// FetchRecorder keeps a manifest of downloads.
type FetchRecorder interface {
	RecordFetch(ctx context.Context, rec *storage.FetchRecord) error
}

// Store manages raw_<kind>.json files in one directory.
type Store struct {
	dir         string
	fetcher     Fetcher
	recorder    FetchRecorder
	concurrency int
	logger      *slog.Logger
}

// Options configures a Store.
type Options struct {
	// Dir holds the raw files.
	Dir string

	// Fetcher downloads missing resources. Optional for read-only use.
	Fetcher Fetcher

	// Recorder stores a manifest entry per download. Optional.
	Recorder FetchRecorder

	// Concurrency bounds parallel downloads. Default: 2.
	Concurrency int

	Logger *slog.Logger
}

// New creates a store.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("resource directory is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		dir:         opts.Dir,
		fetcher:     opts.Fetcher,
		recorder:    opts.Recorder,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}, nil
}

// Dir returns the resource directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the raw file path for a resource kind.
func (s *Store) Path(kind mhw.ResourceKind) string {
	return filepath.Join(s.dir, fmt.Sprintf("raw_%s.json", kind))
}

// Exists reports whether the raw file for kind is present.
func (s *Store) Exists(kind mhw.ResourceKind) bool {
	_, err := os.Stat(s.Path(kind))
	return err == nil
}

// Missing returns the kinds whose raw file is absent.
func (s *Store) Missing(kinds []mhw.ResourceKind) []mhw.ResourceKind {
	var out []mhw.ResourceKind
	for _, k := range kinds {
		if !s.Exists(k) {
			out = append(out, k)
		}
	}
	return out
}

// EnsureAll downloads every kind whose raw file is missing and leaves present
// files untouched. It returns the kinds that were downloaded.
func (s *Store) EnsureAll(ctx context.Context, kinds []mhw.ResourceKind) ([]mhw.ResourceKind, error) {
	missing := s.Missing(kinds)
	if len(missing) == 0 {
		s.logger.Debug("All raw resources present", "dir", s.dir)
		return nil, nil
	}

	if err := s.FetchAll(ctx, missing); err != nil {
		return nil, err
	}
	return missing, nil
}

// FetchAll downloads the given kinds, overwriting existing files.
func (s *Store) FetchAll(ctx context.Context, kinds []mhw.ResourceKind) error {
	if s.fetcher == nil {
		return fmt.Errorf("no fetcher configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			return s.Fetch(ctx, kind)
		})
	}

	return g.Wait()
}

// Fetch downloads one resource and writes it to its raw file.
func (s *Store) Fetch(ctx context.Context, kind mhw.ResourceKind) error {
	if s.fetcher == nil {
		return fmt.Errorf("no fetcher configured")
	}

	start := time.Now()
	s.logger.Info("Fetching resource", "kind", kind)

	data, err := s.fetcher.FetchResource(ctx, kind)
	if err != nil {
		return err
	}

	if err := s.Write(kind, data); err != nil {
		return err
	}

	s.logger.Info("Fetched resource",
		"kind", kind,
		"bytes", len(data),
		"duration", time.Since(start))

	if s.recorder != nil {
		rec := &storage.FetchRecord{
			Kind:      string(kind),
			SourceURL: s.fetcher.ResourceURL(kind),
			Bytes:     int64(len(data)),
			FetchedAt: time.Now(),
		}
		if err := s.recorder.RecordFetch(ctx, rec); err != nil {
			s.logger.Warn("Failed to record fetch", "kind", kind, "error", err)
		}
	}

	return nil
}

// Write stores data as the raw file for kind. JSON payloads are indented.
func (s *Store) Write(kind mhw.ResourceKind, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create resource directory: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "    "); err == nil {
		data = buf.Bytes()
	}

	path := s.Path(kind)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ReadFile returns the raw bytes for kind or a *mhw.MissingSourceError.
func (s *Store) ReadFile(kind mhw.ResourceKind) ([]byte, error) {
	path := s.Path(kind)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &mhw.MissingSourceError{Kind: kind, Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ArmorPieces decodes the raw armor resource.
func (s *Store) ArmorPieces() ([]mhw.PieceRecord, error) {
	data, err := s.ReadFile(mhw.ResourceArmor)
	if err != nil {
		return nil, err
	}

	var pieces []mhw.PieceRecord
	if err := json.Unmarshal(data, &pieces); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path(mhw.ResourceArmor), err)
	}
	return pieces, nil
}
