package armor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

// DerivedFileName is the name of the aggregated armor artifact.
const DerivedFileName = "parsed_armor.json"

// PieceSource supplies the raw armor piece list.
// It returns a *mhw.MissingSourceError when the raw resource is absent.
type PieceSource interface {
	ArmorPieces() ([]mhw.PieceRecord, error)
}

// Cache loads aggregated sets from the derived artifact, aggregating and
// writing the artifact first when it does not exist yet. The artifact is never
// rebuilt while present; deleting it is the only way to refresh.
type Cache struct {
	path       string
	source     PieceSource
	duplicates DuplicatePolicy
	logger     *slog.Logger
}

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Dir is the resource directory holding the artifact.
	Dir string

	// Source supplies raw pieces when the artifact is missing.
	Source PieceSource

	// Duplicates is passed to Aggregate.
	Duplicates DuplicatePolicy

	Logger *slog.Logger
}

// NewCache creates a cache over the given resource directory.
func NewCache(opts CacheOptions) (*Cache, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Cache{
		path:       filepath.Join(opts.Dir, DerivedFileName),
		source:     opts.Source,
		duplicates: opts.Duplicates,
		logger:     opts.Logger,
	}, nil
}

// Path returns the artifact path.
func (c *Cache) Path() string {
	return c.path
}

// Exists reports whether the artifact is present.
func (c *Cache) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// Load returns the aggregated sets.
func (c *Cache) Load() (*SetIndex, error) {
	if c.Exists() {
		idx, err := ReadFile(c.path)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Loaded aggregated armor sets", "path", c.path, "sets", idx.Len())
		return idx, nil
	}

	pieces, err := c.source.ArmorPieces()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	idx, err := Aggregate(pieces, AggregateOptions{Duplicates: c.duplicates, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("aggregate armor: %w", err)
	}

	if err := WriteFile(c.path, idx); err != nil {
		return nil, err
	}

	c.logger.Info("Aggregated armor sets",
		"pieces", len(pieces),
		"sets", idx.Len(),
		"path", c.path,
		"duration", time.Since(start))

	return idx, nil
}

// ReadFile decodes an artifact written by WriteFile.
func ReadFile(path string) (*SetIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	idx := NewSetIndex()
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return idx, nil
}

// WriteFile writes idx to path through a temporary file and a rename.
func WriteFile(path string, idx *SetIndex) error {
	data, err := json.MarshalIndent(idx, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal armor sets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create resource directory: %w", err)
	}

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
