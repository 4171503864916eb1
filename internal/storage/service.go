package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FetchRecord is one download of a raw resource.
type FetchRecord struct {
	ID        int       `json:"id"`
	Kind      string    `json:"kind"`
	SourceURL string    `json:"source_url"`
	Bytes     int64     `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// QueryRecord is one served bot query.
type QueryRecord struct {
	ID          int       `json:"id"`
	Session     string    `json:"session"`
	Command     string    `json:"command"`
	Thing       string    `json:"thing"`
	ThingType   string    `json:"thing_type"`
	Rank        string    `json:"rank,omitempty"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service records resource fetches and served queries.
type Service struct {
	db *DB
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{db: db}
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// RecordFetch stores a resource download.
func (s *Service) RecordFetch(ctx context.Context, rec *FetchRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}

	query := `
		INSERT INTO resource_fetches (kind, source_url, bytes, fetched_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.Conn().ExecContext(ctx, query,
		rec.Kind,
		rec.SourceURL,
		rec.Bytes,
		rec.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch of %s: %w", rec.Kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = int(id)
	return nil
}

// LatestFetches returns the most recent fetch of every resource kind, ordered by kind.
func (s *Service) LatestFetches(ctx context.Context) ([]*FetchRecord, error) {
	query := `
		SELECT f.id, f.kind, f.source_url, f.bytes, f.fetched_at
		FROM resource_fetches f
		WHERE f.id = (
			SELECT f2.id FROM resource_fetches f2
			WHERE f2.kind = f.kind
			ORDER BY f2.fetched_at DESC, f2.id DESC
			LIMIT 1
		)
		ORDER BY f.kind
	`
	rows, err := s.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*FetchRecord
	for rows.Next() {
		rec := &FetchRecord{}
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.SourceURL, &rec.Bytes, &rec.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordQuery stores a served query.
func (s *Service) RecordQuery(ctx context.Context, rec *QueryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO query_log (session, command, thing, thing_type, rank, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.Conn().ExecContext(ctx, query,
		rec.Session,
		rec.Command,
		rec.Thing,
		rec.ThingType,
		rec.Rank,
		rec.ResultCount,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = int(id)
	return nil
}

// RecentQueries returns up to limit queries, newest first.
func (s *Service) RecentQueries(ctx context.Context, limit int) ([]*QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session, command, thing, thing_type, rank, result_count, created_at
		FROM query_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.Conn().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*QueryRecord
	for rows.Next() {
		rec := &QueryRecord{}
		var session, thing, rank sql.NullString
		if err := rows.Scan(&rec.ID, &session, &rec.Command, &thing, &rec.ThingType, &rank, &rec.ResultCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		rec.Session = session.String
		rec.Thing = thing.String
		rec.Rank = rank.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneQueries deletes query log entries older than the cutoff and returns
// the number of deleted rows.
func (s *Service) PruneQueries(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.Conn().ExecContext(ctx, `DELETE FROM query_log WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune query log: %w", err)
	}
	return result.RowsAffected()
}
