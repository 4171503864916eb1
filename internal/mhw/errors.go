package mhw

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSource is returned when a raw resource file is absent.
	ErrMissingSource = errors.New("raw resource missing")

	// ErrUninitialized is returned when a query arrives before the data is loaded.
	ErrUninitialized = errors.New("equipment data not initialized")

	// ErrNoResults is returned when a well-formed query matched nothing.
	ErrNoResults = errors.New("no results")
)

// MissingSourceError reports the raw resource that was absent.
type MissingSourceError struct {
	Kind ResourceKind
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("%s does not exist yet (resource %s)", e.Path, e.Kind)
}

func (e *MissingSourceError) Unwrap() error { return ErrMissingSource }

// NoResultsError carries the query that matched nothing.
type NoResultsError struct {
	Query string
	Piece PieceType
	Rank  Rank
}

func (e *NoResultsError) Error() string {
	if e.Piece != "" {
		return fmt.Sprintf("no results for %s %s", e.Query, e.Piece)
	}
	return fmt.Sprintf("no results for %q", e.Query)
}

func (e *NoResultsError) Unwrap() error { return ErrNoResults }

// IsNoResults returns true if err signals an empty result set.
func IsNoResults(err error) bool {
	return errors.Is(err, ErrNoResults)
}
