// Package catalog owns the loaded equipment data and answers bot queries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/armor"
	"github.com/ramonehamilton/palico-bot/internal/mhw/query"
)

// State is the initialization state of the service.
type State int

const (
	StateNotStarted State = iota
	StatePending
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ensurer makes sure raw resources are present on disk.
type Ensurer interface {
	EnsureAll(ctx context.Context, kinds []mhw.ResourceKind) ([]mhw.ResourceKind, error)
}

// Loader returns the aggregated armor sets.
type Loader interface {
	Load() (*armor.SetIndex, error)
}

// Options configures a Service.
type Options struct {
	// Raw ensures resources are downloaded before aggregation. Optional.
	Raw Ensurer

	// Resources lists the kinds Raw must provide. Default: mhw.AllResources.
	Resources []mhw.ResourceKind

	// Armor loads the aggregated sets.
	Armor Loader

	// SuggestLimit caps suggestions on empty results. Default: 3.
	SuggestLimit int

	Logger *slog.Logger
}

// Service holds the aggregated data behind a one-shot initialization barrier.
// Queries before Init has completed fail with mhw.ErrUninitialized.
type Service struct {
	raw          Ensurer
	resources    []mhw.ResourceKind
	armor        Loader
	suggestLimit int
	logger       *slog.Logger

	mu       sync.Mutex
	state    State
	done     chan struct{}
	initErr  error
	engine   *query.Engine
	loadedAt time.Time
}

// NewService creates an uninitialized service.
func NewService(opts Options) (*Service, error) {
	if opts.Armor == nil {
		return nil, fmt.Errorf("armor loader is required")
	}
	if opts.Resources == nil {
		opts.Resources = mhw.AllResources
	}
	if opts.SuggestLimit == 0 {
		opts.SuggestLimit = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		raw:          opts.Raw,
		resources:    opts.Resources,
		armor:        opts.Armor,
		suggestLimit: opts.SuggestLimit,
		logger:       opts.Logger,
		done:         make(chan struct{}),
	}, nil
}

// Init downloads missing resources and loads the aggregated sets. Only the
// first call does the work; concurrent callers wait for it and every caller
// gets its result. A failed initialization is not retried.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateFailed:
		err := s.initErr
		s.mu.Unlock()
		return err
	case StatePending:
		done := s.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.initErr
	}
	s.state = StatePending
	s.mu.Unlock()

	engine, err := s.load(ctx)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.initErr = err
	} else {
		s.state = StateReady
		s.engine = engine
		s.loadedAt = time.Now()
	}
	close(s.done)
	s.mu.Unlock()

	return err
}

func (s *Service) load(ctx context.Context) (*query.Engine, error) {
	if s.raw != nil {
		fetched, err := s.raw.EnsureAll(ctx, s.resources)
		if err != nil {
			return nil, fmt.Errorf("fetch resources: %w", err)
		}
		if len(fetched) > 0 {
			s.logger.Info("Downloaded missing resources", "kinds", fetched)
		}
	}

	idx, err := s.armor.Load()
	if err != nil {
		return nil, fmt.Errorf("load armor: %w", err)
	}

	return query.NewEngine(idx), nil
}

// Done returns a channel closed once initialization has finished.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Status describes the service for health reporting.
type Status struct {
	State    string    `json:"state"`
	Sets     int       `json:"sets"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Status returns the current state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{State: s.state.String(), LoadedAt: s.loadedAt}
	if s.engine != nil {
		st.Sets = s.engine.Len()
	}
	if s.initErr != nil {
		st.Error = s.initErr.Error()
	}
	return st
}

func (s *Service) ready() (*query.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil, mhw.ErrUninitialized
	}
	return s.engine, nil
}

// Kind classifies a Response.
type Kind string

const (
	// KindNone means the thing type was not recognized; nothing is shown.
	KindNone Kind = "none"
	// KindSets holds set results.
	KindSets Kind = "sets"
	// KindPieces holds piece results.
	KindPieces Kind = "pieces"
	// KindNoResults means a well-formed query matched nothing.
	KindNoResults Kind = "no_results"
	// KindUnsupported means the thing type is recognized but not served yet.
	KindUnsupported Kind = "unsupported"
)

// Response is the structured answer to a query.
type Response struct {
	Kind        Kind                `json:"kind"`
	Thing       string              `json:"thing"`
	ThingType   string              `json:"thing_type"`
	Rank        mhw.Rank            `json:"rank,omitempty"`
	Sets        []query.SetResult   `json:"sets,omitempty"`
	Pieces      []query.PieceResult `json:"pieces,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// Count returns the number of results in the response.
func (r Response) Count() int {
	return len(r.Sets) + len(r.Pieces)
}

// Resolve answers a query for thing of the given thing type: "set", an armor
// piece type or a weapon class. Unknown thing types resolve to KindNone.
func (s *Service) Resolve(thing, thingType string, rank mhw.Rank) (Response, error) {
	thingType = strings.ToLower(strings.TrimSpace(thingType))
	resp := Response{Thing: thing, ThingType: thingType, Rank: rank}

	// Weapon and unknown thing types never touch the aggregated data.
	switch {
	case mhw.IsWeaponType(thingType):
		resp.Kind = KindUnsupported
		return resp, nil
	case thingType != mhw.ThingSet && !isPiece(thingType):
		resp.Kind = KindNone
		return resp, nil
	}

	engine, err := s.ready()
	if err != nil {
		return Response{}, err
	}

	if thingType == mhw.ThingSet {
		sets, err := engine.FindSets(thing, rank)
		if err != nil {
			return s.noResults(engine, resp, err)
		}
		resp.Kind = KindSets
		resp.Sets = sets
		return resp, nil
	}

	pieces, err := engine.FindPieces(thing, mhw.PieceType(thingType), rank)
	if err != nil {
		return s.noResults(engine, resp, err)
	}
	resp.Kind = KindPieces
	resp.Pieces = pieces
	return resp, nil
}

func (s *Service) noResults(engine *query.Engine, resp Response, err error) (Response, error) {
	if !errors.Is(err, mhw.ErrNoResults) {
		return Response{}, err
	}
	resp.Kind = KindNoResults
	resp.Suggestions = engine.Suggest(resp.Thing, s.suggestLimit)
	return resp, nil
}

func isPiece(thingType string) bool {
	_, ok := mhw.ParsePieceType(thingType)
	return ok
}
