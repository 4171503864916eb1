// Package bot turns chat commands into catalog queries and renders the
// answers as Discord embeds.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ramonehamilton/palico-bot/internal/metrics"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

// Resolver answers thing queries.
type Resolver interface {
	Resolve(thing, thingType string, rank mhw.Rank) (catalog.Response, error)
	Status() catalog.Status
}

// QueryRecorder persists served queries.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, rec *storage.QueryRecord) error
}

// Options configures a Dispatcher.
type Options struct {
	Prefix    string
	Resolver  Resolver
	Recorder  QueryRecorder         // optional
	Metrics   *metrics.QueryMetrics // optional
	MaxEmbeds int
	Logger    *slog.Logger
}

// Dispatcher parses chat lines and produces replies.
type Dispatcher struct {
	prefix    string
	resolver  Resolver
	recorder  QueryRecorder
	metrics   *metrics.QueryMetrics
	presenter Presenter
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxEmbeds <= 0 {
		opts.MaxEmbeds = 10
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		prefix:    opts.Prefix,
		resolver:  opts.Resolver,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		presenter: Presenter{MaxEmbeds: opts.MaxEmbeds},
		logger:    opts.Logger,
	}, nil
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Handle answers one chat line from session. It returns a nil reply for lines
// that are not commands and for unknown thing types.
func (d *Dispatcher) Handle(ctx context.Context, session, content string) (*Reply, error) {
	cmd, ok := ParseCommand(d.prefix, content)
	if !ok {
		return nil, nil
	}

	switch cmd.Name {
	case CommandHelp:
		return &Reply{Embeds: []*discordgo.MessageEmbed{HelpEmbed(d.prefix)}}, nil
	case CommandStatus:
		var stats *metrics.QueryStats
		if d.metrics != nil {
			snapshot := d.metrics.Snapshot()
			stats = &snapshot
		}
		return &Reply{Embeds: []*discordgo.MessageEmbed{StatusEmbed(d.resolver.Status(), stats)}}, nil
	}

	start := time.Now()
	resp, err := d.resolver.Resolve(cmd.Thing, cmd.Name, cmd.Rank)
	d.observe(resp, err, time.Since(start))
	if err != nil {
		if errors.Is(err, mhw.ErrUninitialized) {
			if d.resolver.Status().State == catalog.StateFailed.String() {
				return &Reply{Text: MessageInitFailed}, nil
			}
			return &Reply{Text: MessageNotReady}, nil
		}
		return nil, fmt.Errorf("resolve %q: %w", cmd.String(), err)
	}

	if resp.Kind == catalog.KindNone {
		d.logger.Debug("ignoring unknown command", "command", cmd.Name)
		return nil, nil
	}

	d.record(ctx, session, cmd, resp)
	return d.presenter.Present(resp), nil
}

func (d *Dispatcher) observe(resp catalog.Response, err error, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	var outcome metrics.Outcome
	switch {
	case errors.Is(err, mhw.ErrUninitialized):
		outcome = metrics.OutcomeNotReady
	case err != nil:
		outcome = metrics.OutcomeError
	case resp.Kind == catalog.KindSets:
		outcome = metrics.OutcomeSets
	case resp.Kind == catalog.KindPieces:
		outcome = metrics.OutcomePieces
	case resp.Kind == catalog.KindNoResults:
		outcome = metrics.OutcomeNoResults
	case resp.Kind == catalog.KindUnsupported:
		outcome = metrics.OutcomeUnsupported
	default:
		return
	}
	d.metrics.Observe(outcome, elapsed)
}

func (d *Dispatcher) record(ctx context.Context, session string, cmd Command, resp catalog.Response) {
	d.logger.Info("query served",
		"session", session,
		"command", cmd.String(),
		"kind", resp.Kind,
		"results", resp.Count())

	if d.recorder == nil {
		return
	}
	rec := &storage.QueryRecord{
		Session:     session,
		Command:     cmd.String(),
		Thing:       cmd.Thing,
		ThingType:   cmd.Name,
		Rank:        string(cmd.Rank),
		ResultCount: resp.Count(),
	}
	if err := d.recorder.RecordQuery(ctx, rec); err != nil {
		d.logger.Warn("failed to record query", "error", err)
	}
}
