// Package metrics collects in-process counters and latencies for served queries.
package metrics

import (
	"sync/atomic"
	"time"
)

// Outcome classifies a served query.
type Outcome int

const (
	OutcomeSets Outcome = iota
	OutcomePieces
	OutcomeNoResults
	OutcomeUnsupported
	OutcomeNotReady
	OutcomeError
)

// QueryMetrics tracks query volume, outcomes and resolve latency.
type QueryMetrics struct {
	Latency *Histogram

	queries     atomic.Uint64
	sets        atomic.Uint64
	pieces      atomic.Uint64
	noResults   atomic.Uint64
	unsupported atomic.Uint64
	notReady    atomic.Uint64
	errors      atomic.Uint64

	startTime time.Time
}

// NewQueryMetrics creates a new metrics collector.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		Latency:   NewHistogram(10000),
		startTime: time.Now(),
	}
}

// Observe records one query with its outcome and resolve duration.
func (m *QueryMetrics) Observe(outcome Outcome, d time.Duration) {
	m.queries.Add(1)
	m.Latency.Record(d)

	switch outcome {
	case OutcomeSets:
		m.sets.Add(1)
	case OutcomePieces:
		m.pieces.Add(1)
	case OutcomeNoResults:
		m.noResults.Add(1)
	case OutcomeUnsupported:
		m.unsupported.Add(1)
	case OutcomeNotReady:
		m.notReady.Add(1)
	case OutcomeError:
		m.errors.Add(1)
	}
}

// QueryStats is a snapshot of QueryMetrics.
type QueryStats struct {
	Queries     uint64       `json:"queries"`
	Sets        uint64       `json:"sets"`
	Pieces      uint64       `json:"pieces"`
	NoResults   uint64       `json:"no_results"`
	Unsupported uint64       `json:"unsupported"`
	NotReady    uint64       `json:"not_ready"`
	Errors      uint64       `json:"errors"`
	HitRate     float64      `json:"hit_rate"` // percentage of queries with results
	Latency     LatencyStats `json:"latency"`
	Uptime      string       `json:"uptime"`
}

// Snapshot returns the current statistics.
func (m *QueryMetrics) Snapshot() QueryStats {
	s := QueryStats{
		Queries:     m.queries.Load(),
		Sets:        m.sets.Load(),
		Pieces:      m.pieces.Load(),
		NoResults:   m.noResults.Load(),
		Unsupported: m.unsupported.Load(),
		NotReady:    m.notReady.Load(),
		Errors:      m.errors.Load(),
		Latency:     m.Latency.Summary(),
		Uptime:      time.Since(m.startTime).Round(time.Second).String(),
	}
	if s.Queries > 0 {
		s.HitRate = float64(s.Sets+s.Pieces) / float64(s.Queries) * 100
	}
	return s
}
