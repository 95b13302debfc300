// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exports search activity as Prometheus metrics.
//
// Monitor implements orchestrator.Monitor. Every adapter invocation is
// counted by source and outcome:
//
//	success  the adapter returned results (possibly none)
//	error    the adapter was invoked and failed
//	skipped  the adapter was never invoked (timeout, limit, unavailable)
//
// Metrics are registered on the Registerer passed to New, so tests can use a
// private prometheus.Registry.
package metrics

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/orchestrator"
)

const namespace = "caselaw"

// Adapter outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Monitor records orchestrator events.
type Monitor struct {
	// AdapterRequests counts adapter walks. Labels: source, outcome.
	AdapterRequests *prometheus.CounterVec
	// AdapterDuration observes invoked adapter latency. Labels: source.
	AdapterDuration *prometheus.HistogramVec
	// Searches counts searches started.
	Searches prometheus.Counter
	// CacheHits counts searches answered from the cache.
	CacheHits prometheus.Counter
	// DedupDropped counts results dropped as duplicates. Labels: source.
	DedupDropped *prometheus.CounterVec
	// SearchResults observes the number of results returned per search.
	SearchResults prometheus.Histogram
}

var _ orchestrator.Monitor = (*Monitor)(nil)

// New creates a Monitor registered on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Monitor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Monitor{
		AdapterRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_requests_total",
			Help:      "Adapter invocations during searches by source and outcome",
		}, []string{"source", "outcome"}),
		AdapterDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_duration_seconds",
			Help:      "Latency of invoked adapters",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		Searches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches started",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Searches answered from the query cache",
		}),
		DedupDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedup_dropped_total",
			Help:      "Results dropped as duplicates of a higher-priority source",
		}, []string{"source"}),
		SearchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *Monitor) Start(_ uuid.UUID, _ *core.SearchQuery) {
	m.Searches.Inc()
}

func (m *Monitor) CacheHit(_ uuid.UUID) {
	m.CacheHits.Inc()
}

func (m *Monitor) AdapterFinished(_ uuid.UUID, diag core.SourceDiagnostic) {
	source := string(diag.Source)
	m.AdapterRequests.WithLabelValues(source, Outcome(diag)).Inc()
	if diag.Attempted {
		m.AdapterDuration.WithLabelValues(source).Observe(diag.Duration.Seconds())
	}
}

func (m *Monitor) DuplicateDropped(_ uuid.UUID, dropped core.UnifiedResult) {
	m.DedupDropped.WithLabelValues(string(dropped.Source)).Inc()
}

func (m *Monitor) Finish(resp *core.SearchResponse) {
	if resp == nil {
		return
	}
	m.SearchResults.Observe(float64(len(resp.Results)))
}

// Outcome classifies a diagnostic.
func Outcome(diag core.SourceDiagnostic) string {
	switch {
	case !diag.Attempted:
		return OutcomeSkipped
	case diag.Succeeded:
		return OutcomeSuccess
	}
	return OutcomeError
}
