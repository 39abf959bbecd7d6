// Package latency tracks per-stage timings of the turn pipeline and exposes
// percentile summaries for the admin surface, mirroring every sample into an
// OpenTelemetry histogram.
package latency

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Pipeline stages tracked by the engine.
const (
	StageSafety     = "safety"
	StageRouting    = "routing"
	StageCache      = "cache"
	StageRetrieval  = "retrieval"
	StageGeneration = "generation"
	StagePersist    = "persist"
	StageTotal      = "total"
)

const maxSamples = 1000

// StageStats summarizes one stage's recent samples.
type StageStats struct {
	Count int     `json:"count"`
	AvgMS float64 `json:"avg_ms"`
	MinMS float64 `json:"min_ms"`
	P50MS float64 `json:"p50_ms"`
	P95MS float64 `json:"p95_ms"`
	MaxMS float64 `json:"max_ms"`
}

// Tracker keeps a bounded rolling window of samples per stage.
type Tracker struct {
	mu      sync.Mutex
	samples map[string][]float64
	next    map[string]int
	hist    metric.Float64Histogram
}

func NewTracker() *Tracker {
	meter := otel.Meter("maestro/latency")
	hist, err := meter.Float64Histogram("maestro.stage.duration",
		metric.WithDescription("Turn pipeline stage duration"),
		metric.WithUnit("ms"))
	if err != nil {
		// A misconfigured meter provider should not take down the tracker;
		// the in-memory window still works.
		hist = nil
	}
	return &Tracker{
		samples: make(map[string][]float64),
		next:    make(map[string]int),
		hist:    hist,
	}
}

// Record adds one sample. Once a stage's window is full, the oldest sample
// is overwritten.
func (t *Tracker) Record(stage string, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0

	t.mu.Lock()
	buf := t.samples[stage]
	if len(buf) < maxSamples {
		t.samples[stage] = append(buf, ms)
	} else {
		buf[t.next[stage]] = ms
		t.next[stage] = (t.next[stage] + 1) % maxSamples
	}
	t.mu.Unlock()

	if t.hist != nil {
		t.hist.Record(context.Background(), ms,
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// Time runs fn and records its duration under stage.
func (t *Tracker) Time(stage string, fn func()) {
	start := time.Now()
	fn()
	t.Record(stage, time.Since(start))
}

// Stats summarizes every stage with at least one sample.
func (t *Tracker) Stats() map[string]StageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]StageStats, len(t.samples))
	for stage, buf := range t.samples {
		if len(buf) == 0 {
			continue
		}
		sorted := make([]float64, len(buf))
		copy(sorted, buf)
		sort.Float64s(sorted)

		var sum float64
		for _, v := range sorted {
			sum += v
		}
		out[stage] = StageStats{
			Count: len(sorted),
			AvgMS: sum / float64(len(sorted)),
			MinMS: sorted[0],
			P50MS: percentile(sorted, 0.50),
			P95MS: percentile(sorted, 0.95),
			MaxMS: sorted[len(sorted)-1],
		}
	}
	return out
}

// percentile expects sorted input and uses nearest-rank.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
