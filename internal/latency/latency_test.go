package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndStats(t *testing.T) {
	tr := NewTracker()

	for i := 1; i <= 100; i++ {
		tr.Record(StageGeneration, time.Duration(i)*time.Millisecond)
	}

	stats := tr.Stats()
	gen, ok := stats[StageGeneration]
	require.True(t, ok)
	assert.Equal(t, 100, gen.Count)
	assert.InDelta(t, 50.5, gen.AvgMS, 0.01)
	assert.InDelta(t, 1, gen.MinMS, 0.01)
	assert.InDelta(t, 51, gen.P50MS, 1)
	assert.InDelta(t, 96, gen.P95MS, 1)
	assert.InDelta(t, 100, gen.MaxMS, 0.01)
}

func TestWindowBounded(t *testing.T) {
	tr := NewTracker()

	// Fill the window, then push it to overwrite the slow early samples.
	for i := 0; i < maxSamples; i++ {
		tr.Record(StageTotal, time.Second)
	}
	for i := 0; i < maxSamples; i++ {
		tr.Record(StageTotal, time.Millisecond)
	}

	stats := tr.Stats()[StageTotal]
	assert.Equal(t, maxSamples, stats.Count)
	assert.InDelta(t, 1, stats.MaxMS, 0.01, "old samples fully overwritten")
}

func TestStagesIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Record(StageSafety, 2*time.Millisecond)
	tr.Record(StageCache, 8*time.Millisecond)

	stats := tr.Stats()
	require.Len(t, stats, 2)
	assert.InDelta(t, 2, stats[StageSafety].AvgMS, 0.01)
	assert.InDelta(t, 8, stats[StageCache].AvgMS, 0.01)
}

func TestTime(t *testing.T) {
	tr := NewTracker()
	tr.Time(StageRouting, func() { time.Sleep(5 * time.Millisecond) })

	stats := tr.Stats()[StageRouting]
	require.Equal(t, 1, stats.Count)
	assert.GreaterOrEqual(t, stats.AvgMS, 5.0)
}
