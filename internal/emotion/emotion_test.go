package emotion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/maestro/internal/model"
)

func TestApplyClampsRelationship(t *testing.T) {
	mem := model.NewEmotionalMemory()
	require.Equal(t, 0.5, mem.RelationshipScore)

	for i := 0; i < 20; i++ {
		Apply(&mem, Delta{Relationship: 0.1})
	}
	assert.Equal(t, 1.0, mem.RelationshipScore)

	for i := 0; i < 40; i++ {
		Apply(&mem, Delta{Relationship: -0.1})
	}
	assert.Equal(t, 0.0, mem.RelationshipScore)
}

func TestApplyTensionNeverDecreases(t *testing.T) {
	mem := model.NewEmotionalMemory()

	Apply(&mem, Delta{Tension: 2})
	Apply(&mem, Delta{Tension: -5})
	Apply(&mem, Delta{Tension: 1})

	assert.Equal(t, 3, mem.TensionCount)
}

func TestApplyLastTopicKeptWhenEmpty(t *testing.T) {
	mem := model.NewEmotionalMemory()

	Apply(&mem, Delta{Topic: "rollout budget"})
	Apply(&mem, Delta{Tension: 1})

	assert.Equal(t, "rollout budget", mem.LastTopic)
}

func TestApplyMemorableEventsWindow(t *testing.T) {
	mem := model.NewEmotionalMemory()

	for i := 1; i <= 7; i++ {
		Apply(&mem, Delta{Event: fmt.Sprintf("event %d", i)})
	}

	require.Len(t, mem.MemorableEvents, model.MaxMemorableEvents)
	assert.Equal(t, "event 3", mem.MemorableEvents[0])
	assert.Equal(t, "event 7", mem.MemorableEvents[4])
}

func TestRenderContextTiers(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.1, "reserved and guarded"},
		{0.4, "somewhat wary"},
		{0.8, "warm working relationship"},
	}
	for _, tt := range tests {
		mem := model.EmotionalMemory{RelationshipScore: tt.score}
		assert.Contains(t, RenderContext(model.PersonaCEO, mem), tt.want)
	}

	// Neutral score with no history renders nothing.
	mem := model.NewEmotionalMemory()
	assert.Empty(t, RenderContext(model.PersonaCEO, mem))
}

func TestRenderContextTension(t *testing.T) {
	mem := model.EmotionalMemory{RelationshipScore: 0.5, TensionCount: 1}
	assert.Contains(t, RenderContext(model.PersonaCHRO, mem), "Stay alert")

	mem.TensionCount = 3
	out := RenderContext(model.PersonaCHRO, mem)
	assert.Contains(t, out, "redirect them to a colleague")
	assert.NotContains(t, out, "Stay alert")
}

func TestRenderContextEventsAndTopic(t *testing.T) {
	mem := model.EmotionalMemory{
		RelationshipScore: 0.5,
		LastTopic:         "360 feedback design",
		MemorableEvents:   []string{"a", "b", "c", "d"},
	}
	out := RenderContext(model.PersonaMentor, mem)
	assert.Contains(t, out, "360 feedback design")
	assert.Contains(t, out, "b; c; d")
	assert.NotContains(t, out, "a;")
}
