package rescache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/maestro/internal/model"
)

func TestCacheable(t *testing.T) {
	cacheable := []string{
		"What is the VEPT framework?",
		"Explain the 4 pillars of the competency model",
		"define 360 feedback",
		"Who is responsible for the rollout?",
	}
	for _, q := range cacheable {
		assert.True(t, Cacheable(q), q)
	}

	uncacheable := []string{
		"What do you think of my proposal?",
		"Should I talk to the CHRO first?",
		"Remember when we discussed the KPI table?",
		"What is wrong with my plan?", // no-cache marker beats the cacheable one
		"Good morning!",               // default is not cacheable
	}
	for _, q := range uncacheable {
		assert.False(t, Cacheable(q), q)
	}
}

func TestKeyPersonaScopedAndNormalized(t *testing.T) {
	a := Key(model.PersonaCEO, "What   is  VEPT?")
	b := Key(model.PersonaCEO, "what is vept?")
	c := Key(model.PersonaCHRO, "what is vept?")

	assert.Equal(t, a, b, "whitespace and case normalize away")
	assert.NotEqual(t, a, c, "personas never share entries")
	assert.Len(t, a, 16)
}

func TestStoreThenLookup(t *testing.T) {
	m := NewManager(10, 10, time.Minute)

	q := "What is the VEPT framework?"
	_, ok := m.Get(model.PersonaCEO, q)
	require.False(t, ok)

	m.Put(model.PersonaCEO, q, "VEPT stands for Vision, Entrepreneurship, Passion, Trust.")

	got, ok := m.Get(model.PersonaCEO, q)
	require.True(t, ok)
	assert.Contains(t, got, "Vision")

	// Same question, different persona: miss.
	_, ok = m.Get(model.PersonaCHRO, q)
	assert.False(t, ok)
}

func TestPersonalQuestionsNeverCached(t *testing.T) {
	m := NewManager(10, 10, time.Minute)

	q := "What is your view on my proposal?"
	m.Put(model.PersonaCEO, q, "Looks solid.")

	_, ok := m.Get(model.PersonaCEO, q)
	assert.False(t, ok)

	s := m.Stats()
	assert.Equal(t, 0, s.L1Size)
	assert.EqualValues(t, 1, s.Uncacheable)
	assert.EqualValues(t, 0, s.Hits)
	assert.EqualValues(t, 0, s.Misses, "uncacheable lookups are not counted as misses")
}

func TestL1Eviction(t *testing.T) {
	m := NewManager(3, 10, time.Minute)

	for i := 0; i < 4; i++ {
		q := fmt.Sprintf("what is topic %d", i)
		m.Put(model.PersonaCEO, q, fmt.Sprintf("answer %d", i))
	}

	_, ok := m.Get(model.PersonaCEO, "what is topic 0")
	assert.False(t, ok, "oldest entry evicted at capacity")
	_, ok = m.Get(model.PersonaCEO, "what is topic 3")
	assert.True(t, ok)
}

func TestL1PromoteOnGet(t *testing.T) {
	m := NewManager(2, 10, time.Minute)

	m.Put(model.PersonaCEO, "what is alpha", "a")
	m.Put(model.PersonaCEO, "what is beta", "b")

	// Touch alpha so beta becomes the eviction candidate.
	_, ok := m.Get(model.PersonaCEO, "what is alpha")
	require.True(t, ok)

	m.Put(model.PersonaCEO, "what is gamma", "c")

	_, ok = m.Get(model.PersonaCEO, "what is alpha")
	assert.True(t, ok)
	_, ok = m.Get(model.PersonaCEO, "what is beta")
	assert.False(t, ok)
}

func TestRetrievalTTL(t *testing.T) {
	m := NewManager(10, 10, 10*time.Millisecond)

	m.PutRetrieval("competency pillars", "pillar context")
	got, ok := m.GetRetrieval("competency pillars")
	require.True(t, ok)
	assert.Equal(t, "pillar context", got)

	time.Sleep(20 * time.Millisecond)
	_, ok = m.GetRetrieval("competency pillars")
	assert.False(t, ok, "expired entries are purged on read")
}

func TestInvalidateAll(t *testing.T) {
	m := NewManager(10, 10, time.Minute)
	m.Put(model.PersonaCEO, "what is vept", "answer")
	m.PutRetrieval("vept", "context")

	m.InvalidateAll()

	s := m.Stats()
	assert.Equal(t, 0, s.L1Size)
	assert.Equal(t, 0, s.L3Size)
}

func TestStatsHitRate(t *testing.T) {
	m := NewManager(10, 10, time.Minute)
	m.Put(model.PersonaCEO, "what is vept", "answer")

	m.Get(model.PersonaCEO, "what is vept")
	m.Get(model.PersonaCEO, "what is okr")

	s := m.Stats()
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 1, s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}
