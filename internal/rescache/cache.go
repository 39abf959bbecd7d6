// Package rescache caches persona responses to factual questions so repeated
// definitional queries skip generation. Three tiers: L1 holds exact
// persona-scoped responses, L2 is reserved for template responses, L3 holds
// retrieval results with a TTL.
//
// Caching is opt-in by content: anything that reads as personal, situational,
// or stateful must never be served from cache, so the gate defaults to no.
package rescache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/atelier-ai/maestro/internal/model"
)

// Markers that veto caching outright. A question about the user's own plan or
// a reference to shared history is conversation-state-dependent even when it
// also looks definitional.
var noCacheMarkers = []string{
	"my proposal",
	"my plan",
	"i think",
	"should i",
	"what if",
	"how do you feel",
	"remember when",
	"last time",
	"you said",
}

// Markers that make a question cacheable: definitional phrasing and the
// program's fixed framework vocabulary.
var cacheableMarkers = []string{
	"what is",
	"what are the",
	"define",
	"explain",
	"list the",
	"describe",
	"who is",
	"vept",
	"competency model",
	"360 feedback",
	"kirkpatrick",
	"9-box",
	"okr",
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	L1Size      int     `json:"l1_size"`
	L2Size      int     `json:"l2_size"`
	L3Size      int     `json:"l3_size"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Uncacheable int64   `json:"uncacheable"`
}

type l3Entry struct {
	value    string
	expires  time.Time
	storedAt time.Time
}

// Manager owns all three tiers behind one lock.
type Manager struct {
	mu sync.Mutex

	l1 *lruCache
	l2 *lruCache
	l3 map[string]l3Entry

	l3TTL time.Duration

	hits        int64
	misses      int64
	uncacheable int64
}

const l3CleanupThreshold = 100

// NewManager sizes the tiers. retrievalTTL bounds how long L3 retrieval
// results stay valid.
func NewManager(l1Size, l2Size int, retrievalTTL time.Duration) *Manager {
	return &Manager{
		l1:    newLRU(l1Size),
		l2:    newLRU(l2Size),
		l3:    make(map[string]l3Entry),
		l3TTL: retrievalTTL,
	}
}

// Cacheable reports whether a response to this question may be cached.
// No-cache markers always win; otherwise the question must carry a cacheable
// marker, and the default is no.
func Cacheable(question string) bool {
	q := strings.ToLower(question)
	for _, m := range noCacheMarkers {
		if strings.Contains(q, m) {
			return false
		}
	}
	for _, m := range cacheableMarkers {
		if strings.Contains(q, m) {
			return true
		}
	}
	return false
}

// Key derives the persona-scoped cache key: personas answer the same
// question differently, so responses never cross personas.
func Key(personaID model.PersonaID, question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(string(personaID) + ":" + normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// Get looks up a cached response for this persona and question. Uncacheable
// questions miss without touching the tiers or the hit counters.
func (m *Manager) Get(personaID model.PersonaID, question string) (string, bool) {
	if !Cacheable(question) {
		m.mu.Lock()
		m.uncacheable++
		m.mu.Unlock()
		return "", false
	}
	key := Key(personaID, question)

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.l1.get(key); ok {
		m.hits++
		return v, true
	}
	if v, ok := m.l2.get(key); ok {
		m.hits++
		return v, true
	}
	m.misses++
	return "", false
}

// Put stores a response in L1 if the question qualifies.
func (m *Manager) Put(personaID model.PersonaID, question, response string) {
	if !Cacheable(question) {
		return
	}
	key := Key(personaID, question)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.l1.put(key, response)
}

// GetRetrieval returns a cached retrieval result for the raw query, if fresh.
func (m *Manager) GetRetrieval(query string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.l3[query]
	if !ok {
		return "", false
	}
	if time.Now().After(ent.expires) {
		delete(m.l3, query)
		return "", false
	}
	return ent.value, true
}

// PutRetrieval caches a retrieval result under the raw query. When the tier
// grows past the cleanup threshold, expired entries are purged.
func (m *Manager) PutRetrieval(query, result string) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.l3[query] = l3Entry{value: result, expires: now.Add(m.l3TTL), storedAt: now}
	if len(m.l3) > l3CleanupThreshold {
		for q, ent := range m.l3 {
			if now.After(ent.expires) {
				delete(m.l3, q)
			}
		}
	}
}

// InvalidateAll drops every tier, for example after a knowledge re-ingest.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.l1.clear()
	m.l2.clear()
	m.l3 = make(map[string]l3Entry)
}

// Stats snapshots the counters for the admin surface.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		L1Size:      m.l1.len(),
		L2Size:      m.l2.len(),
		L3Size:      len(m.l3),
		Hits:        m.hits,
		Misses:      m.misses,
		Uncacheable: m.uncacheable,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
