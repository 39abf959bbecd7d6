package safety

import (
	"sync"
	"time"

	"github.com/atelier-ai/maestro/internal/model"
)

const maxAuditEvents = 1000

// auditLog keeps a bounded in-memory record of safety decisions for the
// admin surface. Oldest events are dropped first.
type auditLog struct {
	mu     sync.Mutex
	events []model.SafetyEvent
}

func newAuditLog() *auditLog {
	return &auditLog{events: make([]model.SafetyEvent, 0, 64)}
}

func (a *auditLog) record(ev model.SafetyEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	if len(a.events) > maxAuditEvents {
		a.events = a.events[len(a.events)-maxAuditEvents:]
	}
}

// Recent returns up to n most recent events, newest first.
func (a *auditLog) Recent(n int) []model.SafetyEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n <= 0 || n > len(a.events) {
		n = len(a.events)
	}
	out := make([]model.SafetyEvent, n)
	for i := 0; i < n; i++ {
		out[i] = a.events[len(a.events)-1-i]
	}
	return out
}
