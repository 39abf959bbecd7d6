package server

import "net/http"

// HandleSafetyEvents returns recent safety audit events, newest first.
func (h *Handlers) HandleSafetyEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	writeJSON(w, r, http.StatusOK, h.gate.Recent(limit))
}

// HandleCacheStats returns response cache occupancy and hit rates.
func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.cache.Stats())
}

// HandleCacheInvalidate drops every cached response and retrieval result.
func (h *Handlers) HandleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	h.cache.InvalidateAll()
	h.logger.Info("response cache invalidated", "request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "invalidated"})
}

// HandleLatencyStats returns per-stage pipeline latency percentiles.
func (h *Handlers) HandleLatencyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.tracker.Stats())
}
