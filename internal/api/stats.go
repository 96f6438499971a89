package api

import (
	"net/http"

	"tunereel/pkg/tracker"
)

// StatsHandler serves per-provider usage statistics.
type StatsHandler struct {
	tracker *tracker.Tracker
	hub     *EventHub
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(t *tracker.Tracker, hub *EventHub) *StatsHandler {
	return &StatsHandler{tracker: t, hub: hub}
}

// ProviderStatsDTO is the wire shape for one provider's counters.
type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	PollQueries int64 `json:"poll_queries"`
	HitRate     int64 `json:"hit_rate"`
}

// StatsResponse is the full stats payload.
type StatsResponse struct {
	Providers   map[string]ProviderStatsDTO `json:"providers"`
	Subscribers int                         `json:"subscribers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()
	providers := make(map[string]ProviderStatsDTO, len(snapshot))
	for name, s := range snapshot {
		dto := ProviderStatsDTO{
			CacheHits:   s.CacheHits,
			CacheMisses: s.CacheMisses,
			APISuccess:  s.APISuccess,
			APIFailures: s.APIFailures,
			PollQueries: s.PollQueries,
		}
		if total := s.CacheHits + s.CacheMisses; total > 0 {
			dto.HitRate = s.CacheHits * 100 / total
		}
		providers[name] = dto
	}

	resp := StatsResponse{Providers: providers}
	if h.hub != nil {
		resp.Subscribers = h.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}
