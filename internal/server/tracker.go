package server

import (
	"encoding/json"
	"net/http"

	"duels-tracker/internal/analytics"
	"duels-tracker/internal/domain"
	"duels-tracker/internal/service"

	"github.com/rs/zerolog"
)

// TrackerServer exposes sync and the analytics reads as JSON for an
// external dashboard. It holds no state of its own; every read works on
// a fresh table snapshot.
type TrackerServer struct {
	svc    *service.TrackerService
	logger zerolog.Logger
}

func NewTrackerServer(svc *service.TrackerService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{svc: svc, logger: logger}
}

func (s *TrackerServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/overview", s.tableHandler(func(t []domain.Record) any { return analytics.GetOverview(t) }))
	mux.HandleFunc("GET /api/stats/countries", s.tableHandler(func(t []domain.Record) any { return analytics.StatsByCountry(t) }))
	mux.HandleFunc("GET /api/stats/opponent-countries", s.tableHandler(func(t []domain.Record) any { return analytics.StatsByOpponentCountry(t) }))
	mux.HandleFunc("GET /api/stats/rounds", s.tableHandler(func(t []domain.Record) any { return analytics.StatsByRound(t) }))
	mux.HandleFunc("GET /api/rating/history", s.tableHandler(func(t []domain.Record) any { return analytics.RatingHistory(t) }))
	mux.HandleFunc("GET /api/rating/changes", s.tableHandler(func(t []domain.Record) any { return analytics.RatingChanges(t) }))
	mux.HandleFunc("GET /api/streaks", s.tableHandler(func(t []domain.Record) any { return analytics.Streaks(t) }))
	mux.HandleFunc("GET /api/head-to-head", s.tableHandler(func(t []domain.Record) any { return analytics.HeadToHeads(t) }))
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /api/trend", s.handleTrend)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

type syncResponse struct {
	Player       domain.PlayerInfo `json:"player"`
	NewGames     int               `json:"newGames"`
	TotalRecords int               `json:"totalRecords"`
	Warning      string            `json:"warning,omitempty"`
}

func (s *TrackerServer) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Sync(r.Context(), nil)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	resp := syncResponse{
		Player:       result.Player,
		NewGames:     result.NewGames,
		TotalRecords: len(result.Table),
	}
	if result.PersistWarning != nil {
		resp.Warning = "cache write failed, results not persisted: " + result.PersistWarning.Error()
	}
	s.writeJSON(w, resp)
}

func (s *TrackerServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	table, err := s.svc.Table(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, table)
}

// tableHandler wraps a pure analytics reduction over the table snapshot.
func (s *TrackerServer) tableHandler(reduce func([]domain.Record) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, err := s.svc.Table(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.writeJSON(w, reduce(table))
	}
}

func (s *TrackerServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, map[string]int{"records": count})
}

func (s *TrackerServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	table, err := s.svc.Table(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, analytics.GamesPerPeriod(table, parsePeriod(r)))
}

func (s *TrackerServer) handleTrend(w http.ResponseWriter, r *http.Request) {
	table, err := s.svc.Table(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	var metric func(*domain.Record) (float64, bool)
	switch r.URL.Query().Get("metric") {
	case "distance":
		metric = func(rec *domain.Record) (float64, bool) { return rec.YourDistanceKm, true }
	case "rating":
		metric = func(rec *domain.Record) (float64, bool) {
			if rec.YourRating == nil {
				return 0, false
			}
			return *rec.YourRating, true
		}
	case "", "score":
		metric = func(rec *domain.Record) (float64, bool) { return float64(rec.YourScore), true }
	default:
		http.Error(w, "unknown metric", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, analytics.BinnedMetric(table, parsePeriod(r), metric))
}

func parsePeriod(r *http.Request) analytics.Period {
	switch r.URL.Query().Get("period") {
	case "week":
		return analytics.PeriodWeek
	case "year":
		return analytics.PeriodYear
	default:
		return analytics.PeriodMonth
	}
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
