package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/caseatlas/caseatlas/internal/dataset"
	"github.com/caseatlas/caseatlas/internal/figure"
)

// RegionEntry is one selectable region in a listing response.
type RegionEntry struct {
	FIPS string `json:"fips"`
	Name string `json:"name"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	level, err := dataset.ParseLevel(queryOr(r, "level", string(dataset.LevelState)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	metric, err := figure.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, err := s.table(level)
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	geo, err := s.geometry(level)
	if err != nil {
		writeUnavailable(w, err)
		return
	}

	v := tbl.View().Region(r.URL.Query().Get("fips"))

	day, ok, err := parseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		// Default to the most recent day in scope.
		if dates := v.Dates(); len(dates) > 0 {
			day = dates[len(dates)-1]
			ok = true
		}
	}
	if ok {
		v = v.Date(day)
	}

	writeJSON(w, http.StatusOK, figure.Choropleth(v, geo, metric))
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	level, err := dataset.ParseLevel(queryOr(r, "level", string(dataset.LevelCountry)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, err := s.table(level)
	if err != nil {
		writeUnavailable(w, err)
		return
	}

	v := tbl.View().Region(r.URL.Query().Get("fips"))
	writeJSON(w, http.StatusOK, figure.Line(v))
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	level, err := dataset.ParseLevel(queryOr(r, "level", string(dataset.LevelState)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, err := s.table(level)
	if err != nil {
		writeUnavailable(w, err)
		return
	}

	v := tbl.View().Region(r.URL.Query().Get("fips"))

	entries := []RegionEntry{}
	seen := make(map[string]struct{})
	for _, rec := range v.Rows() {
		if rec.FIPS == "" {
			continue
		}
		if _, ok := seen[rec.FIPS]; ok {
			continue
		}
		seen[rec.FIPS] = struct{}{}
		name := rec.State
		if rec.County != "" {
			name = rec.County + ", " + rec.State
		}
		entries = append(entries, RegionEntry{FIPS: rec.FIPS, Name: name})
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	level, err := dataset.ParseLevel(queryOr(r, "level", string(dataset.LevelCountry)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, err := s.table(level)
	if err != nil {
		writeUnavailable(w, err)
		return
	}

	v := tbl.View().Region(r.URL.Query().Get("fips"))

	days := []string{}
	for _, d := range v.Dates() {
		days = append(days, d.Format(dataset.DateLayout))
	}
	writeJSON(w, http.StatusOK, days)
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func parseDay(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	d, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.String("component", "api"), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeUnavailable reports a data source that failed to load. The load is
// retried on the next request since failures are never memoized.
func writeUnavailable(w http.ResponseWriter, err error) {
	zap.L().Error("data source unavailable", zap.String("component", "api"), zap.Error(err))
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "data source unavailable"})
}
