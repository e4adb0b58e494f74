package httpadapter

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/aqi-etl-service/internal/aqi"
	"github.com/couchcryptid/aqi-etl-service/internal/domain"
	"github.com/couchcryptid/aqi-etl-service/internal/report"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 30
)

type computeResponse struct {
	PM25   float64             `json:"pm2_5"`
	AQI    aqi.Result          `json:"aqi"`
	Status domain.SafetyStatus `json:"status"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("pm25")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "pm25 query parameter is required")
		return
	}
	pm25, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pm25 must be a number")
		return
	}
	res, err := aqi.Evaluate(pm25)
	if errors.Is(err, aqi.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, computeResponse{PM25: pm25, AQI: res, Status: domain.SafetyStatusFor(pm25)})
}

type stationEntry struct {
	domain.Station
	Current *domain.AQIReport `json:"current,omitempty"`
}

func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	out := make([]stationEntry, 0, len(s.deps.Stations))
	for _, st := range s.deps.Stations {
		e := stationEntry{Station: st}
		if snap, ok := s.deps.Snapshots.Get(st.ID); ok {
			cur := snap.Current
			e.Current = &cur
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, out)
}

// snapshot resolves {id} and writes a 404 when the station is unknown or has
// no data. Before the first cycle after a restart the latest stored report
// stands in for the in-memory snapshot.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (domain.StationSnapshot, bool) {
	id := r.PathValue("id")
	st, ok := domain.FindStation(s.deps.Stations, id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station "+strconv.Quote(id))
		return domain.StationSnapshot{}, false
	}
	if snap, ok := s.deps.Snapshots.Get(id); ok {
		return snap, true
	}
	if s.deps.History != nil {
		latest, err := s.deps.History.Latest(r.Context(), id, s.deps.Clock.Now())
		switch {
		case err == nil:
			snap, err := domain.RestoreSnapshot(st, []domain.AQIReport{latest})
			if err == nil {
				return snap, true
			}
		case !errors.Is(err, sqlite.ErrNotFound):
			s.logger.Error("latest stored report query failed", "station", id, "error", err)
			writeError(w, http.StatusInternalServerError, "history query failed")
			return domain.StationSnapshot{}, false
		}
	}
	writeError(w, http.StatusNotFound, "no data yet for station "+strconv.Quote(id))
	return domain.StationSnapshot{}, false
}

func (s *Server) handleStation(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var reports []domain.AQIReport

	if r.URL.Query().Get("source") == "store" {
		if _, ok := domain.FindStation(s.deps.Stations, id); !ok {
			writeError(w, http.StatusNotFound, "unknown station "+strconv.Quote(id))
			return
		}
		if s.deps.History == nil {
			writeError(w, http.StatusNotImplemented, "history store is disabled")
			return
		}
		hours, err := parseHours(r.URL.Query().Get("hours"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		now := s.deps.Clock.Now()
		reports, err = s.deps.History.Readings(r.Context(), id, now.Add(-time.Duration(hours)*time.Hour), now)
		if err != nil {
			s.logger.Error("history query failed", "station", id, "error", err)
			writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
	} else {
		snap, ok := s.snapshot(w, r)
		if !ok {
			return
		}
		reports = snap.Trend
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, reports); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	d := report.Dashboard{Snapshot: snap}

	if r.URL.Query().Get("source") == "store" {
		if s.deps.History == nil {
			writeError(w, http.StatusNotImplemented, "history store is disabled")
			return
		}
		hours, err := parseHours(r.URL.Query().Get("hours"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		now := s.deps.Clock.Now()
		counts, err := s.deps.History.CategoryHours(r.Context(), snap.Station.ID, now.Add(-time.Duration(hours)*time.Hour), now)
		if err != nil {
			s.logger.Error("category hours query failed", "station", snap.Station.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "history query failed")
			return
		}
		d.Distribution = &report.Distribution{Hours: hours, Counts: counts}
	}

	if s.deps.Advisor != nil {
		adv := s.deps.Advisor.Advise(r.Context(), snap.Current)
		d.Advisory = &adv
	}

	var buf bytes.Buffer
	if err := report.WriteMarkdown(&buf, d); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Advisor == nil {
		writeError(w, http.StatusNotImplemented, "advisories are disabled")
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Advisor.Advise(r.Context(), snap.Current))
}

func parseHours(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryHours, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxHistoryHours {
		return 0, errors.New("hours must be an integer between 1 and " + strconv.Itoa(maxHistoryHours))
	}
	return n, nil
}
