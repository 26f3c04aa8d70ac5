package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rocheseb/satloc/internal/geomap"
	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
)

// Query bounds. Requests outside these are rejected with 400.
const (
	maxForecastHours  = 168.0
	minIntervalSec    = 1
	maxIntervalSec    = 3600
	maxMarkerStride   = 1000
	startQueryLayout  = "20060102T150405"
	defaultForecastHr = 1.5
)

// trackQuery is the parsed and validated query string of a track request.
type trackQuery struct {
	catalogNumber int
	start         time.Time // zero means "now"
	hours         float64
	interval      time.Duration
	stride        int
	title         string
}

type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }

// parseTrackQuery validates the common query parameters of both track
// endpoints.
func parseTrackQuery(r *http.Request) (*trackQuery, error) {
	q := r.URL.Query()

	catnrStr := q.Get("catnr")
	if catnrStr == "" {
		return nil, &queryError{"missing required parameter: catnr"}
	}
	catnr, err := strconv.Atoi(catnrStr)
	if err != nil || catnr <= 0 {
		return nil, &queryError{"catnr must be a positive integer"}
	}

	tq := &trackQuery{
		catalogNumber: catnr,
		hours:         defaultForecastHr,
		stride:        track.DefaultMarkerStride,
		title:         q.Get("title"),
	}

	if v := q.Get("start"); v != "" {
		start, err := time.Parse(startQueryLayout, v)
		if err != nil {
			return nil, &queryError{"start must be formatted as YYYYMMDDTHHMMSS (UTC)"}
		}
		tq.start = start.UTC()
	}
	if v := q.Get("hours"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 || hours > maxForecastHours {
			return nil, &queryError{"hours must be in (0, 168]"}
		}
		tq.hours = hours
	}
	if v := q.Get("interval"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec < minIntervalSec || sec > maxIntervalSec {
			return nil, &queryError{"interval must be a whole number of seconds in [1, 3600]"}
		}
		tq.interval = time.Duration(sec) * time.Second
	}
	if v := q.Get("stride"); v != "" {
		stride, err := strconv.Atoi(v)
		if err != nil || stride < 1 || stride > maxMarkerStride {
			return nil, &queryError{"stride must be in [1, 1000]"}
		}
		tq.stride = stride
	}
	return tq, nil
}

func (s *Server) buildTrack(r *http.Request, tq *trackQuery) (*track.Track, error) {
	return s.builder.Build(r.Context(), track.Request{
		CatalogNumber:  tq.catalogNumber,
		Start:          tq.start,
		ForecastHours:  tq.hours,
		SampleInterval: tq.interval,
	})
}

// handleTrackHTML serves the rendered ground track map.
func (s *Server) handleTrackHTML(w http.ResponseWriter, r *http.Request) {
	tq, err := parseTrackQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	trk, err := s.buildTrack(r, tq)
	if err != nil {
		s.writeTrackError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := geomap.Render(w, trk, geomap.Options{Title: tq.title, MarkerStride: tq.stride}); err != nil {
		// Headers are already sent; log and give up on this response.
		s.logger.Error("render failed", "component", "api", "error", err)
	}
}

// trackResponse is the JSON body of /api/v1/track.
type trackResponse struct {
	CatalogNumber   int             `json:"catalog_number"`
	Name            string          `json:"name,omitempty"`
	Start           time.Time       `json:"start"`
	IntervalSeconds float64         `json:"interval_seconds"`
	Points          []track.Point   `json:"points"`
	Segments        []track.Segment `json:"segments"`
	Markers         []track.Point   `json:"markers"`
}

// handleTrackJSON serves the track as structured data.
func (s *Server) handleTrackJSON(w http.ResponseWriter, r *http.Request) {
	tq, err := parseTrackQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	trk, err := s.buildTrack(r, tq)
	if err != nil {
		s.writeTrackError(w, r, err)
		return
	}

	resp := trackResponse{
		CatalogNumber:   trk.Satellite.CatalogNumber,
		Name:            trk.Satellite.Name,
		Start:           trk.Start,
		IntervalSeconds: trk.Interval.Seconds(),
		Points:          trk.Points,
		Segments:        trk.Segments(),
		Markers:         trk.Markers(tq.stride),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeTrackError maps pipeline failures to HTTP statuses.
func (s *Server) writeTrackError(w http.ResponseWriter, r *http.Request, err error) {
	var re *tle.RetrievalError
	switch {
	case errors.Is(err, track.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, tle.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &re):
		s.logger.Error("upstream fetch failed", "component", "api", "error", err)
		writeError(w, http.StatusBadGateway, errors.New("element set retrieval failed"))
	default:
		s.logger.Error("track build failed", "component", "api", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
