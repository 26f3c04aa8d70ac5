package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocheseb/satloc/internal/auth"
	"github.com/rocheseb/satloc/internal/tle"
	"github.com/rocheseb/satloc/internal/track"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// stubBuilder returns a synthetic track shaped by the request, or a fixed
// error.
type stubBuilder struct {
	err  error
	last track.Request
}

func (b *stubBuilder) Build(_ context.Context, req track.Request) (*track.Track, error) {
	b.last = req
	if b.err != nil {
		return nil, b.err
	}

	start := req.Start
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Second)
	}
	interval := req.SampleInterval
	if interval == 0 {
		interval = track.DefaultSampleInterval
	}
	n := int(req.ForecastHours * 3600 / interval.Seconds())

	trk := &track.Track{
		Satellite: &tle.ElementSet{CatalogNumber: req.CatalogNumber, Name: "ISS (ZARYA)"},
		Start:     start,
		Interval:  interval,
		Points:    make([]track.Point, n),
	}
	for i := range trk.Points {
		lon := -179 + float64(i)
		for lon > 180 {
			lon -= 360
		}
		trk.Points[i] = track.Point{
			Time:        start.Add(time.Duration(i) * interval),
			GroundPoint: track.GroundPoint{Lat: float64(i % 50), Lon: lon},
		}
	}
	return trk, nil
}

func newTestServer(builder TrackBuilder, authCfg auth.Config) *Server {
	return NewServer("127.0.0.1:0", builder, testLogger, authCfg, false)
}

func get(t *testing.T, s *Server, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// TestHealthEndpoints verifies the probe endpoints respond without auth.
func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(&stubBuilder{}, auth.Config{Enabled: true, Token: "secret"})

	rec := get(t, s, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = get(t, s, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready\n", rec.Body.String())
}

// TestTrackJSON verifies the happy path: defaults applied, segments partition
// the samples.
func TestTrackJSON(t *testing.T) {
	builder := &stubBuilder{}
	s := newTestServer(builder, auth.Config{})

	rec := get(t, s, "/api/v1/track?catnr=25544", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		CatalogNumber   int                  `json:"catalog_number"`
		Name            string               `json:"name"`
		IntervalSeconds float64              `json:"interval_seconds"`
		Points          []track.Point        `json:"points"`
		Segments        [][]track.GroundPoint `json:"segments"`
		Markers         []track.Point        `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 25544, resp.CatalogNumber)
	assert.Equal(t, "ISS (ZARYA)", resp.Name)
	assert.Equal(t, 30.0, resp.IntervalSeconds)
	assert.Len(t, resp.Points, 180) // 1.5 h default at 30 s
	assert.Len(t, resp.Markers, 9)  // every 20th sample

	var total int
	for _, seg := range resp.Segments {
		total += len(seg)
	}
	assert.Equal(t, len(resp.Points), total, "segments must partition every sample")

	// Defaults reach the builder unchanged.
	assert.Equal(t, 1.5, builder.last.ForecastHours)
	assert.True(t, builder.last.Start.IsZero(), "no start parameter means now")
}

// TestTrackJSONQueryParameters verifies explicit parameters are forwarded.
func TestTrackJSONQueryParameters(t *testing.T) {
	builder := &stubBuilder{}
	s := newTestServer(builder, auth.Config{})

	rec := get(t, s, "/api/v1/track?catnr=25544&hours=3&interval=60&start=20240410T120000", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 3.0, builder.last.ForecastHours)
	assert.Equal(t, 60*time.Second, builder.last.SampleInterval)
	assert.Equal(t, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC), builder.last.Start)
}

// TestTrackBadQuery verifies invalid query strings yield 400 without reaching
// the builder.
func TestTrackBadQuery(t *testing.T) {
	cases := []string{
		"/api/v1/track",                            // missing catnr
		"/api/v1/track?catnr=iss",                  // non-numeric
		"/api/v1/track?catnr=-1",                   // not positive
		"/api/v1/track?catnr=25544&hours=0",        // empty window
		"/api/v1/track?catnr=25544&hours=200",      // beyond 168 h
		"/api/v1/track?catnr=25544&interval=0",     // below 1 s
		"/api/v1/track?catnr=25544&interval=7200",  // above 3600 s
		"/api/v1/track?catnr=25544&stride=0",       // below 1
		"/api/v1/track?catnr=25544&start=20240410", // wrong layout
	}
	for _, target := range cases {
		s := newTestServer(&stubBuilder{err: errors.New("must not be called")}, auth.Config{})
		rec := get(t, s, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

// TestTrackErrorMapping verifies pipeline failures map to the documented
// statuses.
func TestTrackErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", track.ErrInvalidInput, http.StatusBadRequest},
		{"unknown catalog id", tle.ErrNotFound, http.StatusNotFound},
		{"upstream failure", &tle.RetrievalError{URL: "https://celestrak.org", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"propagation failure", track.ErrPropagation, http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newTestServer(&stubBuilder{err: c.err}, auth.Config{})
			rec := get(t, s, "/api/v1/track?catnr=25544", nil)
			assert.Equal(t, c.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

// TestTrackHTML verifies the map endpoint renders a page.
func TestTrackHTML(t *testing.T) {
	s := newTestServer(&stubBuilder{}, auth.Config{})

	rec := get(t, s, "/track?catnr=25544&title=ISS", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	html := rec.Body.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "ISS")
}

// TestAuth verifies bearer auth guards the track endpoints but not the
// operational paths.
func TestAuth(t *testing.T) {
	s := newTestServer(&stubBuilder{}, auth.Config{Enabled: true, Token: "secret"})

	rec := get(t, s, "/api/v1/track?catnr=25544", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, s, "/api/v1/track?catnr=25544", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(t, s, "/api/v1/track?catnr=25544", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMethodNotAllowed verifies writes are rejected.
func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(&stubBuilder{}, auth.Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/track?catnr=25544", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
