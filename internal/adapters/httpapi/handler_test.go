package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"penguinboard/internal/adapters/httpapi"
	"penguinboard/internal/core"
	"penguinboard/pkg/domain"
)

func testDataset() domain.Dataset {
	return domain.NewDataset([]domain.Record{
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: 39.1, BillDepthMM: 18.7, FlipperLengthMM: 181, BodyMassG: 3000},
		{Species: domain.SpeciesGentoo, Island: "Biscoe", BillLengthMM: 46.1, BillDepthMM: 13.2, FlipperLengthMM: 211, BodyMassG: 5000},
		{Species: domain.SpeciesChinstrap, Island: "Dream", BillLengthMM: 46.5, BillDepthMM: 17.9, FlipperLengthMM: 192, BodyMassG: 3500},
		{Species: domain.SpeciesAdelie, Island: "Torgersen", BillLengthMM: domain.Missing(), BillDepthMM: domain.Missing(), FlipperLengthMM: domain.Missing(), BodyMassG: domain.Missing()},
	})
}

func setupHandler(t *testing.T) *httpapi.Handler {
	t.Helper()
	n := 0
	svc := core.NewService(testDataset(), core.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}))
	return httpapi.NewHandler(svc, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

type snapshotResponse struct {
	SessionID  string `json:"session_id"`
	Title      string `json:"title"`
	RowCount   int    `json:"row_count"`
	ValueBoxes []struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"value_boxes"`
	Filter struct {
		Mass    float64  `json:"mass"`
		Species []string `json:"species"`
	} `json:"filter"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Errors []core.ParameterError `json:"errors"`
}

func TestSessionLifecycle(t *testing.T) {
	h := setupHandler(t)

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/sessions/s1" {
		t.Fatalf("unexpected location %q", loc)
	}
	snap := decode[snapshotResponse](t, rec)
	if snap.SessionID != "s1" || snap.Title != core.DashboardTitle || snap.RowCount != 3 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
	if snap.Filter.Mass != 6000 || len(snap.Filter.Species) != 3 {
		t.Fatalf("unexpected default filter %+v", snap.Filter)
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", `{"mass": 3600, "species": ["Adelie", "Chinstrap"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	snap = decode[snapshotResponse](t, rec)
	if snap.RowCount != 2 || snap.ValueBoxes[0].Value != "2" {
		t.Fatalf("unexpected filtered snapshot %+v", snap)
	}
	if snap.ValueBoxes[1].Value != "42.8 mm" {
		t.Fatalf("unexpected mean bill length %q", snap.ValueBoxes[1].Value)
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", `{"mass": 100000}`)
	snap = decode[snapshotResponse](t, rec)
	if rec.Code != http.StatusOK || snap.Filter.Mass != 100000 || snap.RowCount != 2 {
		t.Fatalf("out-of-range mass should pass unclamped: %d %+v", rec.Code, snap)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1", "")
	if rec.Code != http.StatusOK || decode[snapshotResponse](t, rec).RowCount != 2 {
		t.Fatalf("get snapshot: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodDelete, "/api/v1/sessions/s1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestEmptySelectionIsADisplayState(t *testing.T) {
	h := setupHandler(t)
	do(t, h, http.MethodPost, "/api/v1/sessions", "")

	rec := do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", `{"species": []}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	snap := decode[snapshotResponse](t, rec)
	if snap.RowCount != 0 || snap.ValueBoxes[0].Value != "0" || snap.ValueBoxes[1].Value != domain.EmptyMeasureDisplay {
		t.Fatalf("unexpected empty snapshot %+v", snap)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/histogram.png", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for empty histogram, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/rows", "")
	table := decode[domain.Table](t, rec)
	if rec.Code != http.StatusOK || len(table.Rows) != 0 {
		t.Fatalf("expected empty grid, got %d %+v", rec.Code, table)
	}
}

func TestFilterValidation(t *testing.T) {
	h := setupHandler(t)
	do(t, h, http.MethodPost, "/api/v1/sessions", "")

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"non numeric mass", `{"mass": "heavy"}`, "mass"},
		{"unknown species", `{"species": ["Emperor"]}`, "species"},
		{"unknown control", `{"island": "Dream"}`, "island"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decode[errorResponse](t, rec)
			if len(resp.Errors) != 1 || resp.Errors[0].Name != tc.field {
				t.Fatalf("unexpected errors %+v", resp)
			}
		})
	}

	rec := do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", `{"mass":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPatch, "/api/v1/sessions/s1/filter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should be a no-op update, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPatch, "/api/v1/sessions/missing/filter", `{"mass": 4000}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1", "")
	if decode[snapshotResponse](t, rec).RowCount != 3 {
		t.Fatalf("rejected input must not change the filter")
	}
}

func TestRowsAndHistogram(t *testing.T) {
	h := setupHandler(t)
	do(t, h, http.MethodPost, "/api/v1/sessions", "")

	rec := do(t, h, http.MethodGet, "/api/v1/sessions/s1/rows", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rows: %d", rec.Code)
	}
	table := decode[domain.Table](t, rec)
	if len(table.Columns) != 5 || table.Filterable || len(table.Rows) != 3 {
		t.Fatalf("unexpected table %+v", table)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/histogram", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("histogram: %d", rec.Code)
	}
	hist := decode[domain.Histogram](t, rec)
	if hist.Empty() || hist.BinWidth != domain.DefaultHistogramBinWidth {
		t.Fatalf("unexpected histogram %+v", hist)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/histogram.png?width=320&height=200", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Fatalf("unexpected image size %dx%d", cfg.Width, cfg.Height)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/s1/histogram.png?width=50", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for tiny width, got %d", rec.Code)
	}
}

func TestRoutingAndMethods(t *testing.T) {
	h := setupHandler(t)
	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/controls", http.StatusOK},
		{http.MethodGet, "/api/v1/openapi.yaml", http.StatusOK},
		{http.MethodPut, "/api/v1/controls", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/sessions", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/v1/sessions/s1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/sessions/s1/filter", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/sessions/s1/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/v1/sessions/s1/rows/extra", http.StatusNotFound},
		{http.MethodGet, "/api/v1/nothing", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.path, "")
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/controls", "")
	controls := decode[core.Controls](t, rec)
	if controls.Mass.Min != 2000 || controls.Mass.Max != 6000 || controls.Mass.Default != 6000 || len(controls.Links) == 0 {
		t.Fatalf("unexpected controls %+v", controls)
	}
}

type failingService struct{}

func (failingService) Controls() core.Controls { return core.DefaultControls() }
func (failingService) OpenSession(context.Context) (core.DashboardSnapshot, error) {
	return core.DashboardSnapshot{}, errors.New("registry offline")
}
func (failingService) Snapshot(context.Context, string) (core.DashboardSnapshot, error) {
	return core.DashboardSnapshot{}, core.ErrInvalidFilter{Errors: []core.ParameterError{{Name: "mass", Message: "must be a finite number"}}}
}
func (failingService) UpdateFilter(context.Context, string, core.FilterUpdate) (core.DashboardSnapshot, error) {
	return core.DashboardSnapshot{}, errors.New("boom")
}
func (failingService) Rows(context.Context, string) (domain.Table, error) {
	return domain.Table{}, errors.New("boom")
}
func (failingService) Histogram(context.Context, string) (domain.Histogram, error) {
	return domain.Histogram{}, errors.New("boom")
}
func (failingService) CloseSession(context.Context, string) error { return errors.New("boom") }

type recordingLogger struct{ errors int }

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) { l.errors++ }

func TestServiceErrorsMapToStatus(t *testing.T) {
	logger := &recordingLogger{}
	h := httpapi.NewHandler(failingService{}, logger)
	if rec := do(t, h, http.MethodPost, "/api/v1/sessions", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/v1/sessions/x", "")
	if rec.Code != http.StatusBadRequest || len(decode[errorResponse](t, rec).Errors) != 1 {
		t.Fatalf("expected 400 with errors, got %d %s", rec.Code, rec.Body.String())
	}
	if logger.errors != 1 {
		t.Fatalf("expected one logged error, got %d", logger.errors)
	}

	var nilHandler httpapi.Handler
	rec = httptest.NewRecorder()
	nilHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without service, got %d", rec.Code)
	}
}
