// Package httpapi exposes the dashboard controls and presentation surfaces
// over HTTP/JSON.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"penguinboard/docs/schema/openapi"
	"penguinboard/internal/chart"
	"penguinboard/internal/core"
	"penguinboard/pkg/domain"
)

const (
	apiPrefix      = "/api/v1"
	sessionsPrefix = apiPrefix + "/sessions"

	minImageSide = 100
	maxImageSide = 4000
	maxBodyBytes = 64 << 10
)

// DashboardService is the subset of core.Service the handler drives.
type DashboardService interface {
	Controls() core.Controls
	OpenSession(ctx context.Context) (core.DashboardSnapshot, error)
	Snapshot(ctx context.Context, id string) (core.DashboardSnapshot, error)
	UpdateFilter(ctx context.Context, id string, update core.FilterUpdate) (core.DashboardSnapshot, error)
	Rows(ctx context.Context, id string) (domain.Table, error)
	Histogram(ctx context.Context, id string) (domain.Histogram, error)
	CloseSession(ctx context.Context, id string) error
}

// Handler routes dashboard requests.
type Handler struct {
	Service DashboardService
	Chart   chart.Options
	Logger  core.Logger
}

// NewHandler constructs a dashboard HTTP handler.
func NewHandler(svc DashboardService, logger core.Logger) *Handler {
	return &Handler{Service: svc, Chart: chart.DefaultOptions(), Logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "dashboard service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		if !allow(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	case path == apiPrefix+"/openapi.yaml":
		if !allow(w, r, http.MethodGet) {
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapi.Spec())
	case path == apiPrefix+"/controls":
		if !allow(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, http.StatusOK, h.Service.Controls())
	case path == sessionsPrefix:
		if !allow(w, r, http.MethodPost) {
			return
		}
		h.handleOpen(w, r)
	case strings.HasPrefix(path, sessionsPrefix+"/"):
		h.handleSession(w, r, strings.TrimPrefix(path, sessionsPrefix+"/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.OpenSession(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", sessionsPrefix+"/"+snap.SessionID)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" || len(segments) > 2 {
		writeError(w, http.StatusNotFound, "dashboard endpoint not found")
		return
	}
	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			snap, err := h.Service.Snapshot(r.Context(), id)
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, snap)
		case http.MethodDelete:
			if err := h.Service.CloseSession(r.Context(), id); err != nil {
				h.writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
		return
	}

	switch segments[1] {
	case "filter":
		if !allow(w, r, http.MethodPatch, http.MethodPost) {
			return
		}
		h.handleFilter(w, r, id)
	case "rows":
		if !allow(w, r, http.MethodGet) {
			return
		}
		table, err := h.Service.Rows(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, table)
	case "histogram":
		if !allow(w, r, http.MethodGet) {
			return
		}
		hist, err := h.Service.Histogram(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hist)
	case "histogram.png":
		if !allow(w, r, http.MethodGet) {
			return
		}
		h.handleHistogramPNG(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "dashboard endpoint not found")
	}
}

func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request, id string) {
	var params map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid filter payload")
		return
	}
	update, errs := core.ParseFilterUpdate(params)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid filter", Errors: errs})
		return
	}
	snap, err := h.Service.UpdateFilter(r.Context(), id, update)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleHistogramPNG(w http.ResponseWriter, r *http.Request, id string) {
	opts := h.Chart
	var errs []core.ParameterError
	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &opts.Width}, {"height", &opts.Height}} {
		raw := r.URL.Query().Get(dim.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < minImageSide || v > maxImageSide {
			errs = append(errs, core.ParameterError{Name: dim.name, Message: "must be an integer between 100 and 4000"})
			continue
		}
		*dim.dst = v
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid image size", Errors: errs})
		return
	}
	hist, err := h.Service.Histogram(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, hist, opts); err != nil {
		if errors.Is(err, chart.ErrEmptyHistogram) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logError("render histogram", err, "session", id)
		writeError(w, http.StatusInternalServerError, "render histogram failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type errorResponse struct {
	Error  string                `json:"error"`
	Errors []core.ParameterError `json:"errors,omitempty"`
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var notFound core.ErrNotFound
	var invalid core.ErrInvalidFilter
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid filter", Errors: invalid.Errors})
	default:
		h.logError("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) logError(msg string, err error, args ...any) {
	if h.Logger == nil {
		return
	}
	h.Logger.Error(msg, append([]any{"error", err}, args...)...)
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	methodNotAllowed(w, methods...)
	return false
}

func methodNotAllowed(w http.ResponseWriter, methods ...string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
