package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"penguinboard/pkg/domain"
)

// EntitySession names the session entity in ErrNotFound.
const EntitySession = "session"

// ErrNotFound is returned when a referenced entity does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrInvalidFilter wraps control validation failures.
type ErrInvalidFilter struct {
	Errors []ParameterError
}

func (e ErrInvalidFilter) Error() string {
	if len(e.Errors) == 0 {
		return "invalid filter"
	}
	return fmt.Sprintf("invalid filter: %s: %s", e.Errors[0].Name, e.Errors[0].Message)
}

// Service hosts the shared read-only dataset and the per-session dashboards.
type Service struct {
	dataset  domain.Dataset
	binWidth float64
	newID    func() string

	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer

	mu       sync.RWMutex
	sessions map[string]*Dashboard
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics recorder.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithHistogramBinWidth sets the bill length bin width for new sessions.
func WithHistogramBinWidth(width float64) Option {
	return func(s *Service) {
		if width > 0 {
			s.binWidth = width
		}
	}
}

// WithIDGenerator overrides session identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a service over an already loaded dataset.
func NewService(dataset domain.Dataset, opts ...Option) *Service {
	svc := &Service{
		dataset:  dataset,
		binWidth: domain.DefaultHistogramBinWidth,
		newID:    uuid.NewString,
		clock:    systemClock{},
		logger:   noopLogger{},
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		sessions: make(map[string]*Dashboard),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Dataset returns the shared dataset.
func (s *Service) Dataset() domain.Dataset { return s.dataset }

// Controls returns the sidebar definition with per-species row counts.
func (s *Service) Controls() Controls {
	c := DefaultControls()
	c.Species.Counts = s.dataset.SpeciesCounts()
	return c
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// OpenSession creates a session with default controls and subscribes its
// surfaces.
func (s *Service) OpenSession(ctx context.Context) (DashboardSnapshot, error) {
	var snap DashboardSnapshot
	err := s.run(ctx, "open_session", func(context.Context) error {
		now := s.clock.Now()
		id := s.newID()
		dash := NewDashboard(NewSession(id, s.dataset, now), s.binWidth)

		s.mu.Lock()
		if _, exists := s.sessions[id]; exists {
			s.mu.Unlock()
			return fmt.Errorf("session %s already exists", id)
		}
		s.sessions[id] = dash
		count := len(s.sessions)
		s.mu.Unlock()

		s.reportSessions(count)
		s.logger.Info("session opened", "session", id, "rows", s.dataset.Len())
		snap = dash.Snapshot()
		return nil
	})
	return snap, err
}

// Snapshot returns the current dashboard of a session.
func (s *Service) Snapshot(ctx context.Context, id string) (DashboardSnapshot, error) {
	var snap DashboardSnapshot
	err := s.run(ctx, "snapshot", func(context.Context) error {
		dash, err := s.lookup(id)
		if err != nil {
			return err
		}
		snap = dash.Snapshot()
		return nil
	})
	return snap, err
}

// UpdateFilter applies a control change, recomputing every surface before
// returning the fresh snapshot.
func (s *Service) UpdateFilter(ctx context.Context, id string, update FilterUpdate) (DashboardSnapshot, error) {
	var snap DashboardSnapshot
	err := s.run(ctx, "update_filter", func(context.Context) error {
		dash, err := s.lookup(id)
		if err != nil {
			return err
		}
		if update.Mass != nil && !isFinite(*update.Mass) {
			return ErrInvalidFilter{Errors: []ParameterError{{Name: "mass", Message: "must be a finite number"}}}
		}
		var view domain.FilteredView
		snap, view = dash.Update(update)
		s.logger.Debug("filter applied", "session", id, "mass", snap.Filter.MassThreshold, "species", snap.Filter.SelectedSpecies.List(), "rows", view.Len())
		return nil
	})
	return snap, err
}

// Rows returns the data grid of a session.
func (s *Service) Rows(ctx context.Context, id string) (domain.Table, error) {
	var table domain.Table
	err := s.run(ctx, "rows", func(context.Context) error {
		dash, err := s.lookup(id)
		if err != nil {
			return err
		}
		dash.session.withLock(func(domain.FilterState) {
			table = dash.Grid.Table()
		})
		return nil
	})
	return table, err
}

// Histogram returns the histogram bins of a session.
func (s *Service) Histogram(ctx context.Context, id string) (domain.Histogram, error) {
	var h domain.Histogram
	err := s.run(ctx, "histogram", func(context.Context) error {
		dash, err := s.lookup(id)
		if err != nil {
			return err
		}
		dash.session.withLock(func(domain.FilterState) {
			h = dash.Histogram.Histogram()
		})
		return nil
	})
	return h, err
}

// CloseSession discards a session and its surfaces.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	return s.run(ctx, "close_session", func(context.Context) error {
		s.mu.Lock()
		if _, ok := s.sessions[id]; !ok {
			s.mu.Unlock()
			return ErrNotFound{Entity: EntitySession, ID: id}
		}
		delete(s.sessions, id)
		count := len(s.sessions)
		s.mu.Unlock()
		s.reportSessions(count)
		s.logger.Info("session closed", "session", id)
		return nil
	})
}

// PruneIdle closes sessions untouched for longer than maxIdle and returns the
// identifiers removed, sorted.
func (s *Service) PruneIdle(maxIdle time.Duration) []string {
	if maxIdle <= 0 {
		return nil
	}
	cutoff := s.clock.Now().Add(-maxIdle)
	s.mu.Lock()
	var removed []string
	for id, dash := range s.sessions {
		if dash.session.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()
	sort.Strings(removed)
	if len(removed) > 0 {
		s.reportSessions(count)
		s.logger.Info("idle sessions pruned", "count", len(removed))
	}
	return removed
}

// RunJanitor prunes idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneIdle(maxIdle)
		}
	}
}

func (s *Service) lookup(id string) (*Dashboard, error) {
	s.mu.RLock()
	dash, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound{Entity: EntitySession, ID: id}
	}
	dash.session.touch(s.clock.Now())
	return dash, nil
}

func (s *Service) reportSessions(n int) {
	if gauge, ok := s.metrics.(SessionGauge); ok {
		gauge.SetActiveSessions(n)
	}
}

// run wraps an operation with tracing, metrics and error logging.
func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := s.clock.Now()
	err := fn(ctx)
	s.metrics.Observe(ctx, operation, err == nil, s.clock.Now().Sub(started))
	span.End(err)
	if err != nil {
		var notFound ErrNotFound
		var invalid ErrInvalidFilter
		switch {
		case errors.As(err, &notFound), errors.As(err, &invalid):
			s.logger.Debug("operation rejected", "operation", operation, "error", err)
		default:
			s.logger.Error("operation failed", "operation", operation, "error", err)
		}
	}
	return err
}
