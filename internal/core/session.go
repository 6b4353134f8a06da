package core

import (
	"sync"
	"time"

	"penguinboard/pkg/domain"
)

// Surface is a presentation surface that re-renders from a filtered view.
// Render is invoked synchronously after every filter change while the owning
// session is locked.
type Surface interface {
	Name() string
	Render(view domain.FilteredView)
}

// Session owns one user's FilterState. Mutators recompute the filtered view
// and notify every subscribed surface before returning, so the next
// interaction always observes fresh output.
type Session struct {
	id      string
	dataset domain.Dataset

	mu       sync.Mutex
	state    domain.FilterState
	surfaces []Surface
	created  time.Time
	touched  time.Time
}

// NewSession constructs a session over dataset with the default filter state.
func NewSession(id string, dataset domain.Dataset, now time.Time) *Session {
	return &Session{
		id:      id,
		dataset: dataset,
		state:   domain.DefaultFilterState(),
		created: now,
		touched: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the current filter state.
func (s *Session) State() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers surfaces and renders them once against the current
// state.
func (s *Session) Subscribe(surfaces ...Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := domain.Compute(s.dataset, s.state)
	for _, surface := range surfaces {
		if surface == nil {
			continue
		}
		s.surfaces = append(s.surfaces, surface)
		surface.Render(view)
	}
}

// View recomputes the filtered view from the current state.
func (s *Session) View() domain.FilteredView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Compute(s.dataset, s.state)
}

// SetMassThreshold replaces the mass threshold and re-renders.
func (s *Session) SetMassThreshold(value float64) domain.FilteredView {
	return s.Apply(FilterUpdate{Mass: &value})
}

// SetSelectedSpecies replaces the species selection and re-renders.
func (s *Session) SetSelectedSpecies(species domain.SpeciesSet) domain.FilteredView {
	return s.Apply(FilterUpdate{Species: species.List(), HasSpecies: true})
}

// Apply replaces whichever fields the update carries, then recomputes once
// and notifies subscribers.
func (s *Session) Apply(update FilterUpdate) domain.FilteredView {
	return s.applyThen(update, nil)
}

// applyThen runs read against the new state before the lock is released, so
// no other interaction can land between the change and the read.
func (s *Session) applyThen(update FilterUpdate, read func(state domain.FilterState)) domain.FilteredView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if update.Mass != nil {
		s.state.SetMassThreshold(*update.Mass)
	}
	if update.HasSpecies {
		s.state.SetSelectedSpecies(domain.NewSpeciesSet(update.Species...))
	}
	view := s.notifyLocked()
	if read != nil {
		read(s.state)
	}
	return view
}

func (s *Session) notifyLocked() domain.FilteredView {
	view := domain.Compute(s.dataset, s.state)
	for _, surface := range s.surfaces {
		surface.Render(view)
	}
	return view
}

func (s *Session) withLock(fn func(state domain.FilterState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
