package domain

// Mass slider bounds and default advertised to the controls. Compute never
// clamps to them.
const (
	MassSliderMin        = 2000.0
	MassSliderMax        = 6000.0
	DefaultMassThreshold = 6000.0
)

// FilterState holds the two user-controlled filter inputs of a session.
type FilterState struct {
	// MassThreshold is the exclusive upper bound on body mass in grams.
	MassThreshold float64 `json:"mass"`
	// SelectedSpecies may be empty, in which case nothing matches.
	SelectedSpecies SpeciesSet `json:"species"`
}

// DefaultFilterState returns the initial controls: threshold 6000 g and every
// species selected.
func DefaultFilterState() FilterState {
	return FilterState{
		MassThreshold:   DefaultMassThreshold,
		SelectedSpecies: AllSpeciesSet(),
	}
}

// SetMassThreshold replaces the threshold as given.
func (f *FilterState) SetMassThreshold(value float64) {
	f.MassThreshold = value
}

// SetSelectedSpecies replaces the species selection.
func (f *FilterState) SetSelectedSpecies(species SpeciesSet) {
	f.SelectedSpecies = NewSpeciesSet(species.List()...)
}

// Matches reports whether a record passes both predicates.
func (f FilterState) Matches(rec Record) bool {
	return f.SelectedSpecies.Contains(rec.Species) && rec.BodyMassG < f.MassThreshold
}

// Compute derives the filtered view of dataset under state. Species
// membership is applied first, then the strict body mass bound; missing body
// mass never passes. Source order is preserved.
func Compute(dataset Dataset, state FilterState) FilteredView {
	if state.SelectedSpecies.Empty() {
		return FilteredView{dataset: dataset}
	}
	bySpecies := make([]int, 0, dataset.Len())
	for i := 0; i < dataset.Len(); i++ {
		if state.SelectedSpecies.Contains(dataset.At(i).Species) {
			bySpecies = append(bySpecies, i)
		}
	}
	indices := make([]int, 0, len(bySpecies))
	for _, i := range bySpecies {
		if dataset.At(i).BodyMassG < state.MassThreshold {
			indices = append(indices, i)
		}
	}
	return FilteredView{dataset: dataset, indices: indices}
}
