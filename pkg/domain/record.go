// Package domain defines the penguin record model, the per-session filter
// state and the pure calculations that derive every dashboard surface from a
// dataset snapshot.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Species identifies one of the closed set of penguin species in the dataset.
type Species string

// Supported species labels, in the order the controls present them.
const (
	// SpeciesAdelie identifies Pygoscelis adeliae.
	SpeciesAdelie Species = "Adelie"
	// SpeciesGentoo identifies Pygoscelis papua.
	SpeciesGentoo Species = "Gentoo"
	// SpeciesChinstrap identifies Pygoscelis antarcticus.
	SpeciesChinstrap Species = "Chinstrap"
)

var speciesOrder = map[Species]int{
	SpeciesAdelie:    0,
	SpeciesGentoo:    1,
	SpeciesChinstrap: 2,
}

// AllSpecies returns the species enumeration in display order.
func AllSpecies() []Species {
	return []Species{SpeciesAdelie, SpeciesGentoo, SpeciesChinstrap}
}

// ParseSpecies resolves a label to a known species. Matching ignores case and
// surrounding whitespace.
func ParseSpecies(label string) (Species, error) {
	trimmed := strings.TrimSpace(label)
	for _, sp := range AllSpecies() {
		if strings.EqualFold(trimmed, string(sp)) {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown species %q", label)
}

// Record is one observed penguin. Missing measurements are stored as NaN and
// reported through the Has* helpers; they never satisfy a numeric comparison.
type Record struct {
	Species         Species
	Island          string
	BillLengthMM    float64
	BillDepthMM     float64
	FlipperLengthMM float64
	BodyMassG       float64
	Sex             string
	Year            int
}

// Missing returns the sentinel used for absent measurements.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a measurement is absent.
func IsMissing(v float64) bool { return math.IsNaN(v) }

type recordJSON struct {
	Species         Species  `json:"species"`
	Island          string   `json:"island"`
	BillLengthMM    *float64 `json:"bill_length_mm"`
	BillDepthMM     *float64 `json:"bill_depth_mm"`
	FlipperLengthMM *float64 `json:"flipper_length_mm"`
	BodyMassG       *float64 `json:"body_mass_g"`
	Sex             string   `json:"sex,omitempty"`
	Year            int      `json:"year,omitempty"`
}

// MarshalJSON encodes missing measurements as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Species:         r.Species,
		Island:          r.Island,
		BillLengthMM:    measurePtr(r.BillLengthMM),
		BillDepthMM:     measurePtr(r.BillDepthMM),
		FlipperLengthMM: measurePtr(r.FlipperLengthMM),
		BodyMassG:       measurePtr(r.BodyMassG),
		Sex:             r.Sex,
		Year:            r.Year,
	})
}

// UnmarshalJSON decodes null or absent measurements as missing.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		Species:         raw.Species,
		Island:          raw.Island,
		BillLengthMM:    measureValue(raw.BillLengthMM),
		BillDepthMM:     measureValue(raw.BillDepthMM),
		FlipperLengthMM: measureValue(raw.FlipperLengthMM),
		BodyMassG:       measureValue(raw.BodyMassG),
		Sex:             raw.Sex,
		Year:            raw.Year,
	}
	return nil
}

func measurePtr(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	out := v
	return &out
}

func measureValue(p *float64) float64 {
	if p == nil {
		return Missing()
	}
	return *p
}

// SpeciesSet is an immutable set of species labels. The zero value is the
// empty set.
type SpeciesSet struct {
	members map[Species]struct{}
}

// NewSpeciesSet builds a set from the supplied labels; duplicates collapse.
func NewSpeciesSet(species ...Species) SpeciesSet {
	members := make(map[Species]struct{}, len(species))
	for _, sp := range species {
		members[sp] = struct{}{}
	}
	return SpeciesSet{members: members}
}

// AllSpeciesSet returns a set holding every known species.
func AllSpeciesSet() SpeciesSet { return NewSpeciesSet(AllSpecies()...) }

// Contains reports membership.
func (s SpeciesSet) Contains(sp Species) bool {
	_, ok := s.members[sp]
	return ok
}

// Len returns the number of members.
func (s SpeciesSet) Len() int { return len(s.members) }

// Empty reports whether no species is selected.
func (s SpeciesSet) Empty() bool { return len(s.members) == 0 }

// List returns the members with known species in display order first and any
// other labels sorted lexically after them.
func (s SpeciesSet) List() []Species {
	out := make([]Species, 0, len(s.members))
	for sp := range s.members {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iKnown := speciesOrder[out[i]]
		oj, jKnown := speciesOrder[out[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Equal reports whether both sets hold the same members.
func (s SpeciesSet) Equal(other SpeciesSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for sp := range s.members {
		if !other.Contains(sp) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as an ordered list.
func (s SpeciesSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a list of labels.
func (s *SpeciesSet) UnmarshalJSON(data []byte) error {
	var labels []Species
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*s = NewSpeciesSet(labels...)
	return nil
}
