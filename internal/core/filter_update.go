package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"penguinboard/pkg/domain"
)

// ParameterError describes a malformed control value.
type ParameterError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// FilterUpdate carries the control values changed by one interaction. Nil
// Mass leaves the threshold untouched; HasSpecies=false leaves the selection
// untouched.
type FilterUpdate struct {
	Mass       *float64
	Species    []domain.Species
	HasSpecies bool
}

// ParseFilterUpdate coerces raw control values ("mass", "species") into an
// update. Malformed values are reported; finite out-of-range masses are
// accepted unchanged.
func ParseFilterUpdate(params map[string]any) (FilterUpdate, []ParameterError) {
	var (
		update FilterUpdate
		errs   []ParameterError
	)
	var unknown []string
	for name := range params {
		if name != "mass" && name != "species" {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, ParameterError{Name: name, Message: "unknown control"})
	}
	if raw, ok := params["mass"]; ok {
		mass, err := coerceMass(raw)
		if err != nil {
			errs = append(errs, ParameterError{Name: "mass", Message: err.Error()})
		} else {
			update.Mass = &mass
		}
	}
	if raw, ok := params["species"]; ok {
		species, err := coerceSpecies(raw)
		if err != nil {
			errs = append(errs, ParameterError{Name: "species", Message: err.Error()})
		} else {
			update.Species = species
			update.HasSpecies = true
		}
	}
	return update, errs
}

func coerceMass(raw any) (float64, error) {
	var v float64
	switch val := raw.(type) {
	case float64:
		v = val
	case float32:
		v = float64(val)
	case int:
		v = float64(val)
	case int64:
		v = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", val)
		}
		v = parsed
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	return v, nil
}

func coerceSpecies(raw any) ([]domain.Species, error) {
	var labels []string
	switch val := raw.(type) {
	case nil:
		return []domain.Species{}, nil
	case string:
		for _, part := range strings.Split(val, ",") {
			if strings.TrimSpace(part) != "" {
				labels = append(labels, part)
			}
		}
	case []string:
		labels = val
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected species labels, got %T", item)
			}
			labels = append(labels, s)
		}
	default:
		return nil, fmt.Errorf("expected list of species, got %T", raw)
	}
	out := make([]domain.Species, 0, len(labels))
	for _, label := range labels {
		sp, err := domain.ParseSpecies(label)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
