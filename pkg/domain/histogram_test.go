package domain_test

import (
	"math"
	"testing"

	"penguinboard/pkg/domain"
)

func TestBuildHistogramSumsDepthPerSpecies(t *testing.T) {
	ds := domain.NewDataset([]domain.Record{
		{Species: domain.SpeciesAdelie, BillLengthMM: 39.1, BillDepthMM: 18.7, BodyMassG: 3750},
		{Species: domain.SpeciesAdelie, BillLengthMM: 39.5, BillDepthMM: 17.4, BodyMassG: 3800},
		{Species: domain.SpeciesGentoo, BillLengthMM: 39.9, BillDepthMM: 13.0, BodyMassG: 5000},
		{Species: domain.SpeciesGentoo, BillLengthMM: 42.2, BillDepthMM: 14.0, BodyMassG: 5100},
		{Species: domain.SpeciesChinstrap, BillLengthMM: domain.Missing(), BillDepthMM: 18, BodyMassG: 3500},
	})
	h := domain.BuildHistogram(domain.Compute(ds, domain.DefaultFilterState()), 1)
	if h.Empty() {
		t.Fatalf("expected bins")
	}
	if len(h.Bins) != 4 {
		t.Fatalf("bins = %d, want 4 (39..43)", len(h.Bins))
	}
	first := h.Bins[0]
	if first.Start != 39 || first.End != 40 {
		t.Fatalf("first bin = [%v,%v)", first.Start, first.End)
	}
	if math.Abs(first.Totals[domain.SpeciesAdelie]-36.1) > 1e-9 || first.Counts[domain.SpeciesAdelie] != 2 {
		t.Fatalf("adelie totals = %v / %d", first.Totals[domain.SpeciesAdelie], first.Counts[domain.SpeciesAdelie])
	}
	if math.Abs(first.Total()-49.1) > 1e-9 {
		t.Fatalf("bin total = %v", first.Total())
	}
	if h.Bins[1].Total() != 0 || h.Bins[2].Total() != 0 {
		t.Fatalf("gap bins should be empty")
	}
	if len(h.Species) != 2 || h.Species[0] != domain.SpeciesAdelie || h.Species[1] != domain.SpeciesGentoo {
		t.Fatalf("species = %v", h.Species)
	}
}

func TestBuildHistogramEmptyAndDefaultWidth(t *testing.T) {
	h := domain.BuildHistogram(domain.FilteredView{}, 0)
	if !h.Empty() || h.BinWidth != domain.DefaultHistogramBinWidth {
		t.Fatalf("unexpected histogram %+v", h)
	}
}

func TestBuildHistogramBoundsOutlierRange(t *testing.T) {
	ds := domain.NewDataset([]domain.Record{
		{Species: domain.SpeciesAdelie, BillLengthMM: 39.1, BillDepthMM: 18.7, BodyMassG: 3750},
		{Species: domain.SpeciesGentoo, BillLengthMM: 1e18, BillDepthMM: 13.2, BodyMassG: 5000},
	})
	h := domain.BuildHistogram(domain.Compute(ds, domain.DefaultFilterState()), 1)
	if h.Empty() || len(h.Bins) > domain.MaxHistogramBins {
		t.Fatalf("bins = %d, want 1..%d", len(h.Bins), domain.MaxHistogramBins)
	}
	if h.BinWidth <= 1 {
		t.Fatalf("bin width = %v, expected it to widen", h.BinWidth)
	}
	if got := h.Bins[0].Totals[domain.SpeciesAdelie]; got != 18.7 {
		t.Fatalf("first bin adelie total = %v", got)
	}
	if got := h.Bins[len(h.Bins)-1].Totals[domain.SpeciesGentoo]; got != 13.2 {
		t.Fatalf("last bin gentoo total = %v", got)
	}
	var sum float64
	for _, bin := range h.Bins {
		sum += bin.Total()
	}
	if math.Abs(sum-31.9) > 1e-9 {
		t.Fatalf("depth sum across bins = %v, want 31.9", sum)
	}
}

func TestBuildHistogramWidensTinyBinWidth(t *testing.T) {
	ds := domain.NewDataset([]domain.Record{
		{Species: domain.SpeciesAdelie, BillLengthMM: 32.1, BillDepthMM: 15.5, BodyMassG: 3050},
		{Species: domain.SpeciesGentoo, BillLengthMM: 59.6, BillDepthMM: 17.0, BodyMassG: 5700},
	})
	h := domain.BuildHistogram(domain.Compute(ds, domain.DefaultFilterState()), 1e-9)
	if len(h.Bins) == 0 || len(h.Bins) > domain.MaxHistogramBins {
		t.Fatalf("bins = %d", len(h.Bins))
	}
	if h.BinWidth < 27.5/float64(domain.MaxHistogramBins) {
		t.Fatalf("bin width = %v, too narrow for the data range", h.BinWidth)
	}
	if h.Bins[0].Counts[domain.SpeciesAdelie] != 1 || h.Bins[len(h.Bins)-1].Counts[domain.SpeciesGentoo] != 1 {
		t.Fatalf("extreme rows not in the outer bins")
	}
}
