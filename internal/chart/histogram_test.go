package chart

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"penguinboard/pkg/domain"
)

func sampleHistogram() domain.Histogram {
	ds := domain.NewDataset([]domain.Record{
		{Species: domain.SpeciesAdelie, BillLengthMM: 39.1, BillDepthMM: 18.7, BodyMassG: 3750},
		{Species: domain.SpeciesGentoo, BillLengthMM: 46.1, BillDepthMM: 13.2, BodyMassG: 4500},
		{Species: domain.SpeciesChinstrap, BillLengthMM: 46.5, BillDepthMM: 17.9, BodyMassG: 3500},
	})
	return domain.BuildHistogram(domain.Compute(ds, domain.DefaultFilterState()), 1)
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, sampleHistogram(), Options{Width: 640, Height: 360}); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("image size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderPNGSingleBin(t *testing.T) {
	ds := domain.NewDataset([]domain.Record{{Species: domain.SpeciesAdelie, BillLengthMM: 39.1, BillDepthMM: 18.7, BodyMassG: 3000}})
	h := domain.BuildHistogram(domain.Compute(ds, domain.DefaultFilterState()), 1)
	var buf bytes.Buffer
	if err := RenderPNG(&buf, h, Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected image bytes")
	}
}

func TestRenderPNGEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, domain.Histogram{}, DefaultOptions())
	if !errors.Is(err, ErrEmptyHistogram) {
		t.Fatalf("expected ErrEmptyHistogram, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestColorForUnknownSpecies(t *testing.T) {
	if colorFor("Emperor") == colorFor(domain.SpeciesAdelie) {
		t.Fatalf("unknown species should use the fallback colour")
	}
}

func TestStackSeriesAccumulatesAcrossSpecies(t *testing.T) {
	h := sampleHistogram()
	series, maxY := stackSeries(h)
	if len(series) != 3 {
		t.Fatalf("series = %d, want 3", len(series))
	}
	// Gentoo 13.2 and Chinstrap 17.9 share the 46 mm bin.
	if math.Abs(maxY-31.1) > 1e-9 {
		t.Fatalf("maxY = %v, want the stacked 31.1", maxY)
	}
	top := series[len(series)-1]
	if top.Name != string(domain.SpeciesChinstrap) {
		t.Fatalf("top series = %s", top.Name)
	}
	for i, bin := range h.Bins {
		if math.Abs(top.YValues[2*i]-bin.Total()) > 1e-9 {
			t.Fatalf("bin %v: top outline = %v, bin total = %v", bin.Start, top.YValues[2*i], bin.Total())
		}
	}
	bottom := series[0]
	if bottom.Name != string(domain.SpeciesAdelie) || bottom.YValues[0] != 18.7 {
		t.Fatalf("bottom series = %s %v", bottom.Name, bottom.YValues[:2])
	}
}
