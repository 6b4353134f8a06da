package domain

import "math"

// DefaultHistogramBinWidth is the bill length bin width in millimetres.
const DefaultHistogramBinWidth = 1.0

// HistogramBin aggregates bill depth over one bill length interval
// [Start, End), summed per species.
type HistogramBin struct {
	Start  float64             `json:"start_mm"`
	End    float64             `json:"end_mm"`
	Totals map[Species]float64 `json:"depth_sum_mm"`
	Counts map[Species]int     `json:"counts"`
}

// Total sums bill depth across species in the bin.
func (b HistogramBin) Total() float64 {
	var total float64
	for _, v := range b.Totals {
		total += v
	}
	return total
}

// Histogram is a bill length vs. bill depth histogram stacked by species.
type Histogram struct {
	XField   string         `json:"x"`
	YField   string         `json:"y"`
	BinWidth float64        `json:"bin_width_mm"`
	Species  []Species      `json:"species"`
	Bins     []HistogramBin `json:"bins"`
}

// Empty reports whether there is nothing to draw.
func (h Histogram) Empty() bool { return len(h.Bins) == 0 }

// MaxHistogramBins bounds how many bins one histogram spans. Wider data
// ranges double the bin width until they fit.
const MaxHistogramBins = 1000

// BuildHistogram bins bill length into fixed-width intervals aligned to
// multiples of binWidth and sums bill depth per species within each bin.
// Rows missing either measurement are skipped. Bins between the first and
// last populated bin are emitted even when empty so the axis stays
// contiguous. A non-positive binWidth falls back to the default.
func BuildHistogram(view FilteredView, binWidth float64) Histogram {
	if binWidth <= 0 || math.IsNaN(binWidth) || math.IsInf(binWidth, 0) {
		binWidth = DefaultHistogramBinWidth
	}
	h := Histogram{XField: "bill_length_mm", YField: "bill_depth_mm", BinWidth: binWidth}

	type point struct {
		species Species
		length  float64
		depth   float64
	}
	points := make([]point, 0, view.Len())
	seen := make(map[Species]struct{})
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < view.Len(); i++ {
		rec := view.At(i)
		if !finite(rec.BillLengthMM) || !finite(rec.BillDepthMM) {
			continue
		}
		lo = math.Min(lo, rec.BillLengthMM)
		hi = math.Max(hi, rec.BillLengthMM)
		seen[rec.Species] = struct{}{}
		points = append(points, point{species: rec.Species, length: rec.BillLengthMM, depth: rec.BillDepthMM})
	}
	if len(points) == 0 {
		return h
	}

	species := make([]Species, 0, len(seen))
	for sp := range seen {
		species = append(species, sp)
	}
	h.Species = NewSpeciesSet(species...).List()

	binWidth = fitBinWidth(lo, hi, binWidth)
	h.BinWidth = binWidth
	first := math.Floor(lo / binWidth)
	n := int(math.Floor(hi/binWidth)-first) + 1
	if n > MaxHistogramBins {
		n = MaxHistogramBins
	}
	h.Bins = make([]HistogramBin, n)
	for i := range h.Bins {
		start := (first + float64(i)) * binWidth
		h.Bins[i] = HistogramBin{
			Start:  start,
			End:    start + binWidth,
			Totals: make(map[Species]float64, len(h.Species)),
			Counts: make(map[Species]int, len(h.Species)),
		}
	}
	for _, p := range points {
		idx := int(math.Floor(p.length/binWidth) - first)
		if idx < 0 {
			idx = 0
		} else if idx >= n {
			idx = n - 1
		}
		bin := &h.Bins[idx]
		bin.Totals[p.species] += p.depth
		bin.Counts[p.species]++
	}
	return h
}

// fitBinWidth doubles width until [lo, hi] spans at most MaxHistogramBins
// bins. Doubling keeps bin edges on multiples of the requested width.
func fitBinWidth(lo, hi, width float64) float64 {
	for math.Floor(hi/width)-math.Floor(lo/width)+1 > MaxHistogramBins {
		width *= 2
	}
	return width
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
