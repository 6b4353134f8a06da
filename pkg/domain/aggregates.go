package domain

import "fmt"

// EmptyMeasureDisplay is shown in place of a mean that has no contributing
// values.
const EmptyMeasureDisplay = "—"

// Count returns the number of rows in the view.
func Count(view FilteredView) int { return view.Len() }

// MeanBillLength averages bill length over the view, skipping missing values.
// ok is false when no value contributes.
func MeanBillLength(view FilteredView) (mean float64, ok bool) {
	return meanOf(view, func(r Record) float64 { return r.BillLengthMM })
}

// MeanBillDepth averages bill depth over the view, skipping missing values.
func MeanBillDepth(view FilteredView) (mean float64, ok bool) {
	return meanOf(view, func(r Record) float64 { return r.BillDepthMM })
}

func meanOf(view FilteredView, pick func(Record) float64) (float64, bool) {
	var (
		sum float64
		n   int
	)
	for i := 0; i < view.Len(); i++ {
		v := pick(view.At(i))
		if IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Missing(), false
	}
	return sum / float64(n), true
}

// FormatMillimetres renders a mean with one decimal and a unit suffix.
func FormatMillimetres(mean float64, ok bool) string {
	if !ok || IsMissing(mean) {
		return EmptyMeasureDisplay
	}
	return fmt.Sprintf("%.1f mm", mean)
}

// Summary bundles the value-box aggregates of one view.
type Summary struct {
	Count          int      `json:"count"`
	MeanBillLength *float64 `json:"mean_bill_length_mm"`
	MeanBillDepth  *float64 `json:"mean_bill_depth_mm"`
	BillLength     string   `json:"bill_length"`
	BillDepth      string   `json:"bill_depth"`
}

// Summarize recomputes every value-box aggregate from scratch.
func Summarize(view FilteredView) Summary {
	length, lengthOK := MeanBillLength(view)
	depth, depthOK := MeanBillDepth(view)
	return Summary{
		Count:          Count(view),
		MeanBillLength: measurePtr(length),
		MeanBillDepth:  measurePtr(depth),
		BillLength:     FormatMillimetres(length, lengthOK),
		BillDepth:      FormatMillimetres(depth, depthOK),
	}
}
