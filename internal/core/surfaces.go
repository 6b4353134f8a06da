package core

import (
	"strconv"
	"sync"

	"penguinboard/pkg/domain"
)

// Surface names used in logs and snapshots.
const (
	SurfaceValueBoxes = "value_boxes"
	SurfaceDataGrid   = "data_grid"
	SurfaceHistogram  = "histogram"
)

// ValueBox is one rendered summary tile.
type ValueBox struct {
	ID      string   `json:"id"`
	Caption string   `json:"caption"`
	Icon    string   `json:"icon"`
	Value   string   `json:"value"`
	Raw     *float64 `json:"raw,omitempty"`
}

// ValueBoxes renders the count and the two bill means.
type ValueBoxes struct {
	mu      sync.RWMutex
	summary domain.Summary
	renders int
}

// Name implements Surface.
func (b *ValueBoxes) Name() string { return SurfaceValueBoxes }

// Render implements Surface.
func (b *ValueBoxes) Render(view domain.FilteredView) {
	summary := domain.Summarize(view)
	b.mu.Lock()
	b.summary = summary
	b.renders++
	b.mu.Unlock()
}

// Summary returns the last rendered aggregates.
func (b *ValueBoxes) Summary() domain.Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary
}

// Boxes returns the tiles in display order.
func (b *ValueBoxes) Boxes() []ValueBox {
	s := b.Summary()
	count := float64(s.Count)
	return []ValueBox{
		{ID: "count", Caption: "Number of penguins", Icon: "earlybirds", Value: strconv.Itoa(s.Count), Raw: &count},
		{ID: "bill_length", Caption: "Average bill length", Icon: "ruler-horizontal", Value: s.BillLength, Raw: s.MeanBillLength},
		{ID: "bill_depth", Caption: "Average bill depth", Icon: "ruler-vertical", Value: s.BillDepth, Raw: s.MeanBillDepth},
	}
}

// Renders reports how many times the surface has rendered.
func (b *ValueBoxes) Renders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.renders
}

// DataGrid renders the tabular projection of the view.
type DataGrid struct {
	mu      sync.RWMutex
	table   domain.Table
	renders int
}

// Name implements Surface.
func (g *DataGrid) Name() string { return SurfaceDataGrid }

// Render implements Surface.
func (g *DataGrid) Render(view domain.FilteredView) {
	table := domain.Project(view)
	g.mu.Lock()
	g.table = table
	g.renders++
	g.mu.Unlock()
}

// Table returns the last rendered projection.
func (g *DataGrid) Table() domain.Table {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.table
}

// Renders reports how many times the surface has rendered.
func (g *DataGrid) Renders() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.renders
}

// HistogramPanel renders the binned bill length vs. depth chart data.
type HistogramPanel struct {
	binWidth float64

	mu        sync.RWMutex
	histogram domain.Histogram
	renders   int
}

// NewHistogramPanel constructs a panel with the supplied bin width.
func NewHistogramPanel(binWidth float64) *HistogramPanel {
	return &HistogramPanel{binWidth: binWidth}
}

// Name implements Surface.
func (p *HistogramPanel) Name() string { return SurfaceHistogram }

// Render implements Surface.
func (p *HistogramPanel) Render(view domain.FilteredView) {
	h := domain.BuildHistogram(view, p.binWidth)
	p.mu.Lock()
	p.histogram = h
	p.renders++
	p.mu.Unlock()
}

// Histogram returns the last rendered bins.
func (p *HistogramPanel) Histogram() domain.Histogram {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.histogram
}

// Renders reports how many times the surface has rendered.
func (p *HistogramPanel) Renders() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.renders
}
