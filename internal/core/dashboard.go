package core

import "penguinboard/pkg/domain"

// Dashboard bundles the surfaces subscribed to one session.
type Dashboard struct {
	session   *Session
	Boxes     *ValueBoxes
	Grid      *DataGrid
	Histogram *HistogramPanel
}

// NewDashboard subscribes a fresh set of surfaces to session.
func NewDashboard(session *Session, binWidth float64) *Dashboard {
	d := &Dashboard{
		session:   session,
		Boxes:     &ValueBoxes{},
		Grid:      &DataGrid{},
		Histogram: NewHistogramPanel(binWidth),
	}
	session.Subscribe(d.Boxes, d.Grid, d.Histogram)
	return d
}

// Session returns the owning session.
func (d *Dashboard) Session() *Session { return d.session }

// Card is a titled panel of the dashboard.
type Card struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	Href   string `json:"href"`
}

// DashboardSnapshot is the JSON view of every surface of one session.
type DashboardSnapshot struct {
	SessionID  string             `json:"session_id"`
	Title      string             `json:"title"`
	Filter     domain.FilterState `json:"filter"`
	ValueBoxes []ValueBox         `json:"value_boxes"`
	Summary    domain.Summary     `json:"summary"`
	RowCount   int                `json:"row_count"`
	Cards      []Card             `json:"cards"`
}

// Snapshot reads every surface under the session lock so the parts agree.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	var snap DashboardSnapshot
	d.session.withLock(func(state domain.FilterState) {
		snap = d.snapshotOf(state)
	})
	return snap
}

// Update applies a control change and captures the snapshot it produced in
// the same critical section.
func (d *Dashboard) Update(update FilterUpdate) (DashboardSnapshot, domain.FilteredView) {
	var snap DashboardSnapshot
	view := d.session.applyThen(update, func(state domain.FilterState) {
		snap = d.snapshotOf(state)
	})
	return snap, view
}

func (d *Dashboard) snapshotOf(state domain.FilterState) DashboardSnapshot {
	base := "/api/v1/sessions/" + d.session.ID()
	return DashboardSnapshot{
		SessionID:  d.session.ID(),
		Title:      DashboardTitle,
		Filter:     state,
		ValueBoxes: d.Boxes.Boxes(),
		Summary:    d.Boxes.Summary(),
		RowCount:   len(d.Grid.Table().Rows),
		Cards: []Card{
			{ID: SurfaceHistogram, Header: "Plotly Histogram - Bill length and depth", Href: base + "/histogram"},
			{ID: SurfaceDataGrid, Header: "Penguin data", Href: base + "/rows"},
		},
	}
}
