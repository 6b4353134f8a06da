package domain

// Column describes one projected grid column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

// GridColumns lists the columns of the data grid in display order.
var GridColumns = []Column{
	{Name: "species", Type: "string"},
	{Name: "island", Type: "string"},
	{Name: "bill_length_mm", Type: "number", Unit: "mm"},
	{Name: "bill_depth_mm", Type: "number", Unit: "mm"},
	{Name: "body_mass_g", Type: "number", Unit: "g"},
}

// GridRow is the projection of a record onto GridColumns. Missing values are
// nil.
type GridRow struct {
	Species      Species  `json:"species"`
	Island       string   `json:"island"`
	BillLengthMM *float64 `json:"bill_length_mm"`
	BillDepthMM  *float64 `json:"bill_depth_mm"`
	BodyMassG    *float64 `json:"body_mass_g"`
}

// Table is the tabular projection of a view.
type Table struct {
	Columns []Column  `json:"columns"`
	Rows    []GridRow `json:"rows"`
	// Filterable is always false: the grid exposes no filters of its own.
	Filterable bool `json:"filterable"`
}

// Project restricts the view to GridColumns, keeping row order.
func Project(view FilteredView) Table {
	cols := make([]Column, len(GridColumns))
	copy(cols, GridColumns)
	rows := make([]GridRow, view.Len())
	for i := range rows {
		rec := view.At(i)
		rows[i] = GridRow{
			Species:      rec.Species,
			Island:       rec.Island,
			BillLengthMM: measurePtr(rec.BillLengthMM),
			BillDepthMM:  measurePtr(rec.BillDepthMM),
			BodyMassG:    measurePtr(rec.BodyMassG),
		}
	}
	return Table{Columns: cols, Rows: rows}
}
