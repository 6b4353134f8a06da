package core

import "penguinboard/pkg/domain"

// DashboardTitle is the page title reported with every snapshot.
const DashboardTitle = "Palmer Penguins Data Statistics"

// SliderControl describes a numeric slider input.
type SliderControl struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// CheckboxGroupControl describes a multi-select input.
type CheckboxGroupControl struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Options  []domain.Species `json:"options"`
	Selected []domain.Species `json:"selected"`
	// Counts is the number of dataset rows per option.
	Counts map[domain.Species]int `json:"counts,omitempty"`
}

// Link is a sidebar hyperlink.
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Controls describes the sidebar a client should render.
type Controls struct {
	Title   string               `json:"title"`
	Heading string               `json:"heading"`
	Mass    SliderControl        `json:"mass"`
	Species CheckboxGroupControl `json:"species"`
	Links   []Link               `json:"links"`
}

// DefaultControls returns the sidebar definition. Bounds are hints for the
// client; the calculator uses whatever value it receives.
func DefaultControls() Controls {
	return Controls{
		Title:   "Filter controls",
		Heading: "Select the mass or species",
		Mass: SliderControl{
			ID:      "mass",
			Label:   "Mass",
			Min:     domain.MassSliderMin,
			Max:     domain.MassSliderMax,
			Default: domain.DefaultMassThreshold,
		},
		Species: CheckboxGroupControl{
			ID:       "species",
			Label:    "Species",
			Options:  domain.AllSpecies(),
			Selected: domain.AllSpecies(),
		},
		Links: []Link{
			{Label: "GitHub Source", Href: "https://github.com/sapapesh/cintel-07-tdash"},
			{Label: "GitHub App", Href: "https://sapapesh.github.io/cintel-07-tdash/"},
			{Label: "GitHub Issues", Href: "https://github.com/sapapesh/cintel-07-tdash/issues"},
			{Label: "PyShiny", Href: "https://shiny.posit.co/py/"},
			{Label: "Template: Basic Dashboard", Href: "https://shiny.posit.co/py/templates/dashboard/"},
			{Label: "See also", Href: "https://github.com/denisecase/pyshiny-penguins-dashboard-express"},
		},
	}
}
