// Package reports defines the dashboard report pages: which backend endpoint
// each one reads, its filters and how the payload becomes stat cards, alerts
// and a table.
package reports

import (
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/backend"
	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// Messages shared by every page.
const (
	DisabledMessage = "Select report parameters to generate report"
	FailedTitle     = "Report unavailable"
	FailedMessage   = "The report service could not return this report. Apply the filters again to retry."
	DefaultLoading  = "Loading report..."
	DefaultEmpty    = "No data available"
)

// Page is one report screen.
type Page interface {
	Slug() string
	Section() string
	Title() string
	Description() string
	Endpoint() string
	Form() *filter.Form
	Defaults(now time.Time) filter.Set
	Enabled(filters filter.Set) bool
	Render(res query.Result) PageView
}

// Stat is a headline number above the table.
type Stat struct {
	Label string
	Value string
	Hint  string
	Tone  format.Tone
}

// Alert is a highlighted banner.
type Alert struct {
	Tone    format.Tone
	Title   string
	Message string
	Link    string
}

// LegendItem explains a colour used in the table.
type LegendItem struct {
	Label string
	Tone  format.Tone
	Text  string
}

// Group is a small card inside a grid, such as a fabric type total.
type Group struct {
	Title string
	Lines []string
}

// PageView is everything a template needs to draw a report.
type PageView struct {
	Slug           string
	Section        string
	Title          string
	Description    string
	TableTitle     string
	Subtitle       string
	LoadingMessage string
	Message        string

	Loading  bool
	Failed   bool
	Disabled bool

	Stats   []Stat
	Alerts  []Alert
	Groups  []Group
	Legend  []LegendItem
	Table   table.View
	Filters []filter.Control
}

// HasTable reports whether the page draws a table section.
func (v PageView) HasTable() bool {
	return v.TableTitle != "" || v.Table.Loading || v.Table.Empty || len(v.Table.Rows) > 0
}

// Definition configures a report over payload P with table rows R.
type Definition[P any, R any] struct {
	Slug           string
	Section        string
	Title          string
	Description    string
	Endpoint       string
	TableTitle     string
	EmptyMessage   string
	LoadingMessage string
	Fields         []filter.Field
	// Required lists filters that must be set before the report is fetched.
	Required []string
	Defaults func(now time.Time) filter.Set
	Rows     func(P) []R
	Stats    func(P) []Stat
	Alerts   func(P) []Alert
	Groups   func(P) []Group
	Heading  func(P) (title, subtitle string)
	Legend   []LegendItem
	Columns  []table.Column[R]
	Options  []table.Option[R]
}

// Report is a Page built from a Definition.
type Report[P any, R any] struct {
	def   Definition[P, R]
	form  *filter.Form
	table *table.Table[R]
}

// Define validates d and builds the page. Invalid columns panic, so a broken
// report definition fails at startup.
func Define[P any, R any](d Definition[P, R]) *Report[P, R] {
	if d.EmptyMessage == "" {
		d.EmptyMessage = DefaultEmpty
	}
	if d.LoadingMessage == "" {
		d.LoadingMessage = DefaultLoading
	}
	return &Report[P, R]{
		def:   d,
		form:  filter.NewForm(d.Fields...),
		table: table.Must(d.Columns, d.Options...),
	}
}

func (r *Report[P, R]) Slug() string { return r.def.Slug }
func (r *Report[P, R]) Section() string { return r.def.Section }
func (r *Report[P, R]) Title() string { return r.def.Title }
func (r *Report[P, R]) Description() string { return r.def.Description }
func (r *Report[P, R]) Endpoint() string { return r.def.Endpoint }
func (r *Report[P, R]) Form() *filter.Form { return r.form }

// Table exposes the column definitions.
func (r *Report[P, R]) Table() *table.Table[R] { return r.table }

// Defaults returns the initial filter values.
func (r *Report[P, R]) Defaults(now time.Time) filter.Set {
	if r.def.Defaults == nil {
		return filter.Set{}
	}
	return r.def.Defaults(now)
}

// Enabled reports whether filters satisfy the report's required parameters.
func (r *Report[P, R]) Enabled(filters filter.Set) bool {
	return filters.HasAll(r.def.Required...)
}

// Decode parses a raw payload.
func (r *Report[P, R]) Decode(res query.Result) (P, error) {
	return backend.Decode[P](res.Data)
}

// Render turns a query result into a view.
func (r *Report[P, R]) Render(res query.Result) PageView {
	view := PageView{
		Slug:           r.def.Slug,
		Section:        r.def.Section,
		Title:          r.def.Title,
		Description:    r.def.Description,
		TableTitle:     r.def.TableTitle,
		LoadingMessage: r.def.LoadingMessage,
	}
	switch {
	case res.Disabled:
		view.Disabled = true
		view.Message = DisabledMessage
	case res.IsError():
		view.fail()
	case !res.IsSuccess():
		view.Loading = true
		view.Table = r.table.View(nil, true, r.def.EmptyMessage)
	default:
		payload, err := r.Decode(res)
		if err != nil {
			view.fail()
			return view
		}
		r.fill(&view, payload)
	}
	return view
}

func (r *Report[P, R]) fill(view *PageView, payload P) {
	if r.def.Stats != nil {
		view.Stats = r.def.Stats(payload)
	}
	if r.def.Alerts != nil {
		view.Alerts = r.def.Alerts(payload)
	}
	if r.def.Groups != nil {
		view.Groups = r.def.Groups(payload)
	}
	if r.def.Heading != nil {
		if title, subtitle := r.def.Heading(payload); title != "" || subtitle != "" {
			if title != "" {
				view.TableTitle = title
			}
			view.Subtitle = subtitle
		}
	}
	var rows []R
	if r.def.Rows != nil {
		rows = r.def.Rows(payload)
	}
	view.Table = r.table.View(rows, false, r.def.EmptyMessage)
	if view.Table.HasRows() {
		view.Legend = r.def.Legend
	}
}

func (v *PageView) fail() {
	v.Failed = true
	v.Message = FailedMessage
	v.Alerts = append(v.Alerts, Alert{Tone: format.ToneRed, Title: FailedTitle, Message: FailedMessage})
}

func today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func identity[R any](rows []R) []R { return rows }
