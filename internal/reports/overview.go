package reports

import (
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/backend"
	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// OverviewSlug identifies the reports landing page.
const OverviewSlug = "summary"

// Summary is the cross-module snapshot behind the landing page.
type Summary struct {
	FabricSummary     *FabricOverview     `json:"fabric_summary"`
	InventorySummary  *InventoryOverview  `json:"inventory_summary"`
	ProductionSummary *ProductionOverview `json:"production_summary"`
	SalesSummary      *SalesOverview      `json:"sales_summary"`
}

// FabricOverview totals fabric stock.
type FabricOverview struct {
	TotalFabrics *float64                 `json:"total_fabrics"`
	TotalValue   *float64                 `json:"total_value"`
	ByType       Ordered[FabricTypeTotal] `json:"by_type"`
}

// FabricTypeTotal is the stock held for one fabric type.
type FabricTypeTotal struct {
	Quantity *float64 `json:"quantity"`
	Value    *float64 `json:"value"`
}

// InventoryOverview totals garment inventory.
type InventoryOverview struct {
	TotalItems      *float64 `json:"total_items"`
	TotalStock      *float64 `json:"total_stock"`
	SlowMovingCount *float64 `json:"slow_moving_count"`
	FastMovingCount *float64 `json:"fast_moving_count"`
}

// ProductionOverview totals production plans.
type ProductionOverview struct {
	TotalPlans *float64 `json:"total_plans"`
	InProgress *float64 `json:"in_progress"`
}

// SalesOverview totals sales panels.
type SalesOverview struct {
	TotalPanels  *float64 `json:"total_panels"`
	ActivePanels *float64 `json:"active_panels"`
}

// Overview is the reports landing page.
type Overview struct {
	form *filter.Form
}

// NewOverview builds the landing page.
func NewOverview() *Overview {
	return &Overview{form: filter.NewForm()}
}

func (o *Overview) Slug() string { return OverviewSlug }
func (o *Overview) Section() string { return "" }
func (o *Overview) Title() string { return "Reports & Analytics" }
func (o *Overview) Description() string { return "Business intelligence across fabric, inventory, production and sales" }
func (o *Overview) Endpoint() string { return "/reports/summary/all" }
func (o *Overview) Form() *filter.Form { return o.form }
func (o *Overview) Defaults(time.Time) filter.Set { return filter.Set{} }
func (o *Overview) Enabled(filter.Set) bool { return true }

// Render builds the overview cards.
func (o *Overview) Render(res query.Result) PageView {
	view := PageView{
		Slug:           o.Slug(),
		Title:          o.Title(),
		Description:    o.Description(),
		LoadingMessage: "Loading summary...",
	}
	switch {
	case res.IsError():
		view.fail()
		return view
	case !res.IsSuccess():
		view.Loading = true
		return view
	}
	summary, err := backend.Decode[Summary](res.Data)
	if err != nil {
		view.fail()
		return view
	}

	fabric := orZero(summary.FabricSummary)
	inventory := orZero(summary.InventorySummary)
	production := orZero(summary.ProductionSummary)
	sales := orZero(summary.SalesSummary)

	view.Stats = []Stat{
		{Label: "Total Fabric Stock", Value: count(fabric.TotalFabrics), Hint: format.CurrencyOf(val(fabric.TotalValue)), Tone: format.ToneBlue},
		{Label: "Garment Inventory", Value: count(inventory.TotalItems), Hint: count(inventory.TotalStock) + " units", Tone: format.ToneYellow},
		{Label: "Production Plans", Value: count(production.TotalPlans), Hint: count(production.InProgress) + " in progress", Tone: format.TonePurple},
		{Label: "Sales Panels", Value: count(sales.TotalPanels), Hint: count(sales.ActivePanels) + " active", Tone: format.ToneGreen},
	}

	for _, e := range fabric.ByType {
		view.Groups = append(view.Groups, Group{
			Title: e.Key,
			Lines: []string{format.Fixed(e.Value.Quantity, 2) + " kg", format.Currency(e.Value.Value)},
		})
	}

	if n := val(inventory.SlowMovingCount); n > 0 {
		view.Alerts = append(view.Alerts, Alert{
			Tone:    format.ToneYellow,
			Title:   "Slow Moving Items",
			Message: table.Stringify(n),
			Link:    "/reports/inventory/slow-moving",
		})
	}
	if n := val(inventory.FastMovingCount); n > 0 {
		view.Alerts = append(view.Alerts, Alert{
			Tone:    format.ToneGreen,
			Title:   "Fast Moving Items",
			Message: table.Stringify(n),
			Link:    "/reports/inventory/fast-moving",
		})
	}
	return view
}

func orZero[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func count(p *float64) string {
	return table.Stringify(val(p))
}
