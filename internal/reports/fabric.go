package reports

import (
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// FabricSheet is the shared payload of the fabric stock and cost reports.
type FabricSheet struct {
	ReportType    string         `json:"report_type"`
	GeneratedAt   string         `json:"generated_at"`
	Summary       *FabricSummary `json:"summary"`
	Fabrics       []FabricRow    `json:"fabrics"`
	DetailedCosts []FabricCost   `json:"detailed_costs"`
}

// FabricSummary totals a fabric sheet. Absent fields are not shown.
type FabricSummary struct {
	TotalFabricTypes   *float64 `json:"total_fabric_types"`
	TotalStockQuantity *float64 `json:"total_stock_quantity"`
	TotalStockValue    *float64 `json:"total_stock_value"`
}

// FabricRow is one fabric stock line.
type FabricRow struct {
	FabricType    string   `json:"fabric_type"`
	Subtype       string   `json:"subtype"`
	GSM           any      `json:"gsm"`
	Color         string   `json:"color"`
	StockQuantity *float64 `json:"stock_quantity"`
	CostPerUnit   *float64 `json:"cost_per_unit"`
	StockValue    *float64 `json:"stock_value"`
}

// FabricCost is one line of the cost sheet.
type FabricCost struct {
	FabricType    string   `json:"fabric_type"`
	Subtype       string   `json:"subtype"`
	StockQuantity *float64 `json:"stock_quantity"`
	CostPerUnit   *float64 `json:"cost_per_unit"`
	TotalValue    *float64 `json:"total_value"`
}

func fabricPages() []Page {
	return []Page{
		fabricStock("fabric/stock-total", "Total Fabric Stock Sheet", "Stock of all fabrics",
			"/reports/fabric/stock-sheet/total", nil, nil, nil),
		fabricStock("fabric/stock-by-type", "Type-wise Fabric Stock", "Fabric stock filtered by type",
			"/reports/fabric/stock-sheet/by-type/{fabric_type}",
			[]filter.Field{{Name: "fabric_type", Label: "Fabric Type", Kind: filter.KindSelect, Options: fabricTypeOptions}},
			[]string{"fabric_type"},
			func(time.Time) filter.Set { return filter.Set{"fabric_type": "JERSEY"} }),
		fabricStock("fabric/stock-by-period", "Period-based Fabric Stock", "Fabric stock movement over a date range",
			"/reports/fabric/stock-sheet/by-period", dateRange(), []string{"start_date", "end_date"}, nil),
		fabricCostSheet(),
	}
}

func fabricHeading(p FabricSheet) (string, string) {
	subtitle := ""
	if p.GeneratedAt != "" {
		subtitle = "Generated: " + displayTimestamp(p.GeneratedAt)
	}
	return p.ReportType, subtitle
}

func fabricStats(p FabricSheet) []Stat {
	if p.Summary == nil {
		return nil
	}
	var stats []Stat
	if s := p.Summary.TotalFabricTypes; s != nil {
		stats = append(stats, Stat{Label: "Total Fabric Types", Value: table.Stringify(*s), Tone: format.ToneBlue})
	}
	if s := p.Summary.TotalStockQuantity; s != nil {
		stats = append(stats, Stat{Label: "Total Stock", Value: format.Fixed(s, 2) + " kg", Tone: format.ToneGreen})
	}
	if s := p.Summary.TotalStockValue; s != nil {
		stats = append(stats, Stat{Label: "Total Value", Value: format.Currency(s), Tone: format.TonePurple})
	}
	return stats
}

func fabricStock(slug, title, description, endpoint string, fields []filter.Field, required []string, defaults func(time.Time) filter.Set) Page {
	return Define(Definition[FabricSheet, FabricRow]{
		Slug:           slug,
		Section:        "fabric",
		Title:          title,
		Description:    description,
		Endpoint:       endpoint,
		TableTitle:     "Fabric Stock",
		LoadingMessage: "Loading report...",
		Fields:         fields,
		Required:       required,
		Defaults:       defaults,
		Rows:           func(p FabricSheet) []FabricRow { return p.Fabrics },
		Heading:        fabricHeading,
		Stats:          fabricStats,
		Columns: []table.Column[FabricRow]{
			{Key: "fabric_type", Header: "Type", Render: plain[FabricRow](true)},
			{Key: "subtype", Header: "Subtype"},
			{Key: "gsm", Header: "GSM"},
			{Key: "color", Header: "Color", Render: orText[FabricRow](format.Placeholder)},
			{Key: "stock_quantity", Header: "Stock (kg)", Render: fixed[FabricRow](2, format.ToneNone, false)},
			{Key: "cost_per_unit", Header: "Cost/Unit", Render: currency[FabricRow](format.ToneNone, false)},
			{Key: "stock_value", Header: "Value", Render: currency[FabricRow](format.ToneNone, true)},
		},
	})
}

func fabricCostSheet() Page {
	return Define(Definition[FabricSheet, FabricCost]{
		Slug:           "fabric/cost-sheet",
		Section:        "fabric",
		Title:          "Fabric Cost Sheet",
		Description:    "Cost breakdown of fabric stock",
		Endpoint:       "/reports/fabric/cost-sheet",
		TableTitle:     "Cost Breakdown",
		LoadingMessage: "Loading report...",
		Rows:           func(p FabricSheet) []FabricCost { return p.DetailedCosts },
		Heading:        fabricHeading,
		Stats:          fabricStats,
		Columns: []table.Column[FabricCost]{
			{Key: "fabric_type", Header: "Type", Render: plain[FabricCost](true)},
			{Key: "subtype", Header: "Subtype"},
			{Key: "stock_quantity", Header: "Stock (kg)", Render: fixed[FabricCost](2, format.ToneNone, false)},
			{Key: "cost_per_unit", Header: "Cost/Unit", Render: currency[FabricCost](format.ToneNone, false)},
			{Key: "total_value", Header: "Total Value", Render: currency[FabricCost](format.ToneNone, true)},
		},
	})
}
