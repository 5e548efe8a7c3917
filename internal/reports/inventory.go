package reports

import (
	"encoding/json"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// MovementReport is the slow or fast moving inventory payload.
type MovementReport struct {
	ItemsCount         *float64            `json:"items_count"`
	AnalysisPeriodDays *float64            `json:"analysis_period_days"`
	Threshold          any                 `json:"threshold"`
	Items              []InventoryMovement `json:"items"`
}

// InventoryMovement is one garment SKU and its turnover.
type InventoryMovement struct {
	ID                         json.Number `json:"id"`
	SKU                        string      `json:"sku"`
	GarmentName                string      `json:"garment_name"`
	Size                       string      `json:"size"`
	CurrentStock               *float64    `json:"current_stock"`
	SalesCount                 *float64    `json:"sales_count"`
	TurnoverRate               *float64    `json:"turnover_rate"`
	DaysOfStockRemaining       *float64    `json:"days_of_stock_remaining"`
	RecommendedReorderQuantity *float64    `json:"recommended_reorder_quantity"`
}

var turnoverLegend = []LegendItem{
	{Label: "< 0.1", Tone: format.ToneRed, Text: "Slow Moving"},
	{Label: "0.1 - 1.0", Tone: format.ToneYellow, Text: "Moderate"},
	{Label: "> 1.0", Tone: format.ToneGreen, Text: "Fast Moving"},
}

func inventoryPages() []Page {
	return []Page{
		movementPage("slow", "Slow Moving Inventory", "Low turnover items", nil),
		movementPage("fast", "Fast Moving Inventory", "High turnover items with reorder recommendations", []table.Column[InventoryMovement]{
			{Key: "days_of_stock_remaining", Header: "Days of Stock", Render: fixed[InventoryMovement](1, format.ToneNone, false)},
			{Key: "recommended_reorder_quantity", Header: "Reorder Qty", Render: func(value any, _ InventoryMovement) table.Cell {
				n := number(value)
				if n == nil || *n == 0 {
					return table.Text(format.Placeholder)
				}
				return table.Cell{Text: table.Stringify(*n), Tone: format.ToneBlue, Strong: true}
			}},
		}),
	}
}

func movementPage(kind, title, description string, extra []table.Column[InventoryMovement]) Page {
	label := "Slow Moving Items"
	if kind == "fast" {
		label = "Fast Moving Items"
	}
	columns := []table.Column[InventoryMovement]{
		{Key: "sku", Header: "SKU", Render: plain[InventoryMovement](true)},
		{Key: "garment_name", Header: "Garment"},
		{Key: "size", Header: "Size"},
		{Key: "current_stock", Header: "Stock", Render: func(value any, _ InventoryMovement) table.Cell {
			n := number(value)
			if n == nil {
				return table.Text(format.Placeholder)
			}
			return table.Toned(table.Stringify(*n), format.LowStockTone(*n))
		}},
		{Key: "sales_count", Header: "Period Sales"},
		{Key: "turnover_rate", Header: "Turnover Rate", Render: func(value any, _ InventoryMovement) table.Cell {
			n := number(value)
			if n == nil {
				return table.Text(format.Placeholder)
			}
			return table.Badge(format.Fixed(n, 3), format.TurnoverTone(*n))
		}},
	}
	return Define(Definition[MovementReport, InventoryMovement]{
		Slug:           "inventory/" + kind + "-moving",
		Section:        "inventory",
		Title:          title,
		Description:    description,
		Endpoint:       "/reports/inventory/" + kind + "-moving",
		TableTitle:     "Inventory Items",
		EmptyMessage:   "No " + kind + " moving items found",
		LoadingMessage: "Analyzing inventory movement...",
		Fields: []filter.Field{{
			Name:    "days_period",
			Label:   "Analysis Period (Days)",
			Kind:    filter.KindSelect,
			Options: daysPeriodOptions,
		}},
		Defaults: func(time.Time) filter.Set {
			return filter.Set{"days_period": "90"}
		},
		Rows: func(p MovementReport) []InventoryMovement { return p.Items },
		Stats: func(p MovementReport) []Stat {
			period := format.Placeholder
			if p.AnalysisPeriodDays != nil {
				period = table.Stringify(*p.AnalysisPeriodDays) + " days"
			}
			return []Stat{
				{Label: label, Value: table.Stringify(p.ItemsCount), Tone: format.ToneBlue},
				{Label: "Analysis Period", Value: period, Tone: format.ToneBlue},
				{Label: "Threshold", Value: table.Stringify(p.Threshold), Tone: format.ToneBlue},
			}
		},
		Legend:  turnoverLegend,
		Columns: append(columns, extra...),
	})
}
