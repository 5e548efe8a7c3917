package reports

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// StockItem is one raw material line.
type StockItem struct {
	ID          json.Number `json:"id"`
	ItemName    string      `json:"item_name"`
	Category    string      `json:"category"`
	Quantity    *float64    `json:"quantity"`
	Unit        string      `json:"unit"`
	Value       *float64    `json:"value"`
	StockStatus string      `json:"stock_status"`
}

// YarnForecastRow projects consumption for one yarn type.
type YarnForecastRow struct {
	YarnType            string   `json:"yarn_type"`
	CurrentStock        *float64 `json:"current_stock"`
	AvgDailyConsumption *float64 `json:"avg_daily_consumption"`
	ForecastedDemand    *float64 `json:"forecasted_demand"`
	DaysUntilStockout   *float64 `json:"days_until_stockout"`
	RecommendedOrder    *float64 `json:"recommended_order"`
}

// PurchaseRaise wraps yarn purchase recommendations.
type PurchaseRaise struct {
	PurchaseRecommendations []PurchaseRow `json:"purchase_recommendations"`
}

// PurchaseRow is one recommended yarn purchase.
type PurchaseRow struct {
	YarnCount                string   `json:"yarn_count"`
	Composition              string   `json:"composition"`
	CurrentStock             *float64 `json:"current_stock"`
	MinimumThreshold         *float64 `json:"minimum_threshold"`
	Shortage                 *float64 `json:"shortage"`
	RecommendedOrderQuantity *float64 `json:"recommended_order_quantity"`
	Priority                 string   `json:"priority"`
	EstimatedOrderValue      *float64 `json:"estimated_order_value"`
}

func rawMaterialPages() []Page {
	return []Page{stockAnalysis(), yarnForecasting(), purchaseRaise()}
}

func stockAnalysis() Page {
	return Define(Definition[[]StockItem, StockItem]{
		Slug:           "raw-materials/stock-analysis",
		Section:        "raw-materials",
		Title:          "Raw Materials Stock Analysis",
		Description:    "Monitor inventory levels and stock status of raw materials",
		Endpoint:       "/reports/raw-materials/stock-analysis",
		TableTitle:     "Stock Details",
		LoadingMessage: "Loading stock data...",
		Fields: []filter.Field{{
			Name:  "category",
			Label: "Category",
			Kind:  filter.KindSelect,
			Options: []filter.Option{
				{Label: "All", Value: ""},
				{Label: "Yarn", Value: "Yarn"},
				{Label: "Fabric", Value: "Fabric"},
				{Label: "Dyes", Value: "Dyes"},
				{Label: "Chemicals", Value: "Chemicals"},
			},
		}},
		Rows: identity[StockItem],
		Stats: func(items []StockItem) []Stat {
			values := make([]float64, len(items))
			low := 0
			for i, item := range items {
				values[i] = val(item.Value)
				if item.StockStatus == "Low" {
					low++
				}
			}
			return []Stat{
				{Label: "Items", Value: format.Count(len(items)), Tone: format.ToneBlue},
				{Label: "Stock Value", Value: format.CurrencyOf(format.Sum(values...)), Tone: format.ToneGreen},
				{Label: "Low Stock", Value: format.Count(low), Tone: format.ToneRed},
			}
		},
		Columns: []table.Column[StockItem]{
			{Key: "item_name", Header: "Item Name", Width: "20%"},
			{Key: "category", Header: "Category", Width: "15%"},
			{Key: "quantity", Header: "Quantity", Render: fixedOrZero[StockItem](2, true)},
			{Key: "unit", Header: "Unit", Width: "10%"},
			{Key: "value", Header: "Value", Render: currencyOrZero[StockItem](format.ToneGreen, true)},
			{Key: "stock_status", Header: "Status", Render: badge[StockItem](format.StockStatusTones)},
		},
	})
}

func yarnForecasting() Page {
	return Define(Definition[[]YarnForecastRow, YarnForecastRow]{
		Slug:           "raw-materials/yarn-forecasting",
		Section:        "raw-materials",
		Title:          "Yarn Forecasting Report",
		Description:    "Demand forecasting for yarn inventory planning",
		Endpoint:       "/reports/raw-materials/yarn-forecasting",
		TableTitle:     "Forecast Analysis",
		LoadingMessage: "Calculating forecasts...",
		Fields:         []filter.Field{forecastField()},
		Defaults: func(time.Time) filter.Set {
			return filter.Set{"forecast_days": "30"}
		},
		Rows: identity[YarnForecastRow],
		Stats: func(rows []YarnForecastRow) []Stat {
			critical := 0
			for _, r := range rows {
				if r.DaysUntilStockout != nil && format.StockoutTone(*r.DaysUntilStockout) == format.ToneRed {
					critical++
				}
			}
			return []Stat{
				{Label: "Yarn Types", Value: format.Count(len(rows)), Tone: format.ToneBlue},
				{Label: "Stockout Within a Week", Value: format.Count(critical), Tone: format.ToneRed},
			}
		},
		Columns: []table.Column[YarnForecastRow]{
			{Key: "yarn_type", Header: "Yarn Type", Width: "25%"},
			{Key: "current_stock", Header: "Current Stock", Render: fixed[YarnForecastRow](2, format.ToneNone, true)},
			{Key: "avg_daily_consumption", Header: "Avg Daily Usage", Render: fixed[YarnForecastRow](2, format.ToneNone, false)},
			{Key: "forecasted_demand", Header: "Forecasted Demand", Render: fixed[YarnForecastRow](2, format.ToneBlue, true)},
			{Key: "days_until_stockout", Header: "Days to Stockout", Render: func(value any, _ YarnForecastRow) table.Cell {
				n := number(value)
				if n == nil {
					return table.Text(format.Placeholder)
				}
				return table.Cell{Text: fmt.Sprintf("%.0f", math.Round(*n)), Tone: format.StockoutTone(*n), Strong: true}
			}},
			{Key: "recommended_order", Header: "Recommended Order", Render: fixed[YarnForecastRow](2, format.TonePurple, true)},
		},
		Options: []table.Option[YarnForecastRow]{
			table.WithRowID(func(r YarnForecastRow) string { return r.YarnType }),
		},
	})
}

func purchaseRaise() Page {
	return Define(Definition[PurchaseRaise, PurchaseRow]{
		Slug:           "raw-materials/purchase-raise",
		Section:        "raw-materials",
		Title:          "Purchase Raise for Yarn",
		Description:    "Automated purchase recommendations based on stock levels and forecasts",
		Endpoint:       "/reports/raw-materials/purchase-raise",
		TableTitle:     "Purchase Recommendations",
		EmptyMessage:   "All yarn stocks are at healthy levels",
		LoadingMessage: "Analyzing inventory and generating recommendations...",
		Fields: []filter.Field{
			{Name: "threshold", Label: "Stock Threshold (%)", Kind: filter.KindNumber, Placeholder: "20", Min: "10", Max: "50"},
			forecastField(),
		},
		Defaults: func(time.Time) filter.Set {
			return filter.Set{"threshold": "20", "forecast_days": "30"}
		},
		Rows: func(p PurchaseRaise) []PurchaseRow { return p.PurchaseRecommendations },
		Alerts: func(p PurchaseRaise) []Alert {
			high := 0
			for _, r := range p.PurchaseRecommendations {
				if r.Priority == "HIGH" {
					high++
				}
			}
			if high == 0 {
				return nil
			}
			return []Alert{{
				Tone:    format.ToneRed,
				Title:   "Urgent Action Required:",
				Message: fmt.Sprintf("%d yarn type(s) require immediate purchase orders.", high),
			}}
		},
		Stats: func(p PurchaseRaise) []Stat {
			values := make([]float64, len(p.PurchaseRecommendations))
			for i, r := range p.PurchaseRecommendations {
				values[i] = val(r.EstimatedOrderValue)
			}
			return []Stat{
				{Label: "Recommendations", Value: format.Count(len(values)), Tone: format.ToneBlue},
				{Label: "Estimated Order Value", Value: format.CurrencyOf(format.Sum(values...)), Tone: format.ToneGreen},
			}
		},
		Columns: []table.Column[PurchaseRow]{
			{Key: "yarn_count", Header: "Yarn Count", Width: "12%"},
			{Key: "composition", Header: "Composition", Width: "18%"},
			{Key: "current_stock", Header: "Current Stock", Render: fixed[PurchaseRow](2, format.ToneNone, false)},
			{Key: "minimum_threshold", Header: "Min Threshold", Render: fixed[PurchaseRow](2, format.ToneOrange, false)},
			{Key: "shortage", Header: "Shortage", Render: fixed[PurchaseRow](2, format.ToneRed, true)},
			{Key: "recommended_order_quantity", Header: "Order Qty", Render: fixed[PurchaseRow](2, format.ToneBlue, true)},
			{Key: "priority", Header: "Priority", Render: badge[PurchaseRow](format.PriorityTones)},
			{Key: "estimated_order_value", Header: "Order Value", Render: currency[PurchaseRow](format.ToneGreen, true)},
		},
		Options: []table.Option[PurchaseRow]{
			table.WithRowID(func(r PurchaseRow) string { return r.YarnCount + "|" + r.Composition }),
		},
	})
}
