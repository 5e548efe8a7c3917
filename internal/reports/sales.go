package reports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// DiscountRow is one product in the general discount report.
type DiscountRow struct {
	SKU             string   `json:"sku"`
	ProductName     string   `json:"product_name"`
	MRP             *float64 `json:"mrp"`
	SellingPrice    *float64 `json:"selling_price"`
	DiscountPercent *float64 `json:"discount_percent"`
	DiscountBucket  string   `json:"discount_bucket"`
	TotalSold       *float64 `json:"total_sold"`
}

// PanelDiscountRow is one panel in the discount-by-panel report.
type PanelDiscountRow struct {
	PanelName           string   `json:"panel_name"`
	PanelCode           string   `json:"panel_code"`
	TotalSales          *float64 `json:"total_sales"`
	AvgDiscount         *float64 `json:"avg_discount"`
	TotalDiscountAmount *float64 `json:"total_discount_amount"`
	Revenue             *float64 `json:"revenue"`
}

// BundleRow is one bundle SKU with its per-size sales.
type BundleRow struct {
	BundleSKU     string               `json:"bundle_sku"`
	BundleName    string               `json:"bundle_name"`
	TotalQuantity *float64             `json:"total_quantity"`
	SizeBreakdown Ordered[json.Number] `json:"size_breakdown"`
	TotalRevenue  *float64             `json:"total_revenue"`
}

// DailySales is the single-day sales payload.
type DailySales struct {
	ReportDate   string            `json:"report_date"`
	Summary      *DailySummary     `json:"summary"`
	Transactions []SaleTransaction `json:"transactions"`
}

// DailySummary totals a day of sales.
type DailySummary struct {
	NetSalesValue     *float64 `json:"net_sales_value"`
	TotalTransactions *float64 `json:"total_transactions"`
	NetUnits          *float64 `json:"net_units"`
	TotalReturns      *float64 `json:"total_returns"`
}

// SaleTransaction is one sale or return line.
type SaleTransaction struct {
	ID                 json.Number `json:"id"`
	InvoiceNumber      string      `json:"invoice_number"`
	Size               string      `json:"size"`
	Quantity           *float64    `json:"quantity"`
	UnitPrice          *float64    `json:"unit_price"`
	DiscountPercentage *float64    `json:"discount_percentage"`
	TotalAmount        *float64    `json:"total_amount"`
	IsReturn           bool        `json:"is_return"`
}

// PanelWiseSales is keyed by panel id.
type PanelWiseSales struct {
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Panels    Ordered[PanelSalesRow] `json:"panels"`
}

// PanelSalesRow is one panel's sales over a period.
type PanelSalesRow struct {
	PanelName         string   `json:"panel_name"`
	PanelType         string   `json:"panel_type"`
	TotalTransactions *float64 `json:"total_transactions"`
	TotalUnitsSold    *float64 `json:"total_units_sold"`
	GrossSalesValue   *float64 `json:"gross_sales_value"`
	ReturnsValue      *float64 `json:"returns_value"`
	NetSalesValue     *float64 `json:"net_sales_value"`
}

// InactivePanels lists panels without recent sales.
type InactivePanels struct {
	DaysThreshold       *float64           `json:"days_threshold"`
	InactivePanelsCount *float64           `json:"inactive_panels_count"`
	InactivePanels      []InactivePanelRow `json:"inactive_panels"`
}

// InactivePanelRow is one inactive panel.
type InactivePanelRow struct {
	ID                json.Number `json:"id"`
	PanelName         string      `json:"panel_name"`
	PanelType         string      `json:"panel_type"`
	LastSaleDate      string      `json:"last_sale_date"`
	DaysSinceLastSale *float64    `json:"days_since_last_sale"`
}

func salesPages() []Page {
	return []Page{
		discountGeneral(),
		discountByPanel(),
		bundleSKU(),
		dailySales(),
		panelWiseSales(),
		inactivePanels(),
	}
}

func discountGeneral() Page {
	return Define(Definition[[]DiscountRow, DiscountRow]{
		Slug:           "sales/discount-general",
		Section:        "sales",
		Title:          "General Discount Report",
		Description:    "Comprehensive discount analysis across all products",
		Endpoint:       "/reports/sales/discount-general",
		TableTitle:     "Discount Details",
		EmptyMessage:   "No sales data available for the selected period",
		LoadingMessage: "Calculating discount analytics...",
		Fields:         dateRange(),
		Rows:           identity[DiscountRow],
		Stats: func(rows []DiscountRow) []Stat {
			discounts := make([]float64, len(rows))
			impact := make([]float64, len(rows))
			for i, r := range rows {
				discounts[i] = val(r.DiscountPercent)
				impact[i] = (val(r.MRP) - val(r.SellingPrice)) * val(r.TotalSold)
			}
			revenueImpact := format.Sum(impact...)
			return []Stat{
				{Label: "Average Discount", Value: format.PercentOf(format.Mean(discounts...), 1), Tone: format.ToneBlue},
				{Label: "Total Products", Value: format.Count(len(rows)), Tone: format.TonePurple},
				{Label: "Revenue Impact", Value: format.CurrencySymbol + format.Fixed(&revenueImpact, 0), Tone: format.ToneRed},
			}
		},
		Columns: []table.Column[DiscountRow]{
			{Key: "sku", Header: "SKU", Width: "15%"},
			{Key: "product_name", Header: "Product Name", Width: "25%"},
			{Key: "mrp", Header: "MRP", Render: currency[DiscountRow](format.ToneNone, false)},
			{Key: "selling_price", Header: "Selling Price", Render: currency[DiscountRow](format.ToneNone, false)},
			{Key: "discount_percent", Header: "Discount %", Render: percentTone[DiscountRow](1, format.DiscountTone)},
			{Key: "discount_bucket", Header: "Discount Bucket", Render: discountBucketBadge},
			{Key: "total_sold", Header: "Units Sold", Render: plain[DiscountRow](true)},
		},
		Options: []table.Option[DiscountRow]{
			table.WithRowID(func(r DiscountRow) string { return r.SKU }),
		},
	})
}

func discountByPanel() Page {
	return Define(Definition[[]PanelDiscountRow, PanelDiscountRow]{
		Slug:           "sales/discount-by-panel",
		Section:        "sales",
		Title:          "Discount by Panel Report",
		Description:    "Panel-wise discount analysis and performance tracking",
		Endpoint:       "/reports/sales/discount-by-panel",
		TableTitle:     "Panel Discount Analysis",
		EmptyMessage:   "No panel sales data available",
		LoadingMessage: "Analyzing panel discounts...",
		Fields:         append([]filter.Field{panelField()}, dateRange()...),
		Rows:           identity[PanelDiscountRow],
		Columns: []table.Column[PanelDiscountRow]{
			{Key: "panel_name", Header: "Panel Name", Width: "25%"},
			{Key: "panel_code", Header: "Panel Code", Width: "15%"},
			{Key: "total_sales", Header: "Total Sales", Render: plain[PanelDiscountRow](true)},
			{Key: "avg_discount", Header: "Avg Discount", Render: percentTone[PanelDiscountRow](1, format.PanelDiscountTone)},
			{Key: "total_discount_amount", Header: "Total Discount Given", Render: currency[PanelDiscountRow](format.ToneRed, true)},
			{Key: "revenue", Header: "Revenue", Render: currency[PanelDiscountRow](format.ToneGreen, true)},
		},
		Options: []table.Option[PanelDiscountRow]{
			table.WithRowID(func(r PanelDiscountRow) string { return r.PanelCode }),
		},
	})
}

func bundleSKU() Page {
	return Define(Definition[[]BundleRow, BundleRow]{
		Slug:           "sales/bundle-sku",
		Section:        "sales",
		Title:          "Bundle SKU Sales Report",
		Description:    "Size-wise breakdown of bundle sales performance",
		Endpoint:       "/reports/sales/bundle-sku",
		TableTitle:     "Bundle Sales Analysis",
		EmptyMessage:   "No bundle sales data available for the selected period",
		LoadingMessage: "Loading bundle sales data...",
		Fields:         dateRange(),
		Rows:           identity[BundleRow],
		Columns: []table.Column[BundleRow]{
			{Key: "bundle_sku", Header: "Bundle SKU", Width: "15%"},
			{Key: "bundle_name", Header: "Bundle Name", Width: "20%"},
			{Key: "total_quantity", Header: "Total Qty Sold", Render: plain[BundleRow](true)},
			{Key: "size_breakdown", Header: "Size Breakdown", Width: "30%", Render: func(_ any, r BundleRow) table.Cell {
				return chips(r.SizeBreakdown, format.ToneBlue)
			}},
			{Key: "total_revenue", Header: "Total Revenue", Render: currency[BundleRow](format.ToneGreen, true)},
		},
		Options: []table.Option[BundleRow]{
			table.WithRowID(func(r BundleRow) string { return r.BundleSKU }),
		},
	})
}

func dailySales() Page {
	return Define(Definition[DailySales, SaleTransaction]{
		Slug:           "sales/daily",
		Section:        "sales",
		Title:          "Daily Sales Report",
		Description:    "Sales, returns and transactions for a single day",
		Endpoint:       "/reports/sales/daily/{report_date}",
		TableTitle:     "Transactions",
		EmptyMessage:   "No transactions recorded on this date",
		LoadingMessage: "Loading daily sales...",
		Fields:         []filter.Field{dateField("report_date", "Report Date")},
		Required:       []string{"report_date"},
		Defaults: func(now time.Time) filter.Set {
			return filter.Set{"report_date": today(now)}
		},
		Rows: func(p DailySales) []SaleTransaction { return p.Transactions },
		Stats: func(p DailySales) []Stat {
			if p.Summary == nil {
				return nil
			}
			s := p.Summary
			return []Stat{
				{Label: "Net Sales", Value: format.Currency(s.NetSalesValue), Tone: format.ToneGreen},
				{Label: "Transactions", Value: table.Stringify(s.TotalTransactions), Tone: format.ToneBlue},
				{Label: "Units Sold", Value: table.Stringify(s.NetUnits), Tone: format.TonePurple},
				{Label: "Returns", Value: table.Stringify(s.TotalReturns), Tone: format.ToneRed},
			}
		},
		Columns: []table.Column[SaleTransaction]{
			{Key: "invoice_number", Header: "Invoice", Render: orText[SaleTransaction](format.Placeholder)},
			{Key: "size", Header: "Size"},
			{Key: "quantity", Header: "Qty"},
			{Key: "unit_price", Header: "Price", Render: currency[SaleTransaction](format.ToneNone, false)},
			{Key: "discount_percentage", Header: "Discount %", Render: func(value any, _ SaleTransaction) table.Cell {
				if value == nil {
					return table.Text(format.Placeholder)
				}
				return table.Text(table.Stringify(value) + "%")
			}},
			{Key: "total_amount", Header: "Total", Render: currency[SaleTransaction](format.ToneNone, true)},
			{Key: "is_return", Header: "Type", Render: func(_ any, r SaleTransaction) table.Cell {
				if r.IsReturn {
					return table.Badge("Return", format.ToneRed)
				}
				return table.Badge("Sale", format.ToneGreen)
			}},
		},
	})
}

func panelWiseSales() Page {
	return Define(Definition[PanelWiseSales, PanelSalesRow]{
		Slug:           "sales/panel-wise",
		Section:        "sales",
		Title:          "Panel-Wise Sales Report",
		Description:    "Sales performance by sales channel",
		Endpoint:       "/reports/sales/panel-wise",
		TableTitle:     "Panel Performance",
		EmptyMessage:   "No panel sales recorded for this period",
		LoadingMessage: "Loading panel performance...",
		Fields:         dateRange(),
		Required:       []string{"start_date", "end_date"},
		Rows:           func(p PanelWiseSales) []PanelSalesRow { return p.Panels.Values() },
		Stats: func(p PanelWiseSales) []Stat {
			net := make([]float64, 0, len(p.Panels))
			for _, e := range p.Panels {
				net = append(net, val(e.Value.NetSalesValue))
			}
			return []Stat{
				{Label: "Panels", Value: format.Count(len(p.Panels)), Tone: format.TonePurple},
				{Label: "Net Sales", Value: format.CurrencyOf(format.Sum(net...)), Tone: format.ToneGreen},
			}
		},
		Columns: []table.Column[PanelSalesRow]{
			{Key: "panel_name", Header: "Panel Name", Render: plain[PanelSalesRow](true)},
			{Key: "panel_type", Header: "Type"},
			{Key: "total_transactions", Header: "Transactions"},
			{Key: "total_units_sold", Header: "Units Sold"},
			{Key: "gross_sales_value", Header: "Gross Sales", Render: currency[PanelSalesRow](format.ToneNone, false)},
			{Key: "returns_value", Header: "Returns", Render: currency[PanelSalesRow](format.ToneRed, false)},
			{Key: "net_sales_value", Header: "Net Sales", Render: currency[PanelSalesRow](format.ToneGreen, true)},
		},
	})
}

func inactivePanels() Page {
	return Define(Definition[InactivePanels, InactivePanelRow]{
		Slug:           "sales/inactive-panels",
		Section:        "sales",
		Title:          "Inactive Panels Report",
		Description:    "Panels with no recent sales activity",
		Endpoint:       "/reports/sales/inactive-panels",
		TableTitle:     "Inactive Panels",
		EmptyMessage:   "All panels are active!",
		LoadingMessage: "Checking panel activity...",
		Fields: []filter.Field{{
			Name:        "days_threshold",
			Label:       "Inactive For (Days)",
			Kind:        filter.KindNumber,
			Placeholder: "30",
			Min:         "1",
		}},
		Defaults: func(time.Time) filter.Set {
			return filter.Set{"days_threshold": "30"}
		},
		Rows: func(p InactivePanels) []InactivePanelRow { return p.InactivePanels },
		Heading: func(p InactivePanels) (string, string) {
			count := len(p.InactivePanels)
			if p.InactivePanelsCount != nil {
				count = int(*p.InactivePanelsCount)
			}
			return fmt.Sprintf("Inactive Panels (%d)", count), ""
		},
		Stats: func(p InactivePanels) []Stat {
			stats := []Stat{{Label: "Inactive Panels", Value: format.Count(len(p.InactivePanels)), Tone: format.ToneRed}}
			if p.DaysThreshold != nil {
				stats = append(stats, Stat{Label: "Threshold", Value: table.Stringify(*p.DaysThreshold) + " days", Tone: format.ToneBlue})
			}
			return stats
		},
		Columns: []table.Column[InactivePanelRow]{
			{Key: "panel_name", Header: "Panel Name", Render: plain[InactivePanelRow](true)},
			{Key: "panel_type", Header: "Type"},
			{Key: "last_sale_date", Header: "Last Sale", Render: orText[InactivePanelRow]("Never")},
			{Key: "days_since_last_sale", Header: "Days Inactive", Render: orText[InactivePanelRow]("N/A")},
		},
	})
}
