package reports

import (
	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// SettlementRow is one panel's settlement after commission and logistics.
type SettlementRow struct {
	PanelName        string   `json:"panel_name"`
	PanelCode        string   `json:"panel_code"`
	TotalSales       *float64 `json:"total_sales"`
	GrossRevenue     *float64 `json:"gross_revenue"`
	Commission       *float64 `json:"commission"`
	LogisticsCost    *float64 `json:"logistics_cost"`
	NetPayable       *float64 `json:"net_payable"`
	SettlementStatus string   `json:"settlement_status"`
}

func panelPages() []Page {
	return []Page{panelSettlement()}
}

func panelSettlement() Page {
	return Define(Definition[[]SettlementRow, SettlementRow]{
		Slug:           "panels/settlement",
		Section:        "panels",
		Title:          "Panel Settlement Report",
		Description:    "Calculate settlements with 10% commission and 5% logistics deductions",
		Endpoint:       "/reports/panels/settlement",
		TableTitle:     "Settlement Details",
		EmptyMessage:   "No panel sales data available for settlement",
		LoadingMessage: "Calculating settlements...",
		Fields:         append([]filter.Field{panelField()}, dateRange()...),
		Rows:           identity[SettlementRow],
		Stats: func(rows []SettlementRow) []Stat {
			payable := make([]float64, len(rows))
			commission := make([]float64, len(rows))
			for i, r := range rows {
				payable[i] = val(r.NetPayable)
				commission[i] = val(r.Commission)
			}
			return []Stat{
				{Label: "Total Payable", Value: format.CurrencyOf(format.Sum(payable...)), Tone: format.ToneGreen},
				{Label: "Total Commission", Value: format.CurrencyOf(format.Sum(commission...)), Tone: format.ToneBlue},
				{Label: "Panels to Settle", Value: format.Count(len(rows)), Tone: format.TonePurple},
			}
		},
		Columns: []table.Column[SettlementRow]{
			{Key: "panel_name", Header: "Panel Name", Width: "20%"},
			{Key: "panel_code", Header: "Code", Width: "12%"},
			{Key: "total_sales", Header: "Total Sales", Render: plain[SettlementRow](true)},
			{Key: "gross_revenue", Header: "Gross Revenue", Render: currency[SettlementRow](format.ToneNone, false)},
			{Key: "commission", Header: "Commission (10%)", Render: currency[SettlementRow](format.ToneBlue, true)},
			{Key: "logistics_cost", Header: "Logistics (5%)", Render: currency[SettlementRow](format.ToneOrange, false)},
			{Key: "net_payable", Header: "Net Payable", Render: currency[SettlementRow](format.ToneGreen, true)},
			{Key: "settlement_status", Header: "Status", Render: func(_ any, r SettlementRow) table.Cell {
				return table.Badge(format.SettlementLabel(r.SettlementStatus), format.SettlementStatusTones.Tone(r.SettlementStatus))
			}},
		},
		Options: []table.Option[SettlementRow]{
			table.WithRowID(func(r SettlementRow) string { return r.PanelCode }),
		},
	})
}
