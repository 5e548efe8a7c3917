package reports

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/query"
)

func success(raw string) query.Result {
	return query.Result{Status: query.StatusSuccess, Data: json.RawMessage(raw)}
}

func lookup(t *testing.T, slug string) Page {
	t.Helper()
	page, ok := DefaultRegistry().Lookup(slug)
	require.True(t, ok, slug)
	return page
}

func TestDiscountGeneralRender(t *testing.T) {
	page := lookup(t, "sales/discount-general")
	view := page.Render(success(`[
		{"sku":"TS-01","product_name":"Tee","mrp":500,"selling_price":400,"discount_percent":20,"discount_bucket":"20-30%","total_sold":10},
		{"sku":"TS-02","product_name":"Polo","mrp":800,"selling_price":440,"discount_percent":45,"discount_bucket":"40%+","total_sold":2}
	]`))

	require.False(t, view.Failed)
	require.Len(t, view.Stats, 3)
	assert.Equal(t, "32.5%", view.Stats[0].Value)
	assert.Equal(t, "2", view.Stats[1].Value)
	assert.Equal(t, "₹1720", view.Stats[2].Value)

	require.Len(t, view.Table.Rows, 2)
	cells := view.Table.Rows[0].Cells
	assert.Equal(t, "TS-01", view.Table.Rows[0].ID)
	assert.Equal(t, "₹500.00", cells[2].Text)
	assert.Equal(t, "20.0%", cells[4].Text)
	assert.Equal(t, format.ToneYellow, cells[4].Tone)
	assert.True(t, cells[5].Badge)
	assert.Equal(t, format.ToneYellow, cells[5].Tone)
	assert.Equal(t, format.ToneRed, view.Table.Rows[1].Cells[4].Tone)
	assert.Equal(t, "10", cells[6].Text)
}

func TestMissingNumbersRenderPlaceholder(t *testing.T) {
	page := lookup(t, "sales/discount-general")
	view := page.Render(success(`[{"sku":"X","discount_bucket":"55%"}]`))
	cells := view.Table.Rows[0].Cells
	assert.Equal(t, format.Placeholder, cells[2].Text)
	assert.Equal(t, format.Placeholder, cells[4].Text)
	assert.Equal(t, format.ToneGray, cells[5].Tone)
	assert.Equal(t, format.Placeholder, cells[6].Text)
}

func TestDiscountBucketFallsBackToPercent(t *testing.T) {
	page := lookup(t, "sales/discount-general")
	view := page.Render(success(`[
		{"sku":"A","discount_percent":34.5},
		{"sku":"B","discount_percent":-3},
		{"sku":"C","discount_percent":40},
		{"sku":"D"}
	]`))
	require.Len(t, view.Table.Rows, 4)

	tests := []struct {
		label string
		tone  format.Tone
	}{
		{"30-40%", format.ToneOrange},
		{"0-10%", format.ToneGreen},
		{"40%+", format.ToneRed},
		{format.Placeholder, format.ToneGray},
	}
	for i, tt := range tests {
		cell := view.Table.Rows[i].Cells[5]
		assert.True(t, cell.Badge)
		assert.Equal(t, tt.label, cell.Text, view.Table.Rows[i].ID)
		assert.Equal(t, tt.tone, cell.Tone, view.Table.Rows[i].ID)
	}
}

func TestEmptyPayloadShowsEmptyMessage(t *testing.T) {
	page := lookup(t, "sales/bundle-sku")
	for _, raw := range []string{`[]`, `null`} {
		view := page.Render(success(raw))
		assert.True(t, view.Table.Empty, raw)
		assert.Equal(t, "No bundle sales data available for the selected period", view.Table.EmptyMessage)
	}
}

func TestBundleSizeBreakdownKeepsOrder(t *testing.T) {
	page := lookup(t, "sales/bundle-sku")
	view := page.Render(success(`[
		{"bundle_sku":"B1","bundle_name":"Pack","total_quantity":12,"size_breakdown":{"S":3,"M":5,"L":4},"total_revenue":1200.5},
		{"bundle_sku":"B2","bundle_name":"Solo","total_quantity":1}
	]`))
	chipsCell := view.Table.Rows[0].Cells[3]
	require.Len(t, chipsCell.Chips, 3)
	assert.Equal(t, "S: 3", chipsCell.Chips[0].Label)
	assert.Equal(t, "M: 5", chipsCell.Chips[1].Label)
	assert.Equal(t, "L: 4", chipsCell.Chips[2].Label)
	assert.Equal(t, format.Placeholder, view.Table.Rows[1].Cells[3].Text)
	assert.Equal(t, "₹1200.50", view.Table.Rows[0].Cells[4].Text)
}

func TestSettlementStatsAndStatus(t *testing.T) {
	page := lookup(t, "panels/settlement")
	view := page.Render(success(`[
		{"panel_name":"Amazon","panel_code":"AMZ","net_payable":850.25,"commission":100,"settlement_status":"Paid"},
		{"panel_name":"Flipkart","panel_code":"FK","net_payable":149.75,"commission":20}
	]`))
	require.Len(t, view.Stats, 3)
	assert.Equal(t, "₹1000.00", view.Stats[0].Value)
	assert.Equal(t, "₹120.00", view.Stats[1].Value)
	assert.Equal(t, "2", view.Stats[2].Value)

	status := view.Table.Rows[1].Cells[7]
	assert.Equal(t, "Pending", status.Text)
	assert.Equal(t, format.ToneGray, status.Tone)
	assert.Equal(t, format.ToneGreen, view.Table.Rows[0].Cells[7].Tone)
}

func TestPurchaseRaiseUrgentAlert(t *testing.T) {
	page := lookup(t, "raw-materials/purchase-raise")
	view := page.Render(success(`{"purchase_recommendations":[
		{"yarn_count":"30s","composition":"Cotton","priority":"HIGH","estimated_order_value":100},
		{"yarn_count":"40s","composition":"Cotton","priority":"HIGH"},
		{"yarn_count":"20s","composition":"Poly","priority":"LOW"}
	]}`))
	require.Len(t, view.Alerts, 1)
	assert.Equal(t, "2 yarn type(s) require immediate purchase orders.", view.Alerts[0].Message)
	assert.Equal(t, format.ToneRed, view.Table.Rows[0].Cells[6].Tone)

	calm := page.Render(success(`{"purchase_recommendations":[]}`))
	assert.Empty(t, calm.Alerts)
	assert.Equal(t, "All yarn stocks are at healthy levels", calm.Table.EmptyMessage)
}

func TestPanelWiseOrdersNumericKeys(t *testing.T) {
	page := lookup(t, "sales/panel-wise")
	view := page.Render(success(`{"panels":{
		"10":{"panel_name":"Ten","net_sales_value":10},
		"2":{"panel_name":"Two","net_sales_value":5.5}
	}}`))
	require.Len(t, view.Table.Rows, 2)
	assert.Equal(t, "Two", view.Table.Rows[0].Cells[0].Text)
	assert.Equal(t, "Ten", view.Table.Rows[1].Cells[0].Text)
	assert.Equal(t, "₹15.50", view.Stats[1].Value)
}

func TestInactivePanelsFallbacks(t *testing.T) {
	page := lookup(t, "sales/inactive-panels")
	view := page.Render(success(`{"inactive_panels_count":1,"inactive_panels":[{"id":4,"panel_name":"Local"}]}`))
	assert.Equal(t, "Inactive Panels (1)", view.TableTitle)
	cells := view.Table.Rows[0].Cells
	assert.Equal(t, "Never", cells[2].Text)
	assert.Equal(t, "N/A", cells[3].Text)
	assert.Equal(t, "4", view.Table.Rows[0].ID)
}

func TestVarianceRender(t *testing.T) {
	page := lookup(t, "production/daily-variance")
	view := page.Render(success(`{"report_date":"2024-03-05",
		"summary":{"total_activities":2,"avg_variance_percentage":-1.5,"within_tolerance":1,"out_of_tolerance":1},
		"activities":[
			{"id":1,"garment_name":"Tee","pieces_produced":100,"calculated_gross_weight":10,"actual_gross_weight":10.5,"variance":0.5,"variance_percentage":5},
			{"id":2,"garment_name":"Polo","pieces_produced":50,"calculated_gross_weight":8,"actual_gross_weight":7.9,"variance":-0.1,"variance_percentage":-1.25}
		]}`))
	assert.Equal(t, "Production Activities - 2024-03-05", view.TableTitle)
	require.Len(t, view.Stats, 4)
	assert.Equal(t, "-1.50%", view.Stats[1].Value)
	assert.Equal(t, format.ToneGreen, view.Stats[1].Tone)

	first := view.Table.Rows[0].Cells
	assert.Equal(t, "+0.50", first[4].Text)
	assert.Equal(t, format.ToneRed, first[4].Tone)
	assert.Equal(t, "+5.00%", first[5].Text)
	assert.Equal(t, "⚠ Alert", first[6].Text)
	second := view.Table.Rows[1].Cells
	assert.Equal(t, "-1.25%", second[5].Text)
	assert.Equal(t, "✓ OK", second[6].Text)
	assert.NotEmpty(t, view.Legend)
}

func TestPlanStatusBar(t *testing.T) {
	page := lookup(t, "production/plan-status")
	view := page.Render(success(`{"total_plans":1,"plans":[{"id":9,"garment_name":"Tee","planned_date":"2024-03-01","completion_percentage":100,"status":"COMPLETED"}]}`))
	cells := view.Table.Rows[0].Cells
	assert.Equal(t, "01 Mar 2024", cells[1].Text)
	require.NotNil(t, cells[5].Bar)
	assert.Equal(t, 100.0, cells[5].Bar.Percent)
	assert.Equal(t, format.ToneGreen, cells[5].Bar.Tone)
	assert.Equal(t, "100%", cells[5].Text)
	assert.Equal(t, format.ToneGreen, cells[6].Tone)
	assert.Equal(t, format.Placeholder, view.Stats[1].Value)
}

func TestFabricSheetRender(t *testing.T) {
	page := lookup(t, "fabric/stock-total")
	view := page.Render(success(`{"report_type":"Total Fabric Stock","generated_at":"2024-03-05T10:30:00",
		"summary":{"total_fabric_types":3,"total_stock_value":1500},
		"fabrics":[{"fabric_type":"JERSEY","subtype":"Single","gsm":180,"stock_quantity":12.345,"cost_per_unit":100,"stock_value":1234.5}]}`))
	assert.Equal(t, "Total Fabric Stock", view.TableTitle)
	assert.Equal(t, "Generated: 05 Mar 2024 10:30", view.Subtitle)
	require.Len(t, view.Stats, 2)
	assert.Equal(t, "₹1500.00", view.Stats[1].Value)
	cells := view.Table.Rows[0].Cells
	assert.Equal(t, "180", cells[2].Text)
	assert.Equal(t, format.Placeholder, cells[3].Text)
	assert.Equal(t, "12.35", cells[4].Text)

	cost := lookup(t, "fabric/cost-sheet").Render(success(`{"detailed_costs":[{"fabric_type":"TERRY","subtype":"Loop","stock_quantity":2,"cost_per_unit":50,"total_value":100}]}`))
	assert.Equal(t, "₹100.00", cost.Table.Rows[0].Cells[4].Text)
}

func TestInventoryColumnsDifferByKind(t *testing.T) {
	raw := `{"items_count":1,"analysis_period_days":90,"threshold":0.1,"items":[{"id":1,"sku":"A","current_stock":5,"turnover_rate":1.5}]}`
	slow := lookup(t, "inventory/slow-moving").Render(success(raw))
	fast := lookup(t, "inventory/fast-moving").Render(success(raw))
	assert.Len(t, slow.Table.Headers, 6)
	assert.Len(t, fast.Table.Headers, 8)
	assert.Equal(t, "90 days", slow.Stats[1].Value)
	assert.Equal(t, "0.1", slow.Stats[2].Value)

	cells := fast.Table.Rows[0].Cells
	assert.Equal(t, format.ToneRed, cells[3].Tone)
	assert.Equal(t, "1.500", cells[5].Text)
	assert.Equal(t, format.ToneGreen, cells[5].Tone)
	assert.Equal(t, format.Placeholder, cells[6].Text)
	assert.Equal(t, format.Placeholder, cells[7].Text)
	assert.Equal(t, turnoverLegend, fast.Legend)
}

func TestRenderStates(t *testing.T) {
	page := lookup(t, "sales/daily")

	disabled := page.Render(query.Result{Disabled: true})
	assert.True(t, disabled.Disabled)
	assert.Equal(t, DisabledMessage, disabled.Message)

	loading := page.Render(query.Result{Status: query.StatusLoading})
	assert.True(t, loading.Loading)
	assert.True(t, loading.Table.Loading)
	assert.Equal(t, "Loading daily sales...", loading.LoadingMessage)

	failed := page.Render(query.Result{Status: query.StatusError, Err: errors.New("502")})
	assert.True(t, failed.Failed)
	assert.Empty(t, failed.Table.Rows)
	require.Len(t, failed.Alerts, 1)

	malformed := page.Render(success(`[1,2,3]`))
	assert.True(t, malformed.Failed)
}

func TestOverviewRender(t *testing.T) {
	view := NewOverview().Render(success(`{
		"fabric_summary":{"total_fabrics":3,"total_value":1500,"by_type":{"JERSEY":{"quantity":10,"value":1000},"TERRY":{"quantity":5.5,"value":500}}},
		"inventory_summary":{"total_items":40,"total_stock":900,"slow_moving_count":4,"fast_moving_count":0},
		"sales_summary":{"total_panels":6,"active_panels":5}
	}`))
	require.Len(t, view.Stats, 4)
	assert.Equal(t, "3", view.Stats[0].Value)
	assert.Equal(t, "₹1500.00", view.Stats[0].Hint)
	assert.Equal(t, "0", view.Stats[2].Value)
	assert.Equal(t, "5 active", view.Stats[3].Hint)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "JERSEY", view.Groups[0].Title)
	assert.Equal(t, []string{"5.50 kg", "₹500.00"}, view.Groups[1].Lines)
	require.Len(t, view.Alerts, 1)
	assert.Equal(t, "/reports/inventory/slow-moving", view.Alerts[0].Link)

	assert.True(t, NewOverview().Render(query.Result{Status: query.StatusLoading}).Loading)
}

func TestWriteCSV(t *testing.T) {
	page := lookup(t, "sales/bundle-sku")
	view := page.Render(success(`[{"bundle_sku":"B1","bundle_name":"Pack, Large","total_quantity":3,"size_breakdown":{"S":1,"M":2},"total_revenue":10}]`))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, view.Table))
	assert.Equal(t, "Bundle SKU,Bundle Name,Total Qty Sold,Size Breakdown,Total Revenue\nB1,\"Pack, Large\",3,S: 1; M: 2,₹10.00\n", buf.String())
}
