package reports

import (
	"encoding/json"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/filter"
	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// PlanStatus summarises production plans.
type PlanStatus struct {
	TotalPlans *float64         `json:"total_plans"`
	InProgress *float64         `json:"in_progress"`
	Completed  *float64         `json:"completed"`
	Pending    *float64         `json:"pending"`
	Plans      []ProductionPlan `json:"plans"`
}

// ProductionPlan is one garment production plan.
type ProductionPlan struct {
	ID                   json.Number `json:"id"`
	GarmentName          string      `json:"garment_name"`
	PlannedDate          string      `json:"planned_date"`
	TargetQuantity       *float64    `json:"target_quantity"`
	TotalActivities      *float64    `json:"total_activities"`
	CompletedActivities  *float64    `json:"completed_activities"`
	CompletionPercentage *float64    `json:"completion_percentage"`
	Status               string      `json:"status"`
}

// DailyVariance compares calculated and actual weights for a day.
type DailyVariance struct {
	ReportDate string             `json:"report_date"`
	Summary    *VarianceSummary   `json:"summary"`
	Activities []VarianceActivity `json:"activities"`
}

// VarianceSummary totals a day's variance.
type VarianceSummary struct {
	TotalActivities       *float64 `json:"total_activities"`
	AvgVariancePercentage *float64 `json:"avg_variance_percentage"`
	WithinTolerance       *float64 `json:"within_tolerance"`
	OutOfTolerance        *float64 `json:"out_of_tolerance"`
}

// VarianceActivity is one production activity.
type VarianceActivity struct {
	ID                    json.Number `json:"id"`
	GarmentName           string      `json:"garment_name"`
	PiecesProduced        *float64    `json:"pieces_produced"`
	CalculatedGrossWeight *float64    `json:"calculated_gross_weight"`
	ActualGrossWeight     *float64    `json:"actual_gross_weight"`
	Variance              *float64    `json:"variance"`
	VariancePercentage    *float64    `json:"variance_percentage"`
}

var varianceLegend = []LegendItem{
	{Label: "+", Tone: format.ToneRed, Text: "Actual weight exceeds calculated (possible waste or measurement error)"},
	{Label: "-", Tone: format.ToneGreen, Text: "Actual weight less than calculated (efficient production)"},
	{Label: "±2%", Tone: format.ToneBlue, Text: "Variance inside this band is considered acceptable"},
}

func productionPages() []Page {
	return []Page{planStatus(), dailyVariance()}
}

func planStatus() Page {
	return Define(Definition[PlanStatus, ProductionPlan]{
		Slug:           "production/plan-status",
		Section:        "production",
		Title:          "Production Plan Status",
		Description:    "Production plan tracking",
		Endpoint:       "/reports/production/plan-status",
		TableTitle:     "Production Plans",
		EmptyMessage:   "No production plans for this period",
		LoadingMessage: "Loading production plans...",
		Fields:         dateRange(),
		Rows:           func(p PlanStatus) []ProductionPlan { return p.Plans },
		Stats: func(p PlanStatus) []Stat {
			return []Stat{
				{Label: "Total Plans", Value: table.Stringify(p.TotalPlans), Tone: format.ToneBlue},
				{Label: "In Progress", Value: table.Stringify(p.InProgress), Tone: format.ToneBlue},
				{Label: "Completed", Value: table.Stringify(p.Completed), Tone: format.ToneGreen},
				{Label: "Pending", Value: table.Stringify(p.Pending), Tone: format.ToneYellow},
			}
		},
		Columns: []table.Column[ProductionPlan]{
			{Key: "garment_name", Header: "Garment", Render: plain[ProductionPlan](true)},
			{Key: "planned_date", Header: "Planned Date", Render: localDate[ProductionPlan]()},
			{Key: "target_quantity", Header: "Target Qty"},
			{Key: "total_activities", Header: "Activities"},
			{Key: "completed_activities", Header: "Completed"},
			{Key: "completion_percentage", Header: "Completion %", Render: func(value any, _ ProductionPlan) table.Cell {
				n := number(value)
				if n == nil {
					return table.Text(format.Placeholder)
				}
				tone := format.CompletionTone(*n)
				return table.Cell{
					Text: table.Stringify(*n) + "%",
					Bar:  &table.Bar{Percent: clampPercent(*n), Tone: tone},
				}
			}},
			{Key: "status", Header: "Status", Render: badge[ProductionPlan](format.PlanStatusTones)},
		},
	})
}

func dailyVariance() Page {
	return Define(Definition[DailyVariance, VarianceActivity]{
		Slug:           "production/daily-variance",
		Section:        "production",
		Title:          "Daily Production Variance",
		Description:    "Calculated vs actual gross weight",
		Endpoint:       "/reports/production/daily-variance/{report_date}",
		TableTitle:     "Production Activities",
		EmptyMessage:   "No production activities on this date",
		LoadingMessage: "Calculating variance...",
		Fields:         []filter.Field{dateField("report_date", "Report Date")},
		Required:       []string{"report_date"},
		Defaults: func(now time.Time) filter.Set {
			return filter.Set{"report_date": today(now)}
		},
		Rows: func(p DailyVariance) []VarianceActivity { return p.Activities },
		Heading: func(p DailyVariance) (string, string) {
			if p.ReportDate == "" {
				return "", ""
			}
			return "Production Activities - " + p.ReportDate, ""
		},
		Stats: func(p DailyVariance) []Stat {
			if p.Summary == nil {
				return nil
			}
			s := p.Summary
			avg := Stat{Label: "Avg Variance", Value: format.Percent(s.AvgVariancePercentage, 2)}
			if s.AvgVariancePercentage != nil {
				avg.Tone = format.VarianceTone(*s.AvgVariancePercentage)
			}
			return []Stat{
				{Label: "Total Activities", Value: table.Stringify(s.TotalActivities), Tone: format.ToneBlue},
				avg,
				{Label: "Within Tolerance", Value: table.Stringify(s.WithinTolerance), Tone: format.ToneGreen},
				{Label: "Out of Tolerance", Value: table.Stringify(s.OutOfTolerance), Tone: format.ToneRed},
			}
		},
		Legend: varianceLegend,
		Columns: []table.Column[VarianceActivity]{
			{Key: "garment_name", Header: "Garment", Render: plain[VarianceActivity](true)},
			{Key: "pieces_produced", Header: "Pcs Produced"},
			{Key: "calculated_gross_weight", Header: "Calculated (kg)", Render: fixed[VarianceActivity](2, format.ToneNone, false)},
			{Key: "actual_gross_weight", Header: "Actual (kg)", Render: fixed[VarianceActivity](2, format.ToneNone, false)},
			{Key: "variance", Header: "Variance (kg)", Render: signedTone[VarianceActivity]("")},
			{Key: "variance_percentage", Header: "Variance %", Render: signedTone[VarianceActivity]("%")},
			{Key: "status", Header: "Status", Render: func(_ any, a VarianceActivity) table.Cell {
				if a.VariancePercentage == nil {
					return table.Text(format.Placeholder)
				}
				if format.WithinTolerance(*a.VariancePercentage) {
					return table.Badge("✓ OK", format.ToneGreen)
				}
				return table.Badge("⚠ Alert", format.ToneRed)
			}},
		},
	})
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
