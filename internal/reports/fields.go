package reports

import "github.com/odyssey-erp/garment-dashboard/internal/filter"

func dateField(name, label string) filter.Field {
	return filter.Field{Name: name, Label: label, Kind: filter.KindDate}
}

func dateRange() []filter.Field {
	return []filter.Field{
		dateField("start_date", "Start Date"),
		dateField("end_date", "End Date"),
	}
}

func panelField() filter.Field {
	return filter.Field{Name: "panel_id", Label: "Panel ID", Kind: filter.KindNumber, Placeholder: "All Panels"}
}

func forecastField() filter.Field {
	return filter.Field{
		Name:        "forecast_days",
		Label:       "Forecast Period (Days)",
		Kind:        filter.KindNumber,
		Placeholder: "30",
		Min:         "7",
		Max:         "90",
	}
}

var daysPeriodOptions = []filter.Option{
	{Label: "Last 30 Days", Value: "30"},
	{Label: "Last 60 Days", Value: "60"},
	{Label: "Last 90 Days", Value: "90"},
	{Label: "Last 6 Months", Value: "180"},
	{Label: "Last Year", Value: "365"},
}

var fabricTypeOptions = []filter.Option{
	{Label: "Jersey", Value: "JERSEY"},
	{Label: "Terry", Value: "TERRY"},
	{Label: "Fleece", Value: "FLEECE"},
}
