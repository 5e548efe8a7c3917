package reports

import (
	"encoding/json"
	"math"
	"time"

	"github.com/odyssey-erp/garment-dashboard/internal/format"
	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// number extracts a numeric field value; anything else is absent.
func number(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	return &f
}

func val(p *float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return 0
	}
	return *p
}

func plain[R any](strong bool) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		return table.Cell{Text: table.Stringify(value), Strong: strong}
	}
}

func orText[R any](fallback string) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		if value == nil {
			return table.Text(fallback)
		}
		if s, ok := value.(string); ok && s == "" {
			return table.Text(fallback)
		}
		if n := number(value); n != nil && *n == 0 {
			return table.Text(fallback)
		}
		return table.Text(table.Stringify(value))
	}
}

func currency[R any](tone format.Tone, strong bool) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		return table.Cell{Text: format.Currency(number(value)), Tone: tone, Strong: strong}
	}
}

func currencyOrZero[R any](tone format.Tone, strong bool) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		n := number(value)
		if n == nil {
			return table.Cell{Text: format.CurrencySymbol + "0.00", Tone: tone, Strong: strong}
		}
		return table.Cell{Text: format.Currency(n), Tone: tone, Strong: strong}
	}
}

func fixed[R any](places int32, tone format.Tone, strong bool) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		return table.Cell{Text: format.Fixed(number(value), places), Tone: tone, Strong: strong}
	}
}

func fixedOrZero[R any](places int32, strong bool) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		n := number(value)
		if n == nil {
			zero := 0.0
			n = &zero
		}
		return table.Cell{Text: format.Fixed(n, places), Strong: strong}
	}
}

func percentTone[R any](places int32, classify func(float64) format.Tone) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		n := number(value)
		cell := table.Cell{Text: format.Percent(n, places), Strong: true}
		if n != nil {
			cell.Tone = classify(*n)
		}
		return cell
	}
}

func signedTone[R any](suffix string) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		n := number(value)
		if n == nil {
			return table.Text(format.Placeholder)
		}
		return table.Cell{Text: format.Signed(n, 2) + suffix, Tone: format.VarianceTone(*n), Strong: true}
	}
}

func badge[R any](tones format.ToneMap) table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		s := table.Stringify(value)
		return table.Badge(s, tones.Tone(s))
	}
}

// discountBucketBadge shows the server's bucket label, classifying the row's
// discount itself when the label is missing.
func discountBucketBadge(value any, row DiscountRow) table.Cell {
	s, _ := value.(string)
	if s == "" && row.DiscountPercent != nil {
		b := format.DiscountBucket(*row.DiscountPercent)
		return table.Badge(b.Label, b.Tone)
	}
	if s == "" {
		return table.Badge(format.Placeholder, format.ToneGray)
	}
	return table.Badge(s, format.BucketTone(s))
}

func localDate[R any]() table.RenderFunc[R] {
	return func(value any, _ R) table.Cell {
		s, _ := value.(string)
		if s == "" {
			return table.Text(format.Placeholder)
		}
		return table.Text(displayDate(s))
	}
}

func displayDate(s string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02 Jan 2006")
		}
	}
	return s
}

func displayTimestamp(s string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02 Jan 2006 15:04")
		}
	}
	return s
}

func chips(entries Ordered[json.Number], tone format.Tone) table.Cell {
	if entries == nil {
		return table.Text(format.Placeholder)
	}
	cell := table.Cell{Chips: make([]table.Chip, len(entries))}
	for i, e := range entries {
		cell.Chips[i] = table.Chip{Label: e.Key + ": " + e.Value.String(), Tone: tone}
	}
	return cell
}
