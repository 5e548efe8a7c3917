package format

import "math"

// Tone is a visual classification applied to badges, bars and stat cards.
type Tone string

// Supported tones.
const (
	ToneNone   Tone = ""
	ToneGray   Tone = "gray"
	ToneGreen  Tone = "green"
	ToneBlue   Tone = "blue"
	ToneYellow Tone = "yellow"
	ToneOrange Tone = "orange"
	ToneRed    Tone = "red"
	TonePurple Tone = "purple"
)

// ToneMap resolves categorical values to tones with a fallback for anything unmapped.
type ToneMap struct {
	tones    map[string]Tone
	fallback Tone
}

// NewToneMap builds a ToneMap.
func NewToneMap(tones map[string]Tone, fallback Tone) ToneMap {
	return ToneMap{tones: tones, fallback: fallback}
}

// Tone returns the tone mapped to value.
func (m ToneMap) Tone(value string) Tone {
	if tone, ok := m.tones[value]; ok {
		return tone
	}
	return m.fallback
}

// Categorical mappings used by the report pages.
var (
	SettlementStatusTones = NewToneMap(map[string]Tone{
		"Pending":    ToneYellow,
		"Paid":       ToneGreen,
		"Processing": ToneBlue,
	}, ToneGray)
	PriorityTones = NewToneMap(map[string]Tone{
		"HIGH":   ToneRed,
		"MEDIUM": ToneYellow,
		"LOW":    ToneGreen,
	}, ToneGray)
	StockStatusTones = NewToneMap(map[string]Tone{
		"Low":    ToneRed,
		"Normal": ToneGreen,
		"High":   ToneBlue,
	}, ToneGray)
	PlanStatusTones = NewToneMap(map[string]Tone{
		"COMPLETED":   ToneGreen,
		"IN_PROGRESS": ToneBlue,
	}, ToneYellow)
)

// SettlementLabel returns the displayed settlement status; empty means Pending.
func SettlementLabel(status string) string {
	if status == "" {
		return "Pending"
	}
	return status
}

// Bucket is one discount band.
type Bucket struct {
	Label string
	Min   float64
	Tone  Tone
}

// DiscountBuckets are ordered by lower bound; each band is [Min, next Min).
var DiscountBuckets = []Bucket{
	{Label: "0-10%", Min: 0, Tone: ToneGreen},
	{Label: "10-20%", Min: 10, Tone: ToneBlue},
	{Label: "20-30%", Min: 20, Tone: ToneYellow},
	{Label: "30-40%", Min: 30, Tone: ToneOrange},
	{Label: "40%+", Min: 40, Tone: ToneRed},
}

// DiscountBucket classifies a discount percentage. Negative values fall in the first band.
func DiscountBucket(pct float64) Bucket {
	for i := len(DiscountBuckets) - 1; i > 0; i-- {
		if pct >= DiscountBuckets[i].Min {
			return DiscountBuckets[i]
		}
	}
	return DiscountBuckets[0]
}

// BucketTone returns the tone of a server-supplied bucket label. Unknown labels are gray.
func BucketTone(label string) Tone {
	for _, b := range DiscountBuckets {
		if b.Label == label {
			return b.Tone
		}
	}
	return ToneGray
}

// DiscountTone classifies an average discount on the panel sales pages.
func DiscountTone(pct float64) Tone {
	switch {
	case pct > 30:
		return ToneRed
	case pct > 15:
		return ToneYellow
	default:
		return ToneGreen
	}
}

// PanelDiscountTone classifies a panel's average discount.
func PanelDiscountTone(pct float64) Tone {
	switch {
	case pct > 25:
		return ToneRed
	case pct > 15:
		return ToneYellow
	default:
		return ToneGreen
	}
}

// StockoutTone classifies days until stockout after rounding.
func StockoutTone(days float64) Tone {
	rounded := math.Round(days)
	switch {
	case rounded < 7:
		return ToneRed
	case rounded < 15:
		return ToneYellow
	default:
		return ToneGreen
	}
}

// TurnoverTone classifies an inventory turnover ratio.
func TurnoverTone(ratio float64) Tone {
	switch {
	case ratio > 1:
		return ToneGreen
	case ratio < 0.1:
		return ToneRed
	default:
		return ToneYellow
	}
}

// CompletionTone classifies a plan completion percentage.
func CompletionTone(pct float64) Tone {
	switch {
	case pct == 100:
		return ToneGreen
	case pct >= 50:
		return ToneBlue
	default:
		return ToneYellow
	}
}

// VarianceTone marks over-consumption red and savings green.
func VarianceTone(variance float64) Tone {
	if variance >= 0 {
		return ToneRed
	}
	return ToneGreen
}

// WithinTolerance reports whether a variance percentage is inside the accepted band.
func WithinTolerance(pct float64) bool {
	return math.Abs(pct) <= 2
}

// LowStockTone highlights quantities under ten units.
func LowStockTone(qty float64) Tone {
	if qty < 10 {
		return ToneRed
	}
	return ToneNone
}
