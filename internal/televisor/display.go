package televisor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rileyhilliard/televisor/internal/remote"
)

// Bars are full at this many kilograms per hour.
const MaxKilosPerHour = 100.0

// Values above this threshold render green.
const GoodThreshold = 70.0

// YieldCap bounds the yield bar.
const YieldCap = 100.0

// Bar colors.
const (
	ColorGood      = "green"
	ColorYieldLow  = "red"
	ColorOutputLow = "#FF0000"
)

// UnknownDisplay stands in for fields that have not arrived.
const UnknownDisplay = "-"

const (
	fruitOrangeName = "Naranja"
	fruitLemonName  = "Limon"
)

// Fruit is the icon shown in the header card.
type Fruit int

const (
	FruitNone Fruit = iota
	FruitOrange
	FruitLemon
)

// FruitFor maps a tipoFruta value to an icon. Matching is exact.
func FruitFor(tipo string) Fruit {
	switch tipo {
	case fruitOrangeName:
		return FruitOrange
	case fruitLemonName:
		return FruitLemon
	default:
		return FruitNone
	}
}

// String returns the fruit name.
func (f Fruit) String() string {
	switch f {
	case FruitOrange:
		return "orange"
	case FruitLemon:
		return "lemon"
	default:
		return "none"
	}
}

// Icon returns the glyph for the fruit, empty for none.
func (f Fruit) Icon() string {
	switch f {
	case FruitOrange:
		return "🍊"
	case FruitLemon:
		return "🍋"
	default:
		return ""
	}
}

// MarshalJSON renders the fruit by name.
func (f Fruit) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// Gauge is one progress bar: fill percent (0-100, not clamped), color and label.
type Gauge struct {
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
}

// Fraction returns the fill in [0,1] for drawing.
func (g Gauge) Fraction() float64 {
	f := g.Percent / 100
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// Display is the derived, render-ready view of a State.
type Display struct {
	Stopwatch   string  `json:"stopwatch"`
	Fruit       Fruit   `json:"fruit"`
	TipoFruta   string  `json:"tipo_fruta"`
	ENF         string  `json:"enf"`
	SiteName    string  `json:"site_name"`
	Rendimiento float64 `json:"rendimiento"`
	ProcessedKg float64 `json:"processed_kg"`
	ExportedKg  float64 `json:"exported_kg"`
	Yield       Gauge   `json:"yield"`
	Processed   Gauge   `json:"processed"`
	Exported    Gauge   `json:"exported"`
}

// Derive computes the display values for s.
func Derive(s State) Display {
	d := Display{
		Stopwatch:   FormatTime(s.Elapsed),
		ENF:         UnknownDisplay,
		SiteName:    UnknownDisplay,
		Rendimiento: s.Site.Yield(),
		ProcessedKg: s.Throughput.Processed,
		ExportedKg:  s.Throughput.Exported,
	}
	if s.Record != nil {
		d.TipoFruta = s.Record.TipoFruta
		d.Fruit = FruitFor(s.Record.TipoFruta)
		if s.Record.ENF != "" {
			d.ENF = s.Record.ENF.String()
		}
		if s.Record.NombrePredio != "" {
			d.SiteName = s.Record.NombrePredio
		}
	}

	yield := YieldPercent(s.Site)
	d.Yield = Gauge{Percent: yield, Color: yieldColor(yield), Label: formatNumber(yield) + "%"}

	processed := s.Throughput.Processed / MaxKilosPerHour * 100
	d.Processed = Gauge{Percent: processed, Color: outputColor(processed), Label: formatNumber(s.Throughput.Processed) + " kg"}

	exported := s.Throughput.Exported / MaxKilosPerHour * 100
	d.Exported = Gauge{Percent: exported, Color: outputColor(exported), Label: formatNumber(s.Throughput.Exported) + " kg"}

	return d
}

// FormatTime renders seconds as MM:SS. Minutes keep counting past 59.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// YieldPercent is the lot's yield capped at 100; zero without a lot.
func YieldPercent(lot *remote.Lot) float64 {
	return min(lot.Yield(), YieldCap)
}

func yieldColor(p float64) string {
	if p > GoodThreshold {
		return ColorGood
	}
	return ColorYieldLow
}

func outputColor(p float64) string {
	if p > GoodThreshold {
		return ColorGood
	}
	return ColorOutputLow
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
