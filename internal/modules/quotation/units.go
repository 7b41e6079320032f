package quotation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/freightquote/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dimensional weight divisors
const (
	MetricCubedDivisor   = 6000.0
	ImperialCubedDivisor = 166.0
)

const (
	defaultCurrency = "BRL"
	missingValue    = "-"
	validUntilFmt   = "02/01/2006, 15:04:05"
)

var displayLanguage = language.BrazilianPortuguese

// CubedWeight returns the dimensional weight of a box
func CubedWeight(height, width, depth float64, m domain.Measurement) float64 {
	if m == domain.MeasurementImperial {
		return height * width * depth / ImperialCubedDivisor
	}
	return height * width * depth / MetricCubedDivisor
}

// BillableWeight returns the larger of the real and cubed weights and which one it was.
// Ties count as real weight.
func BillableWeight(realWeight, cubedWeight float64) (float64, domain.WeightType) {
	if cubedWeight > realWeight {
		return cubedWeight, domain.WeightTypeCubed
	}
	return realWeight, domain.WeightTypeReal
}

func unitLabels(m domain.Measurement) (weight, length string) {
	if m == domain.MeasurementImperial {
		return "lb", "in"
	}
	return "kg", "cm"
}

// FormatWeight renders a weight string such as "2.5" as "2.50 kg"
func FormatWeight(value string, m domain.Measurement) string {
	v, ok := parseNumber(value)
	if !ok {
		return missingValue
	}
	w, _ := unitLabels(m)
	return fmt.Sprintf("%.2f %s", v, w)
}

// FormatDimensions renders "10 × 15 × 20 cm"
func FormatDimensions(height, width, depth float64, m domain.Measurement) string {
	_, l := unitLabels(m)
	return fmt.Sprintf("%s × %s × %s %s", formatPlain(height), formatPlain(width), formatPlain(depth), l)
}

func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCurrency renders a money string in Brazilian Portuguese, e.g. "R$ 1.234,56".
// An empty code means BRL. Unknown codes are printed before the number.
// Negative amounts carry the sign before the symbol: "-R$ 5,00".
func FormatCurrency(amount, code string) string {
	v, ok := parseNumber(amount)
	if !ok {
		return missingValue
	}

	sign := ""
	if math.Round(v*100) < 0 {
		sign = "-"
	}
	v = math.Abs(v)

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = defaultCurrency
	}

	p := message.NewPrinter(displayLanguage)

	unit, err := currency.ParseISO(code)
	if err != nil {
		return sign + p.Sprintf("%s %.2f", code, v)
	}
	return sign + p.Sprint(currency.Symbol(unit.Amount(v)))
}

// FormatTransitDays renders "5 dias"
func FormatTransitDays(days int) string {
	return fmt.Sprintf("%d dias", days)
}

// FormatValidUntil renders a valid_until timestamp as "dd/mm/yyyy, hh:mm:ss" in its own zone
func FormatValidUntil(ts string) string {
	t, ok := domain.ParseValidUntil(ts)
	if !ok {
		return missingValue
	}
	return t.Format(validUntilFmt)
}

// WeightTypeLabel returns the display label of a weight type
func WeightTypeLabel(t domain.WeightType) string {
	if t == domain.WeightTypeReal {
		return "Real"
	}
	return "Cubado"
}

func parseNumber(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	v, _ := d.Float64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
