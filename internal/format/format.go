// Package format renders amounts, dates and domain codes for display in the
// es-UY locale. Formatting never fails: bad input falls back to a fixed
// string and unknown codes are returned unchanged.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"finanzas/internal/dateutil"
)

// DefaultCurrency is the currency amounts are normalized to.
const DefaultCurrency = "UYU"

// Locale is the single display locale.
var Locale = language.MustParse("es-UY")

var currencySymbols = map[string]string{
	"UYU": "$",
	"USD": "US$",
	"EUR": "€",
	"BRL": "R$",
}

func printer() *message.Printer {
	return message.NewPrinter(Locale)
}

// Currency formats amount in UYU with two decimals, e.g. "$ 1.234,50".
func Currency(amount float64) string {
	return CurrencyIn(amount, DefaultCurrency)
}

// CurrencyIn formats amount in the given ISO currency. NaN and infinities
// render as "<code> 0.00".
func CurrencyIn(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Sprintf("%s 0.00", code)
	}
	symbol, ok := currencySymbols[strings.ToUpper(code)]
	if !ok {
		symbol = code
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + symbol + " " + printer().Sprint(number.Decimal(amount, number.Scale(2)))
}

// CurrencyString parses a decimal string before formatting it.
func CurrencyString(s, code string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		v = math.NaN()
	}
	return CurrencyIn(v, code)
}

// Percentage clamps value to [0,100] and renders it with the given decimals,
// e.g. "45,5 %".
func Percentage(value float64, decimals int) string {
	if math.IsNaN(value) {
		return "0%"
	}
	value = math.Max(0, math.Min(100, value))
	return printer().Sprint(number.Decimal(value, number.Scale(decimals))) + " %"
}

// Number renders value with locale grouping and a fixed number of decimals.
func Number(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	return printer().Sprint(number.Decimal(value, number.Scale(decimals)))
}

var compactUnits = []struct {
	div    float64
	suffix string
}{
	{1, ""},
	{1e3, " mil"},
	{1e6, " M"},
	{1e9, " mil M"},
}

// CompactNumber abbreviates large values: 1500 -> "1,5 mil", 2500000 -> "2,5 M".
// A value that rounds up to 1000 of its unit moves to the next one, so
// 999999 prints "1 M".
func CompactNumber(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	abs := math.Abs(value)
	i := 0
	for i+1 < len(compactUnits) && abs >= compactUnits[i+1].div {
		i++
	}
	scaled := math.Round(abs/compactUnits[i].div*10) / 10
	for scaled >= 1000 && i+1 < len(compactUnits) {
		i++
		scaled = math.Round(abs/compactUnits[i].div*10) / 10
	}
	if value < 0 {
		scaled = -scaled
	}
	return printer().Sprint(number.Decimal(scaled, number.MaxFractionDigits(1))) + compactUnits[i].suffix
}

// DatePreset names one of the supported date layouts.
type DatePreset string

const (
	DateShort     DatePreset = "short"     // 19/10/2026
	DateLong      DatePreset = "long"      // 19 de octubre de 2026
	DateWithTime  DatePreset = "withTime"  // 19/10/2026, 14:05
	DateMonthDay  DatePreset = "monthDay"  // 19/10
	DateMonthYear DatePreset = "monthYear" // octubre de 2026
)

// Date renders t with a preset. The zero time renders as "N/A"; unknown
// presets fall back to the short layout.
func Date(t time.Time, preset DatePreset) string {
	if t.IsZero() {
		return "N/A"
	}
	switch preset {
	case DateLong:
		return fmt.Sprintf("%d de %s de %d", t.Day(), dateutil.MonthName(t.Month()), t.Year())
	case DateWithTime:
		return t.Format("02/01/2006, 15:04")
	case DateMonthDay:
		return t.Format("02/01")
	case DateMonthYear:
		return fmt.Sprintf("%s de %d", dateutil.MonthName(t.Month()), t.Year())
	default:
		return t.Format("02/01/2006")
	}
}

// DateString parses an RFC 3339 or YYYY-MM-DD string before formatting it.
func DateString(s string, preset DatePreset) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/A"
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t, preset)
		}
	}
	return "Fecha inválida"
}
