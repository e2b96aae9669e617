package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatError reports a present value that is not numeric.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format: value %q is not numeric", e.Value)
}

// currency symbols for the codes we expect to display; others fall back to the ISO code.
var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"AUD": "A$",
	"CAD": "CA$",
	"HKD": "HK$",
	"SGD": "S$",
	"CHF": "CHF ",
	"KRW": "₩",
}

// Formatter renders values with a fixed locale and currency.
type Formatter struct {
	tag      language.Tag
	currency string
	symbol   string
	printer  *message.Printer
}

// New builds a Formatter for a BCP 47 locale tag and an ISO 4217 currency code.
func New(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("format: invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(currencyCode)))
	if err != nil {
		return nil, fmt.Errorf("format: invalid currency %q: %w", currencyCode, err)
	}

	code := unit.String()
	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}

	return &Formatter{
		tag:      tag,
		currency: code,
		symbol:   symbol,
		printer:  message.NewPrinter(tag),
	}, nil
}

// Locale returns the locale tag.
func (f *Formatter) Locale() string { return f.tag.String() }

// CurrencyCode returns the ISO 4217 code, e.g. INR.
func (f *Formatter) CurrencyCode() string { return f.currency }

// Number renders v as a grouped integer, truncating any fraction.
func (f *Formatter) Number(v Value) (string, error) {
	if v.IsMissing() {
		return NotAvailable, nil
	}
	x, err := parse(v)
	if err != nil {
		return "", err
	}
	t := math.Trunc(x)
	if t == 0 {
		t = 0 // drop the sign of -0
	}
	return f.printer.Sprint(number.Decimal(t, number.Scale(0))), nil
}

// Currency renders v as symbol plus grouped amount with two decimals.
func (f *Formatter) Currency(v Value) (string, error) {
	if v.IsMissing() {
		return NotAvailable, nil
	}
	x, err := parse(v)
	if err != nil {
		return "", err
	}
	sign, abs := rounded(x, 2)
	return sign + f.symbol + f.grouped(abs, 2), nil
}

// Decimal renders v grouped with a fixed number of decimal places.
func (f *Formatter) Decimal(v Value, places int) (string, error) {
	if v.IsMissing() {
		return NotAvailable, nil
	}
	x, err := parse(v)
	if err != nil {
		return "", err
	}
	sign, abs := rounded(x, places)
	return sign + f.grouped(abs, places), nil
}

// rounded rounds x half away from zero and splits off the sign, so values that
// round to zero carry none.
func rounded(x float64, places int) (string, float64) {
	d := decimal.NewFromFloat(x).Round(int32(places))
	abs, _ := d.Abs().Float64()
	if d.IsNegative() {
		return "-", abs
	}
	return "", abs
}

// grouped renders an already rounded non-negative x.
func (f *Formatter) grouped(x float64, places int) string {
	return f.printer.Sprint(number.Decimal(x, number.Scale(places)))
}

func parse(v Value) (float64, error) {
	x, err := strconv.ParseFloat(v.text, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &FormatError{Value: v.text}
	}
	return x, nil
}

// FormatPercentRatio renders a fraction as a percentage rounded to two places.
// Absent and zero both render as NotAvailable.
func FormatPercentRatio(raw *float64) string {
	if raw == nil || *raw == 0 {
		return NotAvailable
	}
	return round2(*raw*100) + "%"
}

// FormatRatio renders a plain ratio rounded to two places.
// Absent and zero both render as NotAvailable.
func FormatRatio(raw *float64) string {
	if raw == nil || *raw == 0 {
		return NotAvailable
	}
	return round2(*raw)
}

func round2(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return NotAvailable
	}
	s := decimal.NewFromFloat(x).Round(2).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
