package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrUnsupportedCurrency is returned for currency codes without a configured rate.
var ErrUnsupportedCurrency = errors.New("currency: unsupported currency")

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
	"GHS": "GH₵",
	"KES": "KSh",
	"ZAR": "R",
	"CAD": "CA$",
	"JPY": "¥",
}

// Currencies whose minor unit is not 1/100.
var scales = map[string]int32{
	"JPY": 0,
}

// Currency describes a supported currency. Rate is the number of base
// currency units one unit of this currency is worth.
type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
	Scale  int32           `json:"scale"`
}

// Formatter converts amounts between the base currency and the supported
// display currencies and renders them for a locale.
type Formatter struct {
	base       string
	locale     language.Tag
	currencies map[string]Currency
}

// NewFormatter builds a Formatter from a static rate table. The base currency
// is always supported with a rate of 1; rates must be positive.
func NewFormatter(base string, locale language.Tag, rates map[string]decimal.Decimal) (*Formatter, error) {
	base = normalize(base)
	if len(base) != 3 {
		return nil, fmt.Errorf("currency: invalid base currency %q", base)
	}

	f := &Formatter{
		base:       base,
		locale:     locale,
		currencies: make(map[string]Currency, len(rates)+1),
	}
	f.currencies[base] = newCurrency(base, decimal.NewFromInt(1))

	for code, rate := range rates {
		code = normalize(code)
		if code == base {
			continue
		}
		if len(code) != 3 {
			return nil, fmt.Errorf("currency: invalid currency code %q", code)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("currency: rate for %s must be positive, got %s", code, rate)
		}
		f.currencies[code] = newCurrency(code, rate)
	}
	return f, nil
}

func newCurrency(code string, rate decimal.Decimal) Currency {
	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}
	scale, ok := scales[code]
	if !ok {
		scale = 2
	}
	return Currency{Code: code, Symbol: symbol, Rate: rate, Scale: scale}
}

// Base returns the base currency code.
func (f *Formatter) Base() string { return f.base }

// Supported reports whether code has a configured rate.
func (f *Formatter) Supported(code string) bool {
	_, ok := f.currencies[normalize(code)]
	return ok
}

// Currencies lists the supported currencies ordered by code.
func (f *Formatter) Currencies() []Currency {
	list := make([]Currency, 0, len(f.currencies))
	for _, c := range f.currencies {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// ConvertFromBase converts a base currency amount into target.
func (f *Formatter) ConvertFromBase(amount decimal.Decimal, target string) (decimal.Decimal, error) {
	c, err := f.lookup(target)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(c.Rate), nil
}

// ConvertToBase converts an amount expressed in source into the base currency.
func (f *Formatter) ConvertToBase(amount decimal.Decimal, source string) (decimal.Decimal, error) {
	c, err := f.lookup(source)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(c.Rate), nil
}

// Format renders amount, already expressed in code, for the configured
// locale. Unknown codes are rendered with the code as prefix.
func (f *Formatter) Format(amount decimal.Decimal, code string) string {
	code = normalize(code)
	c, ok := f.currencies[code]
	if !ok {
		c = newCurrency(code, decimal.NewFromInt(1))
	}

	rounded := amount.Round(c.Scale)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	p := message.NewPrinter(f.locale)
	return sign + c.Symbol + p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(int(c.Scale))))
}

// FormatFromBase converts a base currency amount into code and formats it.
// When code is unsupported the amount is formatted in the base currency.
func (f *Formatter) FormatFromBase(amount decimal.Decimal, code string) string {
	converted, err := f.ConvertFromBase(amount, code)
	if err != nil {
		return f.Format(amount, f.base)
	}
	return f.Format(converted, code)
}

// ToMinorUnits converts a major unit amount into the smallest currency unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts an amount in the smallest currency unit into major units.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

func (f *Formatter) lookup(code string) (Currency, error) {
	c, ok := f.currencies[normalize(code)]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	return c, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
