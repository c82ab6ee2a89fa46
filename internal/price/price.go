// Package price formats course prices for display.
package price

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FreeLabel is shown instead of a zero amount, whatever the currency.
const FreeLabel = "GRATIS"

// ErrInvalidCurrency is returned by FormatStrict for codes that are not ISO 4217.
var ErrInvalidCurrency = errors.New("invalid currency code")

// DefaultTag is used when the viewer sends no usable Accept-Language.
var DefaultTag = language.Spanish

var supportedTags = []language.Tag{
	language.Spanish,
	language.MustParse("es-PE"),
	language.MustParse("es-MX"),
	language.MustParse("es-CO"),
	language.MustParse("es-CL"),
	language.EuropeanSpanish,
	language.English,
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supportedTags)

// Negotiate picks the formatting locale from an Accept-Language header.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultTag
	}
	tag, _, _ := matcher.Match(tags...)
	return tag
}

// Format renders amount in the ISO 4217 code using the viewer locale tag.
// A zero amount yields FreeLabel. Codes the currency table does not know are
// rendered as "<CODE> <amount>" instead of failing.
func Format(amount float64, code string, tag language.Tag) string {
	s, err := FormatStrict(amount, code, tag)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code)) + " " + formatNumber(amount, tag)
	}
	return s
}

// FormatStrict is Format but reports unknown or malformed codes.
func FormatStrict(amount float64, code string, tag language.Tag) (string, error) {
	if amount == 0 {
		return FreeLabel, nil
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}

	p := message.NewPrinter(tag)
	sym := p.Sprint(currency.Symbol(unit))
	num := formatNumber(amount, tag)

	if needsSpace(sym) {
		return sym + " " + num, nil
	}
	return sym + num, nil
}

// Formatter binds a locale so templates can call Format with two arguments.
type Formatter struct {
	Tag language.Tag
}

// Format formats amount in code for the bound locale.
func (f Formatter) Format(amount float64, code string) string {
	return Format(amount, code, f.Tag)
}

func formatNumber(amount float64, tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// needsSpace separates alphabetic symbols ("PEN", "S/") from the number but
// keeps glyph symbols ("$", "US$", "€") attached.
func needsSpace(sym string) bool {
	r, _ := utf8.DecodeLastRuneInString(sym)
	return r != utf8.RuneError && !unicode.Is(unicode.Sc, r)
}
