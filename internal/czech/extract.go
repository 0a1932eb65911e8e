// Package czech parses numbers, prices and dispositions out of Czech
// real-estate listing text, tolerating the grouping characters and units
// that appear on live pages.
package czech

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	intRe         = regexp.MustCompile(`\d+`)
	floatRe       = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	dispositionRe = regexp.MustCompile(`(?i)(\d+)\s*\+\s*(?:kk|\d)`)
	areaRe        = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m(?:²|2\b)`)

	// Czech prices group thousands with regular, no-break, thin or
	// zero-width spaces.
	groupSeparators = strings.NewReplacer(
		" ", "",
		" ", "",
		" ", "",
		"​", "",
		".", "",
	)
)

// ExtractInt returns the first run of digits in s as an int. The second
// return value is false when s contains no digits.
func ExtractInt(s string) (int, bool) {
	m := intRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExtractFloat returns the first number in s as a float64, accepting both
// "." and "," as the decimal separator.
func ExtractFloat(s string) (float64, bool) {
	m := floatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParsePrice parses a Czech price string like "8 499 000 Kč" or
// "149 105 Kč / m²" into CZK. Everything from the currency marker on is
// discarded so unit suffixes never leak digits into the amount.
func ParsePrice(s string) (float64, bool) {
	for _, marker := range []string{"Kč", "CZK", "kč"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[:idx]
		}
	}
	s = groupSeparators.Replace(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", ".")

	m := floatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// ParseDisposition extracts the room count from a Czech layout code:
// "3+kk" and "3+1" both mean three rooms.
func ParseDisposition(s string) (int, bool) {
	m := dispositionRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseArea extracts a floor area in square meters from strings like
// "57 m²" or "Užitná plocha: 57 m2".
func ParseArea(s string) (int, bool) {
	if m := areaRe.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil && f > 0 {
			return int(f), true
		}
	}
	return ExtractInt(s)
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics, so "Libeň" and "liben" compare
// equal. Used for neighborhood lookups.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
