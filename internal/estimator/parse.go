package estimator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"sjsage522/rentcalc/internal/listing"
)

const (
	priceMarker = "R "
	areaMarker  = " in "
)

var (
	leadingFloatRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	sizeRegex         = regexp.MustCompile(`\d+(\.\d+)?`)
	intRegex          = regexp.MustCompile(`\d+`)
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParsePrice reads the amount after the first "R " marker, ignoring every space in it.
// Trailing text after the number is ignored.
func ParsePrice(s string) (float64, bool) {
	idx := strings.Index(s, priceMarker)
	if idx < 0 {
		return 0, false
	}
	match := leadingFloatRegex.FindString(stripSpace(s[idx+len(priceMarker):]))
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// ParseArea returns the trimmed text after the first " in " of a title
func ParseArea(title string) (string, bool) {
	_, area, found := strings.Cut(title, areaMarker)
	if !found {
		return "", false
	}
	return strings.TrimSpace(area), true
}

// ParseSize returns the first decimal number in s
func ParseSize(s string) (float64, bool) {
	match := sizeRegex.FindString(s)
	if match == "" {
		return 0, false
	}
	size, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return size, true
}

// firstInt returns the first run of digits anywhere in s, or 0
func firstInt(s string) float64 {
	match := intRegex.FindString(s)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return n
}

// FeatureSum adds the first integer of every non-administrative feature entry
func FeatureSum(features []string) float64 {
	var sum float64
	for _, f := range features {
		if listing.IsAdministrative(f) {
			continue
		}
		sum += firstInt(f)
	}
	return sum
}
