package listing

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	apperrors "sjsage522/rentcalc/pkg/errors"
)

// UnknownPropertyType is used when a listing carries no property type label
const UnknownPropertyType = "Unknown"

var (
	leadingIntRegex = regexp.MustCompile(`^[+-]?\d+`)
	currencyRegex   = regexp.MustCompile(`R[\s\p{Zs}]*([\d\s\p{Zs}]+)`)
)

// ExtractHTML parses r as HTML and runs the extractor over it
func ExtractHTML(e ListingExtractor, r io.Reader) (PropertyRecord, error) {
	doc, err := createDocument(e.Website(), r)
	if err != nil {
		return PropertyRecord{}, err
	}
	return e.Extract(doc), nil
}

// createDocument creates a goquery document from a reader
func createDocument(website string, r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.NewParsing(website, "failed to parse HTML", err)
	}
	return doc, nil
}

// selectionText returns the trimmed combined text of the nodes matched by selector
func selectionText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).Text())
}

// afterLabel returns the trimmed text following the first occurrence of label
func afterLabel(text, label string) string {
	_, rest, found := strings.Cut(text, label)
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// leadingInt parses the integer at the start of s
func leadingInt(s string) (int, bool) {
	match := leadingIntRegex.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// stripSpace removes every Unicode space, including the non-breaking spaces used in prices
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// currencyAmount extracts the first "R 1 234" style amount in text
func currencyAmount(text string) (float64, bool) {
	match := currencyRegex.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, false
	}
	digits := stripSpace(match[1])
	amount, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// normalise converts a rawListing into a PropertyRecord with no absent fields
func normalise(raw rawListing, website string) PropertyRecord {
	record := PropertyRecord{
		Price:        raw.price,
		Title:        raw.title,
		Address:      raw.address,
		Bedrooms:     raw.bedrooms,
		Bathrooms:    raw.bathrooms,
		Parking:      raw.parking,
		FloorSize:    raw.floorSize,
		ErfSize:      raw.erfSize,
		Description:  raw.description,
		Images:       raw.images,
		Features:     raw.features,
		Website:      website,
		LeviesRates:  raw.leviesRates,
		PropertyType: raw.propertyType,
		Warnings:     raw.warnings,
	}

	if record.Images == nil {
		record.Images = []string{}
	}
	if record.Features == nil {
		record.Features = []string{}
	}
	if record.PropertyType == "" {
		record.PropertyType = UnknownPropertyType
	}
	if record.LeviesRates < 0 {
		record.LeviesRates = 0
	}

	return record
}
