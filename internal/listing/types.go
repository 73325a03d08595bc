package listing

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// PropertyRecord is the normalized result of extracting one listing page
type PropertyRecord struct {
	Price        string           `json:"price"`
	Title        string           `json:"title"`
	Address      string           `json:"address"`
	Bedrooms     string           `json:"bedrooms"`
	Bathrooms    string           `json:"bathrooms"`
	Parking      string           `json:"parking"`
	FloorSize    string           `json:"floorSize"`
	ErfSize      string           `json:"erfSize"`
	Description  string           `json:"description"`
	Images       []string         `json:"images"`
	Features     []string         `json:"features"`
	Website      string           `json:"website"`
	LeviesRates  float64          `json:"leviesRates"`
	PropertyType string           `json:"propertyType"`
	Warnings     []FeatureWarning `json:"warnings,omitempty"`
}

// FeatureWarning records a feature entry that was skipped or only partly understood
type FeatureWarning struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ListingExtractor turns a parsed listing page of one website into a PropertyRecord
type ListingExtractor interface {
	// Website returns the provenance tag stored in PropertyRecord.Website
	Website() string

	// Supports reports whether the URL belongs to this extractor's website
	Supports(u *url.URL) bool

	// Extract reads every field it can find; missing markup never fails
	Extract(doc *goquery.Document) PropertyRecord
}

// Selectors contains CSS selectors for the elements of a listing page
type Selectors struct {
	Price       string
	Title       string
	Address     string
	Description string
	MainFeature string
	FeatureIcon string
	FeatureItem string
	Image       string
}

// SiteConfig describes the markup conventions of one website
type SiteConfig struct {
	Website   string
	Domain    string
	Selectors Selectors
}

// rawListing holds the text fragments harvested before normalization
type rawListing struct {
	price        string
	title        string
	address      string
	description  string
	bedrooms     string
	bathrooms    string
	parking      string
	floorSize    string
	erfSize      string
	propertyType string
	leviesRates  float64
	images       []string
	features     []string
	warnings     []FeatureWarning
}
