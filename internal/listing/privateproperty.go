package listing

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/rentcalc/logger"
	apperrors "sjsage522/rentcalc/pkg/errors"
)

// AdministrativeMarker identifies feature entries that carry no property attribute
const AdministrativeMarker = "Listing number"

var parkingLabelRegex = regexp.MustCompile(`Garages|Open Parkings|Parking`)

// PrivatePropertyConfig returns the markup conventions of privateproperty.co.za
func PrivatePropertyConfig() SiteConfig {
	return SiteConfig{
		Website: "privateproperty",
		Domain:  "privateproperty.co.za",
		Selectors: Selectors{
			Price:       ".listing-price-display__price",
			Title:       ".listing-details__title",
			Address:     ".listing-details__address",
			Description: ".listing-description__text",
			MainFeature: ".listing-details__main-feature",
			FeatureIcon: "svg use",
			FeatureItem: ".property-features__list-item",
			Image:       ".media-container__image.media-container__image--desktop-or-larger",
		},
	}
}

// IsAdministrative reports whether a feature entry is a listing bookkeeping entry
func IsAdministrative(feature string) bool {
	return strings.Contains(feature, AdministrativeMarker)
}

// PrivatePropertyExtractor extracts listings from privateproperty.co.za
type PrivatePropertyExtractor struct {
	config SiteConfig
	log    *logger.Logger
}

// NewPrivatePropertyExtractor creates an extractor for the given site configuration
func NewPrivatePropertyExtractor(config SiteConfig) *PrivatePropertyExtractor {
	return &PrivatePropertyExtractor{
		config: config,
		log:    logger.ForExtractor(config.Website),
	}
}

// Website returns the provenance tag
func (e *PrivatePropertyExtractor) Website() string {
	return e.config.Website
}

// Supports reports whether u is on the configured domain or one of its subdomains
func (e *PrivatePropertyExtractor) Supports(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == e.config.Domain || strings.HasSuffix(host, "."+e.config.Domain)
}

// Extract reads a listing page into a PropertyRecord
func (e *PrivatePropertyExtractor) Extract(doc *goquery.Document) PropertyRecord {
	sel := e.config.Selectors
	raw := rawListing{
		price:       selectionText(doc, sel.Price),
		title:       selectionText(doc, sel.Title),
		address:     selectionText(doc, sel.Address),
		description: selectionText(doc, sel.Description),
	}

	e.readMainFeatures(doc, &raw)
	e.readImages(doc, &raw)
	e.readFeatures(doc, &raw)

	record := normalise(raw, e.config.Website)

	for _, w := range record.Warnings {
		e.log.Warn().
			Int("index", w.Index).
			Str("feature", w.Text).
			Str("reason", w.Reason).
			Msg("Skipped feature entry")
	}
	e.log.Debug().
		Str("title", record.Title).
		Str("property_type", record.PropertyType).
		Int("features", len(record.Features)).
		Int("images", len(record.Images)).
		Msg("Extracted listing")

	return record
}

type mainFeature int

const (
	mainFeatureNone mainFeature = iota
	mainFeatureBedrooms
	mainFeatureBathrooms
	mainFeatureParking
	mainFeatureErfSize
	mainFeatureFloorSize
)

// classifyIcon maps an icon reference such as "#icon-bedrooms" to a main feature
func classifyIcon(token string) mainFeature {
	switch {
	case token == "":
		return mainFeatureNone
	case strings.Contains(token, "bedrooms"):
		return mainFeatureBedrooms
	case strings.Contains(token, "bathrooms"):
		return mainFeatureBathrooms
	case strings.Contains(token, "car"), strings.Contains(token, "parking"):
		return mainFeatureParking
	case strings.Contains(token, "erf-size"):
		return mainFeatureErfSize
	case strings.Contains(token, "property-size"):
		return mainFeatureFloorSize
	default:
		return mainFeatureNone
	}
}

// iconToken reads the icon reference of a main feature node. The HTML parser stores
// xlink:href inside <svg> as a namespaced "href" attribute, so both spellings are tried.
func iconToken(s *goquery.Selection, selector string) string {
	use := s.Find(selector).First()
	if use.Length() == 0 {
		return ""
	}
	if href, ok := use.Attr("xlink:href"); ok && href != "" {
		return href
	}
	href, _ := use.Attr("href")
	return href
}

func (e *PrivatePropertyExtractor) readMainFeatures(doc *goquery.Document, raw *rawListing) {
	doc.Find(e.config.Selectors.MainFeature).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())

		var field *string
		switch classifyIcon(iconToken(s, e.config.Selectors.FeatureIcon)) {
		case mainFeatureBedrooms:
			field = &raw.bedrooms
		case mainFeatureBathrooms:
			field = &raw.bathrooms
		case mainFeatureParking:
			field = &raw.parking
		case mainFeatureErfSize:
			field = &raw.erfSize
		case mainFeatureFloorSize:
			field = &raw.floorSize
		default:
			return
		}

		if *field == "" {
			*field = text
		}
	})
}

func (e *PrivatePropertyExtractor) readImages(doc *goquery.Document, raw *rawListing) {
	doc.Find(e.config.Selectors.Image).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		src = strings.TrimSpace(src)
		if ok && src != "" {
			raw.images = append(raw.images, src)
		}
	})
}

// featureState accumulates the numeric aggregates of the feature pass
type featureState struct {
	parkingSeen  bool
	parkingTotal int
	levies       float64
	rates        float64
}

func (e *PrivatePropertyExtractor) readFeatures(doc *goquery.Document, raw *rawListing) {
	var state featureState

	doc.Find(e.config.Selectors.FeatureItem).Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if err := e.processFeature(text, raw, &state); err != nil {
			reason := err.Error()
			var ae *apperrors.AnalysisError
			if stderrors.As(err, &ae) {
				reason = ae.Message
			}
			raw.warnings = append(raw.warnings, FeatureWarning{Index: i, Text: text, Reason: reason})
		}
	})

	if state.parkingSeen {
		raw.parking = strconv.Itoa(state.parkingTotal)
	}
	raw.leviesRates = state.levies + state.rates
}

// processFeature applies one feature entry to raw. A returned error describes a problem
// with this entry only; whatever could be read from it has already been applied.
func (e *PrivatePropertyExtractor) processFeature(text string, raw *rawListing, state *featureState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewFeatureParse(e.config.Website, fmt.Sprintf("unexpected failure: %v", r), nil)
		}
	}()

	if text == "" {
		return apperrors.NewFeatureParse(e.config.Website, "empty feature entry", nil)
	}

	raw.features = append(raw.features, text)

	if IsAdministrative(text) {
		return nil
	}

	labelErr := e.applyLabel(text, raw, state)
	chargeErr := e.applyCharges(text, state)
	if labelErr != nil {
		return labelErr
	}
	return chargeErr
}

// applyLabel fills the first still-empty field whose label appears in text, or adds a
// parking entry to the running total
func (e *PrivatePropertyExtractor) applyLabel(text string, raw *rawListing, state *featureState) error {
	switch {
	case strings.Contains(text, "Property type") && raw.propertyType == "":
		raw.propertyType = afterLabel(text, "Property type")
	case strings.Contains(text, "Erf size") && raw.erfSize == "":
		raw.erfSize = afterLabel(text, "Erf size")
	case strings.Contains(text, "Floor size") && raw.floorSize == "":
		raw.floorSize = afterLabel(text, "Floor size")
	case strings.Contains(text, "Bedrooms") && raw.bedrooms == "":
		raw.bedrooms = afterLabel(text, "Bedrooms")
	case strings.Contains(text, "Bathrooms") && raw.bathrooms == "":
		raw.bathrooms = afterLabel(text, "Bathrooms")
	case parkingLabelRegex.MatchString(text):
		state.parkingSeen = true
		parts := parkingLabelRegex.Split(text, 3)
		n, ok := leadingInt(parts[1])
		if !ok {
			return apperrors.NewFeatureParse(e.config.Website, "parking entry has no count", nil)
		}
		state.parkingTotal += n
	}
	return nil
}

// applyCharges reads levies and rates-and-taxes amounts; the last amount seen for each wins
func (e *PrivatePropertyExtractor) applyCharges(text string, state *featureState) error {
	lower := strings.ToLower(text)
	var missing []string

	if strings.Contains(lower, "levies") {
		if amount, ok := currencyAmount(text); ok {
			state.levies = amount
		} else {
			missing = append(missing, "levies")
		}
	}
	if strings.Contains(lower, "rates and taxes") {
		if amount, ok := currencyAmount(text); ok {
			state.rates = amount
		} else {
			missing = append(missing, "rates and taxes")
		}
	}

	if len(missing) > 0 {
		return apperrors.NewFeatureParse(e.config.Website, strings.Join(missing, ", ")+" entry has no amount", nil)
	}
	return nil
}
