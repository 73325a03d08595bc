package listing

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func featureList(items ...string) string {
	var b strings.Builder
	b.WriteString(`<ul>`)
	for _, item := range items {
		b.WriteString(`<li class="property-features__list-item">` + item + `</li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

func mainFeatureHTML(icon, text string) string {
	return `<div class="listing-details__main-feature"><svg><use xlink:href="#` + icon + `"></use></svg>` + text + `</div>`
}

func TestPrivatePropertyExtractor_Fixture(t *testing.T) {
	f, err := os.Open("testdata/privateproperty_listing.html")
	require.NoError(t, err)
	defer f.Close()

	record, err := ExtractHTML(NewPrivatePropertyExtractor(PrivatePropertyConfig()), f)
	require.NoError(t, err)

	assert.Equal(t, "R 1 500 000", record.Price)
	assert.Equal(t, "3 Bed House in Cape Town", record.Title)
	assert.Equal(t, "12 Long Street, Gardens", record.Address)
	assert.Equal(t, "Spacious family home close to schools.", record.Description)
	assert.Equal(t, "3 Bedrooms", record.Bedrooms)
	assert.Equal(t, "2 Bathrooms", record.Bathrooms)
	assert.Equal(t, "120 m²", record.FloorSize)
	assert.Equal(t, "450 m²", record.ErfSize)
	assert.Equal(t, "3", record.Parking)
	assert.Equal(t, "House", record.PropertyType)
	assert.Equal(t, 2000.0, record.LeviesRates)
	assert.Equal(t, "privateproperty", record.Website)
	assert.Equal(t, []string{
		"https://images.example.net/1.jpg",
		"https://images.example.net/2.jpg",
	}, record.Images)
	assert.Equal(t, []string{
		"Listing number T4512345",
		"Property type House",
		"Bedrooms 4",
		"Floor size 150 m²",
		"Erf size 450 m²",
		"Garages 2",
		"Open Parkings 1",
		"Levies R 1 200",
		"Rates and taxes R 800",
	}, record.Features)
	assert.Empty(t, record.Warnings)
}

func TestPrivatePropertyExtractor_EmptyPage(t *testing.T) {
	e := NewPrivatePropertyExtractor(PrivatePropertyConfig())
	record := e.Extract(newTestDocument(t, `<html><body><p>Nothing here</p></body></html>`))

	assert.Equal(t, "", record.Price)
	assert.Equal(t, "", record.Title)
	assert.Equal(t, "", record.Bedrooms)
	assert.Equal(t, "", record.Parking)
	assert.Equal(t, UnknownPropertyType, record.PropertyType)
	assert.Equal(t, 0.0, record.LeviesRates)
	assert.NotNil(t, record.Images)
	assert.NotNil(t, record.Features)
	assert.Empty(t, record.Images)
	assert.Empty(t, record.Features)

	// Absent sequences must serialise as empty arrays, never null
	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"images":[]`)
	assert.Contains(t, string(data), `"features":[]`)
	assert.NotContains(t, string(data), `"warnings"`)
}

func TestPrivatePropertyExtractor_MainFeatures(t *testing.T) {
	html := `<html><body>` +
		mainFeatureHTML("icon-bedrooms", "4 Bedrooms") +
		mainFeatureHTML("icon-bedrooms", "9 Bedrooms") +
		mainFeatureHTML("icon-bathrooms", "2.5 Bathrooms") +
		mainFeatureHTML("icon-car", "2 Garages") +
		mainFeatureHTML("icon-erf-size", "1 000 m²") +
		mainFeatureHTML("icon-property-size", "210 m²") +
		mainFeatureHTML("icon-pool", "Pool") +
		`<div class="listing-details__main-feature">No icon</div>` +
		`</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	// First match per category wins
	assert.Equal(t, "4 Bedrooms", record.Bedrooms)
	assert.Equal(t, "2.5 Bathrooms", record.Bathrooms)
	assert.Equal(t, "2 Garages", record.Parking)
	assert.Equal(t, "1 000 m²", record.ErfSize)
	assert.Equal(t, "210 m²", record.FloorSize)
}

func TestPrivatePropertyExtractor_MainFeaturesTakePrecedence(t *testing.T) {
	html := `<html><body>` +
		mainFeatureHTML("bedrooms", "3 Bedrooms") +
		mainFeatureHTML("property-size", "120 m²") +
		featureList("Bedrooms 5", "Bathrooms 2", "Floor size 300 m²", "Erf size 600 m²") +
		`</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	assert.Equal(t, "3 Bedrooms", record.Bedrooms)
	assert.Equal(t, "120 m²", record.FloorSize)
	assert.Equal(t, "2", record.Bathrooms)
	assert.Equal(t, "600 m²", record.ErfSize)
}

func TestPrivatePropertyExtractor_PropertyTypeFirstWins(t *testing.T) {
	html := `<html><body>` + featureList("Property type Commercial Office Space", "Property type House") + `</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))
	assert.Equal(t, "Commercial Office Space", record.PropertyType)
}

func TestPrivatePropertyExtractor_ParkingIsSummed(t *testing.T) {
	html := `<html><body>` +
		mainFeatureHTML("parking", "1 Parking") +
		featureList("Garages 2", "Open Parkings 3", "Parking 1", "Covered Parking Yes") +
		`</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	assert.Equal(t, "6", record.Parking)
	require.Len(t, record.Warnings, 1)
	assert.Equal(t, 3, record.Warnings[0].Index)
	assert.Equal(t, "Covered Parking Yes", record.Warnings[0].Text)
	assert.Equal(t, "parking entry has no count", record.Warnings[0].Reason)
	// The degraded entry is still part of the features sequence
	assert.Contains(t, record.Features, "Covered Parking Yes")
}

func TestPrivatePropertyExtractor_ParkingEntriesReplaceMainFeature(t *testing.T) {
	html := `<html><body>` +
		mainFeatureHTML("icon-car", "2") +
		featureList("Open Parkings 1") +
		`</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	// The feature total starts at zero; the main feature count is not added to it
	assert.Equal(t, "1", record.Parking)
}

func TestPrivatePropertyExtractor_LeviesAndRates(t *testing.T) {
	testCases := []struct {
		name     string
		features []string
		expected float64
	}{
		{"both present", []string{"Levies R 1 250", "Rates and taxes R 730"}, 1980},
		{"only levies", []string{"Monthly levies: R2 000"}, 2000},
		{"only rates", []string{"RATES AND TAXES R 500"}, 500},
		{"last amount wins", []string{"Levies R 100", "Levies R 300"}, 300},
		{"none", []string{"Pool Yes"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			html := `<html><body>` + featureList(tc.features...) + `</body></html>`
			record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))
			assert.Equal(t, tc.expected, record.LeviesRates)
		})
	}
}

func TestPrivatePropertyExtractor_MalformedFeaturesAreSkipped(t *testing.T) {
	html := `<html><body>` + featureList("   ", "Levies on request", "Bathrooms 2") + `</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	assert.Equal(t, []string{"Levies on request", "Bathrooms 2"}, record.Features)
	assert.Equal(t, "2", record.Bathrooms)
	assert.Equal(t, 0.0, record.LeviesRates)
	require.Len(t, record.Warnings, 2)
	assert.Equal(t, "empty feature entry", record.Warnings[0].Reason)
	assert.Equal(t, 0, record.Warnings[0].Index)
	assert.Equal(t, "levies entry has no amount", record.Warnings[1].Reason)
	assert.Equal(t, 1, record.Warnings[1].Index)
}

func TestPrivatePropertyExtractor_AdministrativeEntries(t *testing.T) {
	html := `<html><body>` + featureList("Listing number 12 Parking", "Listing number Levies R 900") + `</body></html>`

	record := NewPrivatePropertyExtractor(PrivatePropertyConfig()).Extract(newTestDocument(t, html))

	assert.Len(t, record.Features, 2)
	assert.Equal(t, "", record.Parking)
	assert.Equal(t, 0.0, record.LeviesRates)
	assert.True(t, IsAdministrative("Listing number 12345"))
	assert.False(t, IsAdministrative("Garages 2"))
}

func TestPrivatePropertyExtractor_Supports(t *testing.T) {
	e := NewPrivatePropertyExtractor(PrivatePropertyConfig())

	testCases := []struct {
		rawURL   string
		expected bool
	}{
		{"https://www.privateproperty.co.za/for-sale/western-cape/cape-town/T1234", true},
		{"https://privateproperty.co.za/for-sale/x", true},
		{"https://WWW.PRIVATEPROPERTY.CO.ZA/for-sale/x", true},
		{"https://www.property24.com/for-sale/x", false},
		{"https://privateproperty.co.za.evil.example/x", false},
		{"https://notprivateproperty.co.za/x", false},
	}

	for _, tc := range testCases {
		u, err := url.Parse(tc.rawURL)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, e.Supports(u), tc.rawURL)
	}
	assert.False(t, e.Supports(nil))
}

func TestClassifyIcon(t *testing.T) {
	assert.Equal(t, mainFeatureBedrooms, classifyIcon("#icon-bedrooms"))
	assert.Equal(t, mainFeatureBathrooms, classifyIcon("#icon-bathrooms"))
	assert.Equal(t, mainFeatureParking, classifyIcon("#icon-car"))
	assert.Equal(t, mainFeatureParking, classifyIcon("#icon-parking"))
	assert.Equal(t, mainFeatureErfSize, classifyIcon("#icon-erf-size"))
	assert.Equal(t, mainFeatureFloorSize, classifyIcon("#icon-property-size"))
	assert.Equal(t, mainFeatureNone, classifyIcon("#icon-pool"))
	assert.Equal(t, mainFeatureNone, classifyIcon(""))
}
