package listing

import (
	"net/url"
	"strings"

	apperrors "sjsage522/rentcalc/pkg/errors"
)

// Registry selects the extractor responsible for a listing URL
type Registry struct {
	extractors []ListingExtractor
}

// NewRegistry creates a registry over the given extractors, checked in order
func NewRegistry(extractors ...ListingExtractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry returns a registry holding every supported website
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPrivatePropertyExtractor(PrivatePropertyConfig()),
	)
}

// ExtractorFor returns the extractor for rawURL, or an unsupported website error
func (r *Registry) ExtractorFor(rawURL string) (ListingExtractor, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, apperrors.NewUnsupportedWebsite(rawURL)
	}
	for _, e := range r.extractors {
		if e.Supports(u) {
			return e, nil
		}
	}
	return nil, apperrors.NewUnsupportedWebsite(rawURL)
}

// Websites returns the provenance tags of the registered extractors
func (r *Registry) Websites() []string {
	names := make([]string, 0, len(r.extractors))
	for _, e := range r.extractors {
		names = append(names, e.Website())
	}
	return names
}
