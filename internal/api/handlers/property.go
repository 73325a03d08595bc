package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"sjsage522/rentcalc/helpers"
	"sjsage522/rentcalc/internal/listing"
	"sjsage522/rentcalc/logger"
	apperrors "sjsage522/rentcalc/pkg/errors"
	"sjsage522/rentcalc/services/analysis"
)

const (
	msgSuccess        = "Property analyzed successfully"
	msgInvalidURL     = "Invalid URL. Only privateproperty.co.za is supported."
	msgRentalListing  = "Rental properties cannot be analysed. Please provide a URL for a property for sale."
	msgUnsupported    = "Unsupported website"
	msgInvalidBody    = "Invalid request body"
	msgAnalysisFailed = "Error analyzing property: "

	rentalPathSegment = "to-rent"
)

// Analyzer runs the listing pipeline for a URL
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*analysis.Result, error)
}

// CalculateRequest is the body of POST /property/calculate
type CalculateRequest struct {
	URL string `json:"url"`
}

// CalculateResponse is the success body of POST /property/calculate
type CalculateResponse struct {
	Message string                 `json:"message"`
	Data    listing.PropertyRecord `json:"data"`
	Rent    *float64               `json:"rent"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// PropertyHandler serves the property analysis endpoints
type PropertyHandler struct {
	analyzer Analyzer
	registry *listing.Registry
	log      *logger.Logger
}

// NewPropertyHandler creates a handler. URLs are accepted only when registry has an
// extractor for them.
func NewPropertyHandler(analyzer Analyzer, registry *listing.Registry) *PropertyHandler {
	return &PropertyHandler{
		analyzer: analyzer,
		registry: registry,
		log:      logger.ForAPI(),
	}
}

// Calculate handles POST /property/calculate
func (h *PropertyHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(apperrors.NewInvalidRequest("malformed body", err)).Msg("Rejected request")
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.validateURL(req.URL); err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("Rejected request")
		if apperrors.IsType(err, apperrors.ErrorTypeInvalidRequest) {
			writeError(w, http.StatusBadRequest, msgRentalListing)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidURL)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeUnsupportedWebsite) {
			writeError(w, http.StatusBadRequest, msgUnsupported)
			return
		}
		log.Error().Err(err).Str("url", req.URL).Msg("Error analyzing property")
		writeError(w, http.StatusInternalServerError, msgAnalysisFailed+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		Message: msgSuccess,
		Data:    result.Record,
		Rent:    result.Rent,
	})
}

// Health handles GET /health
func (h *PropertyHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateURL returns an unsupported website error for URLs no extractor accepts and an
// invalid request error for rental listings
func (h *PropertyHandler) validateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return apperrors.NewUnsupportedWebsite(rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewUnsupportedWebsite(rawURL)
	}
	if _, err := h.registry.ExtractorFor(rawURL); err != nil {
		return err
	}

	if segment, err := helpers.GetSplitPart(u.Path, "/", 1); err == nil && segment == rentalPathSegment {
		return apperrors.NewInvalidRequest("rental listings cannot be analysed", nil)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
