package analysis

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"sjsage522/rentcalc/internal/estimator"
	"sjsage522/rentcalc/internal/listing"
	"sjsage522/rentcalc/logger"
	apperrors "sjsage522/rentcalc/pkg/errors"
	"sjsage522/rentcalc/services/publisher"
)

// EventKey is the stream field under which estimate events are published
const EventKey = "rent_estimated"

// PageFetcher retrieves the HTML of a listing page
type PageFetcher interface {
	Fetch(ctx context.Context, website, rawURL string) (io.Reader, error)
}

// Result is the outcome of analysing one listing
type Result struct {
	URL       string
	Record    listing.PropertyRecord
	Rent      *float64
	Breakdown *estimator.Breakdown
}

// Event is the message published for every analysed listing
type Event struct {
	URL          string    `json:"url"`
	Website      string    `json:"website"`
	Rent         *float64  `json:"rent"`
	PropertyType string    `json:"propertyType"`
	Price        string    `json:"price"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

// Analyzer runs the fetch, extract and estimate pipeline for a listing URL
type Analyzer struct {
	registry  *listing.Registry
	fetcher   PageFetcher
	estimator *estimator.Estimator
	publisher publisher.Publisher
	log       *logger.Logger
	now       func() time.Time
}

// NewAnalyzer creates an analyzer. A nil publisher disables event publishing.
func NewAnalyzer(
	registry *listing.Registry,
	fetcher PageFetcher,
	est *estimator.Estimator,
	pub publisher.Publisher,
) *Analyzer {
	if pub == nil {
		pub = publisher.NoopPublisher{}
	}
	return &Analyzer{
		registry:  registry,
		fetcher:   fetcher,
		estimator: est,
		publisher: pub,
		log:       logger.ForAnalysis(),
		now:       time.Now,
	}
}

// Analyze fetches rawURL, extracts the listing and estimates its monthly rent.
// A listing whose rent cannot be estimated is not an error; Result.Rent is nil.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	log := logger.FromContext(ctx, a.log)

	extractor, err := a.registry.ExtractorFor(rawURL)
	if err != nil {
		return nil, err
	}
	website := extractor.Website()

	start := time.Now()
	body, err := a.fetcher.Fetch(ctx, website, rawURL)
	if err != nil {
		return nil, err
	}

	record, err := listing.ExtractHTML(extractor, body)
	if err != nil {
		return nil, err
	}

	result := &Result{URL: rawURL, Record: record}

	breakdown, err := a.estimator.Calculate(estimator.InputFrom(record))
	if err != nil {
		log.Info().
			Str("url", rawURL).
			Str("reason", err.Error()).
			Msg("Rent could not be estimated")
	} else {
		rent := breakdown.Rent
		result.Rent = &rent
		result.Breakdown = &breakdown
		if logger.IsDebugEnabled() {
			log.Debug().
				Str("mode", string(breakdown.Mode)).
				Float64("base_rent", breakdown.BaseRent).
				Float64("area_adjustment", breakdown.AreaAdjustment).
				Float64("size_adjustment", breakdown.SizeAdjustment).
				Float64("room_adjustment", breakdown.RoomAdjustment).
				Float64("feature_adjustment", breakdown.FeatureAdjustment).
				Float64("type_adjustment", breakdown.TypeAdjustment).
				Float64("levies_rates", breakdown.LeviesRates).
				Bool("floor_applied", breakdown.FloorApplied).
				Msg("Rent breakdown")
		}
	}

	log.Info().
		Str("url", rawURL).
		Str("website", website).
		Str("property_type", record.PropertyType).
		Int("warnings", len(record.Warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("Listing analysed")

	a.publish(log, result)

	return result, nil
}

// publish sends the estimate event; failures are logged and never returned
func (a *Analyzer) publish(log *logger.Logger, result *Result) {
	event := Event{
		URL:          result.URL,
		Website:      result.Record.Website,
		Rent:         result.Rent,
		PropertyType: result.Record.PropertyType,
		Price:        result.Record.Price,
		AnalyzedAt:   a.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode estimate event")
		return
	}

	if err := a.publisher.Publish(EventKey, data); err != nil {
		log.Error().
			Err(apperrors.NewPublisher("failed to publish estimate event", err)).
			Str("url", result.URL).
			Msg("Publish failed")
	}
}

// StartTrimming trims the publisher streams every interval until ctx is done
func (a *Analyzer) StartTrimming(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.publisher.TrimStreams(); err != nil {
				logger.LogError("publisher", err, "Stream trimming failed")
			}
		}
	}
}
