package estimator

import (
	"errors"
	"math"
	"strings"

	"sjsage522/rentcalc/internal/listing"
)

var (
	ErrNoPrice = errors.New("price has no \"R \" amount")
	ErrNoSize  = errors.New("neither floor size nor erf size could be parsed")
)

// Input is the subset of a listing the estimator reads
type Input struct {
	Price        string
	Title        string
	FloorSize    string
	ErfSize      string
	LeviesRates  float64
	Bedrooms     string
	Bathrooms    string
	Features     []string
	PropertyType string
}

// InputFrom copies the estimator fields out of a listing
func InputFrom(p listing.PropertyRecord) Input {
	return Input{
		Price:        p.Price,
		Title:        p.Title,
		FloorSize:    p.FloorSize,
		ErfSize:      p.ErfSize,
		LeviesRates:  p.LeviesRates,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Features:     p.Features,
		PropertyType: p.PropertyType,
	}
}

// Breakdown lists every term of an estimate. AreaAdjustment is the delta
// baseRent*(factor-1) added on top of the base rent, zero for unlisted areas.
type Breakdown struct {
	Mode               Mode    `json:"mode"`
	Price              float64 `json:"price"`
	Area               string  `json:"area,omitempty"`
	BaseRent           float64 `json:"baseRent"`
	AreaAdjustment     float64 `json:"areaAdjustment"`
	SizeAdjustment     float64 `json:"sizeAdjustment"`
	RoomAdjustment     float64 `json:"roomAdjustment"`
	FeatureAdjustment  float64 `json:"featureAdjustment"`
	TypeAdjustment     float64 `json:"typeAdjustment"`
	LeviesRates        float64 `json:"leviesRates"`
	MinimumMonthlyRent float64 `json:"minimumMonthlyRent"`
	FloorApplied       bool    `json:"floorApplied"`
	Rent               float64 `json:"rent"`
}

// Estimator computes monthly rent from a fixed set of tables. It holds no mutable
// state and is safe for concurrent use.
type Estimator struct {
	tables Tables
}

// New creates an estimator over tables
func New(tables Tables) *Estimator {
	return &Estimator{tables: tables}
}

var defaultEstimator = New(DefaultTables())

// Estimate runs the default estimator. ok is false when no rent can be computed.
func Estimate(p listing.PropertyRecord) (float64, bool) {
	return defaultEstimator.Estimate(p)
}

// Calculate runs the default estimator and returns every term of the result
func Calculate(in Input) (Breakdown, error) {
	return defaultEstimator.Calculate(in)
}

// Estimate returns the monthly rent for p. ok is false when the price or both sizes are missing.
func (e *Estimator) Estimate(p listing.PropertyRecord) (float64, bool) {
	b, err := e.Calculate(InputFrom(p))
	if err != nil {
		return 0, false
	}
	return b.Rent, true
}

// ModeOf reports whether a property type is treated as commercial
func ModeOf(propertyType string) Mode {
	if strings.Contains(strings.ToLower(propertyType), "commercial") {
		return Commercial
	}
	return Residential
}

// Calculate computes the estimate for in
func (e *Estimator) Calculate(in Input) (Breakdown, error) {
	price, ok := ParsePrice(in.Price)
	if !ok {
		return Breakdown{}, ErrNoPrice
	}

	mode := ModeOf(in.PropertyType)
	cfg := e.tables.For(mode)
	baseRent := price * cfg.BaseRate

	floorSize, hasFloor := ParseSize(in.FloorSize)
	erfSize, hasErf := ParseSize(in.ErfSize)
	if !hasFloor && !hasErf {
		return Breakdown{}, ErrNoSize
	}

	b := Breakdown{
		Mode:        mode,
		Price:       price,
		BaseRent:    baseRent,
		LeviesRates: in.LeviesRates,
	}

	// An unlisted area contributes nothing
	areaFactor := 1.0
	if area, found := ParseArea(in.Title); found {
		b.Area = area
		areaFactor = e.tables.AreaFactor(area)
	}
	b.AreaAdjustment = baseRent * (areaFactor - 1)

	if hasFloor {
		b.SizeAdjustment += (floorSize / cfg.FloorSize.Divisor) * cfg.FloorSize.Rate * baseRent
	}
	if hasErf {
		b.SizeAdjustment += (erfSize / cfg.ErfSize.Divisor) * cfg.ErfSize.Rate * baseRent
	}

	b.RoomAdjustment = (firstInt(in.Bedrooms)*cfg.BedroomRate + firstInt(in.Bathrooms)*cfg.BathroomRate) * baseRent
	b.FeatureAdjustment = FeatureSum(in.Features) * cfg.FeatureRate
	b.TypeAdjustment = baseRent * (cfg.TypeFactor(in.PropertyType) - 1)

	total := baseRent + b.AreaAdjustment + b.SizeAdjustment + b.RoomAdjustment +
		b.FeatureAdjustment + b.TypeAdjustment
	total += in.LeviesRates

	minAnnual := price * cfg.MinAnnualRate
	b.MinimumMonthlyRent = round2(minAnnual / 12)
	if total*12 < minAnnual {
		total = minAnnual / 12
		b.FloorApplied = true
	}

	b.Rent = round2(total)
	return b, nil
}

// round2 rounds half up to two decimal places
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
