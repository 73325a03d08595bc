package estimator

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

// Mode selects which rate table applies to a listing
type Mode string

const (
	Residential Mode = "residential"
	Commercial  Mode = "commercial"
)

// SizeRule scales a size in square metres into a fraction of the base rent
type SizeRule struct {
	Divisor float64 `yaml:"divisor"`
	Rate    float64 `yaml:"rate"`
}

// ModeConfig holds every constant used for one mode
type ModeConfig struct {
	BaseRate      float64            `yaml:"base_rate"`
	MinAnnualRate float64            `yaml:"min_annual_rate"`
	FloorSize     SizeRule           `yaml:"floor_size"`
	ErfSize       SizeRule           `yaml:"erf_size"`
	BedroomRate   float64            `yaml:"bedroom_rate"`
	BathroomRate  float64            `yaml:"bathroom_rate"`
	FeatureRate   float64            `yaml:"feature_rate"`
	TypeFactors   map[string]float64 `yaml:"type_factors"`
}

// Tables is the full set of estimator constants. Values returned by DefaultTables
// and LoadTables are never modified by the estimator.
type Tables struct {
	Residential ModeConfig         `yaml:"residential"`
	Commercial  ModeConfig         `yaml:"commercial"`
	AreaFactors map[string]float64 `yaml:"area_factors"`
}

// DefaultTables returns a fresh copy of the built-in rate tables
func DefaultTables() Tables {
	return Tables{
		Commercial: ModeConfig{
			BaseRate:      0.0050,
			MinAnnualRate: 0.08,
			FloorSize:     SizeRule{Divisor: 100, Rate: 0.01},
			ErfSize:       SizeRule{Divisor: 10000, Rate: 0.005},
			FeatureRate:   0.0005,
			TypeFactors: map[string]float64{
				"Commercial": 1.0,
				"Office":     1.1,
				"Retail":     1.2,
				"Industrial": 0.9,
			},
		},
		Residential: ModeConfig{
			BaseRate:      0.0040,
			MinAnnualRate: 0.06,
			FloorSize:     SizeRule{Divisor: 1000, Rate: 0.05},
			ErfSize:       SizeRule{Divisor: 1000, Rate: 0.02},
			BedroomRate:   0.03,
			BathroomRate:  0.02,
			FeatureRate:   0.001,
			TypeFactors: map[string]float64{
				"Apartment":    1.0,
				"Townhouse":    0.9,
				"Flat":         0.9,
				"Vacant Land":  0.8,
				"Plot":         0.8,
				"Cluster":      1.0,
				"House":        1.0,
				"Farm":         1.1,
				"Smallholding": 1.0,
			},
		},
		AreaFactors: map[string]float64{
			"Pretoria":  1.05,
			"Cape Town": 1.10,
		},
	}
}

// For returns the configuration of the given mode
func (t Tables) For(mode Mode) ModeConfig {
	if mode == Commercial {
		return t.Commercial
	}
	return t.Residential
}

// AreaFactor returns the multiplier for an area, 1.0 when the area is not listed
func (t Tables) AreaFactor(area string) float64 {
	if f, ok := t.AreaFactors[area]; ok {
		return f
	}
	return 1.0
}

// TypeFactor returns the multiplier for a property type, 1.0 when the type is not listed
func (c ModeConfig) TypeFactor(propertyType string) float64 {
	if f, ok := c.TypeFactors[propertyType]; ok && f != 0 {
		return f
	}
	return 1.0
}

func (c ModeConfig) validate(mode Mode) error {
	if c.BaseRate <= 0 {
		return fmt.Errorf("%s base_rate must be positive", mode)
	}
	if c.MinAnnualRate < 0 {
		return fmt.Errorf("%s min_annual_rate must not be negative", mode)
	}
	if c.FloorSize.Divisor <= 0 || c.ErfSize.Divisor <= 0 {
		return fmt.Errorf("%s size divisors must be positive", mode)
	}
	return nil
}

// Validate checks that the tables can be used for estimation
func (t Tables) Validate() error {
	if err := t.Residential.validate(Residential); err != nil {
		return err
	}
	return t.Commercial.validate(Commercial)
}

// LoadTables reads a YAML document and overlays it on the default tables.
// Keys missing from the document keep their default values.
func LoadTables(r io.Reader) (Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Tables{}, fmt.Errorf("read rate tables: %w", err)
	}

	tables := DefaultTables()
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("decode rate tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return Tables{}, fmt.Errorf("invalid rate tables: %w", err)
	}
	return tables, nil
}

// LoadTablesFile opens path and passes it to LoadTables
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("open rate tables: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}
