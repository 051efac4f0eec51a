package pricing

// Config holds the request bounds and aggregation settings of the engine.
type Config struct {
	// Request bounds
	MaxKm        int `mapstructure:"max_km"`
	MinYear      int `mapstructure:"min_year"`
	DefaultMonth int `mapstructure:"default_month"`

	// Model-level aggregation
	AggregateConcurrency int    `mapstructure:"aggregate_concurrency"`
	ExcludedPace         string `mapstructure:"excluded_pace"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		MaxKm:                65000,
		MinYear:              2015,
		DefaultMonth:         1,
		AggregateConcurrency: 4,
		ExcludedPace:         "EXTREMELY SLOW",
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.MaxKm <= 0 {
		return ErrInvalidConfig{Field: "max_km", Reason: "must be positive"}
	}
	if c.MinYear <= 0 {
		return ErrInvalidConfig{Field: "min_year", Reason: "must be positive"}
	}
	if c.DefaultMonth < 1 || c.DefaultMonth > 12 {
		return ErrInvalidConfig{Field: "default_month", Reason: "must be between 1 and 12"}
	}
	if c.AggregateConcurrency < 1 {
		return ErrInvalidConfig{Field: "aggregate_concurrency", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
