package model

import "time"

// Config holds all run settings. Field names map onto the YAML config
// file and the CANONICA_* environment variables.
type Config struct {
	Normalize   NormalizeConfig   `yaml:"normalize" mapstructure:"normalize"`
	Dates       DatesConfig       `yaml:"dates" mapstructure:"dates"`
	Recovery    RecoveryConfig    `yaml:"recovery" mapstructure:"recovery"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Sink        SinkConfig        `yaml:"sink" mapstructure:"sink"`
	Sentry      SentryConfig      `yaml:"sentry" mapstructure:"sentry"`
	MastersFile string            `yaml:"masters_file" mapstructure:"masters_file"` // empty uses the built-in tables
}

// NormalizeConfig controls categorical resolution.
type NormalizeConfig struct {
	InsurerCutoff      float64       `yaml:"insurer_cutoff" mapstructure:"insurer_cutoff"`
	MunicipalityCutoff float64       `yaml:"municipality_cutoff" mapstructure:"municipality_cutoff"`
	MinLength          int           `yaml:"min_length" mapstructure:"min_length"`
	CacheTTL           time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// Cutoff returns the fuzzy acceptance threshold for a field kind.
func (c NormalizeConfig) Cutoff(kind FieldKind) float64 {
	if kind == KindInsurer {
		return c.InsurerCutoff
	}
	return c.MunicipalityCutoff
}

// DatesConfig controls date reconstruction.
type DatesConfig struct {
	MinPlausibleYear int `yaml:"min_plausible_year" mapstructure:"min_plausible_year"` // earlier years are the "no date" sentinel
	TwoDigitPivot    int `yaml:"two_digit_pivot" mapstructure:"two_digit_pivot"`
}

// RecoveryConfig controls the recovery cascade and the location index.
type RecoveryConfig struct {
	FuzzyNameThreshold float64 `yaml:"fuzzy_name_threshold" mapstructure:"fuzzy_name_threshold"`
	IndexConfidence    float64 `yaml:"index_confidence" mapstructure:"index_confidence"`
	MinTokenLength     int     `yaml:"min_token_length" mapstructure:"min_token_length"`
	Gazetteer          bool    `yaml:"gazetteer" mapstructure:"gazetteer"`
}

// ConcurrencyConfig sizes the worker pools.
type ConcurrencyConfig struct {
	Workers   int `yaml:"workers" mapstructure:"workers"`
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	Markdown      string `yaml:"markdown" mapstructure:"markdown"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
}

// SinkConfig selects where partitions are persisted.
type SinkConfig struct {
	Kind          string  `yaml:"kind" mapstructure:"kind"` // json, sqlite, postgres
	DSN           string  `yaml:"dsn" mapstructure:"dsn"`
	Table         string  `yaml:"table" mapstructure:"table"`
	BatchSize     int     `yaml:"batch_size" mapstructure:"batch_size"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"` // batches per second, 0 for unlimited
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Release     string `yaml:"release" mapstructure:"release"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Normalize: NormalizeConfig{
			InsurerCutoff:      0.80,
			MunicipalityCutoff: 0.85,
			MinLength:          3,
			CacheTTL:           time.Hour,
		},
		Dates: DatesConfig{
			MinPlausibleYear: 1950,
			TwoDigitPivot:    50,
		},
		Recovery: RecoveryConfig{
			FuzzyNameThreshold: 0.85,
			IndexConfidence:    0.70,
			MinTokenLength:     3,
			Gazetteer:          true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:   4,
			ChunkSize: 500,
		},
		Output: OutputConfig{
			Dir:           "out",
			IncludeFooter: true,
		},
		Sink: SinkConfig{
			Kind:      "json",
			Table:     "canonica_records",
			BatchSize: 500,
		},
		Sentry: SentryConfig{
			Environment: "production",
		},
	}
}
