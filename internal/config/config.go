// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and REBOUND_* environment variables on top.
// - Invalid values are reported as errors wrapping ErrInvalidConfig.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the size of an uploaded roster table.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxRosterRows caps the number of data rows accepted per upload.
	MaxRosterRows int `koanf:"max_roster_rows"`

	// SampleSize is the number of students in the generated sample roster.
	SampleSize int `koanf:"sample_size"`

	// SampleSeed seeds the sample generator; 0 picks a time-based seed.
	SampleSeed int64 `koanf:"sample_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		MaxUploadBytes: 1 << 20,
		MaxRosterRows:  5_000,
		SampleSize:     20,
		SampleSeed:     0,
	}
}
