package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	NetworkPath string // hcl file or directory

	LogFormat  string
	LogLevel   string
	Devices    int
	Workers    int
	TraceLevel string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.NetworkPath == "" {
		return nil, errors.New("NetworkPath is a required configuration field and cannot be empty")
	}
	if cfg.Devices <= 0 {
		cfg.Devices = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.TraceLevel == "" {
		cfg.TraceLevel = "none"
	}
	return &cfg, nil
}
