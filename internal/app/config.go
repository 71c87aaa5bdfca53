package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RootDir      string // host project root
	SettingsPath string // optional HCL settings file
	ProjectKey   string // identifies the project to the analysis server

	LogFormat string
	LogLevel  string
}

// NewConfig validates and returns the configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootDir == "" {
		return nil, errors.New("RootDir is a required configuration field and cannot be empty")
	}
	if cfg.ProjectKey == "" {
		cfg.ProjectKey = "default"
	}
	return &cfg, nil
}
