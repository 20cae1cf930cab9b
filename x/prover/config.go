package prover

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config configures the remote proving service client.
type Config struct {
	// Base URL of the proving relay; requests go to {base_url}/prove.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Optional API key, sent as x-api-key.
	APIKey string `mapstructure:"api_key" yaml:"api_key" env:"PROVER_API_KEY"`

	// Zero disables the client-side timeout; proving can take minutes.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3000",
	}
}

func (c Config) Validate() error {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return fmt.Errorf("prover.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("prover.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("prover.base_url must be http or https, got %q", u.Scheme)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("prover.request_timeout must not be negative")
	}
	return nil
}
