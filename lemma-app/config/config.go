package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	apisrv "github.com/lemma-network/lemma/server/api"
	"github.com/lemma-network/lemma/x/ledger"
	"github.com/lemma-network/lemma/x/prover"
	"github.com/lemma-network/lemma/x/registry"
)

// Config holds the complete application configuration
type Config struct {
	API         apisrv.Config     `mapstructure:"api"         yaml:"api"`
	Ledger      ledger.Config     `mapstructure:"ledger"      yaml:"ledger"`
	Prover      prover.Config     `mapstructure:"prover"      yaml:"prover"`
	Registry    registry.Config   `mapstructure:"registry"    yaml:"registry"`
	Submissions SubmissionsConfig `mapstructure:"submissions" yaml:"submissions"`
	Metrics     MetricsConfig     `mapstructure:"metrics"     yaml:"metrics"`
	Log         LogConfig         `mapstructure:"log"         yaml:"log"`
}

// SubmissionsConfig holds the background submission tracker configuration
type SubmissionsConfig struct {
	// Finished submissions are dropped from the tracker after this long. Zero keeps them.
	Retention     time.Duration `mapstructure:"retention"      yaml:"retention"`
	StatsInterval time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// Load loads configuration from file and environment. An empty path loads
// defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvFallbacks(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvFallbacks fills secrets and endpoints from their conventional
// environment names when the config leaves them empty.
func applyEnvFallbacks(cfg *Config) {
	fallback := func(dst *string, env string) {
		if strings.TrimSpace(*dst) != "" {
			return
		}
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	fallback(&cfg.Ledger.RPCEndpoint, "LEDGER_RPC_ENDPOINT")
	fallback(&cfg.Ledger.ContractAddress, "LEDGER_CONTRACT_ADDRESS")
	fallback(&cfg.Ledger.SignerPkHex, "LEDGER_SIGNER_PK_HEX")
	fallback(&cfg.Prover.BaseURL, "PROVER_BASE_URL")
	fallback(&cfg.Prover.APIKey, "PROVER_API_KEY")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	api := apisrv.DefaultConfig()
	v.SetDefault("api.enabled", api.Enabled)
	v.SetDefault("api.listen_addr", api.ListenAddr)
	v.SetDefault("api.read_header_timeout", api.ReadHeaderTimeout)
	v.SetDefault("api.read_timeout", api.ReadTimeout)
	v.SetDefault("api.write_timeout", api.WriteTimeout)
	v.SetDefault("api.idle_timeout", api.IdleTimeout)
	v.SetDefault("api.max_header_bytes", api.MaxHeaderBytes)
	v.SetDefault("api.shutdown_timeout", api.ShutdownTimeout)
	v.SetDefault("api.cors_origins", []string{})

	l := ledger.DefaultConfig()
	v.SetDefault("ledger.rpc_endpoint", l.RPCEndpoint)
	v.SetDefault("ledger.contract_address", "")
	v.SetDefault("ledger.chain_id", 0)
	v.SetDefault("ledger.use_eip1559", l.UseEIP1559)
	v.SetDefault("ledger.max_fee_per_gas_wei", "0")
	v.SetDefault("ledger.max_priority_fee_wei", "0")
	v.SetDefault("ledger.gas_limit_buffer_pct", l.GasLimitBufferPct)
	v.SetDefault("ledger.receipt_poll_interval", l.ReceiptPollInterval)
	v.SetDefault("ledger.signer_pk_hex", "")

	p := prover.DefaultConfig()
	v.SetDefault("prover.base_url", p.BaseURL)
	v.SetDefault("prover.api_key", "")
	v.SetDefault("prover.request_timeout", "0s")

	r := registry.DefaultConfig()
	v.SetDefault("registry.sync_concurrency", r.SyncConcurrency)
	v.SetDefault("registry.sync_on_start", r.SyncOnStart)
	v.SetDefault("registry.max_challenges", r.MaxChallenges)

	v.SetDefault("submissions.retention", "1h")
	v.SetDefault("submissions.stats_interval", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Prover.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if err := c.validateSubmissions(); err != nil {
		return err
	}
	return c.validateMetrics()
}

func (c *Config) validateSubmissions() error {
	if c.Submissions.Retention < 0 {
		return fmt.Errorf("submissions.retention must not be negative")
	}
	if c.Submissions.StatsInterval < 0 {
		return fmt.Errorf("submissions.stats_interval must not be negative")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

// Redacted returns a copy safe to print, with secrets masked.
func (c Config) Redacted() Config {
	if c.Ledger.SignerPkHex != "" {
		c.Ledger.SignerPkHex = "<redacted>"
	}
	if c.Prover.APIKey != "" {
		c.Prover.APIKey = "<redacted>"
	}
	return c
}
