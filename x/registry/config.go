package registry

import "fmt"

// Config configures challenge registry synchronization.
type Config struct {
	// Number of concurrent challenge reads during a synchronize. 1 is sequential.
	SyncConcurrency int `mapstructure:"sync_concurrency" yaml:"sync_concurrency"`

	// Synchronize once when the service starts.
	SyncOnStart bool `mapstructure:"sync_on_start" yaml:"sync_on_start"`

	// Upper bound on the challenge count accepted from the ledger.
	MaxChallenges uint64 `mapstructure:"max_challenges" yaml:"max_challenges"`
}

func DefaultConfig() Config {
	return Config{
		SyncConcurrency: 1,
		SyncOnStart:     true,
		MaxChallenges:   100_000,
	}
}

func (c Config) Validate() error {
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("registry.sync_concurrency must be at least 1")
	}
	if c.MaxChallenges == 0 {
		return fmt.Errorf("registry.max_challenges must be positive")
	}
	return nil
}
