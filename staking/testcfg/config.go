package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for ledger acceptance tests
// NOTE: All values are test-optimized (smaller, faster) compared to production
type Config struct {
	MigrationsDir   string        `env:"STAKING_TEST_MIGRATIONS_DIR" envDefault:"../../../migrator/migrations"`
	TokensPerHolder uint64        `env:"STAKING_TEST_TOKENS_PER_HOLDER" envDefault:"3"`
	SeedTimeout     time.Duration `env:"STAKING_TEST_SEED_TIMEOUT" envDefault:"10s"`
	Concurrency     int           `env:"STAKING_TEST_CONCURRENCY" envDefault:"4"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
