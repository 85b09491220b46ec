package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/glanger/staking"
)

// Config holds the ledger, collection and reward token settings
type Config struct {
	// Ledger
	OwnerAddress     string        `env:"STAKING_OWNER_ADDRESS" envDefault:"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"`
	VaultAddress     string        `env:"STAKING_VAULT_ADDRESS" envDefault:"0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"`
	MinStakeDuration time.Duration `env:"STAKING_MIN_STAKE_DURATION" envDefault:"24h"`
	MaxBatchSize     int           `env:"STAKING_MAX_BATCH_SIZE" envDefault:"100"`
	RewardsPerHour   string        `env:"STAKING_REWARDS_PER_HOUR" envDefault:"100000"`

	// NFT collection
	NFTMaxTotalSupply   uint64    `env:"STAKING_NFT_MAX_TOTAL_SUPPLY" envDefault:"10000"`
	NFTBaseTokenURI     string    `env:"STAKING_NFT_BASE_TOKEN_URI" envDefault:"ipfs://glanger/"`
	NFTOpenBoxBeforeURI string    `env:"STAKING_NFT_OPEN_BOX_BEFORE_URI" envDefault:"ipfs://glanger/box.json"`
	NFTOpenBoxTime      time.Time `env:"STAKING_NFT_OPEN_BOX_TIME" envDefault:"2024-01-01T00:00:00Z"`

	// Reward token
	CoinName          string `env:"STAKING_COIN_NAME" envDefault:"Rewards Token"`
	CoinSymbol        string `env:"STAKING_COIN_SYMBOL" envDefault:"RT"`
	CoinInitialSupply string `env:"STAKING_COIN_INITIAL_SUPPLY" envDefault:"1000000000000000000000000000"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// NewService builds the staking service described by the configuration
func (c Config) NewService(store staking.Store, opts ...staking.Option) (*staking.Service, error) {
	owner, err := staking.ParseAddress(c.OwnerAddress)
	if err != nil {
		return nil, fmt.Errorf("STAKING_OWNER_ADDRESS: %w", err)
	}
	vault, err := staking.ParseAddress(c.VaultAddress)
	if err != nil {
		return nil, fmt.Errorf("STAKING_VAULT_ADDRESS: %w", err)
	}
	if vault == (common.Address{}) {
		return nil, fmt.Errorf("STAKING_VAULT_ADDRESS: %w", staking.ErrZeroAddress)
	}
	if vault == owner {
		return nil, fmt.Errorf("STAKING_VAULT_ADDRESS: %w", staking.ErrVaultIsOwner)
	}
	rate, err := staking.ParseAmount(c.RewardsPerHour)
	if err != nil {
		return nil, fmt.Errorf("STAKING_REWARDS_PER_HOUR: %w", err)
	}
	supply, err := staking.ParseAmount(c.CoinInitialSupply)
	if err != nil {
		return nil, fmt.Errorf("STAKING_COIN_INITIAL_SUPPLY: %w", err)
	}

	base := []staking.Option{
		staking.WithMinStakeDuration(c.MinStakeDuration),
		staking.WithMaxBatchSize(c.MaxBatchSize),
		staking.WithDefaultRewardsPerHour(rate),
		staking.WithCollection(staking.Collection{
			MaxTotalSupply:   c.NFTMaxTotalSupply,
			BaseTokenURI:     c.NFTBaseTokenURI,
			OpenBoxBeforeURI: c.NFTOpenBoxBeforeURI,
			OpenBoxTime:      c.NFTOpenBoxTime,
		}),
		staking.WithRewardToken(staking.RewardToken{
			Name:          c.CoinName,
			Symbol:        c.CoinSymbol,
			Decimals:      staking.DefaultTokenDecimals,
			InitialSupply: supply,
		}),
	}

	return staking.NewService(store, owner, vault, append(base, opts...)...), nil
}
