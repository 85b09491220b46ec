package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// DotenvPathVar names the variable that points at the dotenv file
const DotenvPathVar = "DOTENV_CONFIG_PATH"

// DefaultDotenvPath is used when DOTENV_CONFIG_PATH is unset
const DefaultDotenvPath = ".env"

// Config holds all configuration loaded from environment variables.
// Addresses must be 0x prefixed 20 byte hex.
type Config struct {
	NFTAddress   common.Address `env:"GLANGER_NFT_ADDRESS,required"`
	CoinAddress  common.Address `env:"GLANGER_COIN_ADDRESS,required"`
	RPCURL       string         `env:"DEPLOY_RPC_URL" envDefault:"http://127.0.0.1:8545"`
	PrivateKey   string         `env:"DEPLOY_PRIVATE_KEY,required,notEmpty,unset"`
	ArtifactPath string         `env:"DEPLOY_ARTIFACT_PATH" envDefault:"artifacts/contracts/GlangerStaking.sol/GlangerStaking.json"`
	Timeout      time.Duration  `env:"DEPLOY_TIMEOUT" envDefault:"5m"`

	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// LoadDotenv loads the file named by DOTENV_CONFIG_PATH into the environment.
// Variables already set win, and a missing file is not an error.
func LoadDotenv(getenv func(string) string) error {
	path := getenv(DotenvPathVar)
	if path == "" {
		path = DefaultDotenvPath
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse loads the configuration from environment variables
func Parse() (Config, error) {
	return env.ParseAs[Config]()
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(Parse())
}
