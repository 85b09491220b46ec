package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/screwyprof/glanger/cmd/deploy/config"
	"github.com/screwyprof/glanger/deploy"
	"github.com/screwyprof/glanger/pkg/evm"
	"github.com/screwyprof/glanger/pkg/logger"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	if err := config.LoadDotenv(os.Getenv); err != nil {
		slog.Error("Failed to load dotenv file", slog.Any("error", err))
		os.Exit(1)
	}

	cfg, err := config.Parse()
	if err != nil {
		slog.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// stdout carries the deployment report
	log := logger.New(os.Stderr, logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	if err := run(cfg); err != nil {
		log.Error("Deployment failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.Timeout)
	defer cancel()

	slog.InfoContext(ctx, "Starting staking contract deployment",
		slog.String("rpc", cfg.RPCURL),
		slog.String("artifact", cfg.ArtifactPath),
		slog.String("version", version),
		slog.String("date", date),
	)

	key, err := evm.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return err
	}

	artifact, err := evm.LoadArtifact(cfg.ArtifactPath)
	if err != nil {
		return err
	}

	client, chainID, err := evm.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	deployer := evm.NewDeployer(client, key, chainID)
	contracts := deploy.Contracts{NFT: cfg.NFTAddress, Coin: cfg.CoinAddress}

	addr, err := deploy.Run(ctx, deployer, artifact, contracts, os.Stdout)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Staking contract deployed",
		slog.String("address", addr.Hex()),
		slog.Uint64("chainId", chainID.Uint64()),
	)
	return nil
}
