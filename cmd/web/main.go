package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/screwyprof/glanger/pkg/amqpkit"
	"github.com/screwyprof/glanger/pkg/logger"
	"github.com/screwyprof/glanger/pkg/metrics"
	"github.com/screwyprof/glanger/pkg/pgxdb"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/store/boltstore"
	"github.com/screwyprof/glanger/staking/store/metricstore"
	"github.com/screwyprof/glanger/staking/store/pgxstore"
	"github.com/screwyprof/glanger/web/config"
	"github.com/screwyprof/glanger/web/handler"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

const publishTimeout = 5 * time.Second

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Glanger Staking API starting",
		slog.String("version", version),
		slog.String("date", date),
		slog.String("store", cfg.StoreDriver),
	)

	m := metrics.New()

	store, storeCloser, err := openStore(ctx, cfg, m)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer storeCloser()

	var publisher *amqpkit.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = amqpkit.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.ErrorContext(ctx, "Failed to connect to message broker", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.ErrorContext(ctx, "Failed to close publisher", slog.Any("error", err))
			}
		}()
		log.InfoContext(ctx, "Publishing ledger events", slog.String("exchange", cfg.AMQPExchange))
	}

	events := make(chan staking.Event, cfg.EventBuffer)
	subCloser := setupEventHandling(ctx, events, log, m, publisher)

	svc, err := cfg.Staking.NewService(store, staking.WithEvents(events))
	if err != nil {
		log.ErrorContext(ctx, "Invalid staking configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Postgres deployments run genesis through the migrator
	if cfg.StoreDriver == config.StoreDriverBolt {
		if err := svc.Genesis(ctx); err != nil {
			log.ErrorContext(ctx, "Failed to run ledger genesis", slog.Any("error", err))
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()
	handler.NewStaking(svc).AddRoutes(mux)
	handler.NewNFT(svc).AddRoutes(mux)
	handler.NewCoin(svc).AddRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(m.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.InfoContext(ctx, "Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(ctx, "Server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	// No handler can emit any more, drain what is queued
	close(events)
	subCloser()

	log.InfoContext(ctx, "Server exited gracefully")
}

// openStore opens the configured ledger store and returns its closer
func openStore(ctx context.Context, cfg config.Config, m *metrics.Metrics) (staking.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, closer := pgxstore.New(db)
		return metricstore.New(store, m), closer, nil
	case config.StoreDriverBolt:
		store, closer, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return metricstore.New(store, m), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown WEB_STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// setupEventHandling logs, counts and optionally publishes every ledger event
func setupEventHandling(ctx context.Context, events <-chan staking.Event, log *slog.Logger, m *metrics.Metrics, publisher *amqpkit.Publisher) func() {
	// Events are drained after the signal context is cancelled
	ctx = context.WithoutCancel(ctx)

	return staking.NewSubscriber(events,
		staking.OnAny(func(ev staking.Event) {
			m.RecordEvent(staking.EventName(ev))
		}),
		staking.OnAny(func(ev staking.Event) {
			if publisher == nil {
				return
			}
			msg, ok := staking.NewMessage(ev)
			if !ok {
				return
			}

			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			defer cancel()

			if err := publisher.Publish(pubCtx, staking.RoutingKey(ev), msg); err != nil {
				m.RecordPublishError()
				log.ErrorContext(ctx, "Failed to publish ledger event",
					slog.String("event", msg.Event),
					slog.Any("error", err),
				)
			}
		}),
		staking.OnStaked(func(e staking.Staked) {
			log.InfoContext(ctx, "Tokens staked",
				slog.String("staker", e.Staker.Hex()),
				slog.Any("tokenIds", e.TokenIDs),
			)
		}),
		staking.OnWithdrawn(func(e staking.Withdrawn) {
			log.InfoContext(ctx, "Tokens withdrawn",
				slog.String("staker", e.Staker.Hex()),
				slog.Any("tokenIds", e.TokenIDs),
			)
		}),
		staking.OnRewardsClaimed(func(e staking.RewardsClaimed) {
			log.InfoContext(ctx, "Rewards claimed",
				slog.String("staker", e.Staker.Hex()),
				slog.String("amount", e.Amount.Dec()),
			)
		}),
		staking.OnRewardRateChanged(func(e staking.RewardRateChanged) {
			log.InfoContext(ctx, "Reward rate changed",
				slog.String("previous", e.Previous.Dec()),
				slog.String("current", e.Current.Dec()),
			)
		}),
		staking.OnTokensMinted(func(e staking.TokensMinted) {
			log.InfoContext(ctx, "Tokens minted",
				slog.String("to", e.To.Hex()),
				slog.Int("quantity", len(e.TokenIDs)),
			)
		}),
		staking.OnRewardsTransferred(func(e staking.RewardsTransferred) {
			log.DebugContext(ctx, "Reward tokens transferred",
				slog.String("from", e.From.Hex()),
				slog.String("to", e.To.Hex()),
				slog.String("amount", e.Amount.Dec()),
			)
		}),
	)
}
