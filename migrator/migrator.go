package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/glanger/pkg/pgxdb"
	"github.com/screwyprof/glanger/staking"
	"github.com/screwyprof/glanger/staking/config"
	"github.com/screwyprof/glanger/staking/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_demo_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrGenesis            = errors.New("ledger genesis failed")
	ErrSeed               = errors.New("demo seeding failed")
)

// DemoHolders are the accounts the seeded migrator stakes for
var DemoHolders = []common.Address{
	common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
	common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"),
	common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"),
}

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations, runs genesis and stakes demo tokens.
// Used for web API tests that need realistic data to test against.
type SeededMigrator struct {
	migrationsDir   string
	tokensPerHolder uint64
	seedTimeout     time.Duration
}

// NewSeededMigrator creates a migrator that applies schema + seeds demo data
func NewSeededMigrator(migrationsDir string, tokensPerHolder uint64, seedTimeout time.Duration) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir:   migrationsDir,
		tokensPerHolder: tokensPerHolder,
		seedTimeout:     seedTimeout,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return seededHashPrefix + baseHash + "_" + strconv.Itoa(len(DemoHolders)) + "_" + strconv.FormatUint(m.tokensPerHolder, 10), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}
	return m.seedDemoData(ctx, conf.URL())
}

// seedDemoData mints, approves and stakes tokensPerHolder tokens for every demo holder
func (m *SeededMigrator) seedDemoData(ctx context.Context, dbURL string) error {
	slog.InfoContext(ctx, "🌱 Seeding demo database with staked tokens",
		"holders", len(DemoHolders),
		"tokensPerHolder", m.tokensPerHolder,
		"timeout", m.seedTimeout)

	seedCtx, cancel := context.WithTimeout(ctx, m.seedTimeout)
	defer cancel()

	pool, err := pgxdb.NewConnection(seedCtx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := newService(pool, config.New())
	if err != nil {
		return err
	}
	if err := svc.Genesis(seedCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrGenesis, err)
	}

	for _, holder := range DemoHolders {
		ids, err := svc.Mint(seedCtx, holder, m.tokensPerHolder)
		if err != nil {
			return fmt.Errorf("%w: mint for %s: %w", ErrSeed, holder.Hex(), err)
		}
		if err := svc.SetApprovalForAll(seedCtx, holder, svc.Vault(), true); err != nil {
			return fmt.Errorf("%w: approve for %s: %w", ErrSeed, holder.Hex(), err)
		}
		if _, err := svc.StakeBatch(seedCtx, holder, ids); err != nil {
			return fmt.Errorf("%w: stake for %s: %w", ErrSeed, holder.Hex(), err)
		}
	}

	slog.InfoContext(seedCtx, "✅ Demo database seeding completed successfully")
	return nil
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// Genesis stores the default reward rate and mints the initial reward supply to the owner.
// Running it again leaves existing state untouched.
func Genesis(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	svc, err := newService(pool, cfg)
	if err != nil {
		return err
	}
	if err := svc.Genesis(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrGenesis, err)
	}
	return nil
}

func newService(pool *pgxpool.Pool, cfg config.Config) (*staking.Service, error) {
	store, _ := pgxstore.New(pool) // pool is owned by the caller
	svc, err := cfg.NewService(store)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenesis, err)
	}
	return svc, nil
}

func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}
