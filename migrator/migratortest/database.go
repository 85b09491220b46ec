// Package migratortest creates throwaway PostgreSQL databases for acceptance tests.
package migratortest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/migrator"
)

// CreateTestDatabase creates a test database with schema migrations applied.
// The pool is closed when the test finishes.
func CreateTestDatabase(t *testing.T, migrationsDir string) *pgxpool.Pool {
	t.Helper()
	return createTestDatabaseWithMigrator(t, migrator.NewSchemaMigrator(migrationsDir))
}

// CreateSeededTestDatabase creates a test database with migrations applied and demo stakes seeded.
// The pool is closed when the test finishes.
func CreateSeededTestDatabase(t *testing.T, migrationsDir string, tokensPerHolder uint64, seedTimeout time.Duration) *pgxpool.Pool {
	t.Helper()
	return createTestDatabaseWithMigrator(t, migrator.NewSeededMigrator(migrationsDir, tokensPerHolder, seedTimeout))
}

// createTestDatabaseWithMigrator clones a template database prepared by migratorInstance
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	dbConfig := pgtestdb.Custom(t, testDatabaseConfig(), migratorInstance)
	t.Logf("testdbconf: %s", dbConfig.URL())

	pool, err := createTestConnection(t.Context(), dbConfig.URL())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// testDatabaseConfig matches the compose Postgres service
func testDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "glanger",
		Password:   "glanger",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}

// createTestConnection creates a small pool with short lifetimes for fast feedback
func createTestConnection(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}

	config.MinConns = 1
	config.MaxConns = 4 // serializable retries need a spare connection
	config.MaxConnLifetime = 10 * time.Minute
	config.MaxConnIdleTime = time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, config)
}
