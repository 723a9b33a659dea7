//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// externalDSN points the suite at an existing server when SCRUTINY_TEST_DB_HOST is set
func externalDSN() (string, bool) {
	host := os.Getenv("SCRUTINY_TEST_DB_HOST")
	if host == "" {
		return "", false
	}
	env := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host,
		env("SCRUTINY_TEST_DB_PORT", "5432"),
		env("SCRUTINY_TEST_DB_USER", "postgres"),
		env("SCRUTINY_TEST_DB_PASSWORD", "postgres"),
		env("SCRUTINY_TEST_DB_NAME", "scrutiny_test")), true
}

func startPostgres(ctx context.Context) (string, error) {
	var err error
	pgContainer, err = postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("scrutiny_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}
	return pgContainer.ConnectionString(ctx, "sslmode=disable")
}

func terminate(ctx context.Context) {
	if pgContainer == nil {
		return
	}
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

// TestMain runs the store suite against postgres with the deploy schema applied
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn, ok := externalDSN()
	if !ok {
		var err error
		if dsn, err = startPostgres(ctx); err != nil {
			fmt.Println(err)
			terminate(ctx)
			os.Exit(1)
		}
	}

	var err error
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err == nil {
		err = applySchema(testDB)
	}
	if err != nil {
		fmt.Printf("Failed to prepare database: %v\n", err)
		terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()
	terminate(ctx)
	os.Exit(code)
}

// applySchema runs db/init_pg_db.sql so the gorm models are checked against it
func applySchema(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	schemaSQL, err := os.ReadFile(filepath.Join("..", "..", "db", "init_pg_db.sql")) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	if _, err := sqlDB.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// initPGTestDB isolates each test in a transaction rolled back on cleanup
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
	})
	return NewPGStore(tx)
}

func TestPostgreSQLStore(t *testing.T) {
	require.NotNil(t, testDB, "test database not initialized")
	RunStoreTests(t, initPGTestDB, func(*testing.T) {})
}
