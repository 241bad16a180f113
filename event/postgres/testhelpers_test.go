//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/courierhq/courier/destination"
	destpostgres "github.com/courierhq/courier/destination/postgres"
)

/* Test Helpers for PostgreSQL Integration Tests
 * Following the pattern from: https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
 */

const (
	defaultDatabase = "testdb"
	defaultUser     = "testuser"
	defaultPassword = "testpass"

	// seeded destination every event in these tests hangs off
	testDestinationID = "1b4e28ba-2fa1-41d2-883f-0016b0b4f0a1"
)

// PostgresContainer holds the container and a pgx connection pool
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupPostgresContainer creates and starts a PostgreSQL testcontainer
func SetupPostgresContainer(t *testing.T, ctx context.Context) (*PostgresContainer, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	container := &PostgresContainer{
		Container: pgContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Postgres container: %v", err)
		}
	}

	return container, cleanup
}

// CreateTestRepository migrates the full schema, seeds one destination and
// returns an event repository on the container's pool
func CreateTestRepository(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *Repository {
	t.Helper()

	destRepo := destpostgres.NewRepository(pool)
	require.NoError(t, destRepo.Migrate(ctx))
	require.NoError(t, destRepo.Create(ctx, destination.Destination{
		ID:        testDestinationID,
		URL:       "https://receiver.example.com/hooks",
		Secret:    "whsec-test",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}))

	repo := NewRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	return repo
}
