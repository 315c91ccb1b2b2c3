package repository_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewDatabase_Success(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := t.Context()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("timekeeper_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx), "failed to terminate postgres container")
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbpool, err := repository.NewDatabase(host, port.Port(), "testuser", "testpassword", "timekeeper_test")
	require.NoError(t, err, "NewDatabase failed")
	defer dbpool.Close()

	require.NotNil(t, dbpool)
	require.NoError(t, dbpool.Ping(ctx), "failed to ping database after connection")
}

func TestNewDatabase_ParseConfigError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase("localhost", "invalid-port", "user", "pass", "db")

	require.Error(t, err, "Expected an error for invalid database URL, but got nil")
	require.Nil(t, dbpool, "Expected nil dbpool, got: %v", dbpool)
	require.ErrorContains(t, err, "failed to parse database config")
	require.ErrorContains(t, err, "invalid port")
}

func TestNewDatabase_ConnectionError(t *testing.T) {
	t.Parallel()
	dbpool, err := repository.NewDatabase("nonexistent-host", "5432", "user", "pass", "db")

	require.Error(t, err, "Expected an error for connection failure, but got nil")
	if dbpool != nil {
		dbpool.Close()
		t.Errorf("Expected nil dbpool, got: %v", err)
	}

	expectedErr := "unable to create connection to PostgreSQL" // Error from NewWithConfig
	expectedErr2 := "failed to ping PostgreSQL DB"             // Error from Ping
	expectedErr3 := "no such host"                             // DNS error

	if !strings.Contains(err.Error(), expectedErr) &&
		!strings.Contains(err.Error(), expectedErr2) &&
		!strings.Contains(err.Error(), expectedErr3) {
		t.Errorf(
			"Expected error to contain '%s' or '%s' or '%s', got: %v",
			expectedErr,
			expectedErr2,
			expectedErr3,
			err,
		)
	}
}
