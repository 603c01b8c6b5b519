//go:build integration

// Package pgtest starts a throwaway Postgres for integration tests and
// applies the embedded migrations to it.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"smrt/config"
	"smrt/internal/migrate"
	"smrt/internal/store"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Start boots a container, migrates it and returns a connected store plus a
// cleanup func that closes the store and terminates the container.
func Start(ctx context.Context) (*store.Store, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("smrt_test"),
		postgres.WithUsername("smrt"),
		postgres.WithPassword("smrt"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}

	terminate := func() { _ = container.Terminate(context.Background()) }

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("connection string: %w", err)
	}

	st, err := store.NewStore(config.DatabaseConfig{
		URL:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		terminate()
		return nil, nil, err
	}

	if err := migrate.Up(ctx, st.GetDB().DB); err != nil {
		st.Close()
		terminate()
		return nil, nil, err
	}

	return st, func() {
		st.Close()
		terminate()
	}, nil
}
