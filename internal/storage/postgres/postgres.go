package postgres

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Simple helper function to read an environment or return a default value
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// Storage instance for processing sql queries
type Storage struct {
	Pool *pgxpool.Pool
}

// New initialize an instance of storage db context.
// connString wins over the DB_* environment when both present.
func New(ctx context.Context, connString string) (*Storage, error) {
	const op = "storage.postgres.New"

	if connString == "" {
		connString = connStringFromEnv()
	}
	dbPool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = dbPool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{Pool: dbPool}, nil
}

// CloseStorage ends database pool connection
func (s *Storage) CloseStorage() {
	s.Pool.Close()
}

// connStringFromEnv constructing database connection string
func connStringFromEnv() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASS", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "docsearch_db"),
	)
}
