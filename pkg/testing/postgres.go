package testing

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2beens/healthify/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const TestDBName = "healthify"

// NewDBPool connects to the postgres instance used by integration tests and
// makes sure the schema exists. POSTGRES_HOST overrides the localhost default.
func NewDBPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postres host: %s", host)

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         host,
		DBPort:         "5432",
		DBName:         TestDBName,
		TracingEnabled: false,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

// AddUser inserts a bare user row and returns its id.
func AddUser(t *testing.T, pool *pgxpool.Pool, username string) int {
	t.Helper()

	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO app_user (username, email)
		VALUES ($1, $2)
		RETURNING id
	`, username, username+"@healthify.test").Scan(&id)
	require.NoError(t, err)
	return id
}
