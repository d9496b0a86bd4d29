// Package dbtest provisions a throwaway PostgreSQL schema for repository
// tests. Tests are skipped unless MEDREVIEW_TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medreview/medreview/internal/platform/db"
	"github.com/medreview/medreview/migrations"
)

const EnvURL = "MEDREVIEW_TEST_DATABASE_URL"

// Open returns a pool whose search_path points at a freshly migrated schema.
// The schema is dropped when the test finishes.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set", EnvURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "test_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: url, MaxConns: 10, Schema: schema})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx, schema); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schema}.Sanitize())); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		pool.Close()
	})
	return pool
}
