package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	sharedPool    *pgxpool.Pool
	sharedPoolErr error
	sharedOnce    sync.Once
)

// TestPool returns a migrated, seeded pool shared by every test in the binary.
// The test is skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	sharedOnce.Do(func() {
		ctx := context.Background()
		if sharedPool, sharedPoolErr = Connect(ctx, url); sharedPoolErr != nil {
			return
		}
		if sharedPoolErr = RunMigrations(ctx, sharedPool); sharedPoolErr != nil {
			return
		}
		sharedPoolErr = SeedSettings(ctx, sharedPool)
	})
	if sharedPoolErr != nil {
		t.Fatalf("failed to prepare test database: %v", sharedPoolErr)
	}
	return sharedPool
}

// TestTx opens a transaction on the shared pool and rolls it back on cleanup.
func TestTx(t *testing.T) Querier {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
