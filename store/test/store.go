// Package test provides store helpers backed by a throwaway SQLite database.
package test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voxhire/voxhire/internal/profile"
	"github.com/voxhire/voxhire/store"
	"github.com/voxhire/voxhire/store/db"
)

// NewTestingStore creates a migrated store on a temp SQLite file.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:               "dev",
		Driver:             "sqlite",
		DSN:                filepath.Join(t.TempDir(), "voxhire_test.db"),
		SessionTTL:         4600 * time.Second,
		PoolMaxConns:       5,
		PoolAcquireTimeout: 2 * time.Second,
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	st := store.New(driver, p)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
