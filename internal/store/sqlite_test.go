package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) store.Store {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "hypecycle.db")
	s, err := store.Open(context.Background(), config.DatabaseConfig{URL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, newSQLite)
}

func TestSQLiteStore_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := store.NewSQLiteStore(ctx, "file:"+path)
	require.NoError(t, err)
	require.NoError(t, s.InsertAnalysis(ctx, sampleResult("lab-grown meat", baseTime)))
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LatestAnalysis(ctx, "lab-grown meat", baseTime)
	require.NoError(t, err)
	assert.Equal(t, "Discussion volume is surging", got.Reasoning)
}

func TestAnalysisFilter_PageSizeCapped(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertAnalysis(ctx, sampleResult("drones", baseTime)))
	}

	page, total, err := s.ListAnalyses(ctx, store.AnalysisFilter{Limit: 1000, Page: -4})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)
}
