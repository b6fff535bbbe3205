package archive

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	pkgconfig "github.com/tradingstrategy-ai/reorgmon/pkg/config"
	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
)

func setupTestArchive(t *testing.T) *Archive {
	t.Helper()

	cfg := pkgconfig.ArchiveConfig{
		Enabled: true,
		DB: pkgconfig.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "archive_test.db"),
		},
	}
	cfg.ApplyDefaults()

	a, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, a.Close())
	})

	return a
}

func syntheticRecords(from, to uint64) []pkgmonitor.BlockRecord {
	out := make([]pkgmonitor.BlockRecord, 0, to-from+1)
	for num := from; num <= to; num++ {
		out = append(out, pkgmonitor.BlockRecord{
			BlockNumber: num,
			BlockHash:   pkgmonitor.SyntheticHash(num),
			Timestamp:   num,
		})
	}
	return out
}

func TestArchive_RecordAndGet(t *testing.T) {
	a := setupTestArchive(t)

	require.NoError(t, a.RecordBlocks(syntheticRecords(1, 5)))

	block, err := a.GetBlock(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), block.BlockNumber)
	require.Equal(t, pkgmonitor.SyntheticHash(3), block.BlockHash)
	require.Equal(t, uint64(3), block.Timestamp)

	last, err := a.LastStoredBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(5), last)
}

func TestArchive_RecordBlocks_Empty(t *testing.T) {
	a := setupTestArchive(t)

	require.NoError(t, a.RecordBlocks(nil))

	last, err := a.LastStoredBlock()
	require.NoError(t, err)
	require.Zero(t, last)
}

func TestArchive_RecordBlocks_OverwritesOnReorg(t *testing.T) {
	a := setupTestArchive(t)

	require.NoError(t, a.RecordBlocks(syntheticRecords(1, 5)))

	// Re-record block 4 with the post-reorg hash.
	require.NoError(t, a.RecordBlocks([]pkgmonitor.BlockRecord{
		{BlockNumber: 4, BlockHash: "0xBAD", Timestamp: 4},
	}))

	block, err := a.GetBlock(4)
	require.NoError(t, err)
	require.Equal(t, "0xBAD", block.BlockHash)
}

func TestArchive_PruneAfter(t *testing.T) {
	a := setupTestArchive(t)

	require.NoError(t, a.RecordBlocks(syntheticRecords(1, 10)))
	require.NoError(t, a.PruneAfter(6))

	last, err := a.LastStoredBlock()
	require.NoError(t, err)
	require.Equal(t, uint64(6), last)

	_, err = a.GetBlock(7)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestArchive_PruneBefore(t *testing.T) {
	a := setupTestArchive(t)

	require.NoError(t, a.RecordBlocks(syntheticRecords(1, 10)))
	require.NoError(t, a.PruneBefore(4))

	_, err := a.GetBlock(3)
	require.ErrorIs(t, err, sql.ErrNoRows)

	block, err := a.GetBlock(4)
	require.NoError(t, err)
	require.Equal(t, uint64(4), block.BlockNumber)
}

func TestArchive_GetBlock_NotFound(t *testing.T) {
	a := setupTestArchive(t)

	_, err := a.GetBlock(1)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
