package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectBlocks(t *testing.T, src BlockSource, start, end uint64) []BlockRecord {
	t.Helper()

	var out []BlockRecord
	for rec, err := range src.GetBlockData(context.Background(), start, end) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestSyntheticBlockSource_ProduceBlocks(t *testing.T) {
	src := NewSyntheticBlockSource(1)
	require.Equal(t, uint64(0), src.Head())

	src.ProduceBlocks(5)
	require.Equal(t, uint64(5), src.Head())

	head, err := src.GetLastBlockLive(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(5), head)

	blocks := collectBlocks(t, src, 1, 5)
	require.Len(t, blocks, 5)
	for i, rec := range blocks {
		num := uint64(i + 1)
		require.Equal(t, num, rec.BlockNumber)
		require.Equal(t, SyntheticHash(num), rec.BlockHash)
		require.Equal(t, num, rec.Timestamp)
	}
}

func TestSyntheticBlockSource_RewriteBlock(t *testing.T) {
	src := NewSyntheticBlockSource(1)
	src.ProduceBlocks(5)

	src.RewriteBlock(4, "0xBAD")

	blocks := collectBlocks(t, src, 4, 4)
	require.Len(t, blocks, 1)
	require.Equal(t, "0xBAD", blocks[0].BlockHash)

	require.Panics(t, func() {
		src.RewriteBlock(99, "0xDEAD")
	})
}

func TestSyntheticBlockSource_GetBlockData_Bounds(t *testing.T) {
	src := NewSyntheticBlockSource(1)
	src.ProduceBlocks(3)

	var gotErr error
	for _, err := range src.GetBlockData(context.Background(), 0, 3) {
		gotErr = err
		break
	}
	require.Error(t, gotErr)

	gotErr = nil
	for _, err := range src.GetBlockData(context.Background(), 1, 10) {
		gotErr = err
		break
	}
	require.Error(t, gotErr)

	// Empty range yields nothing.
	require.Empty(t, collectBlocks(t, src, 3, 2))
}

func TestSyntheticHash(t *testing.T) {
	require.Equal(t, "0x1", SyntheticHash(1))
	require.Equal(t, "0xff", SyntheticHash(255))
}
