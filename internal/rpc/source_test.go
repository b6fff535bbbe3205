package rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
)

// fakeEthClient serves canned headers for the block source tests.
type fakeEthClient struct {
	head    uint64
	headers map[uint64]*types.Header
	err     error
}

func newFakeEthClient(head uint64) *fakeEthClient {
	c := &fakeEthClient{
		head:    head,
		headers: make(map[uint64]*types.Header),
	}
	for num := uint64(1); num <= head; num++ {
		c.headers[num] = &types.Header{
			Number:     big.NewInt(int64(num)),
			Time:       1700000000 + num,
			Difficulty: big.NewInt(1),
		}
	}
	return c
}

func (c *fakeEthClient) Close() {}

func (c *fakeEthClient) GetBlockHeader(_ context.Context, blockNum uint64) (*types.Header, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.headers[blockNum], nil
}

func (c *fakeEthClient) GetLatestBlockHeader(_ context.Context) (*types.Header, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.headers[c.head], nil
}

func (c *fakeEthClient) BatchGetBlockHeaders(_ context.Context, blockNums []uint64) ([]*types.Header, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]*types.Header, len(blockNums))
	for i, num := range blockNums {
		out[i] = c.headers[num]
	}
	return out, nil
}

func newTestSource(client *fakeEthClient) *JSONRPCBlockSource {
	return NewJSONRPCBlockSource(client, logger.NewNopLogger())
}

func TestJSONRPCBlockSource_GetLastBlockLive(t *testing.T) {
	src := newTestSource(newFakeEthClient(42))

	head, err := src.GetLastBlockLive(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(42), head)
}

func TestJSONRPCBlockSource_GetBlockData(t *testing.T) {
	client := newFakeEthClient(250)
	src := newTestSource(client)

	var records []pkgmonitor.BlockRecord
	// Spans three fetch chunks.
	for rec, err := range src.GetBlockData(context.Background(), 1, 250) {
		require.NoError(t, err)
		records = append(records, rec)
	}

	require.Len(t, records, 250)
	for i, rec := range records {
		num := uint64(i + 1)
		require.Equal(t, num, rec.BlockNumber)
		require.Equal(t, client.headers[num].Hash().Hex(), rec.BlockHash)
		require.Equal(t, client.headers[num].Time, rec.Timestamp)
	}
}

func TestJSONRPCBlockSource_GetBlockData_EmptyRange(t *testing.T) {
	src := newTestSource(newFakeEthClient(10))

	count := 0
	for _, err := range src.GetBlockData(context.Background(), 5, 4) {
		require.NoError(t, err)
		count++
	}
	require.Zero(t, count)
}

func TestJSONRPCBlockSource_GetBlockData_FetchError(t *testing.T) {
	client := newFakeEthClient(10)
	client.err = errors.New("boom")
	src := newTestSource(client)

	var gotErr error
	for _, err := range src.GetBlockData(context.Background(), 1, 10) {
		gotErr = err
		break
	}
	require.Error(t, gotErr)
	require.Contains(t, gotErr.Error(), "failed to fetch headers")
}

func TestJSONRPCBlockSource_GetBlockData_EarlyStop(t *testing.T) {
	src := newTestSource(newFakeEthClient(50))

	count := 0
	for _, err := range src.GetBlockData(context.Background(), 1, 50) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)
}
