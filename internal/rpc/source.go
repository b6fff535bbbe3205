package rpc

import (
	"context"
	"fmt"
	"iter"

	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
	pkgrpc "github.com/tradingstrategy-ai/reorgmon/pkg/rpc"
)

// fetchChunkSize is how many headers are requested per batch while streaming.
const fetchChunkSize = 100

var _ pkgmonitor.BlockSource = (*JSONRPCBlockSource)(nil)

// JSONRPCBlockSource reads block headers from an Ethereum JSON-RPC endpoint
// via eth_getBlockByNumber and adapts them to the monitor's BlockSource
// interface.
type JSONRPCBlockSource struct {
	client pkgrpc.EthClient
	log    *logger.Logger
}

// NewJSONRPCBlockSource creates a block source backed by the given client.
func NewJSONRPCBlockSource(client pkgrpc.EthClient, log *logger.Logger) *JSONRPCBlockSource {
	return &JSONRPCBlockSource{
		client: client,
		log:    log,
	}
}

// GetLastBlockLive returns the current chain head block number.
func (s *JSONRPCBlockSource) GetLastBlockLive(ctx context.Context) (uint64, error) {
	header, err := s.client.GetLatestBlockHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block header: %w", err)
	}
	return header.Number.Uint64(), nil
}

// GetBlockData streams block records for the inclusive range in ascending
// order, fetching headers in batches. The stream stops at the first fetch
// error.
func (s *JSONRPCBlockSource) GetBlockData(ctx context.Context, startBlock, endBlock uint64) iter.Seq2[pkgmonitor.BlockRecord, error] {
	return func(yield func(pkgmonitor.BlockRecord, error) bool) {
		if endBlock < startBlock {
			return
		}

		s.log.Debugf("extracting block headers: start_block=%d end_block=%d", startBlock, endBlock)

		for chunkStart := startBlock; chunkStart <= endBlock; chunkStart += fetchChunkSize {
			chunkEnd := min(chunkStart+fetchChunkSize-1, endBlock)

			blockNums := make([]uint64, 0, chunkEnd-chunkStart+1)
			for num := chunkStart; num <= chunkEnd; num++ {
				blockNums = append(blockNums, num)
			}

			headers, err := s.client.BatchGetBlockHeaders(ctx, blockNums)
			if err != nil {
				yield(pkgmonitor.BlockRecord{}, fmt.Errorf("failed to fetch headers %d-%d: %w", chunkStart, chunkEnd, err))
				return
			}

			for i, header := range headers {
				if got := header.Number.Uint64(); got != blockNums[i] {
					yield(pkgmonitor.BlockRecord{}, fmt.Errorf("node returned block %d, expected %d", got, blockNums[i]))
					return
				}

				rec := pkgmonitor.BlockRecord{
					BlockNumber: header.Number.Uint64(),
					BlockHash:   header.Hash().Hex(),
					Timestamp:   header.Time,
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
