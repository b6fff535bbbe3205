package monitor

import (
	"context"
	"iter"
)

// BlockRecord is one observed block header. It is a value type and is never
// mutated after construction.
type BlockRecord struct {
	// BlockNumber is the block height, >= 1.
	BlockNumber uint64

	// BlockHash is the chain-specific string encoding of the block hash,
	// compared by exact value.
	BlockHash string

	// Timestamp is the block creation time in UNIX seconds.
	Timestamp uint64
}

// ChainReorganisationResolution is the outcome of one Monitor.UpdateChain call.
type ChainReorganisationResolution struct {
	// LastBlockNumber is the ledger head after reconciliation.
	LastBlockNumber uint64

	// LatestGoodBlock is the lowest block number that survived all
	// truncations performed during the call. Only meaningful when
	// ReorgDetected is true.
	LatestGoodBlock uint64

	// ReorgDetected reports whether at least one reorganisation was
	// resolved during the call.
	ReorgDetected bool
}

// BlockSource supplies live chain data to the reorganisation monitor.
// Implementations must yield exactly one record per block number in the
// requested range, in ascending order, with no gaps. If a block in range
// cannot be supplied yet the source must block or yield an error rather
// than skip it.
type BlockSource interface {
	// GetLastBlockLive returns the current chain head block number.
	GetLastBlockLive(ctx context.Context) (uint64, error)

	// GetBlockData streams block records for the inclusive range
	// [startBlock, endBlock] in ascending block-number order. The sequence
	// is finite and not restartable; each call re-fetches. An empty
	// sequence is returned when endBlock < startBlock.
	GetBlockData(ctx context.Context, startBlock, endBlock uint64) iter.Seq2[BlockRecord, error]
}
