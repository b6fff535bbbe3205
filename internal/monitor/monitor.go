package monitor

import (
	"context"
	"fmt"

	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
)

const (
	// DefaultCheckDepth is the number of trailing blocks re-verified on
	// every reconciliation pass.
	DefaultCheckDepth = 200

	// DefaultMaxCycleTries bounds the number of truncate-and-rescan cycles
	// within a single UpdateChain call.
	DefaultMaxCycleTries = 10
)

// Monitor keeps a local ledger of block headers synchronized against a live
// chain and resolves reorganisations by truncating the ledger back to the
// last agreeing block and re-scanning.
//
// A Monitor instance is not safe for concurrent use: one UpdateChain call
// runs to completion before the next may start.
type Monitor struct {
	source        pkgmonitor.BlockSource
	ledger        *Ledger
	checkDepth    uint64
	maxCycleTries int
	log           *logger.Logger
}

// New creates a Monitor reading from the given block source. Zero values for
// checkDepth and maxCycleTries select the defaults.
func New(source pkgmonitor.BlockSource, log *logger.Logger, checkDepth uint64, maxCycleTries int) *Monitor {
	if checkDepth == 0 {
		checkDepth = DefaultCheckDepth
	}
	if maxCycleTries == 0 {
		maxCycleTries = DefaultMaxCycleTries
	}

	return &Monitor{
		source:        source,
		ledger:        NewLedger(),
		checkDepth:    checkDepth,
		maxCycleTries: maxCycleTries,
		log:           log,
	}
}

// LastBlockRead returns the highest block number in the ledger, 0 when empty.
func (m *Monitor) LastBlockRead() uint64 {
	return m.ledger.LastBlockRead()
}

// FirstBlock returns the lowest block number in the ledger, 0 when empty.
func (m *Monitor) FirstBlock() uint64 {
	return m.ledger.FirstBlock()
}

// AddBlock adds a new block to header tracking. Blocks must be added in order.
func (m *Monitor) AddBlock(record pkgmonitor.BlockRecord) error {
	if err := m.ledger.AddBlock(record); err != nil {
		return err
	}
	blockIngestedMetrics(record.BlockNumber)
	return nil
}

// GetBlockTimestamp returns the UNIX UTC timestamp of a block.
func (m *Monitor) GetBlockTimestamp(blockNumber uint64) (uint64, error) {
	return m.ledger.Timestamp(blockNumber)
}

// GetBlock returns the ledger record for a block number.
func (m *Monitor) GetBlock(blockNumber uint64) (pkgmonitor.BlockRecord, bool) {
	return m.ledger.Get(blockNumber)
}

// BlockRange returns ledger records for the inclusive range [from, to].
func (m *Monitor) BlockRange(from, to uint64) ([]pkgmonitor.BlockRecord, error) {
	return m.ledger.Range(from, to)
}

// LoadInitialData computes the initial block range to backfill before any
// ledger exists: (max(chain_head - blockCount, 1), chain_head). The caller
// populates the ledger via AddBlock or a first UpdateChain pass; the monitor
// does not self-seed.
func (m *Monitor) LoadInitialData(ctx context.Context, blockCount uint64) (startBlock, endBlock uint64, err error) {
	endBlock, err = m.source.GetLastBlockLive(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get chain head: %w", err)
	}

	startBlock = 1
	if endBlock > blockCount {
		startBlock = endBlock - blockCount
	}
	return startBlock, endBlock, nil
}

// UpdateChain reconciles the ledger against the live chain. It re-verifies a
// trailing window of checkDepth blocks, truncates the ledger on any hash
// mismatch and re-scans, up to maxCycleTries cycles. Reorg detections are
// absorbed as normal control flow; only source failures and retry-budget
// exhaustion surface as errors.
func (m *Monitor) UpdateChain(ctx context.Context) (pkgmonitor.ChainReorganisationResolution, error) {
	var (
		latestGoodBlock uint64
		reorgSeen       bool
	)

	for attempt := 1; attempt <= m.maxCycleTries; attempt++ {
		reorg, err := m.scan(ctx)
		if err != nil {
			return pkgmonitor.ChainReorganisationResolution{}, err
		}

		if reorg == nil {
			res := pkgmonitor.ChainReorganisationResolution{
				LastBlockNumber: m.ledger.LastBlockRead(),
				LatestGoodBlock: latestGoodBlock,
				ReorgDetected:   reorgSeen,
			}
			lastBlockReadMetrics(res.LastBlockNumber)
			return res, nil
		}

		m.log.Infof("chain reorganisation detected: %v", reorg)

		goodBlock := reorg.BlockNumber - 1
		if !reorgSeen || goodBlock < latestGoodBlock {
			latestGoodBlock = goodBlock
		}
		reorgSeen = true

		truncated := m.ledger.LastBlockRead() - goodBlock
		if err := m.ledger.Truncate(goodBlock); err != nil {
			return pkgmonitor.ChainReorganisationResolution{}, fmt.Errorf("failed to truncate ledger: %w", err)
		}
		reorgDetectedMetrics(truncated, reorg.BlockNumber)
	}

	resolutionFailures.Inc()
	return pkgmonitor.ChainReorganisationResolution{}, &pkgmonitor.ResolutionFailureError{
		LastBlockRead: m.ledger.LastBlockRead(),
		Attempts:      m.maxCycleTries,
	}
}

// scan compares the ledger tail window against the live chain and appends
// new blocks. It returns the first hash mismatch as an explicit result
// instead of signalling through errors: (nil, nil) means a clean pass.
// The chain head is re-fetched on every scan so a retry never reconciles
// against a stale head.
func (m *Monitor) scan(ctx context.Context) (*pkgmonitor.ReorgDetectedError, error) {
	chainLastBlock, err := m.source.GetLastBlockLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain head: %w", err)
	}

	checkStart := uint64(1)
	if last := m.ledger.LastBlockRead(); last > m.checkDepth {
		checkStart = last - m.checkDepth
	}
	// A ledger seeded mid-chain cannot verify blocks below its first record.
	if first := m.ledger.FirstBlock(); first > checkStart {
		checkStart = first
	}

	m.log.Debugf("scanning blocks: check_start=%d chain_last_block=%d last_block_read=%d",
		checkStart, chainLastBlock, m.ledger.LastBlockRead())

	for rec, err := range m.source.GetBlockData(ctx, checkStart, chainLastBlock) {
		if err != nil {
			return nil, fmt.Errorf("failed to read block data: %w", err)
		}

		if stored, ok := m.ledger.Get(rec.BlockNumber); ok {
			if stored.BlockHash != rec.BlockHash {
				return &pkgmonitor.ReorgDetectedError{
					BlockNumber:  rec.BlockNumber,
					OriginalHash: stored.BlockHash,
					NewHash:      rec.BlockHash,
				}, nil
			}
			continue
		}

		if err := m.AddBlock(rec); err != nil {
			return nil, fmt.Errorf("failed to append block %d: %w", rec.BlockNumber, err)
		}
	}

	return nil, nil
}
