package monitor

import (
	"fmt"

	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
)

// Ledger is the in-memory ordered store of block records owned by the
// monitor. Block numbers form a contiguous range ending at LastBlockRead;
// the insert path enforces the invariant instead of assuming it.
//
// The ledger is unsynchronized mutable state and must be owned by exactly
// one logical caller at a time.
type Ledger struct {
	blocks        map[uint64]pkgmonitor.BlockRecord
	firstBlock    uint64
	lastBlockRead uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		blocks: make(map[uint64]pkgmonitor.BlockRecord),
	}
}

// LastBlockRead returns the highest block number in the ledger, 0 when empty.
func (l *Ledger) LastBlockRead() uint64 {
	return l.lastBlockRead
}

// FirstBlock returns the lowest block number in the ledger, 0 when empty.
func (l *Ledger) FirstBlock() uint64 {
	return l.firstBlock
}

// Len returns the number of blocks currently held.
func (l *Ledger) Len() int {
	return len(l.blocks)
}

// AddBlock inserts a record. The first block may start the ledger at any
// height >= 1; after that blocks must be added strictly in order. A duplicate
// block number or a number other than LastBlockRead+1 is a caller bug and
// returns an error without modifying the ledger.
func (l *Ledger) AddBlock(record pkgmonitor.BlockRecord) error {
	if record.BlockNumber == 0 {
		return &pkgmonitor.OutOfOrderBlockError{Got: 0, Want: l.lastBlockRead + 1}
	}
	if _, exists := l.blocks[record.BlockNumber]; exists {
		return &pkgmonitor.DuplicateBlockError{BlockNumber: record.BlockNumber}
	}

	if len(l.blocks) == 0 {
		l.firstBlock = record.BlockNumber
	} else if record.BlockNumber != l.lastBlockRead+1 {
		return &pkgmonitor.OutOfOrderBlockError{Got: record.BlockNumber, Want: l.lastBlockRead + 1}
	}

	l.blocks[record.BlockNumber] = record
	l.lastBlockRead = record.BlockNumber
	return nil
}

// Get returns the record stored for the given block number.
func (l *Ledger) Get(blockNumber uint64) (pkgmonitor.BlockRecord, bool) {
	rec, ok := l.blocks[blockNumber]
	return rec, ok
}

// Timestamp returns the UNIX timestamp of a stored block.
func (l *Ledger) Timestamp(blockNumber uint64) (uint64, error) {
	rec, ok := l.blocks[blockNumber]
	if !ok {
		return 0, fmt.Errorf("block %d: %w", blockNumber, pkgmonitor.ErrBlockNotFound)
	}
	return rec.Timestamp, nil
}

// Truncate deletes every record in (latestGoodBlock, LastBlockRead] and sets
// LastBlockRead to latestGoodBlock. The ledger must be non-empty and
// latestGoodBlock must not exceed the current head.
func (l *Ledger) Truncate(latestGoodBlock uint64) error {
	if l.lastBlockRead == 0 {
		return fmt.Errorf("cannot truncate: %w", pkgmonitor.ErrEmptyLedger)
	}
	if latestGoodBlock > l.lastBlockRead {
		return fmt.Errorf("cannot truncate to block %d: last block read is %d", latestGoodBlock, l.lastBlockRead)
	}

	for num := latestGoodBlock + 1; num <= l.lastBlockRead; num++ {
		delete(l.blocks, num)
	}
	l.lastBlockRead = latestGoodBlock
	if latestGoodBlock < l.firstBlock {
		// Everything was purged; the next append restarts the ledger.
		l.firstBlock = 0
	}
	return nil
}

// Range returns the stored records for the inclusive range [from, to] in
// ascending order. Every block in the range must be present.
func (l *Ledger) Range(from, to uint64) ([]pkgmonitor.BlockRecord, error) {
	if to < from {
		return nil, nil
	}

	out := make([]pkgmonitor.BlockRecord, 0, to-from+1)
	for num := from; num <= to; num++ {
		rec, ok := l.blocks[num]
		if !ok {
			return nil, fmt.Errorf("block %d: %w", num, pkgmonitor.ErrBlockNotFound)
		}
		out = append(out, rec)
	}
	return out, nil
}
