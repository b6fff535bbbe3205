package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned when a block number is not present in the ledger.
	ErrBlockNotFound = errors.New("block not found in ledger")

	// ErrEmptyLedger is returned when an operation requires a non-empty ledger.
	ErrEmptyLedger = errors.New("ledger is empty")
)

// ReorgDetectedError reports a hash mismatch between the ledger and the live
// chain for the same block number. It is absorbed inside UpdateChain's retry
// loop and never escapes to the caller.
type ReorgDetectedError struct {
	BlockNumber  uint64
	OriginalHash string
	NewHash      string
}

func (e *ReorgDetectedError) Error() string {
	return fmt.Sprintf("chain reorganisation detected at block %d: original_hash=%s new_hash=%s",
		e.BlockNumber, e.OriginalHash, e.NewHash)
}

// ResolutionFailureError is returned when the retry budget is exhausted
// without reaching a clean scan. It indicates the block source is unstable
// beyond the configured tolerance.
type ResolutionFailureError struct {
	LastBlockRead uint64
	Attempts      int
}

func (e *ResolutionFailureError) Error() string {
	return fmt.Sprintf("gave up chain reorganisation resolution: last_block_read=%d attempts=%d",
		e.LastBlockRead, e.Attempts)
}

// OutOfOrderBlockError reports an append that is not last_block_read + 1.
// This is a caller bug, never retried.
type OutOfOrderBlockError struct {
	Got  uint64
	Want uint64
}

func (e *OutOfOrderBlockError) Error() string {
	return fmt.Sprintf("blocks must be added in order: got block %d, want block %d", e.Got, e.Want)
}

// DuplicateBlockError reports an append for a block number already in the ledger.
type DuplicateBlockError struct {
	BlockNumber uint64
}

func (e *DuplicateBlockError) Error() string {
	return fmt.Sprintf("block already added: %d", e.BlockNumber)
}
