package monitor

import (
	"context"
	"fmt"
	"iter"
)

// SyntheticBlockSource is an in-memory block source for tests and local
// development. It deterministically produces records of the form
// (n, hex(n), n) and lets the caller advance the simulated chain head and
// rewrite already-produced blocks to simulate reorganisations.
//
// Not safe for concurrent use.
type SyntheticBlockSource struct {
	nextBlock uint64
	blocks    map[uint64]BlockRecord
}

var _ BlockSource = (*SyntheticBlockSource)(nil)

// NewSyntheticBlockSource creates a source whose first produced block will be
// startBlock. Pass 1 for a chain starting at genesis height 1.
func NewSyntheticBlockSource(startBlock uint64) *SyntheticBlockSource {
	if startBlock == 0 {
		startBlock = 1
	}
	return &SyntheticBlockSource{
		nextBlock: startBlock,
		blocks:    make(map[uint64]BlockRecord),
	}
}

// SyntheticHash returns the deterministic hash for a synthetic block number.
func SyntheticHash(blockNumber uint64) string {
	return fmt.Sprintf("0x%x", blockNumber)
}

// ProduceBlocks appends count fake blocks to the simulated chain.
func (s *SyntheticBlockSource) ProduceBlocks(count int) {
	for range count {
		num := s.nextBlock
		s.nextBlock++
		s.blocks[num] = BlockRecord{
			BlockNumber: num,
			BlockHash:   SyntheticHash(num),
			Timestamp:   num,
		}
	}
}

// RewriteBlock replaces the hash of an already-produced block, simulating a
// reorganisation at that height. Panics if the block was never produced.
func (s *SyntheticBlockSource) RewriteBlock(blockNumber uint64, newHash string) {
	rec, ok := s.blocks[blockNumber]
	if !ok {
		panic(fmt.Sprintf("cannot rewrite block %d: not produced", blockNumber))
	}
	rec.BlockHash = newHash
	s.blocks[blockNumber] = rec
}

// Head returns the highest produced block number, 0 when nothing was produced.
func (s *SyntheticBlockSource) Head() uint64 {
	return s.nextBlock - 1
}

// GetLastBlockLive implements BlockSource.
func (s *SyntheticBlockSource) GetLastBlockLive(_ context.Context) (uint64, error) {
	return s.Head(), nil
}

// GetBlockData implements BlockSource. It yields an error for block 0 or for
// blocks beyond the produced head.
func (s *SyntheticBlockSource) GetBlockData(_ context.Context, startBlock, endBlock uint64) iter.Seq2[BlockRecord, error] {
	return func(yield func(BlockRecord, error) bool) {
		if startBlock == 0 {
			yield(BlockRecord{}, fmt.Errorf("cannot ask data for block 0"))
			return
		}
		if endBlock > s.Head() {
			yield(BlockRecord{}, fmt.Errorf("cannot ask data for block %d: chain head is %d", endBlock, s.Head()))
			return
		}
		for num := startBlock; num <= endBlock; num++ {
			if !yield(s.blocks[num], nil) {
				return
			}
		}
	}
}
