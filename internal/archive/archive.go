package archive

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/russross/meddler"
	"github.com/tradingstrategy-ai/reorgmon/internal/archive/migrations"
	"github.com/tradingstrategy-ai/reorgmon/internal/db"
	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	pkgconfig "github.com/tradingstrategy-ai/reorgmon/pkg/config"
	pkgmonitor "github.com/tradingstrategy-ai/reorgmon/pkg/monitor"
)

// StoredBlock represents a block header stored in the archive database.
// Uses meddler tags for automatic struct-to-db mapping.
type StoredBlock struct {
	BlockNumber uint64 `meddler:"block_number"`
	BlockHash   string `meddler:"block_hash"`
	Timestamp   uint64 `meddler:"timestamp"`
}

// Archive mirrors reconciled block headers to SQLite so downstream consumers
// can look up header data across monitor restarts. The monitor's in-memory
// ledger stays authoritative; the archive only follows it.
type Archive struct {
	db  *sql.DB
	log *logger.Logger
}

// New opens (and migrates) the archive database at the configured path.
func New(cfg pkgconfig.ArchiveConfig, log *logger.Logger) (*Archive, error) {
	if err := migrations.RunMigrations(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	database, err := db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &Archive{
		db:  database,
		log: log,
	}

	a.log.Info("block-header archive initialized")

	return a, nil
}

// RecordBlocks persists block headers atomically. Re-recording a block number
// replaces the stored row, so post-reorg corrections simply overwrite.
func (a *Archive) RecordBlocks(records []pkgmonitor.BlockRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			a.log.Errorf("failed to rollback transaction: %v", err)
		}
	}()

	for _, rec := range records {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO block_headers (block_number, block_hash, timestamp) VALUES (?, ?, ?)",
			rec.BlockNumber, rec.BlockHash, rec.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert block %d: %w", rec.BlockNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	blocksRecordedMetrics(len(records))
	a.log.Debugf("recorded block headers: from_block=%d to_block=%d count=%d",
		records[0].BlockNumber,
		records[len(records)-1].BlockNumber,
		len(records),
	)

	return nil
}

// GetBlock retrieves the stored header for a specific block number.
func (a *Archive) GetBlock(blockNumber uint64) (StoredBlock, error) {
	var block StoredBlock
	err := meddler.QueryRow(a.db, &block,
		"SELECT * FROM block_headers WHERE block_number = ?", blockNumber)
	if err != nil {
		return StoredBlock{}, err
	}
	return block, nil
}

// LastStoredBlock returns the highest block number in the archive, 0 when empty.
func (a *Archive) LastStoredBlock() (uint64, error) {
	var last sql.NullInt64
	err := a.db.QueryRow("SELECT MAX(block_number) FROM block_headers").Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to query last stored block: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64), nil
}

// PruneAfter removes headers above the given block number. Called after a
// reorganisation so stale headers never survive a restart.
func (a *Archive) PruneAfter(latestGoodBlock uint64) error {
	result, err := a.db.Exec(
		"DELETE FROM block_headers WHERE block_number > ?",
		latestGoodBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to prune blocks after %d: %w", latestGoodBlock, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		blocksPrunedMetrics(rowsAffected)
		a.log.Debugf("pruned reorged block headers: latest_good_block=%d deleted_count=%d",
			latestGoodBlock,
			rowsAffected,
		)
	}

	return nil
}

// PruneBefore removes headers below the given block number, enforcing the
// retention policy.
func (a *Archive) PruneBefore(keepFromBlock uint64) error {
	result, err := a.db.Exec(
		"DELETE FROM block_headers WHERE block_number < ?",
		keepFromBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to prune blocks before %d: %w", keepFromBlock, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		blocksPrunedMetrics(rowsAffected)
		a.log.Debugf("pruned old block headers: keep_from_block=%d deleted_count=%d",
			keepFromBlock,
			rowsAffected,
		)
	}

	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
