package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"github.com/tradingstrategy-ai/reorgmon/internal/archive"
	"github.com/tradingstrategy-ai/reorgmon/internal/common"
	"github.com/tradingstrategy-ai/reorgmon/internal/config"
	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
	"github.com/tradingstrategy-ai/reorgmon/internal/metrics"
	"github.com/tradingstrategy-ai/reorgmon/internal/monitor"
	"github.com/tradingstrategy-ai/reorgmon/internal/rpc"
	pkgconfig "github.com/tradingstrategy-ai/reorgmon/pkg/config"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reorgmon",
	Short: "reorgmon - Blockchain reorganisation monitor",
	Long: `reorgmon keeps a local ledger of block headers synchronized against a live
chain, detects reorganisations by re-verifying a trailing window of block
hashes and resolves them by rolling the ledger back to the last good block.`,
	Version: version,
	RunE:    runMonitor,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	Long:  `Print a JSON Schema document describing the configuration file format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := jsonschema.Reflect(&pkgconfig.Config{})
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(schemaCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	// Initialize logger
	log := logger.NewComponentLoggerFromConfig(common.ComponentRunner, cfg.Logging)
	defer log.Close()

	// Initialize RPC client
	log.Infof("Connecting to node: %s", cfg.Monitor.RPCURL)
	client, err := rpc.NewClient(ctx, cfg.Monitor.RPCURL, cfg.Monitor.Retry)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}
	defer client.Close()

	source := rpc.NewJSONRPCBlockSource(client,
		logger.NewComponentLoggerFromConfig(common.ComponentBlockSource, cfg.Logging))

	mon := monitor.New(source,
		logger.NewComponentLoggerFromConfig(common.ComponentMonitor, cfg.Logging),
		cfg.Monitor.CheckDepth,
		cfg.Monitor.MaxCycleTries,
	)

	// Initialize metrics server if enabled
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(context.Background()); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	// Initialize the optional block-header archive
	var arch *archive.Archive
	if cfg.Archive != nil && cfg.Archive.Enabled {
		arch, err = archive.New(*cfg.Archive,
			logger.NewComponentLoggerFromConfig(common.ComponentArchive, cfg.Logging))
		if err != nil {
			return fmt.Errorf("failed to open block archive: %w", err)
		}
		defer arch.Close()
	}

	metrics.ComponentHealthSet(common.ComponentMonitor, true)
	defer metrics.ComponentHealthSet(common.ComponentMonitor, false)

	// Backfill the initial trailing window
	startBlock, endBlock, err := mon.LoadInitialData(ctx, cfg.Monitor.InitialBlockCount)
	if err != nil {
		return fmt.Errorf("failed to compute initial block range: %w", err)
	}

	log.Infof("Backfilling initial blocks %d-%d", startBlock, endBlock)
	for rec, err := range source.GetBlockData(ctx, startBlock, endBlock) {
		if err != nil {
			return fmt.Errorf("failed to backfill blocks: %w", err)
		}
		if err := mon.AddBlock(rec); err != nil {
			return fmt.Errorf("failed to seed ledger: %w", err)
		}
	}
	log.Infof("Ledger seeded: last_block_read=%d", mon.LastBlockRead())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pollLoop(gctx, log, cfg, mon, arch)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pollLoop runs UpdateChain on the configured interval and mirrors
// resolutions into the archive.
func pollLoop(
	ctx context.Context,
	log *logger.Logger,
	cfg *pkgconfig.Config,
	mon *monitor.Monitor,
	arch *archive.Archive,
) error {
	ticker := time.NewTicker(cfg.Monitor.PollInterval.Duration)
	defer ticker.Stop()

	lastArchived := uint64(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		res, err := mon.UpdateChain(ctx)
		if err != nil {
			return fmt.Errorf("chain reconciliation failed: %w", err)
		}

		if res.ReorgDetected {
			log.Warnf("Reorganisation resolved: last_block=%d latest_good_block=%d",
				res.LastBlockNumber, res.LatestGoodBlock)
		} else {
			log.Debugf("Chain reconciled: last_block=%d", res.LastBlockNumber)
		}

		if arch == nil {
			continue
		}

		if res.ReorgDetected {
			if err := arch.PruneAfter(res.LatestGoodBlock); err != nil {
				return err
			}
			if lastArchived > res.LatestGoodBlock {
				lastArchived = res.LatestGoodBlock
			}
		}

		from := max(lastArchived+1, mon.FirstBlock())
		if from > res.LastBlockNumber {
			continue
		}

		records, err := mon.BlockRange(from, res.LastBlockNumber)
		if err != nil {
			return fmt.Errorf("failed to read ledger range: %w", err)
		}
		if err := arch.RecordBlocks(records); err != nil {
			return err
		}
		lastArchived = res.LastBlockNumber

		if cfg.Archive.RetentionBlocks > 0 && res.LastBlockNumber > cfg.Archive.RetentionBlocks {
			if err := arch.PruneBefore(res.LastBlockNumber - cfg.Archive.RetentionBlocks); err != nil {
				return err
			}
		}
	}
}
