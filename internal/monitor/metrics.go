package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reorgsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reorgmon_reorgs_detected_total",
			Help: "Total number of blockchain reorganisations detected",
		},
	)

	reorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reorgmon_reorg_depth_blocks",
			Help:    "Depth of blockchain reorganisations in blocks",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	reorgLastDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reorgmon_reorg_last_detected_timestamp",
			Help: "Unix timestamp of last reorg detection",
		},
	)

	blocksIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reorgmon_blocks_ingested_total",
			Help: "Total number of blocks appended to the ledger",
		},
	)

	lastBlockRead = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reorgmon_last_block_read",
			Help: "Highest block number currently in the ledger",
		},
	)

	resolutionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reorgmon_resolution_failures_total",
			Help: "Total number of UpdateChain calls that exhausted the retry budget",
		},
	)

	reorgFromBlock = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reorgmon_reorg_from_block",
			Help:    "Block numbers where reorgs started",
			Buckets: []float64{0, 1000000, 3000000, 5000000, 7000000, 9000000, 10000000},
		},
	)
)

func reorgDetectedMetrics(depth, fromBlock uint64) {
	reorgsDetected.Inc()
	reorgDepth.Observe(float64(depth))
	reorgLastDetected.Set(float64(time.Now().UTC().Unix()))
	reorgFromBlock.Observe(float64(fromBlock))
}

func blockIngestedMetrics(blockNumber uint64) {
	blocksIngested.Inc()
	lastBlockRead.Set(float64(blockNumber))
}

func lastBlockReadMetrics(blockNumber uint64) {
	lastBlockRead.Set(float64(blockNumber))
}
