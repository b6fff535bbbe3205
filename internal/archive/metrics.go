package archive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reorgmon_archive_blocks_recorded_total",
			Help: "Total number of block headers written to the archive",
		},
	)

	blocksPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reorgmon_archive_blocks_pruned_total",
			Help: "Total number of block headers deleted from the archive",
		},
	)
)

func blocksRecordedMetrics(count int) {
	blocksRecorded.Add(float64(count))
}

func blocksPrunedMetrics(count int64) {
	blocksPruned.Add(float64(count))
}
