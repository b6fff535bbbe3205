package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorgmon_rpc_retries_total",
			Help: "Total number of RPC call retries",
		},
		[]string{"operation"},
	)

	rpcCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorgmon_rpc_calls_total",
			Help: "Total number of RPC calls issued",
		},
		[]string{"operation"},
	)
)

// RPCRetryInc increments the retry counter for an operation.
func RPCRetryInc(operation string) {
	rpcRetries.WithLabelValues(operation).Inc()
}

// RPCCallInc increments the call counter for an operation.
func RPCCallInc(operation string) {
	rpcCalls.WithLabelValues(operation).Inc()
}
