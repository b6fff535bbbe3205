package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var startTime = time.Now()

var (
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reorgmon_uptime_seconds",
			Help: "Time since the process started",
		},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reorgmon_goroutines",
			Help: "Current number of goroutines",
		},
	)

	componentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reorgmon_component_health",
			Help: "Component health status (1 = healthy, 0 = down)",
		},
		[]string{"component"},
	)
)

// ComponentHealthSet marks a component as healthy or down.
func ComponentHealthSet(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	componentHealth.WithLabelValues(component).Set(value)
}

// updateSystemMetrics refreshes the process-level gauges.
func updateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))
}
