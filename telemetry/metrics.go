package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	callsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tangle",
			Subsystem: "sim",
			Name:      "calls_executed_total",
			Help:      "WasmCall executions applied to the Time Machine, by origin.",
		},
		[]string{"room", "origin"},
	)
	rollbacksTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tangle",
			Subsystem: "sim",
			Name:      "rollbacks_total",
			Help:      "Late-arriving calls that forced a history reorder.",
		},
		[]string{"room"},
	)
	historyWatermark = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tangle",
			Subsystem: "sim",
			Name:      "history_pruned_before_seconds",
			Help:      "Simulation time before which history has been pruned and can no longer be rolled back into.",
		},
		[]string{"room"},
	)
	simulationTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tangle",
			Subsystem: "sim",
			Name:      "current_time_seconds",
			Help:      "Current simulation time as last observed by the pacing loop.",
		},
		[]string{"room"},
	)
	peerRTT = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tangle",
			Subsystem: "peer",
			Name:      "round_trip_time_seconds",
			Help:      "Last measured round trip time to a peer.",
		},
		[]string{"room", "peer"},
	)
	peerCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tangle",
			Subsystem: "peer",
			Name:      "connected_total",
			Help:      "Number of peers currently tracked in the peer table.",
		},
		[]string{"room"},
	)
	requestHeapEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tangle",
			Subsystem: "lifecycle",
			Name:      "request_heap_total",
			Help:      "RequestState/SetHeap handshakes, by outcome.",
		},
		[]string{"room", "outcome"},
	)
)

// RegisterMetrics registers every collector with the default Prometheus
// registry exactly once, matching the teacher's RegisterMetrics() pattern.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			callsExecuted,
			rollbacksTriggered,
			historyWatermark,
			simulationTime,
			peerRTT,
			peerCount,
			requestHeapEvents,
		)
	})
}

func RecordCallExecuted(room, origin string) {
	RegisterMetrics()
	callsExecuted.WithLabelValues(room, origin).Inc()
}

func RecordRollback(room string) {
	RegisterMetrics()
	rollbacksTriggered.WithLabelValues(room).Inc()
}

func SetHistoryWatermark(room string, prunedBefore float64) {
	RegisterMetrics()
	// Simulation time is in milliseconds; the gauge is in seconds.
	historyWatermark.WithLabelValues(room).Set(prunedBefore / 1000)
}

func SetSimulationTime(room string, t float64) {
	RegisterMetrics()
	simulationTime.WithLabelValues(room).Set(t / 1000)
}

func SetPeerRTT(room, peer string, rtt time.Duration) {
	RegisterMetrics()
	peerRTT.WithLabelValues(room, peer).Set(rtt.Seconds())
}

func SetPeerCount(room string, n int) {
	RegisterMetrics()
	peerCount.WithLabelValues(room).Set(float64(n))
}

func RecordRequestHeapEvent(room string, success bool) {
	RegisterMetrics()
	requestHeapEvents.WithLabelValues(room, strconv.FormatBool(success)).Inc()
}
