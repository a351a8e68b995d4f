package tangle

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/triptych/tangle/timemachine"
	"github.com/triptych/tangle/transport"
)

// appendMarkerAt returns a Func that appends value to a log kept at
// memory offset base (with its running length counter at counterAddr),
// so tests can observe the exact order the Time Machine applied calls
// in, independent of the order they were submitted.
func appendMarkerAt(counterAddr, base uint32, value float64) timemachine.Func {
	return func(mem *timemachine.Memory, args []float64) []float64 {
		count := mem.ReadFloat64(counterAddr)
		mem.WriteFloat64(base+uint32(count)*8, value)
		mem.WriteFloat64(counterAddr, count+1)
		return nil
	}
}

const (
	logCounterAddr = 192
	logBaseAddr    = 200
)

// newOrderingMachine builds an Interpreter with "f" and "g" registered in
// a fixed order, each appending a distinct marker to a shared log so a
// test can assert the applied order reflects (time, player_id), not
// arrival order.
func newOrderingMachine(fixed *time.Duration) *timemachine.Interpreter {
	m := timemachine.NewInterpreter(512, fixed)
	m.Register("f", appendMarkerAt(logCounterAddr, logBaseAddr, 100))
	m.Register("g", appendMarkerAt(logCounterAddr, logBaseAddr, 200))
	m.Register("peer_left", func(mem *timemachine.Memory, args []float64) []float64 {
		mem.WriteFloat64(400, args[0])
		return nil
	})
	return m
}

func readF64(tg *Tangle, addr uint32) float64 {
	b, err := tg.ReadMemory(addr, 8)
	if err != nil {
		panic(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func logLength(tg *Tangle) int {
	return int(readF64(tg, logCounterAddr))
}

func logEntry(tg *Tangle, i int) float64 {
	return readF64(tg, logBaseAddr+uint32(i)*8)
}

// connectedPair returns two Loopback rooms joined to the same Hub, both
// already Connected.
func connectedPair() (*transport.Hub, *transport.Loopback, *transport.Loopback) {
	hub := transport.NewHub()
	a := transport.NewLoopback(hub)
	b := transport.NewLoopback(hub)
	return hub, a, b
}

// rollbackCount reads the current value of tangle_sim_rollbacks_total for
// room off the default Prometheus registry that telemetry.RecordRollback
// registers into, so tests can assert the metric was actually incremented
// rather than just inferring it from the reordered history it reports on.
func rollbackCount(t *testing.T, room string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "tangle_sim_rollbacks_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "room" && l.GetValue() == room {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
