// Package timemachine defines the deterministic execution engine interface
// the Tangle coordinator consumes (spec.md §6) and a small in-process
// reference implementation used by tests and the demo CLI. The snapshotting
// and rollback internals of a real Time Machine (and its module loader) are
// out of scope for the Tangle coordinator itself — this package exists only
// so the coordinator has something to drive.
package timemachine

import (
	"time"

	"github.com/triptych/tangle/peerid"
)

// Machine is the deterministic execution engine interface the Tangle
// coordinator consumes, per spec.md §6.
type Machine interface {
	// ResolveFunction maps an exported function name to its index.
	ResolveFunction(name string) (index uint32, ok bool)
	// FunctionName is the inverse of ResolveFunction, used for logging.
	FunctionName(index uint32) (name string, ok bool)

	// Execute rolls back and re-applies history as needed to keep all
	// applied calls in (time, player_id) order.
	Execute(index uint32, args []float64, ts peerid.TimeStamp, authoritative bool) error
	// CallAndRevert executes speculatively against current state without
	// committing to history or requiring network propagation.
	CallAndRevert(index uint32, args []float64) ([]float64, error)

	// ProgressTime advances the target simulation time by deltaMS.
	ProgressTime(deltaMS float64)
	// Step executes one fixed-interval tick (or collapses straight to
	// target time in variable-step mode) and reports whether more work
	// remains before CurrentSimulationTime reaches TargetTime.
	Step() bool
	// TakeSnapshot records the current state for later rollback/transfer.
	TakeSnapshot()
	// RemoveHistoryBefore discards history and snapshots strictly before t.
	RemoveHistoryBefore(t float64) error

	TargetTime() float64
	CurrentSimulationTime() float64
	FixedUpdateInterval() (time.Duration, bool)

	// Encode serializes the complete machine state ("the heap").
	Encode() ([]byte, error)
	// DecodeAndApply replaces the machine's state with a decoded heap.
	DecodeAndApply(data []byte) error

	ReadMemory(addr, length uint32) ([]byte, error)
	ReadString(addr, length uint32) (string, error)
}
