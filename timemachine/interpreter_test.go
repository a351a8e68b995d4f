package timemachine

import (
	"testing"
	"time"

	"github.com/triptych/tangle/peerid"
)

func newCounterInterpreter() (*Interpreter, uint32) {
	it := NewInterpreter(64, nil)
	idx := it.Register("add", func(mem *Memory, args []float64) []float64 {
		mem.WriteFloat64(0, mem.ReadFloat64(0)+args[0])
		return nil
	})
	return it, idx
}

func TestDeterminismRegardlessOfArrivalOrder(t *testing.T) {
	a, idxA := newCounterInterpreter()
	b, idxB := newCounterInterpreter()
	if idxA != idxB {
		t.Fatalf("expected identical indices from identical registration order")
	}

	calls := []peerid.TimeStamp{
		{Time: 10, PlayerID: 1},
		{Time: 30, PlayerID: 1},
		{Time: 20, PlayerID: 2},
		{Time: 5, PlayerID: 3},
	}

	// Peer A applies in the order given.
	for _, ts := range calls {
		if err := a.Execute(idxA, []float64{1}, ts, true); err != nil {
			t.Fatalf("a.Execute: %v", err)
		}
	}
	// Peer B applies in reverse arrival order — out-of-order relative to time.
	for i := len(calls) - 1; i >= 0; i-- {
		if err := b.Execute(idxB, []float64{1}, calls[i], true); err != nil {
			t.Fatalf("b.Execute: %v", err)
		}
	}

	memA, _ := a.ReadMemory(0, 8)
	memB, _ := b.ReadMemory(0, 8)
	if string(memA) != string(memB) {
		t.Fatalf("peers diverged: %x vs %x", memA, memB)
	}
	if bytesToFloat64(memA) != 4 {
		t.Fatalf("expected counter 4, got %v", bytesToFloat64(memA))
	}
}

func TestLateArrivalTriggersRollbackReorder(t *testing.T) {
	// Mirrors spec.md S3: A executes f@100 first, then receives g@90 late.
	it := NewInterpreter(64, nil)
	var order []string
	record := func(tag string) Func {
		return func(mem *Memory, args []float64) []float64 {
			order = append(order, tag)
			return nil
		}
	}
	fIdx := it.Register("f", record("f"))
	gIdx := it.Register("g", record("g"))

	if err := it.Execute(fIdx, nil, peerid.TimeStamp{Time: 100, PlayerID: 1}, true); err != nil {
		t.Fatalf("execute f: %v", err)
	}
	if err := it.Execute(gIdx, nil, peerid.TimeStamp{Time: 90, PlayerID: 2}, true); err != nil {
		t.Fatalf("execute g: %v", err)
	}

	if len(order) != 2 || order[0] != "g" || order[1] != "f" {
		t.Fatalf("expected replay order [g f], got %v", order)
	}
}

func TestPruningRejectsCallBeforeWatermark(t *testing.T) {
	it, idx := newCounterInterpreter()
	if err := it.Execute(idx, []float64{1}, peerid.TimeStamp{Time: 100, PlayerID: 1}, true); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := it.RemoveHistoryBefore(50); err != nil {
		t.Fatalf("prune: %v", err)
	}
	err := it.Execute(idx, []float64{1}, peerid.TimeStamp{Time: 10, PlayerID: 2}, true)
	if err != ErrHistoryPruned {
		t.Fatalf("expected ErrHistoryPruned, got %v", err)
	}
}

func TestCallAndRevertDoesNotMutateState(t *testing.T) {
	it, idx := newCounterInterpreter()
	if err := it.Execute(idx, []float64{5}, peerid.TimeStamp{Time: 1, PlayerID: 1}, true); err != nil {
		t.Fatalf("execute: %v", err)
	}
	before, _ := it.ReadMemory(0, 8)

	if _, err := it.CallAndRevert(idx, []float64{1000}); err != nil {
		t.Fatalf("call and revert: %v", err)
	}

	after, _ := it.ReadMemory(0, 8)
	if string(before) != string(after) {
		t.Fatalf("CallAndRevert mutated committed state")
	}
}

func TestStepFixedIntervalBudget(t *testing.T) {
	interval := 10 * time.Millisecond
	it := NewInterpreter(8, &interval)
	it.ProgressTime(35)

	ticks := 0
	for it.Step() {
		ticks++
		if ticks > 10 {
			t.Fatalf("Step never converged")
		}
	}
	if it.CurrentSimulationTime() != 35 {
		t.Fatalf("expected current time 35, got %v", it.CurrentSimulationTime())
	}
	if ticks != 3 {
		t.Fatalf("expected 3 intermediate ticks before the final false, got %d", ticks)
	}
}

func TestStepVariableModeCollapsesImmediately(t *testing.T) {
	it := NewInterpreter(8, nil)
	it.ProgressTime(1000)
	if more := it.Step(); more {
		t.Fatalf("variable-step Step() should report no more work")
	}
	if it.CurrentSimulationTime() != 1000 {
		t.Fatalf("expected current time 1000, got %v", it.CurrentSimulationTime())
	}
}

func TestEncodeDecodeRoundTripPreservesState(t *testing.T) {
	src, idx := newCounterInterpreter()
	for i := 0; i < 5; i++ {
		if err := src.Execute(idx, []float64{1}, peerid.TimeStamp{Time: float64(i), PlayerID: 1}, true); err != nil {
			t.Fatalf("execute: %v", err)
		}
	}

	blob, err := src.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	dst := NewInterpreter(64, nil)
	dst.Register("add", func(mem *Memory, args []float64) []float64 {
		mem.WriteFloat64(0, mem.ReadFloat64(0)+args[0])
		return nil
	})
	if err := dst.DecodeAndApply(blob); err != nil {
		t.Fatalf("decode: %v", err)
	}

	srcMem, _ := src.ReadMemory(0, 8)
	dstMem, _ := dst.ReadMemory(0, 8)
	if string(srcMem) != string(dstMem) {
		t.Fatalf("decoded state mismatch: %x vs %x", dstMem, srcMem)
	}
}
