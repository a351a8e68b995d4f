package tangle

import (
	"testing"

	"github.com/triptych/tangle/transport"
)

// TestSingleTangleBoot covers spec §8 scenario S1: a lone peer connects to
// an otherwise empty room, sees no peers, and transitions straight to
// Connected without ever requesting a heap.
func TestSingleTangleBoot(t *testing.T) {
	hub := transport.NewHub()
	room := transport.NewLoopback(hub)
	machine := newOrderingMachine(nil)

	var states []State
	tg := Setup([]byte("module-binary"), machine, room, Config{
		RoomName:      "s1",
		OnStateChange: func(s State) { states = append(states, s) },
	})

	if got := tg.State(); got != Connected.String() {
		t.Fatalf("state = %q, want %q", got, Connected.String())
	}
	if len(states) != 1 || states[0] != Connected {
		t.Fatalf("state transitions = %v, want [Connected]", states)
	}
	if tg.PeerCount() != 0 {
		t.Fatalf("peer count = %d, want 0", tg.PeerCount())
	}

	tg.Call("f")

	if got := logLength(tg); got != 1 {
		t.Fatalf("log length = %d, want 1", got)
	}
	if got := logEntry(tg, 0); got != 100 {
		t.Fatalf("log[0] = %v, want 100", got)
	}
}

// TestTwoPeerConvergence covers spec §8 scenario S2: the second peer to
// join a non-empty room requests a heap from the first before reaching
// Connected, and both tangles end up with a populated peer table.
func TestTwoPeerConvergence(t *testing.T) {
	hub, roomA, roomB := connectedPair()

	machineA := newOrderingMachine(nil)
	machineB := newOrderingMachine(nil)

	var statesA, statesB []State
	tgA := Setup([]byte("bin"), machineA, roomA, Config{
		RoomName:      "s2",
		OnStateChange: func(s State) { statesA = append(statesA, s) },
	})
	tgA.Call("f")
	tgB := Setup([]byte("bin"), machineB, roomB, Config{
		RoomName:      "s2",
		OnStateChange: func(s State) { statesB = append(statesB, s) },
	})

	if tgA.PeerCount() != 1 {
		t.Fatalf("peer count on A = %d, want 1", tgA.PeerCount())
	}
	if tgB.PeerCount() != 1 {
		t.Fatalf("peer count on B = %d, want 1", tgB.PeerCount())
	}
	if got := tgB.State(); got != Connected.String() {
		t.Fatalf("B state = %q, want %q", got, Connected.String())
	}
	if len(statesB) == 0 || statesB[len(statesB)-1] != Connected {
		t.Fatalf("B transitions = %v, want to end at Connected", statesB)
	}

	if got := logLength(tgB); got != 1 || logEntry(tgB, 0) != 100 {
		t.Fatalf("B's replayed log = len %d entry0 %v, want len 1 entry0 100", logLength(tgB), logEntry(tgB, 0))
	}
	_ = hub
}
