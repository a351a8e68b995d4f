package tangle

import "testing"

// TestKeepAliveAdvancesPeerWatermarkWithoutMutatingLastSent covers spec
// §8 scenario S6: a peer with nothing new to send still periodically
// hints its current target time so the other side's pruning watermark
// keeps advancing, and that hint alone does not mutate last_sent_message
// (only the call path does, per spec §4.6 step 7).
func TestKeepAliveAdvancesPeerWatermarkWithoutMutatingLastSent(t *testing.T) {
	hub, roomA, roomB := connectedPair()
	machineA := newOrderingMachine(nil)
	machineB := newOrderingMachine(nil)

	tgA := Setup([]byte("bin"), machineA, roomA, Config{RoomName: "s6"})
	tgB := Setup([]byte("bin"), machineB, roomB, Config{RoomName: "s6"})
	_ = hub

	machineA.ProgressTime(1000)

	tgA.mu.Lock()
	recOnA, ok := tgA.peers.get(roomB.MyID())
	tgA.mu.Unlock()
	if !ok {
		t.Fatal("B not installed in A's peer table")
	}
	recOnA.LastSentMessage = 0

	tgA.sendKeepAlives()

	if got := recOnA.LastSentMessage; got != 0 {
		t.Fatalf("last_sent_message = %v, want unchanged 0 (keep-alive must not mutate it)", got)
	}

	tgB.mu.Lock()
	recOnB, ok := tgB.peers.get(roomA.MyID())
	tgB.mu.Unlock()
	if !ok {
		t.Fatal("A not installed in B's peer table")
	}
	if got := recOnB.LastReceivedMessage; got != 1000 {
		t.Fatalf("B's last_received_message from A = %v, want 1000", got)
	}
}
