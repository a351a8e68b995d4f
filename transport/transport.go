// Package transport defines the per-peer ordered datagram transport the
// Tangle coordinator consumes (spec.md §6) — the "Room" — and a small
// in-process reference implementation for tests and the demo CLI. Real
// signaling, NAT traversal, and reliable/ordered delivery are out of scope
// for the Tangle coordinator itself (spec.md §1).
package transport

import "github.com/triptych/tangle/peerid"

// State mirrors spec.md's Room.State.
type State int

const (
	StateDisconnected State = iota
	StateJoining
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateJoining:
		return "Joining"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Room is the transport interface the Tangle coordinator consumes, per
// spec.md §6: "setup(config, utils); send_message(bytes, peer?);
// get_lowest_latency_peer() -> PeerId?; my_id -> PeerId; disconnect()."
// with callbacks on_peer_joined, on_peer_left, on_state_change, on_message.
type Room interface {
	// MyID returns this process's PeerID within the room.
	MyID() peerid.PeerID

	// Connect joins the room. Peer-joined and state-change callbacks may
	// fire synchronously from within this call (spec.md §4.1 step 3).
	Connect() error

	// Send transmits payload to a specific peer, or broadcasts to all
	// peers in the room when peer is nil.
	Send(payload []byte, peer *peerid.PeerID) error

	// LowestLatencyPeer returns the peer with the lowest measured RTT, if any.
	LowestLatencyPeer() (peerid.PeerID, bool)

	// Disconnect leaves the room. Idempotent.
	Disconnect() error

	// OnPeerJoined registers the callback invoked when a peer joins.
	OnPeerJoined(func(peerid.PeerID))
	// OnPeerLeft registers the callback invoked when a peer leaves.
	OnPeerLeft(func(peerid.PeerID))
	// OnStateChange registers the callback invoked on room state transitions.
	OnStateChange(func(State))
	// OnMessage registers the callback invoked for each inbound datagram.
	OnMessage(func(from peerid.PeerID, payload []byte))
}
