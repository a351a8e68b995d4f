package transport

import (
	"errors"
	"sync"

	"github.com/triptych/tangle/peerid"
)

// ErrPeerNotFound is returned by Send when targeting a peer no longer in the room.
var ErrPeerNotFound = errors.New("transport: peer not found")

// Hub is an in-process message bus shared by every Loopback room member,
// standing in for real signaling + reliable ordered delivery.
type Hub struct {
	mu      sync.Mutex
	members map[peerid.PeerID]*Loopback
	order   []peerid.PeerID
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{members: make(map[peerid.PeerID]*Loopback)}
}

// Loopback is a reference Room implementation backed by a Hub. Delivery is
// synchronous and ordered per sender, which satisfies spec.md's "ordered
// reliable datagrams" requirement trivially for tests and demos.
type Loopback struct {
	hub *Hub
	id  peerid.PeerID

	mu      sync.Mutex
	state   State
	latency map[peerid.PeerID]float64

	onJoined  func(peerid.PeerID)
	onLeft    func(peerid.PeerID)
	onState   func(State)
	onMessage func(peerid.PeerID, []byte)
}

// NewLoopback registers a new, not-yet-connected room member with hub.
func NewLoopback(hub *Hub) *Loopback {
	return &Loopback{
		hub:     hub,
		id:      peerid.New(),
		state:   StateDisconnected,
		latency: make(map[peerid.PeerID]float64),
	}
}

// Connect joins the hub, exchanging peer-joined notifications with every
// already-connected member, then transitions this member to Connected.
// Peer-joined notifications fire before the state-change notification so
// that a Room consumer which inspects its peer table on state-change
// (as the Tangle coordinator does) always sees a fully populated table.
func (l *Loopback) Connect() error {
	l.hub.mu.Lock()
	existing := append([]peerid.PeerID(nil), l.hub.order...)
	l.hub.members[l.id] = l
	l.hub.order = append(l.hub.order, l.id)
	l.hub.mu.Unlock()

	for _, otherID := range existing {
		other := l.hub.lookup(otherID)
		if other == nil {
			continue
		}
		other.fireJoined(l.id)
		l.fireJoined(otherID)
	}

	l.setState(StateConnected)
	return nil
}

func (h *Hub) lookup(id peerid.PeerID) *Loopback {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.members[id]
}

func (l *Loopback) fireJoined(id peerid.PeerID) {
	l.mu.Lock()
	cb := l.onJoined
	l.mu.Unlock()
	if cb != nil {
		cb(id)
	}
}

func (l *Loopback) setState(s State) {
	l.mu.Lock()
	l.state = s
	cb := l.onState
	l.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (l *Loopback) MyID() peerid.PeerID { return l.id }

func (l *Loopback) Send(payload []byte, peer *peerid.PeerID) error {
	cp := append([]byte(nil), payload...)
	if peer != nil {
		target := l.hub.lookup(*peer)
		if target == nil {
			return ErrPeerNotFound
		}
		target.deliver(l.id, cp)
		return nil
	}
	l.hub.mu.Lock()
	targets := append([]peerid.PeerID(nil), l.hub.order...)
	l.hub.mu.Unlock()
	for _, id := range targets {
		if id == l.id {
			continue
		}
		if t := l.hub.lookup(id); t != nil {
			t.deliver(l.id, append([]byte(nil), cp...))
		}
	}
	return nil
}

func (l *Loopback) deliver(from peerid.PeerID, payload []byte) {
	l.mu.Lock()
	cb := l.onMessage
	l.mu.Unlock()
	if cb != nil {
		cb(from, payload)
	}
}

// SetLatency records a simulated one-way latency figure used only to bias
// LowestLatencyPeer in tests; it has no effect on delivery timing.
func (l *Loopback) SetLatency(peer peerid.PeerID, ms float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latency[peer] = ms
}

func (l *Loopback) LowestLatencyPeer() (peerid.PeerID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hub.mu.Lock()
	candidates := append([]peerid.PeerID(nil), l.hub.order...)
	l.hub.mu.Unlock()

	var (
		best    peerid.PeerID
		bestSet bool
		bestMS  float64
	)
	for _, id := range candidates {
		if id == l.id {
			continue
		}
		ms, known := l.latency[id]
		if !known {
			ms = 0
		}
		if !bestSet || ms < bestMS {
			best, bestMS, bestSet = id, ms, true
		}
	}
	return best, bestSet
}

func (l *Loopback) Disconnect() error {
	l.hub.mu.Lock()
	_, member := l.hub.members[l.id]
	l.hub.mu.Unlock()
	if !member {
		return nil
	}
	l.setState(StateDisconnected)
	l.hub.mu.Lock()
	delete(l.hub.members, l.id)
	for i, id := range l.hub.order {
		if id == l.id {
			l.hub.order = append(l.hub.order[:i], l.hub.order[i+1:]...)
			break
		}
	}
	remaining := append([]peerid.PeerID(nil), l.hub.order...)
	l.hub.mu.Unlock()

	for _, id := range remaining {
		if other := l.hub.lookup(id); other != nil {
			other.fireLeft(l.id)
		}
	}
	return nil
}

func (l *Loopback) fireLeft(id peerid.PeerID) {
	l.mu.Lock()
	cb := l.onLeft
	l.mu.Unlock()
	if cb != nil {
		cb(id)
	}
}

func (l *Loopback) OnPeerJoined(fn func(peerid.PeerID)) {
	l.mu.Lock()
	l.onJoined = fn
	l.mu.Unlock()
}

func (l *Loopback) OnPeerLeft(fn func(peerid.PeerID)) {
	l.mu.Lock()
	l.onLeft = fn
	l.mu.Unlock()
}

func (l *Loopback) OnStateChange(fn func(State)) {
	l.mu.Lock()
	l.onState = fn
	l.mu.Unlock()
}

func (l *Loopback) OnMessage(fn func(peerid.PeerID, []byte)) {
	l.mu.Lock()
	l.onMessage = fn
	l.mu.Unlock()
}

var _ Room = (*Loopback)(nil)
