// Package tangle implements the rollback-aware distributed execution
// controller described in spec.md: the peer table, lifecycle state
// machine, wire dispatch, reentrancy serializer, and pacing loop that sit
// above a Time Machine and a Room transport.
package tangle

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triptych/tangle/config"
	"github.com/triptych/tangle/peerid"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/timemachine"
	"github.com/triptych/tangle/transport"
)

// Tangle is the coordinator. It owns the peer table, buffered-call queue,
// lifecycle state, and pacing bookkeeping exclusively (spec §3
// Ownership); the Time Machine and Room are held as collaborators.
type Tangle struct {
	machine timemachine.Machine
	room    transport.Room
	cfg     Config
	roomID  string
	self    peerid.PeerID

	serializer *Serializer
	log        zerolog.Logger

	mu                 sync.Mutex
	state              State
	peers              *PeerTable
	buffered           []BufferedCall
	pendingUnknownPeer map[peerid.PeerID][][]byte
	lastAppliedTS      *peerid.TimeStamp
	messageTimeOffset  float64
	lastPerformanceNow *float64
}

// Setup initializes a Tangle (spec §4.1) around an already-constructed
// Time Machine, which it does not configure: it derives a room name
// incorporating a hash of the module binary, wires Transport callbacks,
// and connects. Initial state is Disconnected; it
// only advances once the Room's state-change callback reports Connected.
func Setup(binary []byte, machine timemachine.Machine, room transport.Room, cfg Config) *Tangle {
	cfg = cfg.withDefaults()

	roomBase := cfg.RoomName
	if roomBase == "" {
		roomBase = config.GenerateRoomName()
	}
	roomID := config.RoomNameForBinary(roomBase, binary)

	tg := &Tangle{
		machine:    machine,
		room:       room,
		cfg:        cfg,
		roomID:     roomID,
		self:       room.MyID(),
		serializer: newSerializer(),
		log:        telemetry.For("tangle").With().Str("room", roomID).Str("session", uuid.NewString()).Logger(),
		state:      Disconnected,
		peers:      newPeerTable(),
	}

	tg.wireTransport()
	if err := room.Connect(); err != nil {
		tg.log.Warn().Err(err).Msg("room connect failed")
	}
	return tg
}

func (tg *Tangle) wireTransport() {
	tg.room.OnPeerJoined(tg.onPeerJoined)
	tg.room.OnPeerLeft(tg.onPeerLeft)
	tg.room.OnStateChange(tg.onRoomStateChange)
	tg.room.OnMessage(tg.onMessage)
}

func (tg *Tangle) nowMS() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}

// RoomName returns the fully qualified room name, including the
// binary-hash suffix, for use by a debug/status surface.
func (tg *Tangle) RoomName() string {
	return tg.roomID
}

// PeerCount returns the number of peers currently tracked.
func (tg *Tangle) PeerCount() int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.peers.len()
}

// CurrentTime returns the Time Machine's current simulation time.
func (tg *Tangle) CurrentTime() float64 {
	return tg.machine.CurrentSimulationTime()
}

// State returns the current lifecycle state as a string, for the debug
// HTTP surface (tangleweb.StatusSource).
func (tg *Tangle) State() string {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.state.String()
}

// Disconnect leaves the room. Further serialized tasks become no-ops
// against a dead Transport (spec §5).
func (tg *Tangle) Disconnect() error {
	return tg.room.Disconnect()
}
