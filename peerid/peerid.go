// Package peerid defines the opaque, totally-ordered peer identifier and the
// logical timestamp the Time Machine uses as its total execution order key.
package peerid

import (
	"encoding/binary"
	"strconv"

	"github.com/rs/xid"
)

// PeerID is an opaque, totally-ordered identifier for a room participant.
// It supports subtraction to a signed distance, used only for "closest peer"
// election tie-breaks (see the tangle package's successor) and as a map key.
//
// Values are derived from an xid (a 12-byte, roughly-sortable unique ID) by
// taking its low 8 bytes as a big-endian int64. Those bytes hold xid's
// machine id, process id and per-process counter; its 4-byte seconds
// timestamp is dropped. IDs generated on one process therefore compare in
// generation order until the 3-byte counter wraps, and any two IDs compare
// consistently on every peer, which is all the election rule in spec.md
// §4.3 actually needs.
type PeerID int64

// New generates a fresh PeerID. Safe for concurrent use (xid.New is).
func New() PeerID {
	id := xid.New()
	b := id.Bytes()
	return PeerID(int64(binary.BigEndian.Uint64(b[4:12])))
}

// Distance returns p - other as a signed int64, per spec.md §3.
func (p PeerID) Distance(other PeerID) int64 {
	return int64(p) - int64(other)
}

func (p PeerID) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// TimeStamp is the Time Machine's total execution order key: ties on Time
// are broken by PlayerID, per spec.md §3.
type TimeStamp struct {
	Time     float64
	PlayerID PeerID
}

// Less reports whether ts sorts strictly before other under the (time,
// player_id) total order spec.md §5 requires.
func (ts TimeStamp) Less(other TimeStamp) bool {
	if ts.Time != other.Time {
		return ts.Time < other.Time
	}
	return ts.PlayerID < other.PlayerID
}
