package tangle

import (
	"math"
	"time"

	"github.com/triptych/tangle/peerid"
)

// PeerRecord tracks per-peer liveness and latency bookkeeping. It is
// mutated only inside the Serializer lane (spec §4.2/§5).
type PeerRecord struct {
	LastSentMessage     float64
	LastReceivedMessage float64
	RoundTripTime       time.Duration
}

// newPeerRecord creates the record installed on peer-joined: no upper
// bound is known yet on what this peer has received, so pruning must not
// yet assume anything on its behalf.
func newPeerRecord() PeerRecord {
	return PeerRecord{
		LastSentMessage:     0,
		LastReceivedMessage: math.Inf(1),
		RoundTripTime:       0,
	}
}

// PeerTable is the Tangle's exclusively-owned map from peer identity to
// liveness state (spec §3 Ownership).
type PeerTable struct {
	records map[peerid.PeerID]*PeerRecord
}

func newPeerTable() *PeerTable {
	return &PeerTable{records: make(map[peerid.PeerID]*PeerRecord)}
}

func (t *PeerTable) install(id peerid.PeerID) *PeerRecord {
	rec := newPeerRecord()
	t.records[id] = &rec
	return &rec
}

func (t *PeerTable) remove(id peerid.PeerID) {
	delete(t.records, id)
}

func (t *PeerTable) get(id peerid.PeerID) (*PeerRecord, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

func (t *PeerTable) len() int {
	return len(t.records)
}

// ids returns every currently tracked peer id, order unspecified.
func (t *PeerTable) ids() []peerid.PeerID {
	out := make([]peerid.PeerID, 0, len(t.records))
	for id := range t.records {
		out = append(out, id)
	}
	return out
}

// forEach iterates the table; fn must not mutate the table itself.
func (t *PeerTable) forEach(fn func(id peerid.PeerID, rec *PeerRecord)) {
	for id, rec := range t.records {
		fn(id, rec)
	}
}

// minLastReceivedMessage returns the minimum last_received_message across
// every tracked peer, used to compute the pruning watermark (spec §4.6
// step 6). The empty-table case returns +Inf (no peer constrains pruning).
func (t *PeerTable) minLastReceivedMessage() float64 {
	min := math.Inf(1)
	for _, rec := range t.records {
		if rec.LastReceivedMessage < min {
			min = rec.LastReceivedMessage
		}
	}
	return min
}
