package tangle

import (
	"github.com/triptych/tangle/wire"
)

// requestHeap is spec §4.4: ping the lowest-latency peer to prime RTT,
// then ask it for a full state dump, and move to RequestingHeap. The
// caller is responsible for the no-peer case (spec §4.3's single-peer
// immediate Connected transition).
func (tg *Tangle) requestHeap() bool {
	peer, ok := tg.room.LowestLatencyPeer()
	if !ok {
		return false
	}

	ping := wire.EncodePing(wire.Ping{SentAtMS: tg.nowMS()})
	if err := tg.room.Send(ping, &peer); err != nil {
		tg.log.Warn().Err(err).Msg("ping send to heap source failed")
	}

	req := wire.EncodeRequestState()
	if err := tg.room.Send(req, &peer); err != nil {
		tg.log.Warn().Err(err).Msg("request_state send failed")
	}

	tg.setState(RequestingHeap)
	return true
}
