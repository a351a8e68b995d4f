package tangle

import (
	"time"

	"github.com/triptych/tangle/peerid"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/transport"
	"github.com/triptych/tangle/wire"
)

// onPeerJoined is spec §4.3: install a PeerRecord and ping the newcomer.
func (tg *Tangle) onPeerJoined(id peerid.PeerID) {
	tg.serializer.Run(func() {
		tg.mu.Lock()
		rec := tg.peers.install(id)
		pending := tg.pendingUnknownPeer[id]
		delete(tg.pendingUnknownPeer, id)
		tg.mu.Unlock()

		telemetry.SetPeerCount(tg.roomID, tg.PeerCount())

		ping := wire.EncodePing(wire.Ping{SentAtMS: tg.nowMS()})
		if err := tg.room.Send(ping, &id); err != nil {
			tg.log.Warn().Err(err).Str("peer", id.String()).Msg("ping to new peer failed")
		}

		// Replay anything that arrived from this peer before its join was
		// installed and survived the bounded join-race retry in
		// dispatchMessage (see bufferOrDropUnknownPeerMessage).
		for _, payload := range pending {
			tg.handleMessage(id, rec, payload)
		}
	})
}

// onPeerLeft is spec §4.3: remove the record, then run the deterministic
// election so exactly one remaining peer (possibly self) invokes the
// module's peer_left export.
func (tg *Tangle) onPeerLeft(id peerid.PeerID) {
	tg.serializer.Run(func() {
		tg.mu.Lock()
		tg.peers.remove(id)
		remaining := append(tg.peers.ids(), tg.self)
		tg.mu.Unlock()

		telemetry.SetPeerCount(tg.roomID, len(remaining)-1)

		if !isResponsibleForDeparture(remaining, id, tg.self) {
			return
		}
		index, ok := tg.machine.ResolveFunction("peer_left")
		if !ok {
			return
		}
		ts := tg.nextLocalTimeStamp()
		if err := tg.machine.Execute(index, []float64{float64(id)}, ts, true); err != nil {
			tg.log.Warn().Err(err).Str("departed", id.String()).Msg("peer_left execute failed")
		}
	})
}

// onRoomStateChange is spec §4.3's on_state_change handler.
func (tg *Tangle) onRoomStateChange(s transport.State) {
	tg.serializer.Run(func() {
		switch s {
		case transport.StateConnected:
			tg.mu.Lock()
			empty := tg.peers.len() == 0
			tg.mu.Unlock()
			if empty {
				tg.setState(Connected)
				return
			}
			if !tg.requestHeap() {
				tg.setState(Connected)
			}
		default: // Joining or Disconnected
			tg.setState(Disconnected)
		}
	})
}

// onMessage is spec §4.3's on_message dispatcher. Messages from a peer
// whose PeerRecord has not yet been installed are requeued onto the
// serializer a bounded number of times, approximating the join-race
// handling spec §4.2's enqueue_condition describes; once that retry is
// exhausted, bufferOrDropUnknownPeerMessage decides whether the message
// can be dropped or must be buffered for replay (see DESIGN.md).
func (tg *Tangle) onMessage(from peerid.PeerID, payload []byte) {
	tg.dispatchMessage(from, payload, 0)
}

const maxJoinRaceRetries = 8

// maxBufferedUnknownPeerMsgs bounds the per-peer backlog
// bufferOrDropUnknownPeerMessage accumulates while waiting for
// onPeerJoined. A peer that never actually joins (it departed, or the
// sender is spoofed) would otherwise grow this unbounded.
const maxBufferedUnknownPeerMsgs = 64

func (tg *Tangle) dispatchMessage(from peerid.PeerID, payload []byte, retry int) {
	tg.serializer.Run(func() {
		tg.mu.Lock()
		rec, known := tg.peers.get(from)
		tg.mu.Unlock()

		if !known {
			if retry < maxJoinRaceRetries {
				tg.dispatchMessage(from, payload, retry+1)
				return
			}
			tg.bufferOrDropUnknownPeerMessage(from, payload)
			return
		}

		tg.handleMessage(from, rec, payload)
	})
}

// bufferOrDropUnknownPeerMessage runs once the bounded join-race retry
// above is exhausted and the sender still has no installed PeerRecord.
// Liveness traffic (Ping/Pong/TimeProgressed) is dropped outright: losing
// one doesn't desync the Time Machine, and the next keep-alive cadence
// recovers the same data. Everything else reaches or mutates machine
// state (WasmCall, SetHeap, RequestState, and the reserved SetProgram),
// so dropping it after a bounded retry would let a peer diverge
// permanently under a real transport where onPeerJoined's install task
// can itself be delayed behind other serializer work. Those are buffered
// per sender instead and replayed, in arrival order, once onPeerJoined
// installs that peer.
func (tg *Tangle) bufferOrDropUnknownPeerMessage(from peerid.PeerID, payload []byte) {
	kind, err := wire.PeekKind(payload)
	if err != nil {
		tg.log.Warn().Err(err).Str("peer", from.String()).Msg("malformed datagram from unknown peer dropped")
		return
	}

	switch kind {
	case wire.KindPing, wire.KindPong, wire.KindTimeProgressed:
		tg.log.Warn().Str("peer", from.String()).Msg("liveness message from unknown peer dropped")
		return
	}

	tg.mu.Lock()
	defer tg.mu.Unlock()
	if tg.pendingUnknownPeer == nil {
		tg.pendingUnknownPeer = make(map[peerid.PeerID][][]byte)
	}
	buf := tg.pendingUnknownPeer[from]
	if len(buf) >= maxBufferedUnknownPeerMsgs {
		tg.log.Error().Str("peer", from.String()).Msg("unknown-peer message buffer full, oldest message dropped")
		buf = buf[1:]
	}
	tg.pendingUnknownPeer[from] = append(buf, payload)
	tg.log.Warn().Str("peer", from.String()).Msg("message from unknown peer buffered pending join")
}

func (tg *Tangle) handleMessage(from peerid.PeerID, rec *PeerRecord, payload []byte) {
	kind, err := wire.PeekKind(payload)
	if err != nil {
		tg.log.Warn().Err(err).Str("peer", from.String()).Msg("malformed datagram dropped")
		return
	}

	switch kind {
	case wire.KindWasmCall:
		tg.handleWasmCall(from, rec, payload)
	case wire.KindTimeProgressed:
		tg.handleTimeProgressed(rec, payload)
	case wire.KindRequestState:
		tg.handleRequestState(from)
	case wire.KindSetHeap:
		tg.handleSetHeap(from, rec, payload)
	case wire.KindPing:
		tg.handlePing(from, payload)
	case wire.KindPong:
		tg.handlePong(from, rec, payload)
	case wire.KindSetProgram:
		// Reserved (spec §9): no inbound handler is implemented even
		// when AcceptNewPrograms is set. TODO: implement once a real
		// Time Machine supports hot-swapping its loaded module.
	default:
		tg.log.Warn().Str("peer", from.String()).Msg("unknown message kind dropped")
	}
}

func (tg *Tangle) handleWasmCall(from peerid.PeerID, rec *PeerRecord, payload []byte) {
	call, err := wire.DecodeWasmCall(payload)
	if err != nil {
		tg.log.Warn().Err(err).Str("peer", from.String()).Msg("malformed WasmCall dropped")
		return
	}
	rec.LastReceivedMessage = call.Time

	if tg.cfg.CallValidator != nil && len(call.Args) > 0 {
		claimed := peerid.PeerID(int64(call.Args[0]))
		if err := tg.cfg.CallValidator.Validate(from, claimed); err != nil {
			tg.log.Warn().Err(err).Str("peer", from.String()).Msg("WasmCall rejected by validator")
			return
		}
	}

	ts := peerid.TimeStamp{Time: call.Time, PlayerID: from}

	tg.mu.Lock()
	buffering := tg.state == RequestingHeap
	if buffering {
		tg.buffered = append(tg.buffered, BufferedCall{
			FunctionIndex: call.FunctionIndex,
			TimeStamp:     ts,
			Args:          call.Args,
		})
	}
	tg.mu.Unlock()
	if buffering {
		return
	}

	tg.applyCall(call.FunctionIndex, call.Args, ts, from.String())

	if tg.cfg.FixedUpdateInterval == nil {
		tg.ProgressTime()
	}
}

// applyCall commits a call to the Time Machine. Execute reorders its
// history and replays forward whenever ts sorts before the most recently
// applied TimeStamp, so comparing against that watermark is how this
// coordinator (not the Machine interface, which reports no such signal)
// knows a rollback just happened, and reports it via telemetry.
func (tg *Tangle) applyCall(index uint32, args []float64, ts peerid.TimeStamp, origin string) {
	tg.mu.Lock()
	rollback := tg.lastAppliedTS != nil && ts.Less(*tg.lastAppliedTS)
	tg.mu.Unlock()

	if err := tg.machine.Execute(index, args, ts, true); err != nil {
		tg.log.Warn().Err(err).Msg("WasmCall execute failed")
		return
	}
	telemetry.RecordCallExecuted(tg.roomID, origin)
	if rollback {
		telemetry.RecordRollback(tg.roomID)
	}

	tg.mu.Lock()
	if tg.lastAppliedTS == nil || tg.lastAppliedTS.Less(ts) {
		tg.lastAppliedTS = &ts
	}
	tg.mu.Unlock()
}

func (tg *Tangle) handleTimeProgressed(rec *PeerRecord, payload []byte) {
	msg, err := wire.DecodeTimeProgressed(payload)
	if err != nil {
		tg.log.Warn().Err(err).Msg("malformed TimeProgressed dropped")
		return
	}
	rec.LastReceivedMessage = msg.Time
}

func (tg *Tangle) handleRequestState(from peerid.PeerID) {
	state, err := tg.machine.Encode()
	if err != nil {
		tg.log.Error().Err(err).Str("requester", from.String()).Msg("heap encode failed")
		return
	}
	msg := wire.EncodeSetHeap(wire.SetHeap{State: state})
	if err := tg.room.Send(msg, nil); err != nil {
		tg.log.Warn().Err(err).Msg("SetHeap broadcast failed")
		return
	}
	telemetry.RecordRequestHeapEvent(tg.roomID, true)
}

func (tg *Tangle) handleSetHeap(from peerid.PeerID, rec *PeerRecord, payload []byte) {
	tg.mu.Lock()
	connected := tg.state == Connected
	tg.mu.Unlock()
	if connected {
		return // spec §7: SetHeap received while Connected is ignored.
	}

	msg, err := wire.DecodeSetHeap(payload)
	if err != nil {
		tg.log.Warn().Err(err).Msg("malformed SetHeap dropped")
		return
	}
	if err := tg.machine.DecodeAndApply(msg.State); err != nil {
		tg.log.Error().Err(err).Str("peer", from.String()).Msg("SetHeap apply failed")
		return
	}

	tg.mu.Lock()
	pending := tg.buffered
	tg.buffered = nil
	tg.mu.Unlock()
	for _, call := range pending {
		tg.applyCall(call.FunctionIndex, call.Args, call.TimeStamp, "buffered")
	}

	tg.machine.ProgressTime(float64(rec.RoundTripTime.Milliseconds()) / 2)
	tg.setState(Connected)
}

func (tg *Tangle) handlePing(from peerid.PeerID, payload []byte) {
	pong, err := wire.RewritePingToPong(payload)
	if err != nil {
		tg.log.Warn().Err(err).Msg("malformed Ping dropped")
		return
	}
	if err := tg.room.Send(pong, &from); err != nil {
		tg.log.Warn().Err(err).Str("peer", from.String()).Msg("pong send failed")
	}
}

func (tg *Tangle) handlePong(from peerid.PeerID, rec *PeerRecord, payload []byte) {
	msg, err := wire.DecodePong(payload)
	if err != nil {
		tg.log.Warn().Err(err).Msg("malformed Pong dropped")
		return
	}
	rtt := tg.nowMS() - msg.OriginalSentAtMS
	if rtt < 0 {
		rtt = 0
	}
	rec.RoundTripTime = time.Duration(rtt * float64(time.Millisecond))
	telemetry.SetPeerRTT(tg.roomID, from.String(), rec.RoundTripTime)
}

// nextLocalTimeStamp builds a TimeStamp the way a local call does (spec
// §4.5 step c), used by the peer_left election path which also counts as
// an authoritative local execution.
func (tg *Tangle) nextLocalTimeStamp() peerid.TimeStamp {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	ts := peerid.TimeStamp{Time: tg.machine.TargetTime() + tg.messageTimeOffset, PlayerID: tg.self}
	tg.messageTimeOffset += 1e-4
	return ts
}
