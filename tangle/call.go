package tangle

import (
	"math"

	"github.com/triptych/tangle/peerid"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/wire"
)

// UserIDSentinel is the arg value a caller passes to mean "substitute the
// local PeerId here" (spec §4.5 step a). -Inf is never a meaningful
// simulation argument, so it is a safe, unambiguous marker.
var UserIDSentinel = math.Inf(-1)

func substituteUserID(args []float64, self peerid.PeerID) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		if a == UserIDSentinel {
			out[i] = float64(self)
			continue
		}
		out[i] = a
	}
	return out
}

// Call is spec §4.5's local call path: resolve the function, build a
// strictly increasing TimeStamp, execute authoritatively, broadcast, and
// advance each peer's conservative last_sent_message bound.
func (tg *Tangle) Call(name string, args ...float64) {
	tg.serializer.Run(func() {
		tg.callLocked(name, args)
	})
	if tg.cfg.FixedUpdateInterval == nil {
		// Re-enters the serializer itself, so this runs outside the
		// body above rather than nested inside it (spec §4.5 step 2).
		tg.ProgressTime()
	}
}

func (tg *Tangle) callLocked(name string, args []float64) {
	resolved := substituteUserID(args, tg.self)

	index, ok := tg.machine.ResolveFunction(name)
	if !ok {
		tg.log.Debug().Str("function", name).Msg("unknown function name, call dropped")
		return
	}

	ts := tg.nextLocalTimeStamp()
	if err := tg.machine.Execute(index, resolved, ts, true); err != nil {
		tg.log.Warn().Err(err).Str("function", name).Msg("local call execute failed")
		return
	}
	telemetry.RecordCallExecuted(tg.roomID, "local")

	payload, err := wire.EncodeWasmCall(wire.WasmCall{FunctionIndex: index, Time: ts.Time, Args: resolved})
	if err != nil {
		tg.log.Warn().Err(err).Str("function", name).Msg("WasmCall encode failed, not broadcast")
		return
	}
	if err := tg.room.Send(payload, nil); err != nil {
		tg.log.Warn().Err(err).Msg("WasmCall broadcast failed")
	}

	tg.mu.Lock()
	tg.peers.forEach(func(_ peerid.PeerID, rec *PeerRecord) {
		rec.LastSentMessage = math.Max(rec.LastReceivedMessage, ts.Time)
	})
	tg.mu.Unlock()
}

// CallAndRevert executes name speculatively against current state,
// without committing to history or broadcasting (spec §4.5). Useful for
// pure queries and rendering.
func (tg *Tangle) CallAndRevert(name string, args ...float64) ([]float64, error) {
	resolved := substituteUserID(args, tg.self)
	index, ok := tg.machine.ResolveFunction(name)
	if !ok {
		return nil, ErrUnknownFunction
	}
	return tg.machine.CallAndRevert(index, resolved)
}

// Resync is spec §4.5's serializer-wrapped resync(): re-requests a heap
// from the lowest-latency peer as though reconnecting.
func (tg *Tangle) Resync() {
	tg.serializer.Run(func() {
		tg.requestHeap()
	})
}

// ReadMemory and ReadString expose the Time Machine's linear memory to
// the embedder, per spec §6's public surface.
func (tg *Tangle) ReadMemory(addr, length uint32) ([]byte, error) {
	return tg.machine.ReadMemory(addr, length)
}

func (tg *Tangle) ReadString(addr, length uint32) (string, error) {
	return tg.machine.ReadString(addr, length)
}
