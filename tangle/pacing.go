package tangle

import (
	"math"
	"time"

	"github.com/triptych/tangle/peerid"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/wire"
)

const (
	defaultDivergenceWindow = 2000 * time.Millisecond
	stepBudgetFraction      = 0.7
	defaultKeepAliveEvery   = 200 * time.Millisecond
)

// ProgressTime is spec §4.6's pacing loop: invoked by the embedder's tick
// driver, and internally after each call in variable-step mode. It
// converts wall-clock elapsed time into simulated progress under a
// budget, prunes history, and issues keep-alives.
func (tg *Tangle) ProgressTime() {
	tg.serializer.Run(func() {
		tg.progressTimeLocked()
	})
}

func (tg *Tangle) progressTimeLocked() {
	now := tg.nowMS()

	tg.mu.Lock()
	if tg.lastPerformanceNow == nil {
		tg.lastPerformanceNow = &now
		tg.mu.Unlock()
		return
	}
	elapsed := now - *tg.lastPerformanceNow
	tg.mu.Unlock()

	elapsed = tg.applyDivergenceGuard(elapsed)

	tg.machine.ProgressTime(elapsed)
	tg.stepUnderBudget(elapsed)
	tg.pruneHistory()
	tg.sendKeepAlives()

	if elapsed > 0 {
		tg.mu.Lock()
		tg.messageTimeOffset = 0
		tg.mu.Unlock()
	}

	tg.mu.Lock()
	tg.lastPerformanceNow = &now
	tg.mu.Unlock()

	telemetry.SetSimulationTime(tg.roomID, tg.machine.CurrentSimulationTime())
}

// applyDivergenceGuard is spec §4.6 step 3: fixed-step mode only. If this
// peer has fallen more than cfg.DivergenceWindow behind a rollback-safe
// horizon, clamp the step and ask for a fresh heap rather than try to
// catch up locally.
func (tg *Tangle) applyDivergenceGuard(elapsed float64) float64 {
	fixed, ok := tg.machine.FixedUpdateInterval()
	if !ok {
		return elapsed
	}
	projected := tg.machine.TargetTime() + elapsed
	if projected-tg.machine.CurrentSimulationTime() <= float64(tg.cfg.DivergenceWindow.Milliseconds()) {
		return elapsed
	}

	clamped := float64(fixed.Milliseconds())
	tg.mu.Lock()
	hasPeers := tg.peers.len() > 0
	tg.mu.Unlock()
	if hasPeers {
		tg.requestHeap()
	}
	return clamped
}

// stepUnderBudget is spec §4.6 step 5: the backpressure mechanism. A peer
// that cannot keep up consumes the wall-clock budget but never blocks the
// embedder waiting for the simulation to fully catch up.
func (tg *Tangle) stepUnderBudget(elapsed float64) {
	deadline := tg.nowMS() + stepBudgetFraction*elapsed
	for tg.nowMS() < deadline {
		if !tg.machine.Step() {
			return
		}
		tg.machine.TakeSnapshot()
	}
}

// pruneHistory is spec §4.6 step 6: compute the pruning watermark and
// instruct the Time Machine to discard history before it, through the
// configured PruningCushion policy.
func (tg *Tangle) pruneHistory() {
	tg.mu.Lock()
	watermark := math.Min(tg.machine.CurrentSimulationTime(), tg.peers.minLastReceivedMessage())
	tg.mu.Unlock()

	cutoff := tg.cfg.PruningCushion.Cushion(watermark)
	if err := tg.machine.RemoveHistoryBefore(cutoff); err != nil {
		tg.log.Warn().Err(err).Msg("history prune failed")
		return
	}
	telemetry.SetHistoryWatermark(tg.roomID, cutoff)
}

// sendKeepAlives is spec §4.6 step 7: quiet peers still advance each
// other's pruning watermarks. The pacing loop only sends the hint; it
// does not itself mutate last_sent_message (that happens via the call
// path in steady state).
func (tg *Tangle) sendKeepAlives() {
	target := tg.machine.TargetTime()

	threshold := float64(tg.cfg.KeepAliveEvery.Milliseconds())
	tg.mu.Lock()
	var stale []peerid.PeerID
	tg.peers.forEach(func(id peerid.PeerID, rec *PeerRecord) {
		if target-rec.LastSentMessage > threshold {
			stale = append(stale, id)
		}
	})
	tg.mu.Unlock()
	if len(stale) == 0 {
		return
	}

	msg := wire.EncodeTimeProgressed(wire.TimeProgressed{Time: target})
	for _, id := range stale {
		if err := tg.room.Send(msg, &id); err != nil {
			tg.log.Warn().Err(err).Str("peer", id.String()).Msg("keep-alive send failed")
		}
	}
}
