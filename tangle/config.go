package tangle

import (
	"time"

	"github.com/triptych/tangle/authhook"
)

// Config configures a Tangle at Setup time (spec §4.1).
type Config struct {
	// FixedUpdateInterval marks fixed-step mode when non-nil; nil means
	// variable-step mode, in which Call and every applied inbound
	// WasmCall run ProgressTime immediately. It is not passed to the Time
	// Machine: the machine steps (and the divergence guard checks) by the
	// interval the machine itself was constructed with.
	FixedUpdateInterval *time.Duration

	// AcceptNewPrograms gates the reserved SetProgram wire message. No
	// inbound handler exists yet regardless of this flag (spec §9).
	AcceptNewPrograms bool

	// RoomName, if empty, is derived at Setup time (spec §4.1 step 2).
	RoomName string

	// OnStateChange is invoked exactly once per lifecycle transition.
	OnStateChange func(State)

	// CallValidator, if set, is consulted on every inbound WasmCall that
	// carries at least one arg, with args[0] read as the claimed PeerID,
	// before it reaches the Time Machine (authhook package, spec §9's
	// "arg substitution asymmetry" open question). Nil means
	// trust-within-room, the spec's documented default.
	CallValidator authhook.Validator

	// PruningCushion decides how far behind the watermark history may
	// safely be discarded (spec §9's "50 ms pruning cushion" open
	// question). Nil defaults to FixedCushion(50 * time.Millisecond),
	// matching the spec's constant exactly.
	PruningCushion PruningCushion

	// KeepAliveEvery is the per-peer quiet period after which the pacing
	// loop sends a TimeProgressed hint (spec §4.6 step 7). Zero defaults
	// to 200ms, matching the spec's constant exactly.
	KeepAliveEvery time.Duration

	// DivergenceWindow is how far target_time may run ahead of
	// current_simulation_time before the fixed-step divergence guard
	// clamps the step and requests a fresh heap (spec §4.6 step 3). Zero
	// defaults to 2000ms, matching the spec's constant exactly.
	DivergenceWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.PruningCushion == nil {
		c.PruningCushion = FixedCushion(defaultPruningCushion)
	}
	if c.KeepAliveEvery == 0 {
		c.KeepAliveEvery = defaultKeepAliveEvery
	}
	if c.DivergenceWindow == 0 {
		c.DivergenceWindow = defaultDivergenceWindow
	}
	return c
}
