package main

import (
	"time"

	"github.com/triptych/tangle/config"
	"github.com/triptych/tangle/tangle"
)

// tangleConfigFromRoom converts a loaded RoomConfig into the tangle.Config
// Setup expects. It lives here rather than in the config package to avoid
// an import cycle (tangle already imports config for room-name derivation).
func tangleConfigFromRoom(roomCfg config.RoomConfig) tangle.Config {
	cfg := tangle.Config{
		RoomName:         roomCfg.RoomName,
		PruningCushion:   tangle.FixedCushion(roomCfg.PruningCushion),
		KeepAliveEvery:   roomCfg.KeepAliveEvery,
		DivergenceWindow: roomCfg.PeerTimeout,
	}
	if roomCfg.FixedInterval > 0 {
		fixed := time.Duration(roomCfg.FixedInterval) * time.Millisecond
		cfg.FixedUpdateInterval = &fixed
	}
	return cfg
}
