// Package config loads the Tangle coordinator's room configuration from
// TOML, in the spirit of the teacher's internal/config package (field
// defaulting + a small validation pass after unmarshal).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// RoomConfig describes how a process should join or host a Tangle room.
type RoomConfig struct {
	RoomName        string        `toml:"room_name"`
	ActionBatchSize int           `toml:"action_batch_size"`
	PruningCushion  time.Duration `toml:"pruning_cushion"`
	FixedInterval   float64       `toml:"fixed_interval"`
	KeepAliveEvery  time.Duration `toml:"keep_alive_every"`
	PeerTimeout     time.Duration `toml:"peer_timeout"`
}

const (
	defaultActionBatchSize = 32
	defaultPruningCushion  = 50 * time.Millisecond
	defaultKeepAliveEvery  = 200 * time.Millisecond
	defaultPeerTimeout     = 2000 * time.Millisecond
)

// LoadRoomConfig reads and validates a RoomConfig from a TOML file at path,
// applying the same defaults Setup would apply if the field were left zero.
func LoadRoomConfig(path string) (RoomConfig, error) {
	var cfg RoomConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return RoomConfig{}, fmt.Errorf("room config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return RoomConfig{}, fmt.Errorf("room config parse failed (%s): %w", path, err)
	}
	cfg = applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return RoomConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg RoomConfig) RoomConfig {
	if cfg.ActionBatchSize == 0 {
		cfg.ActionBatchSize = defaultActionBatchSize
	}
	if cfg.PruningCushion == 0 {
		cfg.PruningCushion = defaultPruningCushion
	}
	if cfg.KeepAliveEvery == 0 {
		cfg.KeepAliveEvery = defaultKeepAliveEvery
	}
	if cfg.PeerTimeout == 0 {
		cfg.PeerTimeout = defaultPeerTimeout
	}
	return cfg
}

func validate(cfg RoomConfig) error {
	if cfg.ActionBatchSize <= 0 {
		return fmt.Errorf("room config: action_batch_size must be positive")
	}
	if cfg.PruningCushion < 0 {
		return fmt.Errorf("room config: pruning_cushion must not be negative")
	}
	if cfg.PeerTimeout <= cfg.KeepAliveEvery {
		return fmt.Errorf("room config: peer_timeout must exceed keep_alive_every")
	}
	if strings.Contains(cfg.RoomName, "\x00") {
		return fmt.Errorf("room config: room_name must not contain a NUL byte")
	}
	return nil
}

// Default returns a RoomConfig with every field at its built-in default and
// no room name set, for callers that derive one at runtime instead.
func Default() RoomConfig {
	return applyDefaults(RoomConfig{})
}
