package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "room.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadRoomConfigAppliesDefaults(t *testing.T) {
	path := writeTemp(t, `room_name = "arena"`)
	cfg, err := LoadRoomConfig(path)
	require.NoError(t, err)
	require.Equal(t, RoomConfig{
		RoomName:        "arena",
		ActionBatchSize: defaultActionBatchSize,
		PruningCushion:  defaultPruningCushion,
		KeepAliveEvery:  defaultKeepAliveEvery,
		PeerTimeout:     defaultPeerTimeout,
	}, cfg)
}

func TestLoadRoomConfigRejectsTimeoutNotExceedingKeepAlive(t *testing.T) {
	path := writeTemp(t, `
room_name = "arena"
keep_alive_every = "1s"
peer_timeout = "1s"
`)
	if _, err := LoadRoomConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRoomConfigMissingFile(t *testing.T) {
	if _, err := LoadRoomConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default()
	if cfg.PeerTimeout <= cfg.KeepAliveEvery {
		t.Fatalf("default peer timeout must exceed keep alive interval")
	}
	if cfg.FixedInterval != 0 {
		t.Fatalf("fixed interval should be left to the caller, got %v", cfg.FixedInterval)
	}
	_ = time.Second
}

func TestRoomNameForBinaryIsStableAndInputSensitive(t *testing.T) {
	a := RoomNameForBinary("arena", []byte("build-1"))
	b := RoomNameForBinary("arena", []byte("build-1"))
	c := RoomNameForBinary("arena", []byte("build-2"))
	if a != b {
		t.Fatalf("expected deterministic hash, got %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("expected different binaries to hash differently")
	}
}

func TestGenerateRoomNameIsUnique(t *testing.T) {
	if GenerateRoomName() == GenerateRoomName() {
		t.Fatalf("expected distinct generated room names")
	}
}
