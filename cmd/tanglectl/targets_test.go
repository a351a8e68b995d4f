package main

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadTargetsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.toml")

	list, err := loadTargets(path)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if len(list.Targets) != 0 {
		t.Fatalf("expected empty list for missing file, got %v", list.Targets)
	}

	list = upsertTarget(list, "arena", "/etc/tangle/arena.toml")
	if err := saveTargets(path, list); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := loadTargets(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := resolveTarget(reloaded, "arena")
	if !ok || got != "/etc/tangle/arena.toml" {
		t.Fatalf("resolved target = %q, ok=%v", got, ok)
	}
}

func TestUpsertTargetReplacesExisting(t *testing.T) {
	list := targetList{Targets: []savedTarget{{Name: "arena", ConfigPath: "old.toml"}}}
	list = upsertTarget(list, "arena", "new.toml")
	if len(list.Targets) != 1 {
		t.Fatalf("expected upsert to replace, not append, got %d entries", len(list.Targets))
	}
	if list.Targets[0].ConfigPath != "new.toml" {
		t.Fatalf("config path = %q, want new.toml", list.Targets[0].ConfigPath)
	}
}
