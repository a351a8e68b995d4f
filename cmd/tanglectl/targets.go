package main

import (
	"fmt"
	"os"
	"path/filepath"

	gotoml "github.com/pelletier/go-toml/v2"
)

// savedTarget is one entry in the user's saved room-target list: a
// shorthand name for a room config file, so `tanglectl serve arena`
// doesn't require spelling out a path every time. This list uses
// go-toml/v2 rather than BurntSushi/toml, matching the teacher's own
// inconsistency of reaching for both TOML libraries in the same repo.
type savedTarget struct {
	Name       string `toml:"name"`
	ConfigPath string `toml:"config_path"`
}

type targetList struct {
	Targets []savedTarget `toml:"targets"`
}

func defaultTargetsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tanglectl", "targets.toml"), nil
}

func loadTargets(path string) (targetList, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return targetList{}, nil
	}
	if err != nil {
		return targetList{}, fmt.Errorf("read targets file: %w", err)
	}
	var list targetList
	if err := gotoml.Unmarshal(data, &list); err != nil {
		return targetList{}, fmt.Errorf("parse targets file: %w", err)
	}
	return list, nil
}

func saveTargets(path string, list targetList) error {
	data, err := gotoml.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode targets file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create targets directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write targets file: %w", err)
	}
	return nil
}

func resolveTarget(list targetList, name string) (string, bool) {
	for _, target := range list.Targets {
		if target.Name == name {
			return target.ConfigPath, true
		}
	}
	return "", false
}

func upsertTarget(list targetList, name, configPath string) targetList {
	for i, target := range list.Targets {
		if target.Name == name {
			list.Targets[i].ConfigPath = configPath
			return list
		}
	}
	list.Targets = append(list.Targets, savedTarget{Name: name, ConfigPath: configPath})
	return list
}
