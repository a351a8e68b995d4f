package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triptych/tangle/config"
	"github.com/triptych/tangle/tangle"
	"github.com/triptych/tangle/tangleweb"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/transport"
)

func newServeCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve [target]",
		Short: "Host a Tangle room and expose its debug/status HTTP surface",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfigPath(configPath, args)
			if err != nil {
				return err
			}
			return runServe(resolved, addr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a room config TOML file")
	cmd.Flags().StringVar(&addr, "addr", ":8088", "address the debug/status HTTP surface listens on")

	return cmd
}

// resolveConfigPath prefers an explicit --config flag; otherwise it treats
// a single positional argument as a name saved via `tanglectl targets add`.
func resolveConfigPath(configFlag string, args []string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if len(args) != 1 {
		return "", fmt.Errorf("pass --config <path> or a saved target name")
	}
	path, err := defaultTargetsPath()
	if err != nil {
		return "", err
	}
	list, err := loadTargets(path)
	if err != nil {
		return "", err
	}
	resolved, ok := resolveTarget(list, args[0])
	if !ok {
		return "", fmt.Errorf("no saved target named %q (see `tanglectl targets list`)", args[0])
	}
	return resolved, nil
}

func runServe(configPath, addr string) error {
	telemetry.ConfigureRuntime()
	log := telemetry.For("tanglectl")

	roomCfg, err := config.LoadRoomConfig(configPath)
	if err != nil {
		return fmt.Errorf("load room config: %w", err)
	}

	hub := transport.NewHub()
	room := transport.NewLoopback(hub)
	machine := newDemoMachine(256)

	cfg := tangleConfigFromRoom(roomCfg)
	cfg.OnStateChange = func(s tangle.State) {
		log.Info().Str("state", s.String()).Msg("tangle state changed")
	}
	tg := tangle.Setup([]byte("tanglectl-demo-module"), machine, room, cfg)

	srv := tangleweb.New(addr, nil, tg)
	log.Info().Str("addr", addr).Str("room", tg.RoomName()).Msg("serving tangle debug surface")
	return srv.Serve()
}
