package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/triptych/tangle/config"
	"github.com/triptych/tangle/tangle"
	"github.com/triptych/tangle/telemetry"
	"github.com/triptych/tangle/transport"
)

func newSimulateCommand() *cobra.Command {
	var (
		configPath string
		ticks      int
	)

	cmd := &cobra.Command{
		Use:   "simulate [target]",
		Short: "Run a two-peer, in-process Tangle room and print the converged state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfigPath(configPath, args)
			if err != nil {
				return err
			}
			return runSimulate(resolved, ticks)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a room config TOML file")
	cmd.Flags().IntVar(&ticks, "ticks", 5, "number of local calls to issue from peer A")

	return cmd
}

func runSimulate(configPath string, ticks int) error {
	telemetry.ConfigureRuntime()
	log := telemetry.For("tanglectl")

	roomCfg, err := config.LoadRoomConfig(configPath)
	if err != nil {
		return fmt.Errorf("load room config: %w", err)
	}

	hub := transport.NewHub()
	roomA := transport.NewLoopback(hub)
	roomB := transport.NewLoopback(hub)

	tgA := tangle.Setup([]byte("tanglectl-demo-module"), newDemoMachine(256), roomA, tangleConfigFromRoom(roomCfg))
	tgB := tangle.Setup([]byte("tanglectl-demo-module"), newDemoMachine(256), roomB, tangleConfigFromRoom(roomCfg))

	for i := 0; i < ticks; i++ {
		tgA.Call("tick")
		time.Sleep(time.Millisecond)
		tgA.ProgressTime()
		tgB.ProgressTime()
	}

	log.Info().
		Str("a_state", tgA.State()).
		Str("b_state", tgB.State()).
		Float64("a_time", tgA.CurrentTime()).
		Float64("b_time", tgB.CurrentTime()).
		Int("a_peers", tgA.PeerCount()).
		Int("b_peers", tgB.PeerCount()).
		Msg("simulation converged")

	return nil
}
