package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage the saved list of named room config files",
	}
	cmd.AddCommand(newTargetsListCommand(), newTargetsAddCommand())
	return cmd
}

func newTargetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved room targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := defaultTargetsPath()
			if err != nil {
				return err
			}
			list, err := loadTargets(path)
			if err != nil {
				return err
			}
			if len(list.Targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved targets")
				return nil
			}
			for _, target := range list.Targets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", target.Name, target.ConfigPath)
			}
			return nil
		},
	}
}

func newTargetsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <config-path>",
		Short: "Save a named room config path for reuse",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := defaultTargetsPath()
			if err != nil {
				return err
			}
			list, err := loadTargets(path)
			if err != nil {
				return err
			}
			list = upsertTarget(list, args[0], args[1])
			return saveTargets(path, list)
		},
	}
}
