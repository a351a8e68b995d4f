package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "tanglectl",
		Short: "Host and drive Tangle rooms from the command line",
	}
	root.AddCommand(newServeCommand(), newSimulateCommand(), newTargetsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tanglectl: %v\n", err)
		os.Exit(1)
	}
}
