package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace is a tape-based automatic differentiation library for Go",
	Long: `Trace records tensor operations on a gradient tape during the forward
pass and replays them in reverse to compute exact gradients. It ships a
CPU backend, an optional WebGPU backend, neural network modules, and
optimizers for training.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("backend", "cpu", "Compute backend: cpu or webgpu")
}
