package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the trace version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trace %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
