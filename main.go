package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/u-train/luau/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "luau [subcommand]",
	Short:        "constraint-based type inference for a gradually-typed scripting language",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.SolveCmd)
}
