package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ironflow",
	// No configuration needed.
	PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
	PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ironflow version %s\n", ironflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
