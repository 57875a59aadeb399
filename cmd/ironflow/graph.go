package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <session.json>",
	Short: "Export a script of a session as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, _ := cmd.Flags().GetInt("script")
		highlight, _ := cmd.Flags().GetStringSlice("highlight")

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		s, err := app.NewService().Open(doc)
		if err != nil {
			return err
		}
		sc, err := s.Script(script)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(sc.Flow, &graph.Overlay{Highlight: highlight}))
		return nil
	},
}

func init() {
	graphCmd.Flags().Int("script", 0, "Script index")
	graphCmd.Flags().StringSlice("highlight", nil, "Node IDs to highlight")
	rootCmd.AddCommand(graphCmd)
}
