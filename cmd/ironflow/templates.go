package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/service"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [group]",
	Short: "List the node templates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group := ""
		if len(args) == 1 {
			group = args[0]
		}
		infos := app.NewService().Templates(group)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TEMPLATE\tINPUTS\tOUTPUTS")
		for _, t := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Identifier, labels(t.Inputs), labels(t.Outputs))
		}
		return w.Flush()
	},
}

func labels(ports []service.PortInfo) string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Label
		if p.Type == "exec" {
			out[i] += "*"
		}
	}
	return strings.Join(out, ", ")
}

func init() {
	templatesCmd.Flags().Bool("json", false, "Print JSON")
	rootCmd.AddCommand(templatesCmd)
}
