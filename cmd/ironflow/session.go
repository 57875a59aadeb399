package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/presentation/tui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove the sessions of the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		summaries, err := app.Service.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSCRIPTS\tNODES\tCONNECTIONS")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", s.ID, s.Title, s.Scripts, s.Nodes, s.Connections)
		}
		return w.Flush()
	}),
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if describe, _ := cmd.Flags().GetBool("describe"); describe {
			script, _ := cmd.Flags().GetInt("script")
			md, err := app.Service.DescribeFlow(cmd.Context(), id, script)
			if err != nil {
				return err
			}
			out, err := tui.NewRenderer(os.Stdout)(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		doc, err := app.Service.Session(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", id, err)
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}),
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove stored sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		var errs []error
		for _, id := range args {
			if err := app.Service.DeleteSession(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		return errors.Join(errs...)
	}),
}

var sessionPutCmd = &cobra.Command{
	Use:   "put <session-id> <session.json>",
	Short: "Check a session file and store it",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		doc, err := readDocument(args[1])
		if err != nil {
			return err
		}
		report, err := app.Service.SaveSession(cmd.Context(), args[0], doc)
		if report != nil {
			printReport(cmd, tui.NewPalette(cmd.OutOrStdout()), args[1], report)
		}
		return err
	}),
}

func init() {
	sessionInspectCmd.Flags().Bool("describe", false, "Describe a script as markdown instead of printing JSON")
	sessionInspectCmd.Flags().Int("script", 0, "Script index for --describe")
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd, sessionPutCmd)
	rootCmd.AddCommand(sessionCmd)
}
