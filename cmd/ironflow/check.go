package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/presentation/tui"
	"github.com/aretw0/ironflow/internal/validator"
	"github.com/aretw0/ironflow/pkg/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <session.json>...",
	Short: "Check saved sessions against the available templates",
	Long: `Reports missing templates, port layouts that changed since the session
was saved, connections that no longer type-check, failing nodes and inputs
that are not ready. Exits non-zero when any session has errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := app.NewService()
		palette := tui.NewPalette(cmd.OutOrStdout())
		failed := 0
		for _, path := range args {
			doc, err := readDocument(path)
			if err != nil {
				return err
			}
			report := svc.Check(doc)
			printReport(cmd, palette, path, report)
			if report.Err() != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d sessions have errors", failed, len(args))
		}
		return nil
	},
}

func readDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidDocument, path, err)
	}
	return &doc, nil
}

func printReport(cmd *cobra.Command, palette tui.Palette, name string, r *validator.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d scripts, %d nodes, %d connections\n", name, r.Scripts, r.Nodes, r.Connections)
	if len(r.Issues) == 0 {
		fmt.Fprintln(out, "  "+palette.Valid("ok"))
		return
	}
	for _, issue := range r.Issues {
		line := issue.String()
		if issue.Severity == validator.SeverityError {
			line = palette.Invalid(line)
		}
		fmt.Fprintln(out, "  "+line)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
