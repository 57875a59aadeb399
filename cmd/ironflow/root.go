package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/cli"
	"github.com/aretw0/ironflow/internal/config"
)

var app *cli.App

var rootCmd = &cobra.Command{
	Use:   "ironflow",
	Short: "ironflow inspects and checks typed node workflows",
	Long: `ironflow works with visual scripting workflows: nodes with typed ports,
connected into flows and saved as sessions. It lists node templates, checks
saved sessions against them, renders flows as Mermaid and serves the same
operations over HTTP and MCP.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./ironflow.yaml when present)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("store", "", "Session store: memory, file, redis or sqlite")
	flags.StringSlice("node-dir", nil, "Directory of template documents (repeatable)")
	flags.StringSlice("ontology", nil, "Ontology file (repeatable)")
}

// setup loads the configuration, applies flag overrides and builds the app.
func setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Kind, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("node-dir") {
		dirs, _ := cmd.Flags().GetStringSlice("node-dir")
		cfg.NodeDirs = append(cfg.NodeDirs, dirs...)
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	if cmd.Flags().Changed("ontology") {
		onts, _ := cmd.Flags().GetStringSlice("ontology")
		cfg.Ontologies = append(cfg.Ontologies, onts...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err = cli.NewApp(cfg)
	return err
}

func teardown(*cobra.Command, []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

// withStore opens the session store before running fn.
func withStore(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := app.OpenStore(cmd.Context()); err != nil {
			return fmt.Errorf("error opening session store: %w", err)
		}
		return fn(cmd, args)
	}
}
