package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/ironflow/internal/cli"
	mcpAdapter "github.com/aretw0/ironflow/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long:  `Serves list_templates, check_connection, recommend and describe_flow to MCP clients, over stdio or, with a port, SSE.`,
	RunE: withStore(func(cmd *cobra.Command, args []string) error {
		port := app.Config.MCP.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		srv := mcpAdapter.NewServer(app.Service, mcpAdapter.WithLogger(app.Logger))
		if port == 0 {
			return srv.ServeStdio()
		}
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return srv.ServeSSE(sigCtx, port)
	}),
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "Serve SSE on this port instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}
