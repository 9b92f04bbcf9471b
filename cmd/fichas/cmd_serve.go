package main

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"fichas/internal/logging"
	mcpserver "fichas/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing fuse_partials,
verify_record, score_record and describe_schema.

The server monitors for parent process death and exits when the client
goes away.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	st, err := app.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	srv := mcpserver.NewServer(app, st, version)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, 2*time.Second, cancel)

	logging.New("mcp").Info("starting fichas MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
