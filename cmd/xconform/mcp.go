package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xconform/internal/conformance"
	"github.com/1broseidon/xconform/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdio. It offers list_tests, run_tests and
backend_info to MCP clients. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := loaded.Config
	reg, err := conformance.Registry()
	if err != nil {
		return err
	}
	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(mcp.Options{
		Registry: reg,
		Backends: newBackends(cfg),
		Runner:   opts,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return server.Run(ctx)
}
