// Package mcp exposes the conformance registry and runner as MCP tools over
// stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
)

const (
	ServerName    = "xconform"
	ServerVersion = "0.1.0"
)

// Options configures a Server.
type Options struct {
	Registry *runner.Registry
	Backends []backend.Backend
	// Runner is the base configuration for every run_tests call.
	Runner runner.Options
	Logger *slog.Logger
}

// Server is the MCP server for listing and running conformance tests.
type Server struct {
	mcpServer *mcpsdk.Server
	registry  *runner.Registry
	backends  []backend.Backend
	runOpts   runner.Options
	log       *slog.Logger

	// runMu serializes run_tests; runs share the output directory and its
	// latest link.
	runMu sync.Mutex
}

// NewServer creates a new MCP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("mcp: registry is required")
	}
	if len(opts.Backends) == 0 {
		return nil, errors.New("mcp: at least one backend is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		registry: opts.Registry,
		backends: opts.Backends,
		runOpts:  opts.Runner,
		log:      log,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_tests",
		Description: "List the registered conformance tests in execution order with the capability flags each one requires and whether the backend supports it.",
	}, s.handleListTests)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_tests",
		Description: "Run conformance tests against fresh display server instances. Each test gets its own output directory with a log file. Returns per-test status, failure messages and the run directory. Runs are serialized.",
	}, s.handleRunTests)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "backend_info",
		Description: "Describe the configured backends and the capability flags they declare.",
	}, s.handleBackendInfo)
}

// lookupBackend returns the named backend, or the first one for an empty
// name.
func (s *Server) lookupBackend(name string) (backend.Backend, error) {
	if name == "" {
		return s.backends[0], nil
	}
	for _, be := range s.backends {
		if be.Name() == name {
			return be, nil
		}
	}
	available := make([]string, 0, len(s.backends))
	for _, be := range s.backends {
		available = append(available, be.Name())
	}
	return nil, fmt.Errorf("unknown backend %q; available: %v", name, available)
}
