package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
)

func (s *Server) handleListTests(_ context.Context, _ *mcpsdk.CallToolRequest, args ListTestsInput) (*mcpsdk.CallToolResult, ListTestsOutput, error) {
	be, err := s.lookupBackend(args.Backend)
	if err != nil {
		return nil, ListTestsOutput{}, err
	}
	flags := be.Flags()

	tests := s.registry.Tests()
	infos := make([]TestInfo, 0, len(tests))
	for _, tc := range tests {
		missing := flags.Missing(tc.Flags)
		infos = append(infos, TestInfo{
			Name:        tc.Name,
			Description: tc.Description,
			Flags:       tc.Flags.Names(),
			Missing:     missing.Names(),
			Supported:   missing == 0,
		})
	}
	return nil, ListTestsOutput{Backend: be.Name(), Tests: infos}, nil
}

func (s *Server) handleRunTests(ctx context.Context, _ *mcpsdk.CallToolRequest, args RunTestsInput) (*mcpsdk.CallToolResult, RunTestsOutput, error) {
	if args.Timeout < 0 {
		return nil, RunTestsOutput{}, fmt.Errorf("timeout must be positive, got %d", args.Timeout)
	}
	tests, err := s.registry.Select(args.Tests)
	if err != nil {
		return nil, RunTestsOutput{}, err
	}
	backends := s.backends
	if args.Backend != "" {
		be, err := s.lookupBackend(args.Backend)
		if err != nil {
			return nil, RunTestsOutput{}, err
		}
		backends = []backend.Backend{be}
	}

	opts := s.runOpts
	opts.OnResult = nil
	if args.Timeout > 0 {
		opts.Timeout = time.Duration(args.Timeout) * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = s.log
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.log.Info("mcp run_tests", "tests", len(tests), "backends", len(backends))
	sum, err := runner.New(opts).Run(ctx, tests, backends...)
	if err != nil && sum == nil {
		return nil, RunTestsOutput{}, err
	}
	out := summaryOutput(sum)
	if err != nil {
		// Interrupted runs still report what finished.
		s.log.Warn("mcp run_tests interrupted", "error", err, "finished", len(out.Results))
	}
	return nil, out, nil
}

func summaryOutput(sum *runner.Summary) RunTestsOutput {
	out := RunTestsOutput{
		RunID:    sum.RunID,
		Dir:      sum.Dir,
		Started:  sum.Started,
		Duration: sum.Duration.Round(time.Millisecond).String(),
		Passed:   sum.Count(runner.StatusPassed),
		Failed:   sum.Count(runner.StatusFailed),
		Skipped:  sum.Count(runner.StatusSkipped),
		Results:  make([]TestResult, 0, len(sum.Results)),
	}
	for _, r := range sum.Results {
		out.Results = append(out.Results, TestResult{
			Backend:  r.Backend,
			Test:     r.Test,
			Status:   string(r.Status),
			Error:    r.Error,
			Messages: r.Messages,
			Duration: r.Duration.Round(time.Millisecond).String(),
			Dir:      r.Dir,
		})
	}
	return out
}

func (s *Server) handleBackendInfo(_ context.Context, _ *mcpsdk.CallToolRequest, args BackendInfoInput) (*mcpsdk.CallToolResult, BackendInfoOutput, error) {
	backends := s.backends
	if args.Backend != "" {
		be, err := s.lookupBackend(args.Backend)
		if err != nil {
			return nil, BackendInfoOutput{}, err
		}
		backends = []backend.Backend{be}
	}
	out := BackendInfoOutput{Backends: make([]BackendInfo, 0, len(backends))}
	for _, be := range backends {
		out.Backends = append(out.Backends, BackendInfo{Name: be.Name(), Flags: be.Flags().Names()})
	}
	return nil, out, nil
}
