package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xconform/internal/conformance"
	"github.com/1broseidon/xconform/internal/runner"
)

var runOpts struct {
	timeout   time.Duration
	parallel  int
	outputDir string
}

var runCmd = &cobra.Command{
	Use:   "run [tests...]",
	Short: "Run conformance tests",
	Long: `Run conformance tests against every backend. Without arguments all tests
run in registration order. Tests that need capabilities a backend lacks are
skipped, as are tests listed in run.skip.

Exits non-zero when any test failed.`,
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runOpts.timeout, "timeout", 0,
		"Per-test timeout (default: run.timeout)")
	runCmd.Flags().IntVar(&runOpts.parallel, "parallel", 0,
		"Concurrent tests on thread-safe backends (default: run.parallel)")
	runCmd.Flags().StringVar(&runOpts.outputDir, "output-dir", "",
		"Directory receiving run directories (default: run.output_dir)")
}

func runTests(cmd *cobra.Command, args []string) error {
	cfg := loaded.Config
	reg, err := conformance.Registry()
	if err != nil {
		return err
	}
	tests, err := reg.Select(args)
	if err != nil {
		return err
	}

	if runOpts.outputDir != "" {
		cfg.Run.OutputDir = runOpts.outputDir
	}
	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}
	if runOpts.timeout > 0 {
		opts.Timeout = runOpts.timeout
	}
	if runOpts.parallel > 0 {
		opts.Parallel = runOpts.parallel
	}
	return execute(tests, opts)
}

// execute runs tests against every configured backend, printing results as
// they finish. Ctrl-C stops the run after the tests in flight.
func execute(tests []runner.Test, opts runner.Options) error {
	rep := stdoutReporter()
	opts.OnResult = rep.result

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("interrupted, stopping after the current tests")
			cancel()
		case <-ctx.Done():
		}
	}()

	sum, err := runner.New(opts).Run(ctx, tests, newBackends(loaded.Config)...)
	if sum != nil {
		rep.summary(sum)
	}
	if err != nil {
		return err
	}
	if n := sum.Failed(); n > 0 {
		return fmt.Errorf("%d out of %d tests failed", n, len(sum.Results))
	}
	return nil
}
