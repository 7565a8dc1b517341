package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/conformance"
	"github.com/1broseidon/xconform/internal/picker"
	"github.com/1broseidon/xconform/internal/runner"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose tests interactively and run them",
	Args:  cobra.NoArgs,
	RunE:  runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("pick requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	reg, err := conformance.Registry()
	if err != nil {
		return err
	}
	backends := newBackends(loaded.Config)

	names, err := picker.Run(pickEntries(reg.Tests(), backends[0]))
	if errors.Is(err, picker.ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	tests, err := reg.Select(names)
	if err != nil {
		return err
	}

	opts, err := runnerOptions(loaded.Config)
	if err != nil {
		return err
	}
	settings, err := picker.Confirm(len(tests), picker.RunSettings{Parallel: opts.Parallel, Timeout: opts.Timeout})
	if errors.Is(err, picker.ErrCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	opts.Parallel, opts.Timeout = settings.Parallel, settings.Timeout
	return execute(tests, opts)
}

func pickEntries(tests []runner.Test, be backend.Backend) []picker.Entry {
	entries := make([]picker.Entry, 0, len(tests))
	for _, tc := range tests {
		entries = append(entries, picker.Entry{
			Name:        tc.Name,
			Description: tc.Description,
			Missing:     be.Flags().Missing(tc.Flags).Names(),
		})
	}
	return entries
}
