package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/xconform/internal/conformance"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conformance tests",
	Long: `List the registered tests in execution order. Tests marked "-" need
capabilities the backend does not declare and would be skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := conformance.Registry()
		if err != nil {
			return err
		}
		rep := stdoutReporter()
		for _, be := range newBackends(loaded.Config) {
			rep.list(reg.Tests(), be)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
