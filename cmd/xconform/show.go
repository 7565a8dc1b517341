package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xconform/internal/runner"
	"github.com/1broseidon/xconform/internal/runtimepath"
)

var showCmd = &cobra.Command{
	Use:   "show [run-dir]",
	Short: "Show the results of a previous run",
	Long: `Print the recorded results of a run. Without an argument the run
<output_dir>/latest points at is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		out, err := runtimepath.ResolveOutputDir(loaded.Config.Run.OutputDir)
		if err != nil {
			return err
		}
		if dir, err = runtimepath.Latest(out); err != nil {
			return fmt.Errorf("no latest run in %s: %w", out, err)
		}
	}
	sum, err := readSummary(filepath.Join(dir, "summary.yaml"))
	if err != nil {
		return err
	}
	rep := stdoutReporter()
	fmt.Fprintf(rep.w, "run %s, started %s\n", sum.RunID, sum.Started.Format("2006-01-02 15:04:05"))
	for _, res := range sum.Results {
		rep.result(res)
	}
	rep.summary(sum)
	return nil
}

func readSummary(path string) (*runner.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sum runner.Summary
	if err := yaml.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sum, nil
}
