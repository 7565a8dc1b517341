package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xconform/internal/config"
)

var configOpts struct {
	defaults bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Loading already validated; report which files took part.
		for _, f := range loaded.Files {
			fmt.Fprintf(os.Stdout, "loaded: %s\n", f)
		}
		fmt.Fprintln(os.Stdout, "config: ok")
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loaded.Config
		if configOpts.defaults {
			cfg = config.DefaultConfig()
		}
		return printYAML(os.Stdout, cfg)
	},
}

var configExplainCmd = &cobra.Command{
	Use:   "explain [yaml.path]",
	Short: "Explain where a config value comes from",
	Long: `Print a config value and its source: a file position, the environment or
the built-in default. Without a path every known key is explained.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := config.Paths
		if len(args) == 1 {
			paths = args
		}
		for i, p := range paths {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			if err := explain(os.Stdout, loaded, p); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configPrintCmd, configExplainCmd)

	configPrintCmd.Flags().BoolVar(&configOpts.defaults, "defaults", false,
		"Print built-in defaults (no files)")
}

func printYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func explain(w io.Writer, res *config.LoadResult, path string) error {
	value, src, err := config.Explain(res, path)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "source: %s\n", formatSource(src))
	if bytes.Count(out, []byte("\n")) > 1 {
		fmt.Fprintf(w, "value:\n%s", out)
		return nil
	}
	fmt.Fprintf(w, "value: %s", out)
	return nil
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceEnv:
		return "env:" + src.Name
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
