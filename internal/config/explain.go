package config

import (
	"fmt"
	"os"
	"strings"
)

// Paths lists every key Explain accepts.
var Paths = []string{
	"server.path",
	"server.module_path",
	"server.seat",
	"server.background",
	"run.output_dir",
	"run.timeout",
	"run.parallel",
	"run.latest_link",
	"run.skip",
	"keyboard.remap_policy",
	"wm.border_width",
	"wm.title_height",
	"logging.level",
}

// Explain returns the effective value at the given YAML path and its source.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// X_PATH beats the file for the server binary.
	if path == "server.path" {
		if env := strings.TrimSpace(os.Getenv("X_PATH")); env != "" {
			return env, Source{Kind: SourceEnv, Name: "X_PATH"}, nil
		}
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "server.path":
		return cfg.Server.Path, nil
	case "server.module_path":
		return cfg.Server.ModulePath, nil
	case "server.seat":
		return cfg.Server.Seat, nil
	case "server.background":
		return fmt.Sprintf("0x%06x", cfg.Server.Background), nil
	case "run.output_dir":
		return cfg.Run.OutputDir, nil
	case "run.timeout":
		return cfg.Run.Timeout.String(), nil
	case "run.parallel":
		return cfg.Run.Parallel, nil
	case "run.latest_link":
		return cfg.Run.LatestLink, nil
	case "run.skip":
		return cfg.Run.Skip, nil
	case "keyboard.remap_policy":
		return string(cfg.Keyboard.RemapPolicy), nil
	case "wm.border_width":
		return cfg.WM.BorderWidth, nil
	case "wm.title_height":
		return cfg.WM.TitleHeight, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
