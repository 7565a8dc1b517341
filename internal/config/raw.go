package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xconform/internal/keyboard"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawServerConfig struct {
	Path       *string `yaml:"path"`
	ModulePath *string `yaml:"module_path"`
	Seat       *string `yaml:"seat"`
	Background *uint32 `yaml:"background"`
}

type RawRunConfig struct {
	OutputDir  *string        `yaml:"output_dir"`
	Timeout    *time.Duration `yaml:"timeout"`
	Parallel   *int           `yaml:"parallel"`
	LatestLink *bool          `yaml:"latest_link"`
	Skip       []string       `yaml:"skip"`
}

type RawKeyboardConfig struct {
	RemapPolicy *string `yaml:"remap_policy"`
}

type RawWMConfig struct {
	BorderWidth *int `yaml:"border_width"`
	TitleHeight *int `yaml:"title_height"`
}

type RawLoggingConfig struct {
	Level *string `yaml:"level"`
}

// RawConfig is one config file as written; nil fields keep the value from
// earlier files or the defaults.
type RawConfig struct {
	Include  IncludeList        `yaml:"include"`
	Server   *RawServerConfig   `yaml:"server"`
	Run      *RawRunConfig      `yaml:"run"`
	Keyboard *RawKeyboardConfig `yaml:"keyboard"`
	WM       *RawWMConfig       `yaml:"wm"`
	Logging  *RawLoggingConfig  `yaml:"logging"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Server != nil {
		if out.Server == nil {
			out.Server = &RawServerConfig{}
		}
		if overlay.Server.Path != nil {
			out.Server.Path = overlay.Server.Path
		}
		if overlay.Server.ModulePath != nil {
			out.Server.ModulePath = overlay.Server.ModulePath
		}
		if overlay.Server.Seat != nil {
			out.Server.Seat = overlay.Server.Seat
		}
		if overlay.Server.Background != nil {
			out.Server.Background = overlay.Server.Background
		}
	}

	if overlay.Run != nil {
		if out.Run == nil {
			out.Run = &RawRunConfig{}
		}
		if overlay.Run.OutputDir != nil {
			out.Run.OutputDir = overlay.Run.OutputDir
		}
		if overlay.Run.Timeout != nil {
			out.Run.Timeout = overlay.Run.Timeout
		}
		if overlay.Run.Parallel != nil {
			out.Run.Parallel = overlay.Run.Parallel
		}
		if overlay.Run.LatestLink != nil {
			out.Run.LatestLink = overlay.Run.LatestLink
		}
		if overlay.Run.Skip != nil {
			out.Run.Skip = overlay.Run.Skip
		}
	}

	if overlay.Keyboard != nil {
		if out.Keyboard == nil {
			out.Keyboard = &RawKeyboardConfig{}
		}
		if overlay.Keyboard.RemapPolicy != nil {
			out.Keyboard.RemapPolicy = overlay.Keyboard.RemapPolicy
		}
	}

	if overlay.WM != nil {
		if out.WM == nil {
			out.WM = &RawWMConfig{}
		}
		if overlay.WM.BorderWidth != nil {
			out.WM.BorderWidth = overlay.WM.BorderWidth
		}
		if overlay.WM.TitleHeight != nil {
			out.WM.TitleHeight = overlay.WM.TitleHeight
		}
	}

	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLoggingConfig{}
		}
		if overlay.Logging.Level != nil {
			out.Logging.Level = overlay.Logging.Level
		}
	}

	return out
}

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if s := raw.Server; s != nil {
		if s.Path != nil {
			cfg.Server.Path = *s.Path
		}
		if s.ModulePath != nil {
			cfg.Server.ModulePath = *s.ModulePath
		}
		if s.Seat != nil {
			cfg.Server.Seat = *s.Seat
		}
		if s.Background != nil {
			cfg.Server.Background = *s.Background
		}
	}

	if r := raw.Run; r != nil {
		if r.OutputDir != nil {
			path, err := expandHome(*r.OutputDir)
			if err != nil {
				return nil, &ValidationError{Path: "run.output_dir", Err: err}
			}
			cfg.Run.OutputDir = path
		}
		if r.Timeout != nil {
			cfg.Run.Timeout = *r.Timeout
		}
		if r.Parallel != nil {
			cfg.Run.Parallel = *r.Parallel
		}
		if r.LatestLink != nil {
			cfg.Run.LatestLink = *r.LatestLink
		}
		if r.Skip != nil {
			cfg.Run.Skip = append([]string(nil), r.Skip...)
		}
	}

	if k := raw.Keyboard; k != nil && k.RemapPolicy != nil {
		policy, err := keyboard.ParseRemapPolicy(*k.RemapPolicy)
		if err != nil {
			return nil, &ValidationError{Path: "keyboard.remap_policy", Err: err}
		}
		cfg.Keyboard.RemapPolicy = policy
	}

	if w := raw.WM; w != nil {
		if w.BorderWidth != nil {
			cfg.WM.BorderWidth = *w.BorderWidth
		}
		if w.TitleHeight != nil {
			cfg.WM.TitleHeight = *w.TitleHeight
		}
	}

	if l := raw.Logging; l != nil && l.Level != nil {
		cfg.Logging.Level = *l.Level
	}

	return cfg, nil
}
