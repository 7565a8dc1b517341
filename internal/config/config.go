package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/xconform/internal/keyboard"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultParallel    = 1
	DefaultBorderWidth = 5
	DefaultTitleHeight = 20
	DefaultLogLevel    = "info"
)

// ServerConfig describes the private X server started for every test.
type ServerConfig struct {
	// Path is the Xorg binary. X_PATH overrides it.
	Path string `yaml:"path,omitempty"`
	// ModulePath is the directory holding the companion driver.
	ModulePath string `yaml:"module_path,omitempty"`
	Seat       string `yaml:"seat"`
	// Background is the root window colour as 0xRRGGBB.
	Background uint32 `yaml:"background"`
}

type RunConfig struct {
	// OutputDir receives one directory per run. Empty means the runtime
	// directory.
	OutputDir string        `yaml:"output_dir,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	Parallel  int           `yaml:"parallel"`
	// LatestLink points <output_dir>/latest at the most recent run.
	LatestLink bool     `yaml:"latest_link"`
	Skip       []string `yaml:"skip,omitempty"`
}

type KeyboardConfig struct {
	RemapPolicy keyboard.RemapPolicy `yaml:"remap_policy"`
}

type WMConfig struct {
	BorderWidth int `yaml:"border_width"`
	TitleHeight int `yaml:"title_height"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the effective harness configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Run      RunConfig      `yaml:"run"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	WM       WMConfig       `yaml:"wm"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Seat:       "winit-seat",
			Background: 0x2e3440,
		},
		Run: RunConfig{
			Timeout:    DefaultTimeout,
			Parallel:   DefaultParallel,
			LatestLink: true,
		},
		Keyboard: KeyboardConfig{
			RemapPolicy: keyboard.RemapSwappedOnly,
		},
		WM: WMConfig{
			BorderWidth: DefaultBorderWidth,
			TitleHeight: DefaultTitleHeight,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Seat) == "" {
		return &ValidationError{Path: "server.seat", Err: fmt.Errorf("seat must not be empty")}
	}
	if c.Server.Background > 0xffffff {
		return &ValidationError{Path: "server.background", Err: fmt.Errorf("background must be a 24-bit 0xRRGGBB value")}
	}
	if c.Run.Timeout <= 0 {
		return &ValidationError{Path: "run.timeout", Err: fmt.Errorf("timeout must be > 0")}
	}
	if c.Run.Parallel < 1 {
		return &ValidationError{Path: "run.parallel", Err: fmt.Errorf("parallel must be >= 1")}
	}
	for _, name := range c.Run.Skip {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "run.skip", Err: fmt.Errorf("skip contains an empty test name")}
		}
	}
	if _, err := keyboard.ParseRemapPolicy(string(c.Keyboard.RemapPolicy)); err != nil {
		return &ValidationError{Path: "keyboard.remap_policy", Err: err}
	}
	if c.WM.BorderWidth < 0 {
		return &ValidationError{Path: "wm.border_width", Err: fmt.Errorf("border_width must be >= 0")}
	}
	if c.WM.TitleHeight < 0 {
		return &ValidationError{Path: "wm.title_height", Err: fmt.Errorf("title_height must be >= 0")}
	}
	switch c.Logging.Level {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warning, error")}
	}
	return nil
}

// Skipped reports whether the test is excluded by run.skip.
func (c *Config) Skipped(test string) bool {
	for _, name := range c.Run.Skip {
		if name == test {
			return true
		}
	}
	return false
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
