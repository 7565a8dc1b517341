package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/keyboard"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Run.Timeout)
	assert.Equal(t, 1, cfg.Run.Parallel)
	assert.Equal(t, keyboard.RemapSwappedOnly, cfg.Keyboard.RemapPolicy)
	assert.Equal(t, 5, cfg.WM.BorderWidth)
	assert.Equal(t, 20, cfg.WM.TitleHeight)
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), res.Config)
	assert.Empty(t, res.Files)
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), res.Config)
	assert.Len(t, res.Files, 1)
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"server:",
		"  path: /opt/xorg/bin/Xorg",
		"  module_path: /opt/companion",
		"  seat: seat-test",
		"  background: 0x102030",
		"run:",
		"  output_dir: /var/tmp/runs",
		"  timeout: 12s",
		"  parallel: 4",
		"  latest_link: false",
		"  skip: [primary_monitor]",
		"keyboard:",
		"  remap_policy: always",
		"wm:",
		"  border_width: 2",
		"  title_height: 0",
		"logging:",
		"  level: debug",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	cfg := res.Config
	assert.Equal(t, "/opt/xorg/bin/Xorg", cfg.Server.Path)
	assert.Equal(t, "/opt/companion", cfg.Server.ModulePath)
	assert.Equal(t, "seat-test", cfg.Server.Seat)
	assert.Equal(t, uint32(0x102030), cfg.Server.Background)
	assert.Equal(t, "/var/tmp/runs", cfg.Run.OutputDir)
	assert.Equal(t, 12*time.Second, cfg.Run.Timeout)
	assert.Equal(t, 4, cfg.Run.Parallel)
	assert.False(t, cfg.Run.LatestLink)
	assert.Equal(t, []string{"primary_monitor"}, cfg.Run.Skip)
	assert.True(t, cfg.Skipped("primary_monitor"))
	assert.False(t, cfg.Skipped("ping"))
	assert.Equal(t, keyboard.RemapAlways, cfg.Keyboard.RemapPolicy)
	assert.Equal(t, 2, cfg.WM.BorderWidth)
	assert.Equal(t, 0, cfg.WM.TitleHeight)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromPath_OutputDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "run:\n  output_dir: ~/runs\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "runs"), res.Config.Run.OutputDir)
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "run:\n  paralel: 2\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paralel")
	assert.Contains(t, err.Error(), "config.yaml")
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "run:\n  timeout: 5s\n  parallel: 0\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "run.parallel", verr.Path)
	assert.Equal(t, SourceFile, verr.Source.Kind)
	assert.Equal(t, 3, verr.Source.Line)
	assert.Contains(t, err.Error(), ":3:")
}

func TestLoadFromPath_BadRemapPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "keyboard:\n  remap_policy: sometimes\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "keyboard.remap_policy", verr.Path)
	assert.Equal(t, 2, verr.Source.Line)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty seat", func(c *Config) { c.Server.Seat = " " }, "server.seat"},
		{"background overflow", func(c *Config) { c.Server.Background = 0x1000000 }, "server.background"},
		{"zero timeout", func(c *Config) { c.Run.Timeout = 0 }, "run.timeout"},
		{"zero parallel", func(c *Config) { c.Run.Parallel = 0 }, "run.parallel"},
		{"empty skip entry", func(c *Config) { c.Run.Skip = []string{""} }, "run.skip"},
		{"bad policy", func(c *Config) { c.Keyboard.RemapPolicy = "never" }, "keyboard.remap_policy"},
		{"negative border", func(c *Config) { c.WM.BorderWidth = -1 }, "wm.border_width"},
		{"negative title", func(c *Config) { c.WM.TitleHeight = -1 }, "wm.title_height"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.d", "10-base.yaml"), "run:\n  parallel: 2\n  timeout: 3s\n")
	writeFile(t, filepath.Join(dir, "config.d", "20-override.yaml"), "run:\n  parallel: 3\n")
	writeFile(t, filepath.Join(dir, "config.d", "README"), "not yaml")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - config.d\nrun:\n  parallel: 4\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Config.Run.Parallel)
	assert.Equal(t, 3*time.Second, res.Config.Run.Timeout)
	assert.Len(t, res.Files, 3)
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include")
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestExplain(t *testing.T) {
	t.Setenv("X_PATH", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "server:\n  path: /opt/Xorg\nwm:\n  border_width: 3\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)

	v, src, err := Explain(res, "wm.border_width")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, SourceFile, src.Kind)
	assert.Equal(t, 4, src.Line)

	v, src, err = Explain(res, "run.timeout")
	require.NoError(t, err)
	assert.Equal(t, "5s", v)
	assert.Equal(t, SourceDefault, src.Kind)

	v, src, err = Explain(res, "server.path")
	require.NoError(t, err)
	assert.Equal(t, "/opt/Xorg", v)
	assert.Equal(t, SourceFile, src.Kind)

	t.Setenv("X_PATH", "/env/Xorg")
	v, src, err = Explain(res, "server.path")
	require.NoError(t, err)
	assert.Equal(t, "/env/Xorg", v)
	assert.Equal(t, SourceEnv, src.Kind)

	_, _, err = Explain(res, "run.nope")
	assert.Error(t, err)
}

func TestExplain_AllPathsResolve(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig()}
	for _, p := range Paths {
		_, _, err := Explain(res, p)
		assert.NoError(t, err, p)
	}
}

func TestLoadFromPath_IncludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b-skip.yaml"), "run:\n  skip: [ping]\n")
	writeFile(t, filepath.Join(dir, "a-skip.yaml"), "run:\n  skip: [icon]\n  parallel: 2\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: \"*-skip.yaml\"\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	// b-skip.yaml merges after a-skip.yaml.
	assert.Equal(t, []string{"ping"}, res.Config.Run.Skip)
	assert.Equal(t, 2, res.Config.Run.Parallel)
	require.Len(t, res.Files, 3)
	assert.Equal(t, "config.yaml", filepath.Base(res.Files[2]))

	src := res.Sources["run.skip"]
	assert.Equal(t, "b-skip.yaml", filepath.Base(src.File))
}

func TestLoadFromPath_SharedIncludeMergedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common.yaml"), "wm:\n  border_width: 2\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: common.yaml\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: [common.yaml, a.yaml]\n")

	res, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Config.WM.BorderWidth)
	assert.Len(t, res.Files, 3)
}

func TestDefaultConfigPath_Env(t *testing.T) {
	t.Setenv(ConfigEnv, "/etc/xconform.yaml")
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/xconform.yaml", path)

	t.Setenv(ConfigEnv, "")
	t.Setenv("HOME", "/home/tester")
	path, err = DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.config/xconform/config.yaml", path)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "/c.yaml:3:7", Source{Kind: SourceFile, File: "/c.yaml", Line: 3, Column: 7}.String())
	assert.Equal(t, "$X_PATH", Source{Kind: SourceEnv, Name: "X_PATH"}.String())
	assert.Equal(t, "default", Source{Kind: SourceDefault}.String())
}
