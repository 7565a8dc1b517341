package xserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath_Priority(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, ResolvePath(""))
	assert.Equal(t, "/opt/X", ResolvePath("/opt/X"))

	t.Setenv(EnvPath, "/custom/Xorg")
	assert.Equal(t, "/custom/Xorg", ResolvePath("/opt/X"))
}

func TestArgs(t *testing.T) {
	p := PathsIn("/tmp/run")
	got := Args(p, "/usr/lib/xorg/modules,/opt/companion", "")
	assert.Equal(t, []string{
		"-config", "/tmp/run/xorg.conf",
		"-configdir", "/tmp/run/xorg.conf.d",
		"-modulepath", "/usr/lib/xorg/modules,/opt/companion",
		"-seat", DefaultSeat,
		"-logfile", "/tmp/run/xorg.log",
		"-noreset",
		"-displayfd", "4",
	}, got)
}

func TestConfigNamesCompanionDriver(t *testing.T) {
	cfg := Config()
	assert.Contains(t, cfg, `Driver      "winit"`)
	assert.Contains(t, cfg, `Section "Serverlayout"`)
	assert.Equal(t, 3, strings.Count(cfg, "EndSection"))
}

func TestParseDisplay(t *testing.T) {
	got, err := ParseDisplay("12\n")
	require.NoError(t, err)
	assert.Equal(t, ":12", got)

	_, err = ParseDisplay("")
	assert.Error(t, err)
	_, err = ParseDisplay("-1")
	assert.Error(t, err)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-x")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestStart_ReadsDisplayAndReapsOnClose(t *testing.T) {
	t.Setenv(EnvPath, "")
	script := writeScript(t, "echo 7 >&4\nexec 4>&-\nexec sleep 30\n")
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv, err := Start(ctx, Options{Path: script, ModulePath: "/nowhere", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, ":7", srv.Display)
	assert.NotNil(t, srv.Channel)
	assert.FileExists(t, filepath.Join(dir, "xorg.conf"))
	assert.DirExists(t, filepath.Join(dir, "xorg.conf.d"))

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
}

func TestStart_ServerExitingWithoutDisplayFails(t *testing.T) {
	t.Setenv(EnvPath, "")
	script := writeScript(t, "echo broken >&2\nexit 1\n")
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Start(ctx, Options{Path: script, Dir: dir})
	require.Error(t, err)

	stderr, readErr := os.ReadFile(filepath.Join(dir, "stderr"))
	require.NoError(t, readErr)
	assert.Contains(t, string(stderr), "broken")
}

func TestDefaultModulePath(t *testing.T) {
	script := writeScript(t, "echo /usr/lib/xorg/modules >&2\n")
	got, err := DefaultModulePath(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/xorg/modules", got)
}
