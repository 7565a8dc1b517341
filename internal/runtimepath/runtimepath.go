// Package runtimepath locates the per-user directories test runs are
// written below.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Dir returns the per-user runtime directory: $XDG_RUNTIME_DIR, then
// /run/user/<uid> when it exists, then /tmp/xconform-runtime-<uid>, which is
// created and must belong to the caller.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}

	dir := fmt.Sprintf("/tmp/xconform-runtime-%d", uid)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to stat runtime dir: %w", err)
	}
	if st, ok := info.Sys().(*syscall.Stat_t); !info.IsDir() || (ok && int(st.Uid) != uid) {
		return "", fmt.Errorf("runtime dir %s is not a directory owned by uid %d", dir, uid)
	}
	return dir, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// OutputDir returns the directory test runs are recorded under when the
// configuration does not name one.
func OutputDir() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, "xconform"), nil
}

// ResolveOutputDir returns configured, or OutputDir when it is empty.
func ResolveOutputDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return OutputDir()
}

// Latest returns the run directory <out>/latest points at.
func Latest(out string) (string, error) {
	target, err := os.Readlink(filepath.Join(out, "latest"))
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(out, target)
	}
	return target, nil
}
