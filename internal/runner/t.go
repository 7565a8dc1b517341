package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/1broseidon/xconform/internal/backend"
)

// T is handed to a test body. Its Errorf and FailNow make it usable with
// testify's assert and require packages.
type T struct {
	name     string
	ctx      context.Context
	instance backend.Instance
	log      *slog.Logger
	dir      string

	mu       sync.Mutex
	failed   bool
	messages []string
	cleanups []func()
}

func newT(ctx context.Context, name string, inst backend.Instance, log *slog.Logger, dir string) *T {
	return &T{name: name, ctx: ctx, instance: inst, log: log, dir: dir}
}

func (t *T) Name() string { return t.name }

// Context is cancelled when the test times out.
func (t *T) Context() context.Context { return t.ctx }

func (t *T) Instance() backend.Instance { return t.instance }

func (t *T) Logger() *slog.Logger { return t.log }

// Dir is the test's output directory.
func (t *T) Dir() string { return t.dir }

// Helper exists for testify; call sites are not tracked.
func (t *T) Helper() {}

func (t *T) Logf(format string, args ...any) {
	t.log.Info(fmt.Sprintf(format, args...))
}

// Errorf records a failure and continues.
func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.log.Error(msg)
	t.fail(msg)
}

// Fatalf records a failure and stops the test body.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

// FailNow marks the test failed and stops the calling goroutine, which must
// be the test body.
func (t *T) FailNow() {
	t.fail("")
	runtime.Goexit()
}

// NoError stops the test when err is non-nil.
func (t *T) NoError(err error, what string) {
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

// Cleanup registers f to run after the body returns, before the instance is
// closed. Cleanups run last-in first-out.
func (t *T) Cleanup(f func()) {
	t.mu.Lock()
	t.cleanups = append(t.cleanups, f)
	t.mu.Unlock()
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) fail(msg string) {
	t.mu.Lock()
	t.failed = true
	if msg != "" {
		t.messages = append(t.messages, msg)
	}
	t.mu.Unlock()
}

func (t *T) Messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}

func (t *T) runCleanups() {
	t.mu.Lock()
	fns := t.cleanups
	t.cleanups = nil
	t.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
