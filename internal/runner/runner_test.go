package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xconform/internal/backend"
)

type fakeBackend struct {
	name  string
	flags backend.Flags
	err   error

	mu          sync.Mutex
	instances   []*fakeInstance
	running     atomic.Int32
	maxParallel atomic.Int32
}

func (b *fakeBackend) Name() string         { return b.name }
func (b *fakeBackend) Flags() backend.Flags { return b.flags }

func (b *fakeBackend) Instantiate(ctx context.Context, env backend.Env) (backend.Instance, error) {
	if b.err != nil {
		return nil, b.err
	}
	n := b.running.Add(1)
	for {
		m := b.maxParallel.Load()
		if n <= m || b.maxParallel.CompareAndSwap(m, n) {
			break
		}
	}
	inst := &fakeInstance{backend: b, dir: env.Dir}
	b.mu.Lock()
	b.instances = append(b.instances, inst)
	b.mu.Unlock()
	return inst, nil
}

type fakeInstance struct {
	backend     *fakeBackend
	dir         string
	closed      atomic.Bool
	screenshots []string
}

func (i *fakeInstance) Backend() backend.Backend                    { return i.backend }
func (i *fakeInstance) DefaultSeat() backend.Seat                   { return nil }
func (i *fakeInstance) CreateSeat() (backend.Seat, error)           { return nil, errors.New("no seats") }
func (i *fakeInstance) CreateEventLoop() (backend.EventLoop, error) { return nil, errors.New("no loops") }
func (i *fakeInstance) EnableSecondMonitor(enable bool) error       { return nil }

func (i *fakeInstance) Screenshot(name string) error {
	i.screenshots = append(i.screenshots, name)
	return nil
}

func (i *fakeInstance) Close() error {
	if i.closed.CompareAndSwap(false, true) {
		i.backend.running.Add(-1)
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	opts.Logger = quietLogger()
	return New(opts)
}

func resultFor(t *testing.T, sum *Summary, name string) Result {
	t.Helper()
	for _, r := range sum.Results {
		if r.Test == name {
			return r
		}
	}
	t.Fatalf("no result for %s", name)
	return Result{}
}

func TestRegistry(t *testing.T) {
	noop := func(*T) {}
	reg, err := NewRegistry(Test{Name: "a", Run: noop}, Test{Name: "b", Run: noop}, Test{Name: "c", Run: noop})
	require.NoError(t, err)

	assert.Error(t, reg.Register(Test{Name: "a", Run: noop}))
	assert.Error(t, reg.Register(Test{Name: " ", Run: noop}))
	assert.Error(t, reg.Register(Test{Name: "d"}))

	got, err := reg.Select([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name, "registration order is kept")
	assert.Equal(t, "c", got[1].Name)

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = reg.Select([]string{"a", "zzz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zzz")

	_, ok := reg.Lookup("b")
	assert.True(t, ok)
}

func TestRunOutcomes(t *testing.T) {
	be := &fakeBackend{name: "fake", flags: backend.FlagMTSafe | backend.FlagTitle}
	tests := []Test{
		{Name: "pass", Run: func(t *T) { t.Logf("hello") }},
		{Name: "error", Run: func(t *T) { t.Errorf("bad %d", 1); t.Logf("still running") }},
		{Name: "fatal", Run: func(t *T) {
			t.Fatalf("stop")
			t.Errorf("not reached")
		}},
		{Name: "panic", Run: func(t *T) { panic("boom") }},
		{Name: "logged-error", Run: func(t *T) { t.Logger().Error("something broke") }},
		{Name: "unsupported", Flags: backend.FlagIcon, Run: func(t *T) { t.Fatalf("must not run") }},
		{Name: "single-threaded-only", Flags: backend.FlagSingleThreaded, Run: func(t *T) {}},
	}

	var reported []string
	r := newRunner(t, Options{OnResult: func(res Result) { reported = append(reported, res.Test) }})
	sum, err := r.Run(context.Background(), tests, be)
	require.NoError(t, err)
	require.Len(t, sum.Results, len(tests))
	assert.Len(t, reported, len(tests))

	assert.Equal(t, StatusPassed, resultFor(t, sum, "pass").Status)

	res := resultFor(t, sum, "error")
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrFailed)
	assert.Equal(t, []string{"bad 1"}, res.Messages)

	assert.Equal(t, StatusFailed, resultFor(t, sum, "fatal").Status)

	res = resultFor(t, sum, "panic")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "boom")

	assert.Equal(t, StatusFailed, resultFor(t, sum, "logged-error").Status)

	res = resultFor(t, sum, "unsupported")
	assert.Equal(t, StatusSkipped, res.Status)
	assert.ErrorIs(t, res.Err, ErrUnsupported)
	assert.Contains(t, res.Error, "icon")

	assert.Equal(t, StatusPassed, resultFor(t, sum, "single-threaded-only").Status,
		"single-threaded is not a requirement")

	assert.Equal(t, 4, sum.Failed())
	assert.Equal(t, 1, sum.Count(StatusSkipped))

	for _, inst := range be.instances {
		assert.True(t, inst.closed.Load())
	}
}

func TestRunWritesDirectories(t *testing.T) {
	out := t.TempDir()
	be := &fakeBackend{name: "fake"}
	r := newRunner(t, Options{OutputDir: out, LatestLink: true})
	sum, err := r.Run(context.Background(), []Test{
		{Name: "one", Run: func(t *T) { t.Logger().Debug("detail", "k", "v") }},
		{Name: "two", Run: func(t *T) { t.Errorf("nope") }},
	}, be)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, sum.RunID), sum.Dir)
	logData, err := os.ReadFile(filepath.Join(sum.Dir, "fake", "one", "log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "detail")
	assert.Contains(t, string(logData), "test=one")

	target, err := os.Readlink(filepath.Join(out, "latest"))
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, target)

	data, err := os.ReadFile(filepath.Join(sum.Dir, "summary.yaml"))
	require.NoError(t, err)
	var decoded Summary
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, sum.RunID, decoded.RunID)
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, StatusFailed, decoded.Results[1].Status)

	require.Len(t, be.instances, 2)
	assert.Empty(t, be.instances[0].screenshots)
	assert.Equal(t, []string{"failure"}, be.instances[1].screenshots)

	// A second run moves the link.
	sum2, err := r.Run(context.Background(), nil, be)
	require.NoError(t, err)
	target, err = os.Readlink(filepath.Join(out, "latest"))
	require.NoError(t, err)
	assert.Equal(t, sum2.RunID, target)
}

func TestRunTimeout(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	r := newRunner(t, Options{Timeout: 50 * time.Millisecond})
	var sawCancel atomic.Bool
	sum, err := r.Run(context.Background(), []Test{{Name: "hang", Run: func(t *T) {
		<-t.Context().Done()
		sawCancel.Store(true)
	}}}, be)
	require.NoError(t, err)
	res := resultFor(t, sum, "hang")
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.True(t, sawCancel.Load())
}

func TestRunInstantiateError(t *testing.T) {
	be := &fakeBackend{name: "fake", err: errors.New("no server")}
	r := newRunner(t, Options{})
	sum, err := r.Run(context.Background(), []Test{{Name: "x", Run: func(*T) {}}}, be)
	require.NoError(t, err)
	res := resultFor(t, sum, "x")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "no server")
}

func TestRunSkip(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	r := newRunner(t, Options{Skip: func(name string) bool { return name == "b" }})
	var ran atomic.Int32
	body := func(*T) { ran.Add(1) }
	sum, err := r.Run(context.Background(), []Test{{Name: "a", Run: body}, {Name: "b", Run: body}}, be)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ran.Load())
	res := resultFor(t, sum, "b")
	assert.Equal(t, StatusSkipped, res.Status)
	assert.ErrorIs(t, res.Err, ErrSkipped)
}

func TestCleanupOrder(t *testing.T) {
	be := &fakeBackend{name: "fake"}
	r := newRunner(t, Options{})
	var order []int
	_, err := r.Run(context.Background(), []Test{{Name: "c", Run: func(t *T) {
		t.Cleanup(func() { order = append(order, 1) })
		t.Cleanup(func() { order = append(order, 2) })
		t.FailNow()
	}}}, be)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, order)
}

func blockingTests(n int, release <-chan struct{}) []Test {
	tests := make([]Test, n)
	for i := range tests {
		tests[i] = Test{Name: string(rune('a' + i)), Run: func(t *T) {
			select {
			case <-release:
			case <-time.After(100 * time.Millisecond):
			}
		}}
	}
	return tests
}

func TestParallelRequiresMTSafe(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	serial := &fakeBackend{name: "serial"}
	r := newRunner(t, Options{Parallel: 4})
	_, err := r.Run(context.Background(), blockingTests(3, release), serial)
	require.NoError(t, err)
	assert.Equal(t, int32(1), serial.maxParallel.Load())

	parallel := &fakeBackend{name: "parallel", flags: backend.FlagMTSafe}
	_, err = r.Run(context.Background(), blockingTests(3, release), parallel)
	require.NoError(t, err)
	assert.Greater(t, parallel.maxParallel.Load(), int32(1))
	assert.LessOrEqual(t, parallel.maxParallel.Load(), int32(3))
}

func TestTeeHandler(t *testing.T) {
	var errCount atomic.Int32
	var a, b testWriter
	h := newTeeHandler(func() { errCount.Add(1) },
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log := slog.New(h).With("k", "v")
	log.Debug("dbg")
	log.Error("err")

	assert.Contains(t, a.String(), "dbg")
	assert.Contains(t, a.String(), "k=v")
	assert.NotContains(t, b.String(), "dbg")
	assert.Contains(t, b.String(), "err")
	assert.Equal(t, int32(1), errCount.Load())
}

type testWriter struct {
	mu  sync.Mutex
	buf []byte
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *testWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}

func TestSingleThreadedRunsAlone(t *testing.T) {
	be := &fakeBackend{name: "fake", flags: backend.FlagMTSafe}
	r := newRunner(t, Options{Parallel: 4})
	var others atomic.Int32
	var overlap atomic.Bool
	busy := func(t *T) {
		others.Add(1)
		defer others.Add(-1)
		time.Sleep(20 * time.Millisecond)
	}
	sum, err := r.Run(context.Background(), []Test{
		{Name: "a", Run: busy},
		{Name: "alone", Flags: backend.FlagSingleThreaded, Run: func(t *T) {
			if others.Load() != 0 {
				overlap.Store(true)
			}
		}},
		{Name: "b", Run: busy},
	}, be)
	require.NoError(t, err)
	assert.False(t, overlap.Load())
	assert.Equal(t, "alone", sum.Results[1].Test, "results keep registration order")
}
