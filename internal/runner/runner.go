// Package runner executes conformance tests against backends. Every test
// gets a fresh instance, its own output directory and log file, and a
// deadline.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xconform/internal/backend"
)

const (
	DefaultTimeout = 5 * time.Second
	// bodyGrace bounds how long a timed-out body may keep running after its
	// instance was closed.
	bodyGrace = 2 * time.Second
)

var (
	ErrTimeout     = errors.New("test timed out")
	ErrUnsupported = errors.New("test not supported by backend")
	ErrSkipped     = errors.New("test skipped by configuration")
	ErrFailed      = errors.New("test failed")
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one test on one backend.
type Result struct {
	Backend  string        `yaml:"backend" json:"backend"`
	Test     string        `yaml:"test" json:"test"`
	Status   Status        `yaml:"status" json:"status"`
	Error    string        `yaml:"error,omitempty" json:"error,omitempty"`
	Messages []string      `yaml:"messages,omitempty" json:"messages,omitempty"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	Dir      string        `yaml:"dir,omitempty" json:"dir,omitempty"`

	Err error `yaml:"-" json:"-"`
}

// Summary describes one run.
type Summary struct {
	RunID    string        `yaml:"run_id" json:"run_id"`
	Dir      string        `yaml:"dir" json:"dir"`
	Started  time.Time     `yaml:"started" json:"started"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	Results  []Result      `yaml:"results" json:"results"`
}

func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (s *Summary) Failed() int { return s.Count(StatusFailed) }

type Options struct {
	// OutputDir receives <run-id>/<backend>/<test>/ for every run.
	OutputDir string
	Timeout   time.Duration
	// Parallel bounds concurrently running tests on backends that declare
	// FlagMTSafe.
	Parallel int
	// LatestLink maintains <OutputDir>/latest.
	LatestLink bool
	// Skip excludes tests by name.
	Skip   func(test string) bool
	Logger *slog.Logger
	// OnResult is called as each test finishes. Calls are serialized.
	OnResult func(Result)
}

type Runner struct {
	opts Options
	log  *slog.Logger

	reportMu sync.Mutex
}

func New(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{opts: opts, log: log}
}

// Run executes tests on every backend in order and records the run under a
// fresh run id.
func (r *Runner) Run(ctx context.Context, tests []Test, backends ...backend.Backend) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), Started: time.Now()}
	sum.Dir = filepath.Join(r.opts.OutputDir, sum.RunID)
	if err := os.MkdirAll(sum.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	if r.opts.LatestLink {
		if err := linkLatest(r.opts.OutputDir, sum.RunID); err != nil {
			r.log.Warn("updating latest link", "error", err)
		}
	}
	r.log.Info("starting run", "run", sum.RunID, "dir", sum.Dir, "tests", len(tests))

	for _, be := range backends {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Results = append(sum.Results, r.runBackend(ctx, sum.Dir, be, tests)...)
	}
	sum.Duration = time.Since(sum.Started)

	if err := writeSummary(filepath.Join(sum.Dir, "summary.yaml"), sum); err != nil {
		r.log.Warn("writing summary", "error", err)
	}
	r.log.Info(fmt.Sprintf("%d out of %d tests failed", sum.Failed(), len(sum.Results)),
		"skipped", sum.Count(StatusSkipped))
	return sum, nil
}

func (r *Runner) runBackend(ctx context.Context, runDir string, be backend.Backend, tests []Test) []Result {
	flags := be.Flags()
	limit := 1
	if flags.Has(backend.FlagMTSafe) && !flags.Has(backend.FlagSingleThreaded) {
		limit = r.opts.Parallel
	}
	r.log.Info("running tests for backend", "backend", be.Name(), "flags", flags, "parallel", limit)

	beDir := filepath.Join(runDir, be.Name())
	results := make([]Result, len(tests))
	run := func(i int) {
		res := r.runOne(ctx, beDir, be, tests[i], fmt.Sprintf("%d/%d", i+1, len(tests)))
		results[i] = res
		r.report(res)
	}

	// Tests flagged single-threaded run alone once the pool has drained.
	var serial []int
	var g errgroup.Group
	g.SetLimit(limit)
	for i, tc := range tests {
		if tc.Flags.Has(backend.FlagSingleThreaded) {
			serial = append(serial, i)
			continue
		}
		g.Go(func() error {
			run(i)
			return nil
		})
	}
	_ = g.Wait()
	for _, i := range serial {
		run(i)
	}
	return results
}

func (r *Runner) report(res Result) {
	if r.opts.OnResult == nil {
		return
	}
	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	r.opts.OnResult(res)
}

func (r *Runner) runOne(ctx context.Context, beDir string, be backend.Backend, tc Test, progress string) Result {
	res := Result{Backend: be.Name(), Test: tc.Name}
	log := r.log.With("progress", progress, "test", tc.Name)

	if r.opts.Skip != nil && r.opts.Skip(tc.Name) {
		log.Info("skipping test", "reason", "configuration")
		res.Status, res.Err = StatusSkipped, ErrSkipped
		res.Error = res.Err.Error()
		return res
	}
	if missing := be.Flags().Missing(tc.Flags); missing != 0 {
		log.Info("skipping unsupported test", "missing", missing)
		res.Status, res.Err = StatusSkipped, fmt.Errorf("%w: missing %s", ErrUnsupported, missing)
		res.Error = res.Err.Error()
		return res
	}

	log.Info("running test")
	res.Dir = filepath.Join(beDir, tc.Name)
	start := time.Now()
	msgs, err := r.execute(ctx, res.Dir, be, tc)
	res.Duration = time.Since(start)
	res.Messages = msgs
	if err != nil {
		res.Status, res.Err, res.Error = StatusFailed, err, err.Error()
		log.Error("test failed", "error", err, "duration", res.Duration)
		return res
	}
	res.Status = StatusPassed
	log.Info("test passed", "duration", res.Duration)
	return res
}

// execute runs the body of tc against a fresh instance.
func (r *Runner) execute(ctx context.Context, dir string, be backend.Backend, tc Test) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create test directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open test log: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	t := newT(ctx, tc.Name, nil, nil, dir)
	handler := newTeeHandler(func() { t.fail("") },
		slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}),
		r.log.Handler())
	t.log = slog.New(handler).With("backend", be.Name(), "test", tc.Name)

	inst, err := be.Instantiate(ctx, backend.Env{Dir: dir, Logger: t.log})
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", be.Name(), err)
	}
	t.instance = inst

	done := make(chan struct{})
	var panicErr error
	go func() {
		defer close(done)
		defer t.runCleanups()
		defer func() {
			if v := recover(); v != nil {
				panicErr = fmt.Errorf("panic: %v", v)
				t.log.Error("test panicked", "panic", v, "stack", string(debug.Stack()))
				t.fail(panicErr.Error())
			}
		}()
		tc.Run(t)
	}()

	finished := false
	select {
	case <-done:
		finished = true
	case <-ctx.Done():
	}
	// A body that returned because its context expired timed out too.
	var runErr error
	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		runErr = fmt.Errorf("%w after %s", ErrTimeout, r.opts.Timeout)
		t.log.Error("test timed out", "timeout", r.opts.Timeout)
	} else if err != nil {
		runErr = err
	}

	if runErr != nil || t.Failed() {
		if err := inst.Screenshot("failure"); err != nil {
			t.log.Debug("failure screenshot", "error", err)
		}
	}
	if err := inst.Close(); err != nil {
		t.log.Warn("closing instance", "error", err)
	}

	if !finished {
		select {
		case <-done:
			finished = true
		case <-time.After(bodyGrace):
			t.log.Warn("test body still running after teardown")
		}
	}

	switch {
	case runErr != nil:
		return t.Messages(), runErr
	case finished && panicErr != nil:
		return t.Messages(), panicErr
	case t.Failed():
		return t.Messages(), ErrFailed
	}
	return t.Messages(), nil
}

// linkLatest points <out>/latest at the run directory.
func linkLatest(out, runID string) error {
	latest := filepath.Join(out, "latest")
	if err := os.Remove(latest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Symlink(runID, latest)
}

func writeSummary(path string, sum *Summary) error {
	data, err := yaml.Marshal(sum)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
