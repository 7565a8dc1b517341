package x11backend

import (
	"context"
	"log/slog"
	"sync"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/notify"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
	"github.com/1broseidon/xconform/internal/x11"
)

// eventLoop is one toolkit connection. The toolkit's pump goroutine is the
// only reader of its socket; everything else waits on the queue or the
// generation.
type eventLoop struct {
	inst *Instance
	app  *xtk.App
	log  *slog.Logger

	queue   notify.Queue[event.Event]
	changed notify.Generation

	closeOnce sync.Once
}

var _ backend.EventLoop = (*eventLoop)(nil)

func newEventLoop(inst *Instance) (*eventLoop, error) {
	el := &eventLoop{inst: inst, log: inst.log.With("component", "eventloop")}
	app, err := xtk.Open(inst.server.Display, el.onEvent,
		xtk.WithLogger(el.log),
		xtk.WithDispatchHook(func() { el.changed.Bump() }))
	if err != nil {
		return nil, err
	}
	el.app = app
	return el, nil
}

func (el *eventLoop) onEvent(ev event.Event) {
	el.log.Debug("toolkit event", "event", ev)
	el.queue.Push(ev)
}

// push queues an event from outside the pump.
func (el *eventLoop) push(ev event.Event) {
	el.queue.Push(ev)
	el.changed.Bump()
}

func (el *eventLoop) Next(ctx context.Context) (event.Event, error) {
	return el.queue.Next(ctx)
}

func (el *eventLoop) Await(ctx context.Context, cond func() bool) error {
	return notify.Await(ctx, &el.changed, cond)
}

func (el *eventLoop) CreateWindow(attrs xtk.Attributes) (backend.Window, error) {
	tw, err := el.app.CreateWindow(attrs)
	if err != nil {
		return nil, err
	}
	el.log.Info("created window", "window", tw.ID())
	return &window{loop: el, tk: tw}, nil
}

func (el *eventLoop) SendEvent(ev event.User) {
	el.push(ev)
}

func (el *eventLoop) Monitors() ([]backend.Monitor, error) {
	monitors, err := el.app.Monitors()
	if err != nil {
		return nil, err
	}
	return convertMonitors(monitors), nil
}

func convertMonitors(monitors []x11.Monitor) []backend.Monitor {
	out := make([]backend.Monitor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, backend.Monitor{
			Name:    m.Name,
			X:       m.X,
			Y:       m.Y,
			Width:   m.Width,
			Height:  m.Height,
			Primary: m.Primary,
		})
	}
	return out
}

func (el *eventLoop) Logger() *slog.Logger {
	return el.log
}

// Close stops the pump and fails pending waits.
func (el *eventLoop) Close() error {
	var err error
	el.closeOnce.Do(func() {
		el.inst.dropLoop(el)
		err = el.app.Close()
		el.queue.Close()
		el.changed.Close()
	})
	return err
}
