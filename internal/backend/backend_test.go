package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/notify"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
)

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "mt-safe|x11", (FlagMTSafe | FlagX11).String())
	assert.Equal(t, []string{"decorations", "single-threaded"}, (FlagDecorations | FlagSingleThreaded).Names())
	assert.Len(t, flagNames, 23, "every flag bit has a name")
}

func TestFlagsMissing(t *testing.T) {
	have := FlagMTSafe | FlagX11 | FlagTitle
	assert.Zero(t, have.Missing(FlagX11|FlagTitle))
	assert.Equal(t, FlagIcon, have.Missing(FlagTitle|FlagIcon))
	assert.Zero(t, have.Missing(FlagSingleThreaded), "non-requirement flags never cause a skip")
	assert.True(t, have.Has(FlagX11|FlagTitle))
	assert.False(t, have.Has(FlagIcon))
}

func TestParseFlag(t *testing.T) {
	f, ok := ParseFlag("second-monitor")
	require.True(t, ok)
	assert.Equal(t, FlagSecondMonitor, f)
	_, ok = ParseFlag("bogus")
	assert.False(t, ok)
}

type transition struct {
	key  keyboard.Key
	down bool
}

type recorder struct {
	mu  sync.Mutex
	log []transition
	err error
}

func (r *recorder) KeyDown(k keyboard.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.log = append(r.log, transition{k, true})
	return nil
}

func (r *recorder) KeyUp(k keyboard.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, transition{k, false})
	return nil
}

func TestKeysPressIsIdempotentWhileHeld(t *testing.T) {
	rec := &recorder{}
	keys := NewKeys(rec)

	a, err := keys.Press(keyboard.KeyA)
	require.NoError(t, err)
	b, err := keys.Press(keyboard.KeyA)
	require.NoError(t, err)
	assert.Equal(t, []transition{{keyboard.KeyA, true}}, rec.log)

	require.NoError(t, a.Release())
	require.NoError(t, a.Release())
	assert.True(t, keys.Held(keyboard.KeyA), "second owner still holds the key")

	require.NoError(t, b.Release())
	assert.False(t, keys.Held(keyboard.KeyA))
	assert.Equal(t, []transition{{keyboard.KeyA, true}, {keyboard.KeyA, false}}, rec.log)
}

func TestKeysNestedOrdering(t *testing.T) {
	rec := &recorder{}
	keys := NewKeys(rec)

	shift, err := keys.Press(keyboard.KeyLeftshift)
	require.NoError(t, err)
	a, err := keys.Press(keyboard.KeyA)
	require.NoError(t, err)
	require.NoError(t, a.Release())
	require.NoError(t, shift.Release())

	assert.Equal(t, []transition{
		{keyboard.KeyLeftshift, true},
		{keyboard.KeyA, true},
		{keyboard.KeyA, false},
		{keyboard.KeyLeftshift, false},
	}, rec.log)
	assert.Equal(t, keyboard.KeyA, a.Key())
}

func TestKeysClosed(t *testing.T) {
	rec := &recorder{}
	keys := NewKeys(rec)
	held, err := keys.Press(keyboard.KeyB)
	require.NoError(t, err)

	keys.Close()
	_, err = keys.Press(keyboard.KeyB)
	assert.ErrorIs(t, err, ErrDeviceClosed)
	require.NoError(t, held.Release())
	assert.Len(t, rec.log, 1, "no key-up after close")
}

func TestKeysSendFailureDoesNotHold(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	keys := NewKeys(rec)
	_, err := keys.Press(keyboard.KeyC)
	require.Error(t, err)
	assert.False(t, keys.Held(keyboard.KeyC))
}

// fakeLoop is an in-memory EventLoop.
type fakeLoop struct {
	queue   notify.Queue[event.Event]
	changed notify.Generation

	mu       sync.Mutex
	monitors []Monitor
}

func (l *fakeLoop) setMonitors(m []Monitor) {
	l.mu.Lock()
	l.monitors = m
	l.mu.Unlock()
	l.changed.Bump()
}

func (l *fakeLoop) Next(ctx context.Context) (event.Event, error) {
	return l.queue.Next(ctx)
}

func (l *fakeLoop) Await(ctx context.Context, cond func() bool) error {
	return notify.Await(ctx, &l.changed, cond)
}

func (l *fakeLoop) CreateWindow(xtk.Attributes) (Window, error) {
	return nil, errors.New("unsupported")
}

func (l *fakeLoop) SendEvent(ev event.User) {
	l.queue.Push(ev)
	l.changed.Bump()
}

func (l *fakeLoop) Monitors() ([]Monitor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.monitors, nil
}

func (l *fakeLoop) Logger() *slog.Logger { return slog.Default() }

func (l *fakeLoop) Close() error {
	l.queue.Close()
	l.changed.Close()
	return nil
}

func TestNextEventSkipsOtherTypes(t *testing.T) {
	el := &fakeLoop{}
	el.queue.Push(event.Focused{Window: 1, Focused: true})
	el.queue.Push(event.Resized{Window: 1, Width: 10, Height: 20})
	el.SendEvent(event.User{Value: 7})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	user, err := UserEvent(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), user.Value)
	assert.Zero(t, el.queue.Len(), "skipped events are consumed")
}

func TestNextEventInterfaceTypes(t *testing.T) {
	el := &fakeLoop{}
	el.queue.Push(event.User{Value: 1})
	el.queue.Push(event.DeviceAdded{Device: 9})
	el.queue.Push(event.CloseRequested{Window: 4})

	ctx := context.Background()
	dev, err := DeviceEvent(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, event.DeviceID(9), dev.DeviceID())

	win, err := WindowEvent(ctx, el)
	require.NoError(t, err)
	assert.Equal(t, event.WindowID(4), win.WindowID())
}

func TestWindowFocusFor(t *testing.T) {
	el := &fakeLoop{}
	el.queue.Push(event.Focused{Window: 1, Focused: true})
	el.queue.Push(event.Focused{Window: 2, Focused: true})

	ev, err := WindowFocusFor(context.Background(), el, 2)
	require.NoError(t, err)
	assert.Equal(t, event.WindowID(2), ev.Window)
}

func TestNextEventHonoursContext(t *testing.T) {
	el := &fakeLoop{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := WindowResized(ctx, el)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitMonitors(t *testing.T) {
	el := &fakeLoop{monitors: []Monitor{{Name: "first", Primary: true}}}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		el.setMonitors([]Monitor{{Name: "first", Primary: true}, {Name: "second"}})
	}()
	require.NoError(t, AwaitMonitors(ctx, el, 2))

	monitors, err := el.Monitors()
	require.NoError(t, err)
	m, ok := PrimaryMonitor(monitors)
	require.True(t, ok)
	assert.Equal(t, "first", m.Name)
}

func TestIconEqual(t *testing.T) {
	a := &Icon{Width: 1, Height: 1, ARGB: []uint32{0xff00ff00}}
	b := &Icon{Width: 1, Height: 1, ARGB: []uint32{0xff00ff00}}
	assert.True(t, IconEqual(a, b))
	assert.True(t, IconEqual(nil, nil))
	assert.False(t, IconEqual(a, nil))
	b.ARGB[0] = 0
	assert.False(t, IconEqual(a, b))
}

func TestSizeEqual(t *testing.T) {
	assert.True(t, sizeEqual(nil, nil))
	assert.False(t, sizeEqual(&Size{1, 2}, nil))
	assert.True(t, sizeEqual(&Size{1, 2}, &Size{1, 2}))
}
