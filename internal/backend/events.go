package backend

import (
	"context"

	"github.com/1broseidon/xconform/internal/event"
)

// NextEvent pops events until one of type T arrives. Events of other types
// are dropped.
func NextEvent[T event.Event](ctx context.Context, el EventLoop) (T, error) {
	for {
		ev, err := el.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if t, ok := ev.(T); ok {
			return t, nil
		}
	}
}

// nextFor pops events until one of type T addressed to win arrives.
func nextFor[T event.WindowEvent](ctx context.Context, el EventLoop, win event.WindowID) (T, error) {
	for {
		ev, err := NextEvent[T](ctx, el)
		if err != nil || ev.WindowID() == win {
			return ev, err
		}
	}
}

func UserEvent(ctx context.Context, el EventLoop) (event.User, error) {
	return NextEvent[event.User](ctx, el)
}

func WindowEvent(ctx context.Context, el EventLoop) (event.WindowEvent, error) {
	return NextEvent[event.WindowEvent](ctx, el)
}

func DeviceEvent(ctx context.Context, el EventLoop) (event.DeviceEvent, error) {
	return NextEvent[event.DeviceEvent](ctx, el)
}

func DeviceAdded(ctx context.Context, el EventLoop) (event.DeviceAdded, error) {
	return NextEvent[event.DeviceAdded](ctx, el)
}

func DeviceRemoved(ctx context.Context, el EventLoop) (event.DeviceRemoved, error) {
	return NextEvent[event.DeviceRemoved](ctx, el)
}

func WindowDestroyed(ctx context.Context, el EventLoop) (event.Destroyed, error) {
	return NextEvent[event.Destroyed](ctx, el)
}

func WindowFocus(ctx context.Context, el EventLoop) (event.Focused, error) {
	return NextEvent[event.Focused](ctx, el)
}

func WindowMoved(ctx context.Context, el EventLoop) (event.Moved, error) {
	return NextEvent[event.Moved](ctx, el)
}

func WindowResized(ctx context.Context, el EventLoop) (event.Resized, error) {
	return NextEvent[event.Resized](ctx, el)
}

func WindowCloseRequested(ctx context.Context, el EventLoop) (event.CloseRequested, error) {
	return NextEvent[event.CloseRequested](ctx, el)
}

func WindowKeyboardInput(ctx context.Context, el EventLoop) (event.KeyboardInput, error) {
	return NextEvent[event.KeyboardInput](ctx, el)
}

func WindowModifiers(ctx context.Context, el EventLoop) (event.ModifiersChanged, error) {
	return NextEvent[event.ModifiersChanged](ctx, el)
}

// WindowFocusFor is WindowFocus restricted to one window.
func WindowFocusFor(ctx context.Context, el EventLoop, win event.WindowID) (event.Focused, error) {
	return nextFor[event.Focused](ctx, el, win)
}
