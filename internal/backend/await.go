package backend

import (
	"context"
	"slices"
)

func await(ctx context.Context, w Window, what string, value any, cond func(Properties) bool) error {
	w.EventLoop().Logger().Info("waiting for window", "window", w.ID(), "property", what, "want", value)
	return w.Await(ctx, cond)
}

// Mapped waits until the window's mapped state is mapped.
func Mapped(ctx context.Context, w Window, mapped bool) error {
	return await(ctx, w, "mapped", mapped, func(p Properties) bool { return p.Mapped == mapped })
}

// AlwaysOnTop waits for the always-on-top state.
func AlwaysOnTop(ctx context.Context, w Window, on bool) error {
	return await(ctx, w, "always-on-top", on, func(p Properties) bool { return p.AlwaysOnTop == on })
}

// Decorations waits for the decoration state.
func Decorations(ctx context.Context, w Window, on bool) error {
	return await(ctx, w, "decorations", on, func(p Properties) bool { return p.Decorations == on })
}

// Title waits until the window has a known title equal to title.
func Title(ctx context.Context, w Window, title string) error {
	return await(ctx, w, "title", title, func(p Properties) bool { return p.TitleOK && p.Title == title })
}

// InnerSize waits for the window manager's view of the client size.
func InnerSize(ctx context.Context, w Window, width, height int) error {
	return await(ctx, w, "inner-size", Size{width, height}, func(p Properties) bool {
		return p.Width == width && p.Height == height
	})
}

// OuterPosition waits for the frame position.
func OuterPosition(ctx context.Context, w Window, x, y int) error {
	return await(ctx, w, "outer-position", [2]int{x, y}, func(p Properties) bool {
		return p.X == x && p.Y == y
	})
}

// Maximized waits until the maximized state is known and equal to maximized.
func Maximized(ctx context.Context, w Window, maximized bool) error {
	return await(ctx, w, "maximized", maximized, func(p Properties) bool {
		return p.MaximizedOK && p.Maximized == maximized
	})
}

// Minimized waits until the minimized state is known and equal to minimized.
func Minimized(ctx context.Context, w Window, minimized bool) error {
	return await(ctx, w, "minimized", minimized, func(p Properties) bool {
		return p.MinimizedOK && p.Minimized == minimized
	})
}

// Resizable waits until resizability is known and equal to resizable.
func Resizable(ctx context.Context, w Window, resizable bool) error {
	return await(ctx, w, "resizable", resizable, func(p Properties) bool {
		return p.ResizableOK && p.Resizable == resizable
	})
}

// Attention waits for the urgency hint.
func Attention(ctx context.Context, w Window, attention bool) error {
	return await(ctx, w, "attention", attention, func(p Properties) bool { return p.Attention == attention })
}

// MinSize waits for the minimum size hint; nil waits for its absence.
func MinSize(ctx context.Context, w Window, size *Size) error {
	return await(ctx, w, "min-size", size, func(p Properties) bool { return sizeEqual(p.MinSize, size) })
}

// MaxSize waits for the maximum size hint; nil waits for its absence.
func MaxSize(ctx context.Context, w Window, size *Size) error {
	return await(ctx, w, "max-size", size, func(p Properties) bool { return sizeEqual(p.MaxSize, size) })
}

// Class waits for the WM_CLASS class.
func Class(ctx context.Context, w Window, class string) error {
	return await(ctx, w, "class", class, func(p Properties) bool { return p.Class == class })
}

// InstanceName waits for the WM_CLASS instance.
func InstanceName(ctx context.Context, w Window, instance string) error {
	return await(ctx, w, "instance", instance, func(p Properties) bool { return p.Instance == instance })
}

// WindowIcon waits for the icon; nil waits for its absence.
func WindowIcon(ctx context.Context, w Window, icon *Icon) error {
	return await(ctx, w, "icon", icon != nil, func(p Properties) bool { return IconEqual(p.Icon, icon) })
}

// Gone waits until the window manager has no record of the window.
func Gone(ctx context.Context, w Window) error {
	return await(ctx, w, "exists", false, func(p Properties) bool { return !p.Exists })
}

// ToolkitInnerSize waits until the toolkit reports the given inner size.
func ToolkitInnerSize(ctx context.Context, w Window, width, height int) error {
	el := w.EventLoop()
	el.Logger().Info("waiting for toolkit", "window", w.ID(), "property", "inner-size", "want", Size{width, height})
	return el.Await(ctx, func() bool {
		s := w.Toolkit().Size()
		return s.Width == width && s.Height == height
	})
}

// ToolkitOuterPosition waits until the toolkit reports the given outer
// position.
func ToolkitOuterPosition(ctx context.Context, w Window, x, y int) error {
	el := w.EventLoop()
	el.Logger().Info("waiting for toolkit", "window", w.ID(), "property", "outer-position", "want", [2]int{x, y})
	return el.Await(ctx, func() bool {
		px, py, ok := w.Toolkit().Position()
		return ok && px == x && py == y
	})
}

// AwaitMonitors waits until the event loop sees n monitors.
func AwaitMonitors(ctx context.Context, el EventLoop, n int) error {
	el.Logger().Info("waiting for monitors", "want", n)
	return el.Await(ctx, func() bool {
		monitors, err := el.Monitors()
		return err == nil && len(monitors) == n
	})
}

// PrimaryMonitor returns the primary monitor, if one is marked.
func PrimaryMonitor(monitors []Monitor) (Monitor, bool) {
	for _, m := range monitors {
		if m.Primary {
			return m, true
		}
	}
	return Monitor{}, false
}

func sizeEqual(a, b *Size) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IconEqual compares two icons by dimensions and pixels.
func IconEqual(a, b *Icon) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Width == b.Width && a.Height == b.Height && slices.Equal(a.ARGB, b.ARGB)
}
