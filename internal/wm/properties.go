package wm

import (
	"slices"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
)

func (w *WM) trackedAtoms() []xproto.Atom {
	a := w.conn.Atoms
	return []xproto.Atom{
		a.WmName, a.NetWmName, a.WmNormalHints, a.WmHints, a.WmProtocols,
		a.WmClass, a.MotifWmHints, a.NetWmIcon, a.NetWmState,
	}
}

// readProperty re-reads one client property into win. It reports false when
// the atom is not one the WM tracks.
func (w *WM) readProperty(win *Window, atom xproto.Atom) bool {
	xu := w.conn.XUtil
	a := w.conn.Atoms
	var apply func()

	switch atom {
	case a.WmName:
		name := optional(icccm.WmNameGet(xu, win.ID))
		apply = func() { win.WmName = name }

	case a.NetWmName:
		name := optional(ewmh.WmNameGet(xu, win.ID))
		apply = func() { win.NetWmName = name }

	case a.WmNormalHints:
		var minSize, maxSize *Size
		if hints, err := icccm.WmNormalHintsGet(xu, win.ID); err == nil {
			minSize, maxSize = sizeLimits(hints)
		}
		apply = func() { win.MinSize, win.MaxSize = minSize, maxSize }

	case a.WmHints:
		urgent := false
		if hints, err := icccm.WmHintsGet(xu, win.ID); err == nil {
			urgent = hints.Flags&icccm.HintUrgency != 0
		}
		apply = func() { win.Urgent = urgent }

	case a.WmProtocols:
		var protocols Protocols
		if names, err := icccm.WmProtocolsGet(xu, win.ID); err == nil {
			protocols = parseProtocols(names)
		}
		apply = func() { win.Protocols = protocols }

	case a.WmClass:
		var class icccm.WmClass
		if c, err := icccm.WmClassGet(xu, win.ID); err == nil {
			class = *c
		}
		apply = func() { win.Class, win.Instance = class.Class, class.Instance }

	case a.MotifWmHints:
		decorated := true
		if hints, err := motif.WmHintsGet(xu, win.ID); err == nil {
			decorated = motif.Decor(hints)
		}
		apply = func() { win.Decorations = decorated }

	case a.NetWmIcon:
		var icon *Icon
		if icons, err := ewmh.WmIconGet(xu, win.ID); err == nil {
			icon = pickIcon(icons)
		}
		apply = func() { win.Icon = icon }

	case a.NetWmState:
		// Clients set their initial state before mapping; afterwards the WM
		// owns the property.
		if win.Mapped {
			return false
		}
		names, _ := ewmh.WmStateGet(xu, win.ID)
		apply = func() {
			win.MaximizedHorz = slices.Contains(names, "_NET_WM_STATE_MAXIMIZED_HORZ")
			win.MaximizedVert = slices.Contains(names, "_NET_WM_STATE_MAXIMIZED_VERT")
			win.AlwaysOnTop = slices.Contains(names, "_NET_WM_STATE_ABOVE")
		}

	default:
		return false
	}

	w.mu.Lock()
	apply()
	w.mu.Unlock()
	return true
}

func optional(s string, err error) *string {
	if err != nil {
		return nil
	}
	return &s
}

func sizeLimits(h *icccm.NormalHints) (minSize, maxSize *Size) {
	if h.Flags&icccm.SizeHintPMinSize != 0 {
		minSize = &Size{Width: int(h.MinWidth), Height: int(h.MinHeight)}
	}
	if h.Flags&icccm.SizeHintPMaxSize != 0 {
		maxSize = &Size{Width: int(h.MaxWidth), Height: int(h.MaxHeight)}
	}
	return minSize, maxSize
}

func parseProtocols(names []string) Protocols {
	var p Protocols
	for _, name := range names {
		switch name {
		case "WM_DELETE_WINDOW":
			p |= ProtoDeleteWindow
		case "_NET_WM_PING":
			p |= ProtoPing
		}
	}
	return p
}

// pickIcon returns the largest icon.
func pickIcon(icons []ewmh.WmIcon) *Icon {
	var best *ewmh.WmIcon
	for i := range icons {
		if best == nil || icons[i].Width*icons[i].Height > best.Width*best.Height {
			best = &icons[i]
		}
	}
	if best == nil {
		return nil
	}
	argb := make([]uint32, len(best.Data))
	for i, px := range best.Data {
		argb[i] = uint32(px)
	}
	return &Icon{Width: int(best.Width), Height: int(best.Height), ARGB: argb}
}

func sortWindows(ids []xproto.Window) {
	slices.Sort(ids)
}
