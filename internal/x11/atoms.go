package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Atoms is the set of atoms the window manager and toolkit need on every
// connection. They are interned once at connect time.
type Atoms struct {
	WmState              xproto.Atom
	WmChangeState        xproto.Atom
	WmProtocols          xproto.Atom
	WmDeleteWindow       xproto.Atom
	WmName               xproto.Atom
	WmClass              xproto.Atom
	WmHints              xproto.Atom
	WmNormalHints        xproto.Atom
	NetWmPing            xproto.Atom
	NetWmName            xproto.Atom
	NetWmIcon            xproto.Atom
	NetWmState           xproto.Atom
	NetWmStateMaxHorz    xproto.Atom
	NetWmStateMaxVert    xproto.Atom
	NetWmStateAbove      xproto.Atom
	NetWmStateHidden     xproto.Atom
	NetWmStateAttention  xproto.Atom
	NetFrameExtents      xproto.Atom
	NetActiveWindow      xproto.Atom
	NetSupported         xproto.Atom
	NetSupportingWmCheck xproto.Atom
	NetClientList        xproto.Atom
	MotifWmHints         xproto.Atom
	Utf8String           xproto.Atom
}

func internAtoms(xu *xgbutil.XUtil) (*Atoms, error) {
	a := &Atoms{}
	table := []struct {
		name string
		dst  *xproto.Atom
	}{
		{"WM_STATE", &a.WmState},
		{"WM_CHANGE_STATE", &a.WmChangeState},
		{"WM_PROTOCOLS", &a.WmProtocols},
		{"WM_DELETE_WINDOW", &a.WmDeleteWindow},
		{"WM_NAME", &a.WmName},
		{"WM_CLASS", &a.WmClass},
		{"WM_HINTS", &a.WmHints},
		{"WM_NORMAL_HINTS", &a.WmNormalHints},
		{"_NET_WM_PING", &a.NetWmPing},
		{"_NET_WM_NAME", &a.NetWmName},
		{"_NET_WM_ICON", &a.NetWmIcon},
		{"_NET_WM_STATE", &a.NetWmState},
		{"_NET_WM_STATE_MAXIMIZED_HORZ", &a.NetWmStateMaxHorz},
		{"_NET_WM_STATE_MAXIMIZED_VERT", &a.NetWmStateMaxVert},
		{"_NET_WM_STATE_ABOVE", &a.NetWmStateAbove},
		{"_NET_WM_STATE_HIDDEN", &a.NetWmStateHidden},
		{"_NET_WM_STATE_DEMANDS_ATTENTION", &a.NetWmStateAttention},
		{"_NET_FRAME_EXTENTS", &a.NetFrameExtents},
		{"_NET_ACTIVE_WINDOW", &a.NetActiveWindow},
		{"_NET_SUPPORTED", &a.NetSupported},
		{"_NET_SUPPORTING_WM_CHECK", &a.NetSupportingWmCheck},
		{"_NET_CLIENT_LIST", &a.NetClientList},
		{"_MOTIF_WM_HINTS", &a.MotifWmHints},
		{"UTF8_STRING", &a.Utf8String},
	}
	for _, entry := range table {
		id, err := atom(xu, entry.name)
		if err != nil {
			return nil, err
		}
		*entry.dst = id
	}
	return a, nil
}

func atom(xu *xgbutil.XUtil, name string) (xproto.Atom, error) {
	id, err := xprop.Atm(xu, name)
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return id, nil
}

// SupportedNames lists the EWMH hints the embedded window manager advertises
// in _NET_SUPPORTED.
func SupportedNames() []string {
	return []string{
		"_NET_SUPPORTED",
		"_NET_SUPPORTING_WM_CHECK",
		"_NET_CLIENT_LIST",
		"_NET_ACTIVE_WINDOW",
		"_NET_WM_NAME",
		"_NET_WM_ICON",
		"_NET_WM_PING",
		"_NET_WM_STATE",
		"_NET_WM_STATE_MAXIMIZED_HORZ",
		"_NET_WM_STATE_MAXIMIZED_VERT",
		"_NET_WM_STATE_ABOVE",
		"_NET_WM_STATE_HIDDEN",
		"_NET_WM_STATE_DEMANDS_ATTENTION",
		"_NET_FRAME_EXTENTS",
	}
}
