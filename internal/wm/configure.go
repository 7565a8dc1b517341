package wm

import (
	"github.com/BurntSushi/xgb/xproto"
)

// valueList collects a ConfigureWindow value list in protocol order.
type valueList struct {
	mask   uint16
	values []uint32
}

func (v *valueList) add(bit uint16, value uint32) {
	v.mask |= bit
	v.values = append(v.values, value)
}

// siblingFunc resolves the Sibling of a ConfigureRequest to the root child it
// must be stacked against. false drops the sibling from the request.
type siblingFunc func(xproto.Window) (xproto.Window, bool)

// addStacking appends the sibling and stack mode of ev. Without a resolvable
// sibling the stack mode applies relative to all siblings.
func (v *valueList) addStacking(ev xproto.ConfigureRequestEvent, sibling siblingFunc) {
	if ev.ValueMask&xproto.ConfigWindowSibling != 0 && ev.ValueMask&xproto.ConfigWindowStackMode != 0 {
		if id, ok := sibling(ev.Sibling); ok {
			v.add(xproto.ConfigWindowSibling, uint32(id))
		}
	}
	if ev.ValueMask&xproto.ConfigWindowStackMode != 0 {
		v.add(xproto.ConfigWindowStackMode, uint32(ev.StackMode))
	}
}

// configureValues builds the ConfigureWindow arguments for a pass-through of
// ev, applying only the fields its value mask names.
func configureValues(ev xproto.ConfigureRequestEvent, sibling siblingFunc) valueList {
	var v valueList
	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		v.add(xproto.ConfigWindowX, uint32(int32(ev.X)))
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		v.add(xproto.ConfigWindowY, uint32(int32(ev.Y)))
	}
	if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
		v.add(xproto.ConfigWindowWidth, uint32(ev.Width))
	}
	if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
		v.add(xproto.ConfigWindowHeight, uint32(ev.Height))
	}
	if ev.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		v.add(xproto.ConfigWindowBorderWidth, uint32(ev.BorderWidth))
	}
	v.addStacking(ev, sibling)
	return v
}

// splitConfigure divides a request for a framed client between the client
// (size, border) and its frame (position, stacking, size grown by the frame
// extents). cur is the client's current inner size, used when the request
// only names one dimension.
func splitConfigure(ev xproto.ConfigureRequestEvent, ext Extents, cur Size, sibling siblingFunc) (client, frame valueList) {
	if ev.ValueMask&xproto.ConfigWindowX != 0 {
		frame.add(xproto.ConfigWindowX, uint32(int32(ev.X)))
	}
	if ev.ValueMask&xproto.ConfigWindowY != 0 {
		frame.add(xproto.ConfigWindowY, uint32(int32(ev.Y)))
	}
	resize := ev.ValueMask&(xproto.ConfigWindowWidth|xproto.ConfigWindowHeight) != 0
	if resize {
		w, h := cur.Width, cur.Height
		if ev.ValueMask&xproto.ConfigWindowWidth != 0 {
			w = int(ev.Width)
			client.add(xproto.ConfigWindowWidth, uint32(ev.Width))
		}
		if ev.ValueMask&xproto.ConfigWindowHeight != 0 {
			h = int(ev.Height)
			client.add(xproto.ConfigWindowHeight, uint32(ev.Height))
		}
		frame.add(xproto.ConfigWindowWidth, uint32(w+ext.Left+ext.Right))
		frame.add(xproto.ConfigWindowHeight, uint32(h+ext.Top+ext.Bottom))
	}
	if ev.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		client.add(xproto.ConfigWindowBorderWidth, uint32(ev.BorderWidth))
	}
	frame.addStacking(ev, sibling)
	return client, frame
}
