package x11backend

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/wm"
	"github.com/1broseidon/xconform/internal/x11"
	"github.com/1broseidon/xconform/internal/x11/xinput"
)

func TestNewDefaults(t *testing.T) {
	b := New(Options{})
	assert.Equal(t, "x11", b.Name())
	assert.Equal(t, keyboard.RemapSwappedOnly, b.opts.RemapPolicy)
	assert.Equal(t, uint32(DefaultBackground), b.opts.Background)

	b = New(Options{RemapPolicy: keyboard.RemapAlways, Background: 0x123456})
	assert.Equal(t, keyboard.RemapAlways, b.opts.RemapPolicy)
	assert.Equal(t, uint32(0x123456), b.opts.Background)
}

func TestFlags(t *testing.T) {
	b := New(Options{})
	f := b.Flags()
	assert.True(t, f.Has(backend.FlagMTSafe|backend.FlagX11|backend.FlagDeviceAdded|backend.FlagDeviceRemoved))
	assert.False(t, f.Has(backend.FlagTransparency))
	assert.False(t, f.Has(backend.FlagSingleThreaded))
}

func TestJoinModulePath(t *testing.T) {
	assert.Equal(t, "/usr/lib/xorg/modules,/opt/companion", joinModulePath("/usr/lib/xorg/modules\n", "/opt/companion"))
	assert.Equal(t, "/usr/lib/xorg/modules", joinModulePath("/usr/lib/xorg/modules", ""))
	assert.Equal(t, "/opt/companion", joinModulePath(" ", "/opt/companion"))
}

func TestCorePair(t *testing.T) {
	devices := []xinput.DeviceInfo{
		{ID: 3, Use: xinput.MasterKeyboard, Attachment: 2, Name: "Virtual core keyboard"},
		{ID: 2, Use: xinput.MasterPointer, Attachment: 3, Name: "Virtual core pointer"},
		{ID: 12, Use: xinput.MasterPointer, Attachment: 13, Name: "xconform-seat-1 pointer"},
	}
	p, kb, ok := corePair(devices)
	require.True(t, ok)
	assert.Equal(t, uint16(2), p)
	assert.Equal(t, uint16(3), kb)

	p, kb, ok = masterByName(devices, "xconform-seat-1 pointer")
	require.True(t, ok)
	assert.Equal(t, uint16(12), p)
	assert.Equal(t, uint16(13), kb)

	_, _, ok = masterByName(devices, "missing pointer")
	assert.False(t, ok)
	_, _, ok = corePair(nil)
	assert.False(t, ok)
}

func strp(s string) *string { return &s }

func TestProperties(t *testing.T) {
	rec := &wm.Window{
		Mapped:        true,
		State:         wm.StateNormal,
		Decorations:   true,
		AlwaysOnTop:   true,
		MaximizedHorz: true,
		X:             10,
		Y:             20,
		Width:         300,
		Height:        200,
		MaxSize:       &wm.Size{Width: 300, Height: 200},
		MinSize:       &wm.Size{Width: 300, Height: 200},
		WmName:        strp("title"),
		NetWmName:     strp("title"),
		Class:         "Class",
		Instance:      "instance",
		Urgent:        true,
		Depth:         32,
		Icon:          &wm.Icon{Width: 1, Height: 1, ARGB: []uint32{0xffffffff}},
	}
	p := properties(rec)
	assert.True(t, p.Exists)
	assert.True(t, p.Mapped)
	assert.True(t, p.Decorations)
	assert.True(t, p.AlwaysOnTop)
	assert.True(t, p.Attention)
	assert.Equal(t, 10, p.X)
	assert.Equal(t, 200, p.Height)
	assert.Equal(t, "title", p.Title)
	assert.True(t, p.TitleOK)
	assert.False(t, p.MaximizedOK, "horizontal-only maximization is undetermined")
	assert.True(t, p.MinimizedOK)
	assert.False(t, p.Minimized)
	assert.True(t, p.ResizableOK)
	assert.False(t, p.Resizable)
	assert.True(t, p.SupportsTransparency)
	assert.Equal(t, &backend.Size{Width: 300, Height: 200}, p.MaxSize)
	require.NotNil(t, p.Icon)
	assert.Equal(t, []uint32{0xffffffff}, p.Icon.ARGB)
	assert.Equal(t, "Class", p.Class)
	assert.Equal(t, "instance", p.Instance)
}

func TestPropertiesIconic(t *testing.T) {
	p := properties(&wm.Window{State: wm.StateIconic})
	assert.True(t, p.Minimized)
	assert.Nil(t, p.Icon)
	assert.Nil(t, p.MinSize)
	assert.False(t, p.TitleOK)
}

func TestExtents(t *testing.T) {
	assert.Equal(t, backend.Extents{Left: 5, Right: 5, Top: 25, Bottom: 5},
		extents(wm.Extents{Left: 5, Right: 5, Top: 25, Bottom: 5}))
}

func TestConvertMonitors(t *testing.T) {
	got := convertMonitors([]x11.Monitor{
		{ID: 0, Name: "winit-0", Width: 1024, Height: 768, Primary: true},
		{ID: 1, Name: "winit-1", X: 1024, Width: 800, Height: 600},
	})
	require.Len(t, got, 2)
	assert.Equal(t, backend.Monitor{Name: "winit-0", Width: 1024, Height: 768, Primary: true}, got[0])
	assert.Equal(t, 1024, got[1].X)
}

func TestTeardownStopsServerFirst(t *testing.T) {
	var order []string
	teardown(slog.Default(),
		func() error { order = append(order, "server"); return errors.New("already exited") },
		func() { order = append(order, "conn") })
	assert.Equal(t, []string{"server", "conn"}, order)

	order = nil
	teardown(slog.Default(), func() error { order = append(order, "server"); return nil }, nil)
	assert.Equal(t, []string{"server"}, order)
}
