package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// InitRandr initialises the RandR extension on the connection.
func (c *Connection) InitRandr() error {
	if err := randr.Init(c.Conn()); err != nil {
		return fmt.Errorf("randr init failed: %w", err)
	}
	return nil
}

// GetMonitors retrieves all active monitors using XRandR, ordered by position.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := c.InitRandr(); err != nil {
		return nil, err
	}

	resources, err := randr.GetScreenResourcesCurrent(c.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", Translate("RRGetScreenResourcesCurrent", err))
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if out == primary {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	SortMonitors(monitors)
	return monitors, nil
}

// SortMonitors orders monitors left to right, then top to bottom.
func SortMonitors(monitors []Monitor) {
	sort.SliceStable(monitors, func(i, j int) bool {
		if monitors[i].X != monitors[j].X {
			return monitors[i].X < monitors[j].X
		}
		return monitors[i].Y < monitors[j].Y
	})
}

// PrimaryMonitor returns the RandR primary monitor, falling back to the
// monitor at the origin and then the first one. ok is false when monitors is
// empty.
func PrimaryMonitor(monitors []Monitor) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	for _, m := range monitors {
		if m.Primary {
			return m, true
		}
	}
	for _, m := range monitors {
		if m.X == 0 && m.Y == 0 {
			return m, true
		}
	}
	return monitors[0], true
}
