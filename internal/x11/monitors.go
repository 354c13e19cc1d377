package x11

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitors returns the active outputs of root. RandR CRTCs are preferred;
// Xinerama is the fallback. An empty slice means the whole root is one
// monitor.
func (c *Connection) Monitors(root platform.WindowID) ([]geom.Rect, error) {
	if c.randr {
		mons, err := c.randrMonitors(xproto.Window(root))
		if err == nil && len(mons) > 0 {
			return mons, nil
		}
		if err != nil {
			c.log.Debug("randr monitors failed", "err", err)
		}
	}
	if c.xinerama {
		return c.xineramaMonitors()
	}
	return nil, nil
}

func (c *Connection) randrMonitors(root xproto.Window) ([]geom.Rect, error) {
	conn := c.XUtil.Conn()
	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get screen resources: %w", err)
	}

	var mons []geom.Rect
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		mons = append(mons, geom.Rect{
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return mons, nil
}

func (c *Connection) xineramaMonitors() ([]geom.Rect, error) {
	conn := c.XUtil.Conn()
	active, err := xinerama.IsActive(conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("xinerama is active: %w", err)
	}
	if active.State == 0 {
		return nil, nil
	}
	screens, err := xinerama.QueryScreens(conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("xinerama query screens: %w", err)
	}
	mons := make([]geom.Rect, 0, len(screens.ScreenInfo))
	for _, s := range screens.ScreenInfo {
		mons = append(mons, geom.Rect{
			X:      int(s.XOrg),
			Y:      int(s.YOrg),
			Width:  int(s.Width),
			Height: int(s.Height),
		})
	}
	return mons, nil
}
