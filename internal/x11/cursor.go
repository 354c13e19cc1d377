package x11

import (
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgbutil/xcursor"
)

var cursorGlyphs = map[platform.Cursor]uint16{
	platform.CursorNormal:    xcursor.LeftPtr,
	platform.CursorMove:      xcursor.Fleur,
	platform.CursorNorth:     xcursor.TopSide,
	platform.CursorEast:      xcursor.RightSide,
	platform.CursorSouth:     xcursor.BottomSide,
	platform.CursorWest:      xcursor.LeftSide,
	platform.CursorNorthEast: xcursor.TopRightCorner,
	platform.CursorSouthEast: xcursor.BottomRightCorner,
	platform.CursorSouthWest: xcursor.BottomLeftCorner,
	platform.CursorNorthWest: xcursor.TopLeftCorner,
}

// createCursors loads the cursor font glyphs. A cursor that fails to load
// stays 0, which the server reads as "inherit from parent".
func (c *Connection) createCursors() {
	for id, glyph := range cursorGlyphs {
		cur, err := xcursor.CreateCursor(c.XUtil, glyph)
		if err != nil {
			c.log.Debug("create cursor", "glyph", glyph, "err", err)
			continue
		}
		c.cursors[id] = cur
	}
}
