package x11

import (
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

const (
	labelFg       = 0xffffffff
	labelBg       = 0xff222222
	labelPaddingX = 6
	labelPaddingY = 4
)

// label is the small override-redirect window showing the position or
// size during a pointer drag. If no core font can be opened the label is
// disabled and drags run without it.
type label struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	win    xproto.Window
	gc     xproto.Gcontext
	font   xproto.Font
	charW  int
	ascent int
	lineH  int

	created  bool
	disabled bool
	mapped   bool
}

func newLabel(xu *xgbutil.XUtil, root xproto.Window) *label {
	return &label{xu: xu, root: root}
}

func (l *label) ensure() bool {
	if l.disabled {
		return false
	}
	if l.created {
		return true
	}
	conn := l.xu.Conn()
	screen := l.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		l.disabled = true
		return false
	}
	// CwBackPixel comes before CwOverrideRedirect in bit order.
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, wid, l.root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{labelBg, 1}).Check()
	if err != nil {
		l.disabled = true
		return false
	}

	font, err := xproto.NewFontId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		l.disabled = true
		return false
	}
	opened := false
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check() == nil {
			opened = true
			break
		}
	}
	if !opened {
		xproto.DestroyWindow(conn, wid)
		l.disabled = true
		return false
	}

	info, err := xproto.QueryFont(conn, xproto.Fontable(font)).Reply()
	if err != nil {
		xproto.CloseFont(conn, font)
		xproto.DestroyWindow(conn, wid)
		l.disabled = true
		return false
	}

	gc, err := xproto.NewGcontextId(conn)
	if err == nil {
		err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid),
			xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
			[]uint32{labelFg, labelBg, uint32(font), 0}).Check()
	}
	if err != nil {
		xproto.CloseFont(conn, font)
		xproto.DestroyWindow(conn, wid)
		l.disabled = true
		return false
	}

	l.win, l.gc, l.font = wid, gc, font
	l.charW = max(int(info.MaxBounds.CharacterWidth), 1)
	l.ascent = int(info.FontAscent)
	l.lineH = int(info.FontAscent) + int(info.FontDescent)
	l.created = true
	return true
}

// show centers text on p, in root coordinates.
func (l *label) show(text string, p geom.Point) {
	if text == "" || !l.ensure() {
		return
	}
	if len(text) > 255 {
		text = text[:255]
	}
	conn := l.xu.Conn()
	w := len(text)*l.charW + 2*labelPaddingX
	h := l.lineH + 2*labelPaddingY

	xproto.ConfigureWindow(conn, l.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(int32(p.X - w/2)), uint32(int32(p.Y - h/2)), uint32(w), uint32(h), xproto.StackModeAbove})
	if !l.mapped {
		xproto.MapWindow(conn, l.win)
		l.mapped = true
	}
	xproto.ClearArea(conn, false, l.win, 0, 0, 0, 0)
	xproto.ImageText8(conn, byte(len(text)), xproto.Drawable(l.win), l.gc,
		int16(labelPaddingX), int16(labelPaddingY+l.ascent), text)
}

func (l *label) hide() {
	if l.created && l.mapped {
		xproto.UnmapWindow(l.xu.Conn(), l.win)
		l.mapped = false
	}
}

func (l *label) destroy() {
	if !l.created {
		return
	}
	conn := l.xu.Conn()
	xproto.FreeGC(conn, l.gc)
	xproto.CloseFont(conn, l.font)
	xproto.DestroyWindow(conn, l.win)
	l.created, l.mapped = false, false
}
