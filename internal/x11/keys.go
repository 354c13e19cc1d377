package x11

import (
	"strings"

	"github.com/1broseidon/tilewm/internal/bindings"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// glyphs are the keysym names keybind.KeysymToStr reports as a single
// character. Bindings may use either form.
var glyphs = map[string]string{
	"exclam":       "!",
	"at":           "@",
	"numbersign":   "#",
	"dollar":       "$",
	"percent":      "%",
	"asciicircum":  "^",
	"ampersand":    "&",
	"asterisk":     "*",
	"parenleft":    "(",
	"parenright":   ")",
	"bracketleft":  "[",
	"bracketright": "]",
	"braceleft":    "{",
	"braceright":   "}",
	"minus":        "-",
	"underscore":   "_",
	"equal":        "=",
	"plus":         "+",
	"backslash":    "\\",
	"bar":          "|",
	"semicolon":    ";",
	"colon":        ":",
	"apostrophe":   "'",
	"quotedbl":     "\"",
	"less":         "<",
	"greater":      ">",
	"comma":        ",",
	"period":       ".",
	"slash":        "/",
	"question":     "?",
	"grave":        "`",
	"asciitilde":   "~",
}

var glyphNames = func() map[string]string {
	m := make(map[string]string, len(glyphs))
	for name, g := range glyphs {
		m[g] = name
	}
	return m
}()

// keysymName turns a canonical glyph back into a name keybind can look up.
func keysymName(sym string) string {
	if name, ok := glyphNames[sym]; ok {
		return name
	}
	return sym
}

// CanonicalKeysym resolves name against the current keyboard map and
// returns the spelling KeyLevels will report for it.
func (c *Connection) CanonicalKeysym(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	lookup := keysymName(name)
	codes := keybind.StrToKeycodes(c.XUtil, lookup)
	if len(codes) == 0 {
		return "", false
	}
	want := name
	if g, ok := glyphs[lookup]; ok {
		want = g
	}
	per := keybind.KeyMapGet(c.XUtil).KeysymsPerKeycode
	for _, kc := range codes {
		for col := byte(0); col < per; col++ {
			s := keybind.KeysymToStr(keybind.KeysymGet(c.XUtil, kc, col))
			if s == want || strings.EqualFold(s, want) {
				return s, true
			}
		}
	}
	return want, true
}

// KeyLevels returns the keysym names at shift levels 0 and 1.
func (c *Connection) KeyLevels(keycode byte) (string, string) {
	kc := xproto.Keycode(keycode)
	return keybind.KeysymToStr(keybind.KeysymGet(c.XUtil, kc, 0)),
		keybind.KeysymToStr(keybind.KeysymGet(c.XUtil, kc, 1))
}

// GrabKeys grabs every key binding on root. A keysym reachable only
// with Shift is grabbed with Shift added, matching how MatchKey treats it.
func (c *Connection) GrabKeys(root platform.WindowID, keys []bindings.Binding) {
	win := xproto.Window(root)
	for _, b := range keys {
		for _, kc := range keybind.StrToKeycodes(c.XUtil, keysymName(b.Keysym)) {
			mods := b.Mods
			level0, _ := c.KeyLevels(byte(kc))
			if level0 != b.Keysym {
				mods |= bindings.ModShift
			}
			keybind.Grab(c.XUtil, win, mods, kc)
		}
	}
}

// UngrabKeys releases every key grab on root.
func (c *Connection) UngrabKeys(root platform.WindowID) {
	xproto.UngrabKey(c.XUtil.Conn(), xproto.GrabAny, xproto.Window(root), xproto.ModMaskAny)
}

// GrabButtons grabs each button binding on win.
func (c *Connection) GrabButtons(win platform.WindowID, buttons []bindings.Binding) {
	for _, b := range buttons {
		mousebind.Grab(c.XUtil, xproto.Window(win), b.Mods, xproto.Button(b.Button), false)
	}
}

func (c *Connection) UngrabButtons(win platform.WindowID) {
	xproto.UngrabButton(c.XUtil.Conn(), xproto.ButtonIndexAny, xproto.Window(win), xproto.ModMaskAny)
}

// GrabKeyboard grabs the whole keyboard on root so modifier releases are
// seen while cycling.
func (c *Connection) GrabKeyboard(root platform.WindowID) error {
	if err := keybind.GrabKeyboard(c.XUtil, xproto.Window(root)); err != nil {
		c.log.Debug("grab keyboard", "err", err)
		return platform.ErrGrabFailed
	}
	return nil
}

func (c *Connection) UngrabKeyboard() {
	keybind.UngrabKeyboard(c.XUtil)
}

// RefreshKeyboard reloads the keyboard and modifier maps after a
// MappingNotify and recomputes the lock modifiers.
func (c *Connection) RefreshKeyboard() {
	keyMap, modMap := keybind.MapsGet(c.XUtil)
	keybind.KeyMapSet(c.XUtil, keyMap)
	keybind.ModMapSet(c.XUtil, modMap)
	configureIgnoreMods(c.XUtil)
}

// configureIgnoreMods sets the lock modifiers every grab is repeated for:
// CapsLock plus whatever Num_Lock and Scroll_Lock are mapped to.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	ignore := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}
	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
