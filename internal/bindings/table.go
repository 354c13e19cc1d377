package bindings

import (
	"log/slog"
	"slices"
	"strings"
)

// IgnoredMods are stripped from an event state before matching: CapsLock,
// NumLock and the XKB group bit.
const IgnoredMods = ModLock | Mod2 | 0x2000

// Spec is the textual form of a binding as it appears in configuration.
type Spec struct {
	Bind     string `yaml:"bind" json:"bind"`
	Function string `yaml:"function" json:"function"`
	Command  string `yaml:"command,omitempty" json:"command,omitempty"`
}

// Table holds the key and mouse bindings in insertion order. The first
// matching entry wins.
type Table struct {
	keys    []Binding
	buttons []Binding
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// BindKey adds b, replacing an entry with the same modifiers and keysym.
func (t *Table) BindKey(b Binding) {
	if i := t.findKey(b.Mods, b.Keysym); i >= 0 {
		t.keys[i] = b
		return
	}
	t.keys = append(t.keys, b)
}

// UnbindKey removes the entry with the given modifiers and keysym.
func (t *Table) UnbindKey(mods uint16, keysym string) bool {
	i := t.findKey(mods, keysym)
	if i < 0 {
		return false
	}
	t.keys = slices.Delete(t.keys, i, i+1)
	return true
}

// BindButton adds b, replacing an entry with the same modifiers and button.
func (t *Table) BindButton(b Binding) {
	if i := t.findButton(b.Mods, b.Button); i >= 0 {
		t.buttons[i] = b
		return
	}
	t.buttons = append(t.buttons, b)
}

// UnbindButton removes the entry with the given modifiers and button.
func (t *Table) UnbindButton(mods uint16, button uint8) bool {
	i := t.findButton(mods, button)
	if i < 0 {
		return false
	}
	t.buttons = slices.Delete(t.buttons, i, i+1)
	return true
}

// ClearKeys removes every key binding.
func (t *Table) ClearKeys() { t.keys = nil }

// ClearButtons removes every mouse binding.
func (t *Table) ClearButtons() { t.buttons = nil }

// Keys returns a copy of the key bindings.
func (t *Table) Keys() []Binding { return slices.Clone(t.keys) }

// Buttons returns a copy of the mouse bindings.
func (t *Table) Buttons() []Binding { return slices.Clone(t.buttons) }

func (t *Table) findKey(mods uint16, keysym string) int {
	return slices.IndexFunc(t.keys, func(b Binding) bool {
		return b.Mods == mods && b.Keysym == keysym
	})
}

func (t *Table) findButton(mods uint16, button uint8) int {
	return slices.IndexFunc(t.buttons, func(b Binding) bool {
		return b.Mods == mods && b.Button == button
	})
}

// MatchKey resolves a key press. keysym and shifted are the canonical names
// at shift levels 0 and 1 of the pressed keycode. A binding whose keysym
// only appears at level 1 matches with Shift implied, so "M-greater"
// fires on Mod1+Shift+period. Window bindings are skipped without a client.
func (t *Table) MatchKey(keysym, shifted string, state uint16, haveClient bool) (Binding, bool) {
	state &^= IgnoredMods
	for _, b := range t.keys {
		if b.Action.Context() == ContextWindow && !haveClient {
			continue
		}
		var modshift uint16
		if keysym != b.Keysym && shifted == b.Keysym {
			modshift = ModShift
		}
		if b.Mods|modshift != state {
			continue
		}
		want := keysym
		if modshift != 0 {
			want = shifted
		}
		if b.Keysym == want {
			return b, true
		}
	}
	return Binding{}, false
}

// MatchButton resolves a button press. onClient reports whether the press
// landed on a managed client: screen bindings then do not apply, and
// window bindings need one.
func (t *Table) MatchButton(button uint8, state uint16, onClient bool) (Binding, bool) {
	state &^= IgnoredMods
	for _, b := range t.buttons {
		if b.Button != button || b.Mods != state {
			continue
		}
		switch b.Action.Context() {
		case ContextScreen:
			if onClient {
				continue
			}
		case ContextWindow:
			if !onClient {
				continue
			}
		}
		return b, true
	}
	return Binding{}, false
}

// Build assembles a table: the defaults, then unbinds, then the configured
// bindings. "all" in an unbind list clears the defaults. Invalid entries are
// logged and skipped.
func Build(keys []Spec, unbindKeys []string, mouse []Spec, unbindMouse []string,
	funcs FunctionLookup, keysyms KeysymResolver, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := NewTable()

	for _, s := range DefaultKeys() {
		if b, err := ParseKey(s.Bind, s.Function, s.Command, funcs, keysyms); err == nil {
			t.BindKey(b)
		} else {
			logger.Debug("default key binding unavailable", "bind", s.Bind, "err", err)
		}
	}
	for _, s := range DefaultMouse() {
		if b, err := ParseButton(s.Bind, s.Function, funcs); err == nil {
			t.BindButton(b)
		}
	}

	for _, combo := range unbindKeys {
		if strings.EqualFold(strings.TrimSpace(combo), "all") {
			t.ClearKeys()
			continue
		}
		mods, sym, err := SplitCombo(combo)
		if err != nil {
			logger.Warn("invalid unbind", "bind", combo, "err", err)
			continue
		}
		if canon, ok := keysyms.CanonicalKeysym(sym); ok {
			t.UnbindKey(mods, canon)
		}
	}
	for _, combo := range unbindMouse {
		if strings.EqualFold(strings.TrimSpace(combo), "all") {
			t.ClearButtons()
			continue
		}
		b, err := ParseButton(combo, "window-raise", func(string) (Context, bool) { return ContextWindow, true })
		if err != nil {
			logger.Warn("invalid mouse unbind", "bind", combo, "err", err)
			continue
		}
		t.UnbindButton(b.Mods, b.Button)
	}

	for _, s := range keys {
		b, err := ParseKey(s.Bind, s.Function, s.Command, funcs, keysyms)
		if err != nil {
			logger.Warn("invalid key binding", "bind", s.Bind, "function", s.Function, "err", err)
			continue
		}
		t.BindKey(b)
	}
	for _, s := range mouse {
		b, err := ParseButton(s.Bind, s.Function, funcs)
		if err != nil {
			logger.Warn("invalid mouse binding", "bind", s.Bind, "function", s.Function, "err", err)
			continue
		}
		t.BindButton(b)
	}
	return t
}
