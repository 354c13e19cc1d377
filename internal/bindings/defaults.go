package bindings

import "strconv"

// DefaultKeys returns the built-in key bindings.
func DefaultKeys() []Spec {
	var specs []Spec
	for i := 1; i <= 10; i++ {
		key := strconv.Itoa(i % 10)
		n := strconv.Itoa(i)
		specs = append(specs,
			Spec{Bind: "CM-" + key, Function: "desktop-switch-" + n},
			Spec{Bind: "SM-" + key, Function: "window-move-to-desktop-" + n},
		)
	}
	for i := 1; i <= 4; i++ {
		n := strconv.Itoa(i)
		specs = append(specs, Spec{Bind: "M-" + n, Function: "desktop-mode-" + n})
	}

	specs = append(specs,
		Spec{Bind: "CM-Right", Function: "desktop-switch-next"},
		Spec{Bind: "CM-Left", Function: "desktop-switch-prev"},
		Spec{Bind: "M-Up", Function: "desktop-mode-next"},
		Spec{Bind: "M-Down", Function: "desktop-mode-prev"},
		Spec{Bind: "M-Tab", Function: "desktop-window-focus-next"},
		Spec{Bind: "SM-Tab", Function: "desktop-window-focus-prev"},
		Spec{Bind: "M-greater", Function: "desktop-window-master-incr"},
		Spec{Bind: "M-less", Function: "desktop-window-master-decr"},
		Spec{Bind: "SM-Right", Function: "desktop-window-rotate-next"},
		Spec{Bind: "SM-Left", Function: "desktop-window-rotate-prev"},
		Spec{Bind: "M-Right", Function: "desktop-window-swap-next"},
		Spec{Bind: "M-Left", Function: "desktop-window-swap-prev"},

		Spec{Bind: "SM-f", Function: "window-toggle-fullscreen"},
		Spec{Bind: "SM-s", Function: "window-toggle-sticky"},
		Spec{Bind: "SM-t", Function: "window-toggle-tiled"},
		Spec{Bind: "SM-i", Function: "window-hide"},
		Spec{Bind: "SM-x", Function: "window-close"},

		Spec{Bind: "M-h", Function: "window-move-left"},
		Spec{Bind: "M-l", Function: "window-move-right"},
		Spec{Bind: "M-j", Function: "window-move-up"},
		Spec{Bind: "M-k", Function: "window-move-down"},
		Spec{Bind: "SM-h", Function: "window-resize-left"},
		Spec{Bind: "SM-l", Function: "window-resize-right"},
		Spec{Bind: "SM-j", Function: "window-resize-up"},
		Spec{Bind: "SM-k", Function: "window-resize-down"},
		Spec{Bind: "CM-h", Function: "window-snap-left"},
		Spec{Bind: "CM-l", Function: "window-snap-right"},
		Spec{Bind: "CM-j", Function: "window-snap-up"},
		Spec{Bind: "CM-k", Function: "window-snap-down"},

		Spec{Bind: "C-Return", Function: "terminal"},
		Spec{Bind: "CM-r", Function: "restart"},
		Spec{Bind: "CM-q", Function: "quit"},
	)
	return specs
}

// DefaultMouse returns the built-in mouse bindings.
func DefaultMouse() []Spec {
	return []Spec{
		{Bind: "M-1", Function: "window-move"},
		{Bind: "M-3", Function: "window-resize"},
		{Bind: "M-4", Function: "window-lower"},
		{Bind: "M-5", Function: "window-raise"},
	}
}
