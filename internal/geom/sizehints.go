package geom

// ICCCM WM_NORMAL_HINTS flag bits.
const (
	USPosition  uint = 1 << 0
	USSize      uint = 1 << 1
	PPosition   uint = 1 << 2
	PSize       uint = 1 << 3
	PMinSize    uint = 1 << 4
	PMaxSize    uint = 1 << 5
	PResizeInc  uint = 1 << 6
	PAspect     uint = 1 << 7
	PBaseSize   uint = 1 << 8
	PWinGravity uint = 1 << 9
)

// NormalHints mirrors the raw WM_NORMAL_HINTS property of a window.
type NormalHints struct {
	Flags                      uint
	MinWidth, MinHeight        int
	MaxWidth, MaxHeight        int
	WidthInc, HeightInc        int
	MinAspectNum, MinAspectDen int
	MaxAspectNum, MaxAspectDen int
	BaseWidth, BaseHeight      int
}

// SizeHints is the normalized constraint record used when sizing a client.
// Increments and minimums are always at least 1.
type SizeHints struct {
	Flags      uint
	BaseWidth  int
	BaseHeight int
	MinWidth   int
	MinHeight  int
	MaxWidth   int
	MaxHeight  int
	IncWidth   int
	IncHeight  int
	MinAspect  float64
	MaxAspect  float64
}

// DefaultSizeHints is what a window without WM_NORMAL_HINTS gets.
func DefaultSizeHints() SizeHints {
	return NewSizeHints(NormalHints{})
}

// NewSizeHints normalizes raw hints. A missing base size falls back to the
// minimum size and vice versa.
func NewSizeHints(n NormalHints) SizeHints {
	h := SizeHints{Flags: n.Flags}

	switch {
	case n.Flags&PBaseSize != 0:
		h.BaseWidth, h.BaseHeight = n.BaseWidth, n.BaseHeight
	case n.Flags&PMinSize != 0:
		h.BaseWidth, h.BaseHeight = n.MinWidth, n.MinHeight
	}

	switch {
	case n.Flags&PMinSize != 0:
		h.MinWidth, h.MinHeight = n.MinWidth, n.MinHeight
	case n.Flags&PBaseSize != 0:
		h.MinWidth, h.MinHeight = n.BaseWidth, n.BaseHeight
	}

	if n.Flags&PMaxSize != 0 {
		h.MaxWidth, h.MaxHeight = n.MaxWidth, n.MaxHeight
	}
	if n.Flags&PResizeInc != 0 {
		h.IncWidth, h.IncHeight = n.WidthInc, n.HeightInc
	}

	h.IncWidth = max(1, h.IncWidth)
	h.IncHeight = max(1, h.IncHeight)
	h.MinWidth = max(1, h.MinWidth)
	h.MinHeight = max(1, h.MinHeight)

	if n.Flags&PAspect != 0 {
		if n.MinAspectNum > 0 {
			h.MinAspect = float64(n.MinAspectDen) / float64(n.MinAspectNum)
		}
		if n.MaxAspectDen > 0 {
			h.MaxAspect = float64(n.MaxAspectNum) / float64(n.MaxAspectDen)
		}
	}
	return h
}

// Apply constrains width and height of r. Sizes are clamped to min and max,
// snapped down onto the base+n*inc grid, then shrunk until the aspect band
// holds or the minimum stops them. The aspect ratio is taken without the
// base size (ICCCM 4.1.2.3) unless base equals min. The result is a fixed
// point: applying it again changes nothing.
func (h SizeHints) Apply(r Rect) Rect {
	w := h.snapW(clampSize(r.Width, h.MinWidth, h.maxW()))
	ht := h.snapH(clampSize(r.Height, h.MinHeight, h.maxH()))

	if h.MinAspect > 0 && h.MaxAspect > 0 {
		offW, offH := h.BaseWidth, h.BaseHeight
		if h.BaseWidth == h.MinWidth && h.BaseHeight == h.MinHeight {
			offW, offH = 0, 0
		}
		for {
			aw, ah := w-offW, ht-offH
			if aw <= 0 || ah <= 0 {
				break
			}
			if float64(aw)/float64(ah) > h.MaxAspect {
				if nw := h.snapW(offW + int(float64(ah)*h.MaxAspect)); nw < w {
					w = nw
					continue
				}
			}
			if float64(ah)/float64(aw) > h.MinAspect {
				if nh := h.snapH(offH + int(float64(aw)*h.MinAspect)); nh < ht {
					ht = nh
					continue
				}
			}
			break
		}
	}

	r.Width, r.Height = w, ht
	return r
}

// Units reports the size of r in resize increments, as shown to the user
// during an interactive resize.
func (h SizeHints) Units(r Rect) (int, int) {
	return (r.Width - h.BaseWidth) / h.incW(), (r.Height - h.BaseHeight) / h.incH()
}

func (h SizeHints) incW() int { return max(1, h.IncWidth) }
func (h SizeHints) incH() int { return max(1, h.IncHeight) }

// maxW is the maximum width moved onto the increment grid, so clamping to
// it gives a size Apply leaves unchanged.
func (h SizeHints) maxW() int {
	if h.MaxWidth <= 0 {
		return 0
	}
	return h.snapW(h.MaxWidth)
}

func (h SizeHints) maxH() int {
	if h.MaxHeight <= 0 {
		return 0
	}
	return h.snapH(h.MaxHeight)
}

func (h SizeHints) snapW(v int) int { return snapDown(v, h.BaseWidth, h.incW(), h.MinWidth) }
func (h SizeHints) snapH(v int) int { return snapDown(v, h.BaseHeight, h.incH(), h.MinHeight) }

// clampSize bounds v to [lo, hi]; hi 0 means unbounded.
func clampSize(v, lo, hi int) int {
	if hi > 0 {
		v = min(v, hi)
	}
	return max(v, lo)
}

// snapDown moves v down onto the base+n*inc grid, never below floor.
// Values at or below base are left alone.
func snapDown(v, base, inc, floor int) int {
	if v > base {
		v = base + (v-base)/inc*inc
	}
	return max(v, floor)
}
