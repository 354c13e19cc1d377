package geom

import (
	"math/rand/v2"
	"testing"
)

func TestNewSizeHints_BaseAndMinFallBackToEachOther(t *testing.T) {
	h := NewSizeHints(NormalHints{Flags: PMinSize, MinWidth: 40, MinHeight: 30})
	if h.BaseWidth != 40 || h.BaseHeight != 30 {
		t.Fatalf("base = %dx%d, want 40x30", h.BaseWidth, h.BaseHeight)
	}

	h = NewSizeHints(NormalHints{Flags: PBaseSize, BaseWidth: 4, BaseHeight: 2})
	if h.MinWidth != 4 || h.MinHeight != 2 {
		t.Fatalf("min = %dx%d, want 4x2", h.MinWidth, h.MinHeight)
	}
}

func TestNewSizeHints_FloorsIncrementAndMinimum(t *testing.T) {
	h := DefaultSizeHints()
	if h.IncWidth != 1 || h.IncHeight != 1 || h.MinWidth != 1 || h.MinHeight != 1 {
		t.Fatalf("defaults = %+v", h)
	}
}

func TestNewSizeHints_Aspect(t *testing.T) {
	h := NewSizeHints(NormalHints{
		Flags:        PAspect,
		MinAspectNum: 4, MinAspectDen: 3,
		MaxAspectNum: 16, MaxAspectDen: 9,
	})
	if h.MinAspect != 0.75 {
		t.Fatalf("MinAspect = %v, want 0.75", h.MinAspect)
	}
	if h.MaxAspect != 16.0/9.0 {
		t.Fatalf("MaxAspect = %v", h.MaxAspect)
	}
}

func TestSizeHints_ApplyQuantizesAboveBase(t *testing.T) {
	// Terminal-like hints: 4px padding and a 7x13 character cell.
	h := NewSizeHints(NormalHints{
		Flags:     PBaseSize | PMinSize | PResizeInc,
		BaseWidth: 4, BaseHeight: 4,
		MinWidth: 11, MinHeight: 17,
		WidthInc: 7, HeightInc: 13,
	})

	got := h.Apply(Rect{Width: 500, Height: 300})
	if got.Width != 4+7*70 || got.Height != 4+13*22 {
		t.Fatalf("Apply = %dx%d, want %dx%d", got.Width, got.Height, 4+7*70, 4+13*22)
	}
}

func TestSizeHints_ApplyClampsMinMax(t *testing.T) {
	h := NewSizeHints(NormalHints{
		Flags:    PMinSize | PMaxSize,
		MinWidth: 100, MinHeight: 80,
		MaxWidth: 400, MaxHeight: 300,
	})

	if got := h.Apply(Rect{Width: 10, Height: 10}); got.Width != 100 || got.Height != 80 {
		t.Fatalf("below min = %+v", got)
	}
	if got := h.Apply(Rect{Width: 1000, Height: 1000}); got.Width != 400 || got.Height != 300 {
		t.Fatalf("above max = %+v", got)
	}
}

func TestSizeHints_ApplyAspectClamp(t *testing.T) {
	h := NewSizeHints(NormalHints{
		Flags:        PAspect,
		MinAspectNum: 1, MinAspectDen: 1,
		MaxAspectNum: 1, MaxAspectDen: 1,
	})
	got := h.Apply(Rect{Width: 400, Height: 200})
	if got.Width != 200 || got.Height != 200 {
		t.Fatalf("square aspect = %dx%d, want 200x200", got.Width, got.Height)
	}
}

func TestSizeHints_ApplyIsIdempotent(t *testing.T) {
	cases := []NormalHints{
		{},
		{Flags: PResizeInc, WidthInc: 9, HeightInc: 17},
		{Flags: PBaseSize | PMinSize | PResizeInc, BaseWidth: 4, BaseHeight: 4, MinWidth: 11, MinHeight: 17, WidthInc: 7, HeightInc: 13},
		{Flags: PMinSize | PMaxSize | PResizeInc, MinWidth: 30, MinHeight: 30, MaxWidth: 95, MaxHeight: 205, WidthInc: 10, HeightInc: 10},
		{Flags: PBaseSize | PMinSize, BaseWidth: 2, BaseHeight: 2, MinWidth: 10, MinHeight: 10},
		{
			Flags:    PBaseSize | PMinSize | PMaxSize | PResizeInc | PAspect,
			MinWidth: 23, MinHeight: 3, MaxWidth: 678, MaxHeight: 736,
			WidthInc: 6, HeightInc: 8, BaseWidth: 7, BaseHeight: 13,
			MinAspectNum: 2, MinAspectDen: 4, MaxAspectNum: 4, MaxAspectDen: 3,
		},
		{
			Flags:    PMinSize | PMaxSize | PAspect,
			MinWidth: 50, MinHeight: 50, MaxWidth: 900, MaxHeight: 400,
			MinAspectNum: 1, MinAspectDen: 1, MaxAspectNum: 1, MaxAspectDen: 1,
		},
	}
	sizes := []Rect{
		{Width: 1, Height: 1},
		{Width: 33, Height: 77},
		{Width: 547, Height: 308},
		{Width: 640, Height: 480},
		{Width: 802, Height: 354},
		{Width: 1917, Height: 1079},
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for range 300 {
		n := NormalHints{
			Flags:     PBaseSize | PMinSize | PMaxSize | PResizeInc | PAspect,
			BaseWidth: rng.IntN(20), BaseHeight: rng.IntN(20),
			MinWidth: 1 + rng.IntN(60), MinHeight: 1 + rng.IntN(60),
			MaxWidth: 100 + rng.IntN(900), MaxHeight: 100 + rng.IntN(900),
			WidthInc: 1 + rng.IntN(12), HeightInc: 1 + rng.IntN(12),
			MinAspectNum: 1 + rng.IntN(5), MinAspectDen: 1 + rng.IntN(5),
			MaxAspectNum: 1 + rng.IntN(5), MaxAspectDen: 1 + rng.IntN(5),
		}
		cases = append(cases, n)
	}

	for i, n := range cases {
		h := NewSizeHints(n)
		for _, r := range sizes {
			once := h.Apply(r)
			twice := h.Apply(once)
			if once != twice {
				t.Fatalf("case %d %+v, %dx%d: once=%dx%d twice=%dx%d",
					i, n, r.Width, r.Height, once.Width, once.Height, twice.Width, twice.Height)
			}
			if once.Width < h.MinWidth || once.Height < h.MinHeight {
				t.Fatalf("case %d, %dx%d: %dx%d below minimum", i, r.Width, r.Height, once.Width, once.Height)
			}
			if h.MaxWidth > 0 && once.Width > max(h.MaxWidth, h.MinWidth) {
				t.Fatalf("case %d, %dx%d: width %d above maximum", i, r.Width, r.Height, once.Width)
			}
			if h.MaxHeight > 0 && once.Height > max(h.MaxHeight, h.MinHeight) {
				t.Fatalf("case %d, %dx%d: height %d above maximum", i, r.Width, r.Height, once.Height)
			}
		}
	}
}

func TestSizeHints_ApplyKeepsAspectAfterIncrements(t *testing.T) {
	h := NewSizeHints(NormalHints{
		Flags:    PBaseSize | PMinSize | PMaxSize | PResizeInc | PAspect,
		MinWidth: 23, MinHeight: 3, MaxWidth: 678, MaxHeight: 736,
		WidthInc: 6, HeightInc: 8, BaseWidth: 7, BaseHeight: 13,
		MinAspectNum: 2, MinAspectDen: 4, MaxAspectNum: 4, MaxAspectDen: 3,
	})
	got := h.Apply(Rect{Width: 547, Height: 308})
	aw, ah := float64(got.Width-7), float64(got.Height-13)
	if aw/ah > 4.0/3.0 || ah/aw > 2 {
		t.Fatalf("Apply = %dx%d, outside aspect band", got.Width, got.Height)
	}
	if (got.Width-7)%6 != 0 || (got.Height-13)%8 != 0 {
		t.Fatalf("Apply = %dx%d, off the increment grid", got.Width, got.Height)
	}
}

func TestSizeHints_Units(t *testing.T) {
	h := NewSizeHints(NormalHints{
		Flags:     PBaseSize | PResizeInc,
		BaseWidth: 4, BaseHeight: 4,
		WidthInc: 7, HeightInc: 13,
	})
	cols, rows := h.Units(Rect{Width: 4 + 7*80, Height: 4 + 13*24})
	if cols != 80 || rows != 24 {
		t.Fatalf("Units = %dx%d, want 80x24", cols, rows)
	}
}
