package wm

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/geom"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Split bounds and the step of a master resize.
const (
	minSplit  = 0.1
	maxSplit  = 0.9
	splitStep = 0.01
)

// Desktop is one virtual desktop. Its stacking order is the screen's,
// filtered by desktop index; the tiled order is kept here and always
// starts with the master. New tiled windows go to the head.
type Desktop struct {
	screen *Screen
	index  int
	name   string
	mode   int
	split  float64
	tiles  []platform.WindowID
}

func newDesktop(s *Screen, index int, def config.Desktop) *Desktop {
	return &Desktop{
		screen: s,
		index:  index,
		name:   def.Name,
		mode:   s.mgr.cfg.ModeIndex(def),
		split:  clampSplit(def.Split),
	}
}

func clampSplit(v float64) float64 {
	return min(max(v, minSplit), maxSplit)
}

// Index returns the 0-based desktop index.
func (d *Desktop) Index() int { return d.index }

// Name returns the desktop name.
func (d *Desktop) Name() string { return d.name }

// Split returns the master split ratio.
func (d *Desktop) Split() float64 { return d.split }

// Mode returns the current layout mode.
func (d *Desktop) Mode() config.ModeSpec { return d.screen.mgr.modes[d.mode] }

// Tiles returns the tiled order, master first.
func (d *Desktop) Tiles() []platform.WindowID { return slices.Clone(d.tiles) }

// clients returns the desktop's clients bottom to top.
func (d *Desktop) clients() []*Client {
	var out []*Client
	for _, id := range d.screen.stack {
		if c := d.screen.clients[id]; c != nil && c.desktop == d.index {
			out = append(out, c)
		}
	}
	return out
}

// cycleMembers is clients plus the sticky clients shown on every desktop.
func (d *Desktop) cycleMembers() []*Client {
	var out []*Client
	for _, id := range d.screen.stack {
		if c := d.screen.clients[id]; c != nil && (c.desktop == d.index || c.desktop == -1) {
			out = append(out, c)
		}
	}
	return out
}

// tiled returns the tile order resolved to clients. Fullscreen clients
// keep their place but are left out of the layout.
func (d *Desktop) tiled() []*Client {
	var out []*Client
	for _, id := range d.tiles {
		if c := d.screen.clients[id]; c != nil && !c.states.Has(FullScreen) {
			out = append(out, c)
		}
	}
	return out
}

// tileClients is the whole tile order, fullscreen clients included.
func (d *Desktop) tileClients() []*Client {
	var out []*Client
	for _, id := range d.tiles {
		if c := d.screen.clients[id]; c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (d *Desktop) addTile(c *Client) {
	if c.states.Has(NoTile) || slices.Contains(d.tiles, c.window) {
		return
	}
	d.tiles = slices.Insert(d.tiles, 0, c.window)
}

func (d *Desktop) removeTile(c *Client) {
	if i := slices.Index(d.tiles, c.window); i >= 0 {
		d.tiles = slices.Delete(d.tiles, i, i+1)
	}
}

func (d *Desktop) empty() bool { return len(d.clients()) == 0 }

func (d *Desktop) urgent() bool {
	for _, c := range d.clients() {
		if c.states.Has(Urgent) {
			return true
		}
	}
	return false
}

// restack orders the desktop's frames in one request.
func (d *Desktop) restack() {
	members := d.clients()
	if len(members) == 0 {
		return
	}
	frames := make([]platform.WindowID, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		frames = append(frames, members[i].frame)
	}
	d.screen.mgr.x.Restack(frames)
}

// show restacks, lays out the desktop in its mode, keeps sticky clients
// visible and reports the mode.
func (d *Desktop) show() {
	d.restack()
	switch mode := d.Mode(); mode.Kind {
	case config.ModeMonocle:
		d.layoutMonocle()
	case config.ModeVTiled:
		d.layoutVertical()
	case config.ModeHTiled:
		d.layoutHorizontal()
	case config.ModeGrid:
		d.layoutGrid(mode.Rows, mode.Cols)
	default:
		d.layoutStacked()
	}
	for _, c := range d.screen.Clients() {
		if c.desktop < 0 && c.states.Has(Sticky) {
			c.Show()
		}
	}
	d.screen.mgr.publish("desktop_mode=" + d.Mode().String())
}

func (d *Desktop) hide() {
	for _, c := range d.clients() {
		c.Hide()
	}
	d.screen.clearTitle()
}

func (d *Desktop) close() {
	for _, c := range d.clients() {
		c.Close()
	}
	d.screen.clearTitle()
}

// setMode switches layout mode. Entering Monocle promotes the active
// client so the window in use stays visible.
func (d *Desktop) setMode(i int) {
	d.mode = i
	if d.Mode().Kind == config.ModeMonocle {
		if c := d.screen.ActiveClient(); c != nil && c.desktop == d.index {
			d.promote(c)
		}
	}
	d.show()
}

func (d *Desktop) selectMode(i int) {
	if i < 0 || i >= len(d.screen.mgr.modes) {
		return
	}
	d.setMode(i)
}

func (d *Desktop) rotateMode(dir int) {
	n := len(d.screen.mgr.modes)
	d.setMode(((d.mode+dir)%n + n) % n)
}

func (d *Desktop) promote(c *Client) {
	i := slices.Index(d.tiles, c.window)
	if i <= 0 {
		return
	}
	d.tiles = slices.Delete(d.tiles, i, i+1)
	d.tiles = slices.Insert(d.tiles, 0, c.window)
}

// masterResize nudges the split in master/stack modes only.
func (d *Desktop) masterResize(dir int) {
	switch d.Mode().Kind {
	case config.ModeVTiled, config.ModeHTiled:
	default:
		return
	}
	if dir > 0 {
		d.split = clampSplit(d.split + splitStep)
	} else {
		d.split = clampSplit(d.split - splitStep)
	}
	d.show()
}

// rotateTiles moves the master to the tail (dir > 0) or the tail to the
// master, then redraws.
func (d *Desktop) rotateTiles(dir int) {
	if len(d.tiles) < 2 {
		return
	}
	if dir > 0 {
		head := d.tiles[0]
		d.tiles = append(d.tiles[1:], head)
	} else {
		last := d.tiles[len(d.tiles)-1]
		d.tiles = append([]platform.WindowID{last}, d.tiles[:len(d.tiles)-1]...)
	}
	d.show()
}

// swapTiles exchanges c with its neighbor in tiled order, wrapping, and
// keeps the pointer inside c.
func (d *Desktop) swapTiles(c *Client, dir int) {
	i := slices.Index(d.tiles, c.window)
	if i < 0 || len(d.tiles) < 2 {
		return
	}
	c.savePointer()
	n := len(d.tiles)
	j := ((i+dir)%n + n) % n
	d.tiles[i], d.tiles[j] = d.tiles[j], d.tiles[i]
	d.show()

	if !c.geom.Contains(c.ptr, geom.Window) {
		c.ptr = c.geom.Center(geom.Window)
	}
	c.warpPointer()
}

// cycle activates the next (dir > 0) or previous window in stacking order,
// skipping hidden and ignored windows. The order itself is left alone
// while the screen is cycling.
func (d *Desktop) cycle(c *Client, dir int) {
	members := d.cycleMembers()
	cur := slices.Index(members, c)
	if cur < 0 || len(members) < 2 {
		return
	}
	n := len(members)
	var next *Client
	for step := 1; step < n; step++ {
		i := cur - step
		if dir < 0 {
			i = cur + step
		}
		cand := members[((i%n)+n)%n]
		if !cand.states.SkipsCycle() {
			next = cand
			break
		}
	}
	if next == nil || next == c {
		return
	}

	c.savePointer()
	next.Raise()
	if !next.geom.Contains(next.ptr, geom.Window) {
		next.ptr = next.geom.Center(geom.Window)
	}
	next.warpPointer()
	next.Activate()
}
