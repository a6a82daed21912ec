// Package viewport owns the camera (pan and zoom), the plane currently on
// screen, the navigation stack of entered planes and the card layout saved
// for every plane that has been visited.
//
// Coordinates come in two flavours. Screen coordinates are pixels relative to
// the top-left corner of the canvas; world coordinates are the canvas space
// cards live in. The two are related by
//
//	screen = world*zoom + view
package viewport

import (
	"strconv"

	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/debug"
)

// Root is the plane id of the top-level canvas.
const Root = 0

// RootKey is the layout key of the root plane.
const RootKey = "ROOT"

// Membership answers which entities exist and how they nest. *graph.Store
// satisfies it.
type Membership interface {
	Has(id int) bool
	IDs() []int
	Children(id int) []int
	Parents(id int) []int
}

// Point is a pair of coordinates, world or screen depending on context.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.W && o.X <= r.X+r.W && r.Y <= o.Y+o.H && o.Y <= r.Y+r.H
}

// Normalize returns r with non-negative width and height.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Frame is one navigation stack entry: the plane that was left and the
// child that was entered from it.
type Frame struct {
	PlaneID        int `json:"planeId"`
	EnteredChildID int `json:"enteredChildId"`
}

// PlaneKey returns the layout key for plane: "ROOT" or the decimal id.
func PlaneKey(plane int) string {
	if plane == Root {
		return RootKey
	}
	return strconv.Itoa(plane)
}

// ParsePlaneKey is the inverse of PlaneKey.
func ParsePlaneKey(key string) (int, bool) {
	if key == RootKey {
		return Root, true
	}
	id, err := strconv.Atoi(key)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Option configures an Engine.
type Option func(*Engine)

// WithDirtyHook registers fn to be called whenever pan, zoom, plane or a
// layout changes.
func WithDirtyHook(fn func()) Option {
	return func(e *Engine) { e.onDirty = fn }
}

// WithScreenSize sets the canvas size in pixels.
func WithScreenSize(w, h float64) Option {
	return func(e *Engine) { e.screenW, e.screenH = w, h }
}

// Engine is the viewport and navigation state. It is not safe for
// concurrent use; the UI event loop owns it.
type Engine struct {
	cfg     config.CanvasConfig
	members Membership

	viewX, viewY float64
	zoom         float64
	plane        int
	stack        []Frame

	layouts     map[int]*Layout
	layoutOrder []int

	// live positions of the cards on the current plane, in world space
	positions map[int]Point
	order     []int

	screenW, screenH float64

	vel      Point
	coasting bool

	onDirty func()
}

// New returns an Engine on the root plane at base zoom.
func New(members Membership, cfg config.CanvasConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		members:   members,
		zoom:      cfg.BaseZoom,
		layouts:   make(map[int]*Layout),
		positions: make(map[int]Point),
		screenW:   1280,
		screenH:   800,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.zoom <= 0 {
		e.zoom = 1
	}
	e.EnsureLayout(Root)
	return e
}

// SetDirtyHook replaces the dirty hook.
func (e *Engine) SetDirtyHook(fn func()) {
	e.onDirty = fn
}

func (e *Engine) markDirty() {
	if e.onDirty != nil {
		e.onDirty()
	}
}

// Config returns the canvas tuning the engine was built with.
func (e *Engine) Config() config.CanvasConfig { return e.cfg }

// View returns the pan offset in screen pixels.
func (e *Engine) View() (x, y float64) { return e.viewX, e.viewY }

// Zoom returns the current zoom factor.
func (e *Engine) Zoom() float64 { return e.zoom }

// CurrentPlane returns the plane on screen; Root for the top level.
func (e *Engine) CurrentPlane() int { return e.plane }

// Depth is the nesting depth, always equal to the navigation stack length.
func (e *Engine) Depth() int { return len(e.stack) }

// Stack returns a copy of the navigation stack, outermost first.
func (e *Engine) Stack() []Frame {
	return append([]Frame(nil), e.stack...)
}

// ScreenSize returns the canvas size in pixels.
func (e *Engine) ScreenSize() (w, h float64) { return e.screenW, e.screenH }

// SetScreenSize records a new canvas size.
func (e *Engine) SetScreenSize(w, h float64) {
	e.screenW, e.screenH = w, h
}

// WorldCoords maps a screen point into world space.
func (e *Engine) WorldCoords(sx, sy float64) Point {
	return Point{X: (sx - e.viewX) / e.zoom, Y: (sy - e.viewY) / e.zoom}
}

// ScreenCoords maps a world point onto the screen.
func (e *Engine) ScreenCoords(wx, wy float64) Point {
	return Point{X: wx*e.zoom + e.viewX, Y: wy*e.zoom + e.viewY}
}

// Pan moves the view by a screen-space delta.
func (e *Engine) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	e.viewX += dx
	e.viewY += dy
	e.markDirty()
}

// SetView places the view offset directly.
func (e *Engine) SetView(x, y float64) {
	e.viewX, e.viewY = x, y
	e.markDirty()
}

// VisibleIDs returns the entities shown on plane. The root plane mirrors
// every entity, contained or not; any other plane shows exactly its direct
// children.
func (e *Engine) VisibleIDs(plane int) []int {
	if plane == Root {
		return e.members.IDs()
	}
	return e.members.Children(plane)
}

// Enter descends into childID's plane. The outgoing plane's layout and pan
// are saved first, and the pan last used inside childID is restored. The
// caller re-renders the new plane afterwards. Returns false if childID does
// not exist.
func (e *Engine) Enter(childID int) bool {
	if childID == Root || !e.members.Has(childID) {
		return false
	}
	e.SaveCurrentLayout()
	e.stack = append(e.stack, Frame{PlaneID: e.plane, EnteredChildID: childID})
	e.switchPlane(childID)
	debug.Log("viewport: enter %d (depth %d)", childID, len(e.stack))
	e.markDirty()
	return true
}

// Exit pops one level. It returns false on the root plane; otherwise the
// popped frame, whose EnteredChildID the caller can refocus.
func (e *Engine) Exit() (Frame, bool) {
	if len(e.stack) == 0 {
		return Frame{}, false
	}
	e.SaveCurrentLayout()
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.switchPlane(top.PlaneID)
	debug.Log("viewport: exit to %s (depth %d)", PlaneKey(top.PlaneID), len(e.stack))
	e.markDirty()
	return top, true
}

func (e *Engine) switchPlane(plane int) {
	e.plane = plane
	l := e.EnsureLayout(plane)
	e.viewX, e.viewY = l.ViewX, l.ViewY
	e.positions = make(map[int]Point)
	e.order = nil
	e.CancelMomentum()
}

// FocusOn pans so that card id is centred on screen at the current zoom.
// It returns false when the card is not on the current plane; the pulse
// highlight is left to the renderer.
func (e *Engine) FocusOn(id int) bool {
	p, ok := e.positions[id]
	if !ok {
		return false
	}
	cx := p.X + e.cfg.CardWidth/2
	cy := p.Y + e.cfg.CardHeight/2
	e.viewX = e.screenW/2 - cx*e.zoom
	e.viewY = e.screenH/2 - cy*e.zoom
	e.markDirty()
	return true
}

// CenterOnContent centres the bounding box of the current plane's cards.
// An empty plane centres the world origin.
func (e *Engine) CenterOnContent() {
	box, ok := e.ContentBounds()
	cx, cy := 0.0, 0.0
	if ok {
		cx, cy = box.X+box.W/2, box.Y+box.H/2
	}
	e.viewX = e.screenW/2 - cx*e.zoom
	e.viewY = e.screenH/2 - cy*e.zoom
	e.markDirty()
}

// ContentBounds returns the world-space bounding box of every card on the
// current plane.
func (e *Engine) ContentBounds() (Rect, bool) {
	if len(e.order) == 0 {
		return Rect{}, false
	}
	minX, minY := e.positions[e.order[0]].X, e.positions[e.order[0]].Y
	maxX, maxY := minX, minY
	for _, id := range e.order[1:] {
		p := e.positions[id]
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{
		X: minX,
		Y: minY,
		W: maxX - minX + e.cfg.CardWidth,
		H: maxY - minY + e.cfg.CardHeight,
	}, true
}
