package viewport

import (
	"math"

	"github.com/vanderheijden86/storyweb/pkg/metrics"
)

// CardPos is a card's saved world position on one plane.
type CardPos struct {
	RefID int     `json:"refId"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Layout is the saved arrangement of one plane.
type Layout struct {
	ViewX float64   `json:"viewX"`
	ViewY float64   `json:"viewY"`
	Cards []CardPos `json:"cards"`
}

func (l *Layout) clone() Layout {
	return Layout{ViewX: l.ViewX, ViewY: l.ViewY, Cards: append([]CardPos(nil), l.Cards...)}
}

// EnsureLayout returns plane's layout, creating an empty one on first use.
func (e *Engine) EnsureLayout(plane int) *Layout {
	if l, ok := e.layouts[plane]; ok {
		return l
	}
	l := &Layout{Cards: []CardPos{}}
	e.layouts[plane] = l
	e.layoutOrder = append(e.layoutOrder, plane)
	return l
}

// Layout returns a copy of plane's saved layout.
func (e *Engine) Layout(plane int) (Layout, bool) {
	l, ok := e.layouts[plane]
	if !ok {
		return Layout{}, false
	}
	return l.clone(), true
}

// Planes returns every plane that has a layout, in first-visit order.
func (e *Engine) Planes() []int {
	return append([]int(nil), e.layoutOrder...)
}

// SaveCurrentLayout writes the live card positions and the pan offset of the
// current plane into its layout record.
func (e *Engine) SaveCurrentLayout() {
	l := e.EnsureLayout(e.plane)
	l.ViewX, l.ViewY = e.viewX, e.viewY
	if len(e.order) == 0 && len(l.Cards) > 0 {
		// nothing reconciled yet since the plane was switched to
		return
	}
	cards := make([]CardPos, 0, len(e.order))
	for _, id := range e.order {
		p := e.positions[id]
		cards = append(cards, CardPos{RefID: id, X: p.X, Y: p.Y})
	}
	l.Cards = cards
}

// Reconcile loads the current plane's layout into the live positions,
// dropping cards that are no longer visible and auto-placing new ones
// evenly around a circle. It returns the visible ids in display order.
func (e *Engine) Reconcile() []int {
	ids, changed := e.reconcile()
	if changed {
		e.markDirty()
	}
	return ids
}

func (e *Engine) reconcile() ([]int, bool) {
	defer metrics.Timer(metrics.PlaneRender)()

	visible := e.VisibleIDs(e.plane)
	l := e.EnsureLayout(e.plane)

	saved := make(map[int]Point, len(l.Cards))
	for _, c := range l.Cards {
		saved[c.RefID] = Point{X: c.X, Y: c.Y}
	}
	// live positions win over the saved layout while the plane is on screen
	for id, p := range e.positions {
		saved[id] = p
	}

	n := len(visible)
	changed := len(l.Cards) != n
	positions := make(map[int]Point, n)
	cards := make([]CardPos, 0, n)
	for i, id := range visible {
		p, ok := saved[id]
		if !ok {
			p = e.circleSlot(i, n)
			changed = true
		}
		positions[id] = p
		cards = append(cards, CardPos{RefID: id, X: p.X, Y: p.Y})
	}

	e.positions = positions
	e.order = append([]int(nil), visible...)
	l.Cards = cards
	return append([]int(nil), visible...), changed
}

// Project returns where every card visible on plane would be drawn, without
// switching to it. Saved positions are used where present and missing cards
// get their auto-placement slot. On the current plane live positions win.
func (e *Engine) Project(plane int) []CardPos {
	visible := e.VisibleIDs(plane)
	saved := make(map[int]Point)
	if l, ok := e.layouts[plane]; ok {
		for _, c := range l.Cards {
			saved[c.RefID] = Point{X: c.X, Y: c.Y}
		}
	}
	if plane == e.plane {
		for id, p := range e.positions {
			saved[id] = p
		}
	}
	cards := make([]CardPos, 0, len(visible))
	for i, id := range visible {
		p, ok := saved[id]
		if !ok {
			p = e.circleSlot(i, len(visible))
		}
		cards = append(cards, CardPos{RefID: id, X: p.X, Y: p.Y})
	}
	return cards
}

// circleSlot places the i-th of n cards on a circle of LayoutRadius around
// the world origin, so freshly placed cards never pile up at (0,0).
func (e *Engine) circleSlot(i, n int) Point {
	if n < 1 {
		n = 1
	}
	angle := 2 * math.Pi * float64(i) / float64(n)
	r := e.cfg.LayoutRadius
	return Point{
		X: r*math.Cos(angle) - e.cfg.CardWidth/2,
		Y: r*math.Sin(angle) - e.cfg.CardHeight/2,
	}
}

// Position returns the live world position of a card on the current plane.
func (e *Engine) Position(id int) (Point, bool) {
	p, ok := e.positions[id]
	return p, ok
}

// Bounds returns the world rectangle of a card on the current plane.
func (e *Engine) Bounds(id int) (Rect, bool) {
	p, ok := e.positions[id]
	if !ok {
		return Rect{}, false
	}
	return Rect{X: p.X, Y: p.Y, W: e.cfg.CardWidth, H: e.cfg.CardHeight}, true
}

// OnPlane returns the ids laid out on the current plane in display order.
func (e *Engine) OnPlane() []int {
	return append([]int(nil), e.order...)
}

// MoveCard sets the world position of a card already on the current plane.
func (e *Engine) MoveCard(id int, x, y float64) bool {
	p, ok := e.positions[id]
	if !ok {
		return false
	}
	if p.X == x && p.Y == y {
		return true
	}
	e.positions[id] = Point{X: x, Y: y}
	e.markDirty()
	return true
}

// PlaceCard puts a card at a world position on the current plane, adding it
// if it is not there yet. Used for cards created at a pointer position.
func (e *Engine) PlaceCard(id int, x, y float64) {
	if _, ok := e.positions[id]; !ok {
		e.order = append(e.order, id)
	}
	e.positions[id] = Point{X: x, Y: y}
	e.markDirty()
}

// Forget removes a deleted card from the live plane and every saved layout.
func (e *Engine) Forget(id int) {
	if _, ok := e.positions[id]; ok {
		delete(e.positions, id)
		for i, o := range e.order {
			if o == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	for _, l := range e.layouts {
		kept := l.Cards[:0]
		for _, c := range l.Cards {
			if c.RefID != id {
				kept = append(kept, c)
			}
		}
		l.Cards = kept
	}
	if _, ok := e.layouts[id]; ok && id != e.plane {
		delete(e.layouts, id)
		for i, p := range e.layoutOrder {
			if p == id {
				e.layoutOrder = append(e.layoutOrder[:i], e.layoutOrder[i+1:]...)
				break
			}
		}
	}
	e.markDirty()
}

// HitTest returns the topmost card on the current plane under a world point,
// skipping ids in skip. Later cards in display order are drawn on top.
func (e *Engine) HitTest(p Point, skip map[int]bool) (int, bool) {
	for i := len(e.order) - 1; i >= 0; i-- {
		id := e.order[i]
		if skip[id] {
			continue
		}
		if r, _ := e.Bounds(id); r.Contains(p) {
			return id, true
		}
	}
	return 0, false
}

// CardsIn returns the cards whose bounds intersect a world rectangle.
func (e *Engine) CardsIn(r Rect) []int {
	r = r.Normalize()
	var out []int
	for _, id := range e.order {
		if b, _ := e.Bounds(id); b.Intersects(r) {
			out = append(out, id)
		}
	}
	return out
}
