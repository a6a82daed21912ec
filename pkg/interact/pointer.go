package interact

import (
	"math"

	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// HandlePointer feeds one pointer event through the gesture state machines.
// Move and up events are handled regardless of what is under the pointer,
// so a drag keeps tracking after leaving the element it started on.
func (c *Controller) HandlePointer(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		c.pointerDown(ev)
	case PointerMove:
		c.pointerMove(ev)
	case PointerUp:
		c.pointerUp(ev)
	}
}

func (c *Controller) pointerDown(ev PointerEvent) {
	if c.st.Mode != ModeIdle {
		return
	}
	t := c.r.ElementAt(ev.X, ev.Y)
	if t.OnCard() && !c.store.Has(t.CardID) {
		return
	}
	screen := viewport.Point{X: ev.X, Y: ev.Y}

	switch {
	case t.Kind == TargetEditable:
		// text fields take the press; no gesture
		return

	case t.Kind == TargetLinkedEntity:
		if !c.store.Has(t.LinkedID) {
			return
		}
		c.st.Mode = ModeDragLinkEntity
		c.st.LinkEntity = LinkEntityDrag{EntityID: t.LinkedID, FromCard: t.CardID}
		c.r.ShowGhost(t.LinkedID, screen, true)

	case t.OnCard() && ev.Mods.Alt && ev.Button == ButtonSecondary:
		c.st.Mode = ModeDragVariant
		c.st.Variant = VariantDrag{Source: t.CardID, At: screen}
		c.r.ShowGhost(t.CardID, screen, true)

	case t.OnCard() && ev.Mods.Ctrl:
		c.toggle(t.CardID)

	case t.OnCard() && ev.Button == ButtonPrimary:
		c.beginCardDrag(t.CardID, screen)

	case t.Kind == TargetNone && ev.Button == ButtonPrimary:
		w := c.view.WorldCoords(ev.X, ev.Y)
		var base []int
		if ev.Mods.Ctrl {
			base = c.st.Selection.IDs()
		} else {
			c.setSelection()
		}
		c.st.Mode = ModeMarquee
		c.st.Marquee = MarqueeState{Start: w, End: w, Base: base}
		c.r.SetMarquee(viewport.Rect{X: ev.X, Y: ev.Y}, true)

	default:
		c.view.CancelMomentum()
		c.st.Mode = ModeDragPlane
		c.st.Pan = PlaneDrag{Last: screen}
	}
}

func (c *Controller) beginCardDrag(id int, screen viewport.Point) {
	if !c.st.Selection.Has(id) {
		c.setSelection(id)
	}
	origins := make(map[int]viewport.Point, c.st.Selection.Len())
	for _, sel := range c.st.Selection.IDs() {
		if p, ok := c.view.Position(sel); ok {
			origins[sel] = p
		}
	}
	if _, ok := origins[id]; !ok {
		return
	}
	c.st.Mode = ModeDragCards
	c.st.Drag = CardDrag{
		Source:  id,
		Start:   c.view.WorldCoords(screen.X, screen.Y),
		Press:   screen,
		Origins: origins,
	}
}

func (c *Controller) pointerMove(ev PointerEvent) {
	switch c.st.Mode {
	case ModeIdle:
		t := c.r.ElementAt(ev.X, ev.Y)
		c.st.Hover = t.CardID
	case ModeMarquee:
		c.moveMarquee(ev)
	case ModeDragCards:
		c.moveCards(ev)
	case ModeDragPlane:
		c.movePlane(ev)
	case ModeDragLinkEntity:
		c.st.LinkEntity.Over = c.r.ElementAt(ev.X, ev.Y)
		c.r.ShowGhost(c.st.LinkEntity.EntityID, viewport.Point{X: ev.X, Y: ev.Y}, true)
	case ModeDragVariant:
		c.st.Variant.At = viewport.Point{X: ev.X, Y: ev.Y}
		c.r.ShowGhost(c.st.Variant.Source, c.st.Variant.At, true)
	}
}

// moveMarquee re-evaluates the whole selection against the rectangle on
// every move.
func (c *Controller) moveMarquee(ev PointerEvent) {
	m := &c.st.Marquee
	m.End = c.view.WorldCoords(ev.X, ev.Y)
	ids := append([]int(nil), m.Base...)
	for _, id := range c.view.CardsIn(m.Rect()) {
		if !containsInt(ids, id) {
			ids = append(ids, id)
		}
	}
	c.setSelection(ids...)

	a := c.view.ScreenCoords(m.Start.X, m.Start.Y)
	c.r.SetMarquee(viewport.Rect{X: a.X, Y: a.Y, W: ev.X - a.X, H: ev.Y - a.Y}.Normalize(), true)
}

func (c *Controller) moveCards(ev PointerEvent) {
	d := &c.st.Drag
	w := c.view.WorldCoords(ev.X, ev.Y)
	dx, dy := w.X-d.Start.X, w.Y-d.Start.Y
	if !d.Moved && math.Hypot(ev.X-d.Press.X, ev.Y-d.Press.Y) > c.cfg.ClickSlop {
		d.Moved = true
	}
	if !d.Moved {
		return
	}

	dragged := make([]int, 0, len(d.Origins))
	for _, id := range c.st.Selection.IDs() {
		o, ok := d.Origins[id]
		if !ok {
			continue
		}
		dragged = append(dragged, id)
		if c.view.MoveCard(id, o.X+dx, o.Y+dy) {
			c.r.RenderCard(id, c.view.ScreenCoords(o.X+dx, o.Y+dy))
		}
	}

	target, zone := c.dropTarget(ev.X, ev.Y, dragged)
	if target != d.Target || zone != d.Zone {
		if d.Target != 0 {
			c.r.SetAffinity(d.Target, ZoneNone)
		}
		if target != 0 {
			c.r.SetAffinity(target, zone)
		}
		d.Target, d.Zone = target, zone
	}
}

// dropTarget hides the dragged cards, hit-tests the point and restores
// them, so a dragged card is never its own target. The bottom LinkZoneHeight
// pixels of the target are the link zone, the rest is the contain zone.
func (c *Controller) dropTarget(x, y float64, dragged []int) (int, Zone) {
	c.r.SetHidden(dragged, true)
	t := c.r.ElementAt(x, y)
	c.r.SetHidden(dragged, false)

	if !t.OnCard() || containsInt(dragged, t.CardID) || !c.store.Has(t.CardID) {
		return 0, ZoneNone
	}
	rect, ok := c.r.CardRect(t.CardID)
	if !ok {
		return 0, ZoneNone
	}
	if y >= rect.Y+rect.H-c.cfg.LinkZoneHeight {
		return t.CardID, ZoneLink
	}
	return t.CardID, ZoneContain
}

func (c *Controller) movePlane(ev PointerEvent) {
	p := &c.st.Pan
	dx, dy := ev.X-p.Last.X, ev.Y-p.Last.Y
	p.Last = viewport.Point{X: ev.X, Y: ev.Y}
	p.Velocity.X = 0.8*dx + 0.2*p.Velocity.X
	p.Velocity.Y = 0.8*dy + 0.2*p.Velocity.Y
	c.view.Pan(dx, dy)
	c.r.RenderPlane(c.view.CurrentPlane())
}

func (c *Controller) pointerUp(ev PointerEvent) {
	switch c.st.Mode {
	case ModeMarquee:
		c.r.SetMarquee(viewport.Rect{}, false)
	case ModeDragCards:
		c.dropCards(ev)
	case ModeDragPlane:
		c.view.StartMomentum(c.st.Pan.Velocity.X, c.st.Pan.Velocity.Y)
	case ModeDragLinkEntity:
		c.r.ShowGhost(c.st.LinkEntity.EntityID, viewport.Point{}, false)
		t := c.r.ElementAt(ev.X, ev.Y)
		if t.Kind == TargetAttrRow || t.Kind == TargetAttrSection {
			row := RowRef{CardID: t.CardID, Row: t.Row, Inherited: t.Inherited, Key: t.Key}
			if t.Kind == TargetAttrSection {
				row = RowRef{CardID: t.CardID, Row: -1}
			}
			c.DropEntityOnRow(row, c.st.LinkEntity.EntityID)
		}
	case ModeDragVariant:
		c.r.ShowGhost(c.st.Variant.Source, viewport.Point{}, false)
		c.dropVariant(ev)
	}
	c.st.reset()
}

// dropCards applies the zone action to the pressed card only. A link drop
// makes the target point at the source: Link(target, source).
func (c *Controller) dropCards(ev PointerEvent) {
	d := c.st.Drag
	if d.Target != 0 {
		c.r.SetAffinity(d.Target, ZoneNone)
	}
	if !d.Moved {
		// plain click: just the pressed card stays selected
		c.setSelection(d.Source)
		return
	}
	if d.Target == 0 || d.Target == d.Source || !c.store.Has(d.Target) || !c.store.Has(d.Source) {
		return
	}
	switch d.Zone {
	case ZoneLink:
		c.store.Link(d.Target, d.Source)
		debug.Log("interact: link %d -> %d", d.Target, d.Source)
	case ZoneContain:
		c.store.Contain(d.Target, d.Source)
		debug.Log("interact: contain %d in %d", d.Source, d.Target)
	default:
		return
	}
	c.r.Flash(d.Target, d.Source)
	c.r.UpdateCardUI(d.Target, false)
	c.r.UpdateCardUI(d.Source, false)
}

func (c *Controller) dropVariant(ev PointerEvent) {
	c.CreateVariantAt(c.st.Variant.Source, ev.X, ev.Y)
}

func containsInt(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
