// Package interact turns pointer, wheel and keyboard events into graph
// mutations and viewport changes. All mutations go through graph.Store and
// viewport.Engine so that their invariants and dirty marking hold; the
// Renderer is told what to redraw only after a mutation, cascades included,
// has completed.
package interact

import (
	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// Controller owns the InteractionState and drives the store, the viewport
// and the renderer from input events. Like the store it is meant to be used
// from a single event loop.
type Controller struct {
	store    *graph.Store
	view     *viewport.Engine
	r        Renderer
	cfg      config.CanvasConfig
	st       *InteractionState
	bindings *BindingRegistry
}

// New returns a controller with an idle state. A nil renderer is replaced
// by NopRenderer.
func New(store *graph.Store, view *viewport.Engine, r Renderer) *Controller {
	if r == nil {
		r = NopRenderer{}
	}
	return &Controller{
		store:    store,
		view:     view,
		r:        r,
		cfg:      view.Config(),
		st:       NewInteractionState(),
		bindings: NewBindingRegistry(),
	}
}

// SetRenderer swaps the render collaborator.
func (c *Controller) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	c.r = r
}

// State exposes the interaction state.
func (c *Controller) State() *InteractionState { return c.st }

// Store returns the graph the controller mutates.
func (c *Controller) Store() *graph.Store { return c.store }

// View returns the viewport the controller drives.
func (c *Controller) View() *viewport.Engine { return c.view }

// Bindings returns the row handler registry.
func (c *Controller) Bindings() *BindingRegistry { return c.bindings }

// RenderPlane reconciles the current plane's layout and asks the renderer to
// draw it.
func (c *Controller) RenderPlane() {
	c.view.Reconcile()
	plane := c.view.CurrentPlane()
	for _, id := range c.st.Selection.IDs() {
		if _, ok := c.view.Position(id); !ok {
			c.st.Selection.Remove(id)
		}
	}
	c.r.RenderPlane(plane)
}

func (c *Controller) setSelection(ids ...int) {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for _, id := range c.st.Selection.IDs() {
		if !keep[id] {
			c.st.Selection.Remove(id)
			c.r.SetSelected(id, false)
		}
	}
	for _, id := range ids {
		if c.st.Selection.Add(id) {
			c.r.SetSelected(id, true)
		}
	}
}

func (c *Controller) toggle(id int) {
	c.r.SetSelected(id, c.st.Selection.Toggle(id))
}

// Select replaces the selection.
func (c *Controller) Select(ids ...int) { c.setSelection(ids...) }

// CreateCard adds a new entity on the current plane, centred on the screen
// point (sx, sy). Inside a plane the card becomes a child of that plane.
func (c *Controller) CreateCard(sx, sy float64) int {
	e := c.store.CreateEntity()
	if plane := c.view.CurrentPlane(); plane != viewport.Root {
		c.store.Contain(plane, e.ID)
	}
	w := c.view.WorldCoords(sx, sy)
	c.view.PlaceCard(e.ID, w.X-c.cfg.CardWidth/2, w.Y-c.cfg.CardHeight/2)
	pos, _ := c.view.Position(e.ID)
	c.r.RenderCard(e.ID, c.view.ScreenCoords(pos.X, pos.Y))
	c.setSelection(e.ID)
	return e.ID
}

// CreateVariantAt derives a variant of source and places it centred on the
// screen point (sx, sy). It returns 0 when source does not exist.
func (c *Controller) CreateVariantAt(source int, sx, sy float64) int {
	v := c.store.CreateVariant(source)
	if v == nil {
		return 0
	}
	w := c.view.WorldCoords(sx, sy)
	x, y := w.X-c.cfg.CardWidth/2, w.Y-c.cfg.CardHeight/2
	c.view.PlaceCard(v.ID, x, y)
	c.r.RenderCard(v.ID, c.view.ScreenCoords(x, y))
	c.r.Flash(v.ID)
	c.setSelection(v.ID)
	debug.Log("interact: variant %d of %d", v.ID, source)
	return v.ID
}

// DeleteSelection deletes every selected card. If the current plane itself
// is deleted the view backs out to the nearest surviving plane.
func (c *Controller) DeleteSelection() int {
	ids := c.st.Selection.IDs()
	if len(ids) == 0 {
		return 0
	}
	for _, id := range ids {
		c.store.DeleteEntity(id)
		c.view.Forget(id)
		c.bindings.Unbind(id)
		c.st.Selection.Remove(id)
		if c.st.Rename != nil && c.st.Rename.CardID == id {
			c.st.Rename = nil
		}
		if c.st.Dropdown != nil && c.st.Dropdown.Row.CardID == id {
			c.st.Dropdown = nil
		}
	}
	for c.view.CurrentPlane() != viewport.Root && !c.store.Has(c.view.CurrentPlane()) {
		if _, ok := c.view.Exit(); !ok {
			break
		}
	}
	debug.Log("interact: deleted %v", ids)
	c.RenderPlane()
	return len(ids)
}

// EnterCard descends into id's plane and centres its content.
func (c *Controller) EnterCard(id int) bool {
	if !c.view.Enter(id) {
		return false
	}
	c.setSelection()
	c.view.Reconcile()
	c.view.CenterOnContent()
	c.RenderPlane()
	return true
}

// ExitPlane backs out one level and refocuses the card that was entered.
func (c *Controller) ExitPlane() bool {
	frame, ok := c.view.Exit()
	if !ok {
		return false
	}
	c.setSelection()
	c.view.Reconcile()
	if !c.view.FocusOn(frame.EnteredChildID) {
		c.view.CenterOnContent()
	}
	c.RenderPlane()
	c.r.Pulse(frame.EnteredChildID)
	return true
}
