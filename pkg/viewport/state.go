package viewport

// PlaneLayout pairs a plane id with its layout.
type PlaneLayout struct {
	Plane  int
	Layout Layout
}

// State is the serialisable viewport. A nil Stack means the snapshot did not
// carry one and Restore rebuilds it.
type State struct {
	Layouts      []PlaneLayout
	CurrentPlane int
	ViewX, ViewY float64
	Zoom         float64
	Stack        []Frame
}

// State returns a copy of the viewport with the current plane's layout
// saved first.
func (e *Engine) State() State {
	e.SaveCurrentLayout()
	st := State{
		CurrentPlane: e.plane,
		ViewX:        e.viewX,
		ViewY:        e.viewY,
		Zoom:         e.zoom,
		Stack:        append([]Frame{}, e.stack...),
	}
	for _, plane := range e.layoutOrder {
		st.Layouts = append(st.Layouts, PlaneLayout{Plane: plane, Layout: e.layouts[plane].clone()})
	}
	return st
}

// Restore replaces the viewport with st. Layouts of planes that no longer
// exist are dropped, an unknown current plane falls back to Root and an
// invalid or missing stack is rebuilt from the first-parent chain. The dirty
// hook is not called.
func (e *Engine) Restore(st State) {
	e.layouts = make(map[int]*Layout)
	e.layoutOrder = nil
	for _, pl := range st.Layouts {
		if pl.Plane != Root && !e.members.Has(pl.Plane) {
			continue
		}
		if _, dup := e.layouts[pl.Plane]; dup {
			continue
		}
		l := pl.Layout.clone()
		if l.Cards == nil {
			l.Cards = []CardPos{}
		}
		e.layouts[pl.Plane] = &l
		e.layoutOrder = append(e.layoutOrder, pl.Plane)
	}
	e.EnsureLayout(Root)

	plane := st.CurrentPlane
	if plane != Root && !e.members.Has(plane) {
		plane = Root
	}
	e.plane = plane
	e.EnsureLayout(plane)

	if st.Stack != nil && e.validStack(st.Stack, plane) {
		e.stack = append([]Frame(nil), st.Stack...)
	} else {
		e.stack = e.chainTo(plane)
	}

	e.zoom = clamp(st.Zoom, e.cfg.MinZoom, e.cfg.MaxZoom)
	if st.Zoom <= 0 {
		e.zoom = e.cfg.BaseZoom
	}
	e.viewX, e.viewY = st.ViewX, st.ViewY
	e.positions = make(map[int]Point)
	e.order = nil
	e.CancelMomentum()
	e.reconcile()
}

func (e *Engine) validStack(stack []Frame, plane int) bool {
	want := Root
	for _, f := range stack {
		if f.PlaneID != want || !e.members.Has(f.EnteredChildID) {
			return false
		}
		want = f.EnteredChildID
	}
	return want == plane
}

// chainTo builds the stack that leads from Root to plane by following each
// plane's first parent.
func (e *Engine) chainTo(plane int) []Frame {
	var rev []Frame
	seen := map[int]bool{}
	for p := plane; p != Root && !seen[p]; {
		seen[p] = true
		parent := Root
		if ps := e.members.Parents(p); len(ps) > 0 && !seen[ps[0]] {
			parent = ps[0]
		}
		rev = append(rev, Frame{PlaneID: parent, EnteredChildID: p})
		p = parent
	}
	stack := make([]Frame, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		stack = append(stack, rev[i])
	}
	return stack
}
