package interact_test

import (
	"testing"

	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// fakeRenderer hit-tests against the viewport's live layout and records what
// the controller asked it to do.
type fakeRenderer struct {
	interact.NopRenderer
	view *viewport.Engine

	hidden      map[int]bool
	hiddenTests int // ElementAt calls made while something was hidden

	// override, when set and returning true, replaces the layout hit test
	override func(x, y float64) (interact.Target, bool)

	selected    map[int]bool
	affinity    map[int]interact.Zone
	updated     []int
	focusedRow  []int
	flashed     [][]int
	pulsed      []int
	ghost       bool
	marquee     bool
	suggestions []string
	planes      int
}

func newFakeRenderer(view *viewport.Engine) *fakeRenderer {
	return &fakeRenderer{
		view:     view,
		hidden:   map[int]bool{},
		selected: map[int]bool{},
		affinity: map[int]interact.Zone{},
	}
}

func (f *fakeRenderer) ElementAt(x, y float64) interact.Target {
	if f.override != nil {
		if t, ok := f.override(x, y); ok {
			return t
		}
	}
	if len(f.hidden) > 0 {
		f.hiddenTests++
	}
	id, ok := f.view.HitTest(f.view.WorldCoords(x, y), f.hidden)
	if !ok {
		return interact.Target{}
	}
	return interact.Target{Kind: interact.TargetCard, CardID: id}
}

func (f *fakeRenderer) CardRect(id int) (viewport.Rect, bool) {
	b, ok := f.view.Bounds(id)
	if !ok {
		return viewport.Rect{}, false
	}
	tl := f.view.ScreenCoords(b.X, b.Y)
	z := f.view.Zoom()
	return viewport.Rect{X: tl.X, Y: tl.Y, W: b.W * z, H: b.H * z}, true
}

func (f *fakeRenderer) SetHidden(ids []int, hidden bool) {
	for _, id := range ids {
		if hidden {
			f.hidden[id] = true
		} else {
			delete(f.hidden, id)
		}
	}
}

func (f *fakeRenderer) SetSelected(id int, on bool) { f.selected[id] = on }

func (f *fakeRenderer) SetAffinity(id int, z interact.Zone) { f.affinity[id] = z }

func (f *fakeRenderer) UpdateCardUI(id int, focusNewRow bool) {
	f.updated = append(f.updated, id)
	if focusNewRow {
		f.focusedRow = append(f.focusedRow, id)
	}
}

func (f *fakeRenderer) Flash(ids ...int) { f.flashed = append(f.flashed, ids) }
func (f *fakeRenderer) Pulse(id int)     { f.pulsed = append(f.pulsed, id) }
func (f *fakeRenderer) RenderPlane(int)  { f.planes++ }

func (f *fakeRenderer) ShowGhost(_ int, _ viewport.Point, visible bool) { f.ghost = visible }
func (f *fakeRenderer) SetMarquee(_ viewport.Rect, visible bool)        { f.marquee = visible }

func (f *fakeRenderer) ShowSuggestions(_ int, options []string, visible bool) {
	if !visible {
		options = nil
	}
	f.suggestions = options
}

type fixture struct {
	store *graph.Store
	view  *viewport.Engine
	r     *fakeRenderer
	c     *interact.Controller
	ids   []int
}

// newFixture creates one card per name on the root plane. Card i sits at
// world (500*i, 0) and the view is at zoom 1 with no pan, so screen and
// world coordinates coincide. Cards are 220x144.
func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	s := graph.NewStore()
	var ids []int
	for _, n := range names {
		e := s.CreateEntity()
		s.SetName(e.ID, n)
		ids = append(ids, e.ID)
	}
	v := viewport.New(s, config.DefaultCanvas(), viewport.WithScreenSize(1000, 600))
	v.Reconcile()
	for i, id := range ids {
		v.MoveCard(id, float64(500*i), 0)
	}
	r := newFakeRenderer(v)
	return &fixture{store: s, view: v, r: r, c: interact.New(s, v, r), ids: ids}
}

func (fx *fixture) down(x, y float64, b interact.Button, mods interact.Modifiers) {
	fx.c.HandlePointer(interact.PointerEvent{Kind: interact.PointerDown, X: x, Y: y, Button: b, Mods: mods})
}

func (fx *fixture) move(x, y float64) {
	fx.c.HandlePointer(interact.PointerEvent{Kind: interact.PointerMove, X: x, Y: y})
}

func (fx *fixture) up(x, y float64) {
	fx.c.HandlePointer(interact.PointerEvent{Kind: interact.PointerUp, X: x, Y: y})
}

// drag presses with the primary button at (x0, y0), moves in two steps and
// releases at (x1, y1).
func (fx *fixture) drag(x0, y0, x1, y1 float64) {
	fx.down(x0, y0, interact.ButtonPrimary, interact.Modifiers{})
	fx.move((x0+x1)/2, (y0+y1)/2)
	fx.move(x1, y1)
	fx.up(x1, y1)
}
