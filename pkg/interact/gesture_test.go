package interact_test

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

var none interact.Modifiers

func TestDropOnLinkZoneLinksTargetToSource(t *testing.T) {
	fx := newFixture(t, "Source", "Target")
	s, tg := fx.ids[0], fx.ids[1]

	// T spans y 0..144; its bottom 60px (y >= 84) is the link zone.
	fx.drag(110, 72, 610, 120)

	if !fx.store.HasLink(tg, s) {
		t.Fatalf("expected Link(target, source): links(T) = %v", fx.store.Links(tg))
	}
	if fx.store.HasLink(s, tg) {
		t.Error("link must not point from source to target")
	}
	if fx.store.IsChild(tg, s) {
		t.Error("link drop must not contain")
	}
	if len(fx.r.flashed) != 1 || !slices.Contains(fx.r.flashed[0], s) || !slices.Contains(fx.r.flashed[0], tg) {
		t.Errorf("both participants should flash, got %v", fx.r.flashed)
	}
	if !slices.Contains(fx.r.updated, s) || !slices.Contains(fx.r.updated, tg) {
		t.Errorf("both participants should refresh, got %v", fx.r.updated)
	}
	if fx.r.hiddenTests == 0 {
		t.Error("drop target hit test should run with the dragged cards hidden")
	}
	if len(fx.r.hidden) != 0 {
		t.Errorf("dragged cards left hidden: %v", fx.r.hidden)
	}
	if fx.r.affinity[tg] != interact.ZoneNone {
		t.Errorf("affinity not cleared: %v", fx.r.affinity[tg])
	}
	if fx.c.State().Mode != interact.ModeIdle {
		t.Errorf("mode = %v", fx.c.State().Mode)
	}
}

func TestDropOnBodyContainsSource(t *testing.T) {
	fx := newFixture(t, "Source", "Target")
	s, tg := fx.ids[0], fx.ids[1]

	fx.drag(110, 72, 610, 40)

	if !slices.Contains(fx.store.Children(tg), s) {
		t.Errorf("childrenOf(T) = %v, want it to contain S", fx.store.Children(tg))
	}
	if !slices.Contains(fx.store.Parents(s), tg) {
		t.Errorf("parentsOf(S) = %v, want it to contain T", fx.store.Parents(s))
	}
	if fx.store.HasLink(tg, s) || fx.store.HasLink(s, tg) {
		t.Error("contain drop must not link")
	}
}

func TestAffinityFollowsZoneWhileDragging(t *testing.T) {
	fx := newFixture(t, "Source", "Target")
	tg := fx.ids[1]

	fx.down(110, 72, interact.ButtonPrimary, none)
	fx.move(610, 40)
	if fx.r.affinity[tg] != interact.ZoneContain {
		t.Errorf("affinity = %v, want contain", fx.r.affinity[tg])
	}
	fx.move(610, 130)
	if fx.r.affinity[tg] != interact.ZoneLink {
		t.Errorf("affinity = %v, want link", fx.r.affinity[tg])
	}
	fx.move(900, 500)
	if fx.r.affinity[tg] != interact.ZoneNone {
		t.Errorf("affinity = %v, want none", fx.r.affinity[tg])
	}
	fx.up(900, 500)
	if fx.store.HasLink(tg, fx.ids[0]) || len(fx.store.Children(tg)) != 0 {
		t.Error("release over empty canvas must not mutate the graph")
	}
}

func TestDragMovesSelectionWithoutDrift(t *testing.T) {
	fx := newFixture(t, "A", "B", "C")
	a, b := fx.ids[0], fx.ids[1]
	fx.c.Select(a, b)

	fx.down(110, 72, interact.ButtonPrimary, none)
	for i := 1; i <= 30; i++ {
		fx.move(110+float64(i), 72+float64(3*i))
	}
	fx.up(140, 162)

	pa, _ := fx.view.Position(a)
	pb, _ := fx.view.Position(b)
	if pa.X != 30 || pa.Y != 90 {
		t.Errorf("A at %+v", pa)
	}
	if pb.X != 530 || pb.Y != 90 {
		t.Errorf("B at %+v", pb)
	}
	if pc, _ := fx.view.Position(fx.ids[2]); pc.X != 1000 || pc.Y != 0 {
		t.Errorf("unselected card moved to %+v", pc)
	}
}

func TestPressOnUnselectedCardResetsSelection(t *testing.T) {
	fx := newFixture(t, "A", "B")
	a, b := fx.ids[0], fx.ids[1]
	fx.c.Select(a)

	fx.down(610, 72, interact.ButtonPrimary, none)
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{b}) {
		t.Errorf("selection = %v, want [%d]", got, b)
	}
	if fx.r.selected[a] {
		t.Error("renderer still shows A selected")
	}
	fx.up(610, 72)
}

func TestPlainClickLeavesOnlyClickedCardSelected(t *testing.T) {
	fx := newFixture(t, "A", "B")
	a, b := fx.ids[0], fx.ids[1]
	fx.c.Select(a, b)

	fx.down(110, 72, interact.ButtonPrimary, none)
	fx.up(111, 73)

	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{a}) {
		t.Errorf("selection = %v, want [%d]", got, a)
	}
	if p, _ := fx.view.Position(a); p.X != 0 || p.Y != 0 {
		t.Errorf("click within slop moved the card to %+v", p)
	}
}

func TestModifierClickTogglesWithoutClearing(t *testing.T) {
	fx := newFixture(t, "A", "B")
	a, b := fx.ids[0], fx.ids[1]
	ctrl := interact.Modifiers{Ctrl: true}

	fx.c.Select(a)
	fx.down(610, 72, interact.ButtonPrimary, ctrl)
	fx.up(610, 72)
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{a, b}) {
		t.Errorf("selection = %v", got)
	}
	if fx.c.State().Mode != interact.ModeIdle {
		t.Error("modifier click must not start a drag")
	}

	fx.down(110, 72, interact.ButtonPrimary, ctrl)
	fx.up(110, 72)
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{b}) {
		t.Errorf("selection = %v", got)
	}
}

func TestMarqueeReevaluatesOnEveryMove(t *testing.T) {
	fx := newFixture(t, "A", "B")
	a, b := fx.ids[0], fx.ids[1]
	fx.c.Select(b)

	fx.down(300, 400, interact.ButtonPrimary, none)
	if fx.c.State().Mode != interact.ModeMarquee {
		t.Fatalf("mode = %v", fx.c.State().Mode)
	}
	if fx.c.State().Selection.Len() != 0 {
		t.Error("plain marquee should clear the selection")
	}
	fx.move(-10, -10)
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{a}) {
		t.Errorf("selection = %v, want [%d]", got, a)
	}
	fx.move(600, -10)
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{b}) {
		t.Errorf("selection = %v, want [%d]", got, b)
	}
	fx.move(295, 395)
	if fx.c.State().Selection.Len() != 0 {
		t.Errorf("shrinking the marquee should deselect, got %v", fx.c.State().Selection.IDs())
	}
	fx.move(-10, -10)
	fx.up(-10, -10)
	if fx.r.marquee {
		t.Error("marquee still visible after release")
	}
	if got := fx.c.State().Selection.IDs(); !slices.Equal(got, []int{a}) {
		t.Errorf("final selection = %v", got)
	}
}

func TestPlaneDragPansAndCoasts(t *testing.T) {
	fx := newFixture(t, "A")

	fx.down(300, 400, interact.ButtonSecondary, none)
	if fx.c.State().Mode != interact.ModeDragPlane {
		t.Fatalf("mode = %v", fx.c.State().Mode)
	}
	fx.move(320, 400)
	fx.move(340, 400)
	fx.up(340, 400)

	if x, _ := fx.view.View(); x != 40 {
		t.Errorf("view x = %v, want 40", x)
	}
	if !fx.view.Coasting() {
		t.Fatal("release with velocity should start momentum")
	}

	fx.down(300, 400, interact.ButtonMiddle, none)
	if fx.view.Coasting() {
		t.Error("a new plane drag must cancel momentum")
	}
	fx.up(300, 400)
}

func TestGesturesAreMutuallyExclusive(t *testing.T) {
	fx := newFixture(t, "A", "B")
	fx.down(110, 72, interact.ButtonPrimary, none)
	fx.down(300, 400, interact.ButtonSecondary, none)
	if fx.c.State().Mode != interact.ModeDragCards {
		t.Errorf("second press changed mode to %v", fx.c.State().Mode)
	}
	fx.up(110, 72)
}

func TestEditablePressStartsNothing(t *testing.T) {
	fx := newFixture(t, "A")
	fx.r.override = func(x, y float64) (interact.Target, bool) {
		return interact.Target{Kind: interact.TargetEditable, CardID: fx.ids[0]}, true
	}
	fx.down(110, 72, interact.ButtonPrimary, none)
	if fx.c.State().Mode != interact.ModeIdle {
		t.Errorf("mode = %v", fx.c.State().Mode)
	}
}

func TestVariantDragMaterialisesOnRelease(t *testing.T) {
	fx := newFixture(t, "Guard")
	g := fx.ids[0]
	alt := interact.Modifiers{Alt: true}

	fx.down(110, 72, interact.ButtonSecondary, alt)
	if fx.c.State().Mode != interact.ModeDragVariant || !fx.r.ghost {
		t.Fatalf("mode = %v ghost = %v", fx.c.State().Mode, fx.r.ghost)
	}
	fx.move(400, 300)
	if fx.store.Len() != 1 {
		t.Fatal("variant created before release")
	}
	fx.up(410, 372)

	if fx.r.ghost {
		t.Error("ghost still shown")
	}
	if fx.store.Len() != 2 {
		t.Fatalf("entities = %d", fx.store.Len())
	}
	v := fx.store.Entities()[1]
	if v.Name != "Guard - var A" {
		t.Errorf("variant name = %q", v.Name)
	}
	p, ok := fx.view.Position(v.ID)
	if !ok || p.X != 300 || p.Y != 300 {
		t.Errorf("variant at %+v (%v), want centred on the drop point", p, ok)
	}
	if _, ok := fx.view.Position(g); !ok {
		t.Error("original vanished")
	}
}

func TestLinkEntityDragFillsAttributeRow(t *testing.T) {
	fx := newFixture(t, "Hero", "Village")
	hero, village := fx.ids[0], fx.ids[1]
	fx.store.Link(hero, village)

	fx.r.override = func(x, y float64) (interact.Target, bool) {
		if y < 50 {
			return interact.Target{Kind: interact.TargetLinkedEntity, CardID: hero, LinkedID: village}, true
		}
		return interact.Target{Kind: interact.TargetAttrSection, CardID: hero}, true
	}
	fx.down(10, 10, interact.ButtonPrimary, none)
	if fx.c.State().Mode != interact.ModeDragLinkEntity {
		t.Fatalf("mode = %v", fx.c.State().Mode)
	}
	fx.move(10, 100)
	fx.up(10, 100)

	attrs := fx.store.OwnAttrs(hero)
	if len(attrs) != 1 || attrs[0].Key != "entity" || attrs[0].EntityID != village {
		t.Errorf("attrs = %+v", attrs)
	}
}

func TestWheelPastThresholdEntersHoveredCard(t *testing.T) {
	fx := newFixture(t, "Plane", "Child")
	p, child := fx.ids[0], fx.ids[1]
	fx.store.Contain(p, child)

	var nav viewport.Nav
	for i := 0; i < 50 && nav.Kind == viewport.NavNone; i++ {
		nav = fx.c.HandleWheel(interact.WheelEvent{X: 110, Y: 72, DeltaY: -100})
	}
	if nav.Kind != viewport.NavEntered || fx.view.CurrentPlane() != p {
		t.Fatalf("nav = %+v plane = %d", nav, fx.view.CurrentPlane())
	}
	if got := fx.view.OnPlane(); !slices.Equal(got, []int{child}) {
		t.Errorf("plane shows %v", got)
	}

	for i := 0; i < 50 && nav.Kind != viewport.NavExited; i++ {
		nav = fx.c.HandleWheel(interact.WheelEvent{X: 500, Y: 300, DeltaY: 100})
	}
	if nav.Kind != viewport.NavExited || fx.view.CurrentPlane() != viewport.Root {
		t.Fatalf("nav = %+v", nav)
	}
	if !slices.Contains(fx.r.pulsed, p) {
		t.Error("exited card should pulse")
	}
}
