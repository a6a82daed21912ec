package graph_test

import (
	"testing"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/model"
	"github.com/vanderheijden86/storyweb/pkg/testutil"
)

func attr(k, v string) model.Attribute {
	return model.TextAttr(k, v)
}

func find(attrs []model.EffectiveAttr, key string) (model.EffectiveAttr, int) {
	n := 0
	var out model.EffectiveAttr
	for _, a := range attrs {
		if a.Key == key {
			if n == 0 {
				out = a
			}
			n++
		}
	}
	return out, n
}

func parentChild(t *testing.T) (*graph.Store, int, int) {
	t.Helper()
	s := graph.NewStore()
	p := s.CreateEntity()
	c := s.CreateEntity()
	s.Contain(p.ID, c.ID)
	return s, p.ID, c.ID
}

func TestInheritsKeysNotValues(t *testing.T) {
	s, p, c := parentChild(t)
	s.SetAttr(p, attr("eyes", "blue"))

	got, n := find(s.EffectiveAttrs(c), "eyes")
	if n != 1 {
		t.Fatalf("want one eyes record, got %d", n)
	}
	if !got.Inherited || got.Source != p || got.Value != "" || got.Kind != model.KindText {
		t.Errorf("inherited record = %+v", got)
	}
}

func TestOverrideSuppliesValue(t *testing.T) {
	s, p, c := parentChild(t)
	s.SetAttr(p, attr("eyes", "blue"))
	s.SetAttr(c, attr("eyes", "green"))

	got, n := find(s.EffectiveAttrs(c), "eyes")
	if n != 1 || got.Value != "green" || !got.Inherited || got.Source != p {
		t.Errorf("child eyes = %+v (n=%d)", got, n)
	}

	pGot, _ := find(s.EffectiveAttrs(p), "eyes")
	if pGot.Value != "blue" || pGot.Inherited {
		t.Errorf("parent eyes = %+v", pGot)
	}
}

func TestDiamondInheritanceFirstParentWins(t *testing.T) {
	s := graph.NewStore()
	p1 := s.CreateEntity().ID
	p2 := s.CreateEntity().ID
	c := s.CreateEntity().ID
	s.SetAttr(p1, attr("k", "1"))
	s.SetAttr(p2, attr("k", "2"))
	s.SetAttr(p2, attr("only2", "x"))
	s.Contain(p1, c)
	s.Contain(p2, c)

	attrs := s.EffectiveAttrs(c)
	got, n := find(attrs, "k")
	if n != 1 {
		t.Fatalf("want exactly one k record, got %d", n)
	}
	if got.Source != p1 {
		t.Errorf("k source = %d, want %d", got.Source, p1)
	}
	if o, _ := find(attrs, "only2"); o.Source != p2 {
		t.Errorf("only2 source = %d, want %d", o.Source, p2)
	}
}

func TestDeepInheritanceOrdering(t *testing.T) {
	s, ids := testutil.Build(testutil.New(0).Chain(3))
	g, p, c := ids[0], ids[1], ids[2]
	s.SetAttr(g, attr("a", "1"))
	s.SetAttr(p, attr("b", "2"))
	s.SetAttr(c, attr("own", "3"))
	s.SetAttr(c, attr("a", "override"))

	attrs := s.EffectiveAttrs(c)
	var keys []string
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	want := []string{"a", "b", "own"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if attrs[0].Value != "override" || attrs[0].Source != p {
		t.Errorf("grandparent key through p = %+v", attrs[0])
	}
	if attrs[2].Inherited {
		t.Error("own attribute marked inherited")
	}
}

func TestDiamondAncestorKeyAppearsOnce(t *testing.T) {
	s, ids := testutil.Build(testutil.New(0).Diamond(3))
	s.SetAttr(ids[0], attr("shared", "x"))
	bottom := ids[len(ids)-1]

	got, n := find(s.EffectiveAttrs(bottom), "shared")
	if n != 1 || got.Source != ids[1] {
		t.Errorf("shared = %+v (n=%d)", got, n)
	}
}

func TestBlankKeysAreNotInherited(t *testing.T) {
	s, p, c := parentChild(t)
	s.AppendAttr(p, attr("", ""))
	if attrs := s.EffectiveAttrs(c); len(attrs) != 0 {
		t.Errorf("blank parent row leaked into child: %+v", attrs)
	}
}

func TestEffectiveAttrsToleratesCycles(t *testing.T) {
	s, ids := testutil.Build(testutil.New(0).Cycle(3))
	s.SetAttr(ids[0], attr("k", "v"))
	for _, id := range ids {
		_ = s.EffectiveAttrs(id)
	}
	got, n := find(s.EffectiveAttrs(ids[1]), "k")
	if n != 1 || !got.Inherited {
		t.Errorf("k on n1 = %+v (n=%d)", got, n)
	}
}

func TestTrueOwnAttrsSkipsShadowedKeys(t *testing.T) {
	s, p, c := parentChild(t)
	s.SetAttr(p, attr("eyes", "blue"))
	s.SetAttr(c, attr("eyes", "green")) // override, storage index 0
	s.SetAttr(c, attr("height", "tall"))

	rows := s.TrueOwnAttrs(c)
	if len(rows) != 1 || rows[0].Attr.Key != "height" || rows[0].Index != 1 {
		t.Errorf("true own rows = %+v", rows)
	}
}

func TestRenameAttrKeepsExistingTarget(t *testing.T) {
	s := graph.NewStore()
	e := s.CreateEntity().ID
	s.SetAttr(e, attr("a", "1"))
	s.SetAttr(e, attr("b", "2"))

	s.RenameAttr(e, "a", "b")
	own := s.OwnAttrs(e)
	if len(own) != 1 || own[0].Key != "b" || own[0].Value != "2" {
		t.Errorf("own = %+v", own)
	}
}

func TestUpdateAttrAtKeepsEditedRow(t *testing.T) {
	s := graph.NewStore()
	e := s.CreateEntity().ID
	s.SetAttr(e, attr("a", "1"))
	s.SetAttr(e, attr("b", "2"))

	// the row being edited wins over the one already holding its new key
	s.UpdateAttrAt(e, 0, attr("b", "edited"))
	own := s.OwnAttrs(e)
	if len(own) != 1 || own[0].Key != "b" || own[0].Value != "edited" {
		t.Errorf("own = %+v", own)
	}
}
