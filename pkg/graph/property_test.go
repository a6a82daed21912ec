package graph_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/testutil"
)

// TestGraphInvariantsUnderRandomOps drives the store with random operation
// sequences and checks the structural invariants after every step.
func TestGraphInvariantsUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := graph.NewStore()
		for i := 0; i < 4; i++ {
			s.CreateEntity()
		}
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			ids := s.IDs()
			pick := func(label string) int {
				if len(ids) == 0 {
					return 0
				}
				return rapid.SampledFrom(ids).Draw(t, label)
			}
			switch rapid.IntRange(0, 6).Draw(t, "op") {
			case 0:
				s.CreateEntity()
			case 1:
				id := pick("delete")
				s.DeleteEntity(id)
				testutil.AssertNoReferences(t, s, id)
			case 2:
				s.Link(pick("from"), pick("to"))
			case 3:
				s.Unlink(pick("from"), pick("to"))
			case 4:
				s.Contain(pick("parent"), pick("child"))
			case 5:
				s.RemoveParent(pick("child"), pick("parent"))
			case 6:
				s.CreateVariant(pick("variant"))
			}
			testutil.AssertMirror(t, s)
			testutil.AssertNoSelfLoops(t, s)
		}
	})
}

// TestRestoreRoundTripProperty checks that State/Restore preserves links
// and effective attributes for arbitrary DAGs with multi-parent containment.
func TestRestoreRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 10).Draw(t, "size")
		seed := rapid.Int64Range(1, 1<<30).Draw(t, "seed")
		s, ids := testutil.Build(testutil.New(seed).RandomDAG(size, 0.35))
		for _, id := range ids {
			if rapid.Bool().Draw(t, "hasAttr") {
				s.SetAttr(id, attr(rapid.SampledFrom([]string{"eyes", "age", "home"}).Draw(t, "key"), "v"))
			}
		}

		r := graph.NewStore()
		if err := r.Restore(s.State()); err != nil {
			t.Fatalf("Restore: %v", err)
		}
		for _, id := range ids {
			testutil.AssertJSONEqual(t, s.EffectiveAttrs(id), r.EffectiveAttrs(id))
			testutil.AssertJSONEqual(t, s.Links(id), r.Links(id))
		}
	})
}
