package testutil

import (
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/storyweb/pkg/graph"
)

// T is the subset of testing.TB the assertions need; *testing.T and
// *rapid.T both satisfy it.
type T interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// AssertMirror verifies p ∈ parents(c) ⟺ c ∈ children(p) for every pair.
func AssertMirror(t T, s *graph.Store) {
	t.Helper()
	for _, c := range s.IDs() {
		for _, p := range s.Parents(c) {
			if !s.IsChild(p, c) {
				t.Errorf("mirror broken: %d lists parent %d, but %d does not list child %d", c, p, p, c)
			}
		}
		for _, ch := range s.Children(c) {
			found := false
			for _, p := range s.Parents(ch) {
				if p == c {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("mirror broken: %d lists child %d, but %d does not list parent %d", c, ch, ch, c)
			}
		}
	}
}

// AssertNoSelfLoops verifies no entity links to or contains itself.
func AssertNoSelfLoops(t T, s *graph.Store) {
	t.Helper()
	for _, id := range s.IDs() {
		if s.HasLink(id, id) {
			t.Errorf("entity %d links to itself", id)
		}
		if s.IsChild(id, id) {
			t.Errorf("entity %d contains itself", id)
		}
	}
}

// AssertNoReferences verifies that no remaining entity's link, parent or
// child set mentions id.
func AssertNoReferences(t T, s *graph.Store, id int) {
	t.Helper()
	for _, other := range s.IDs() {
		for _, set := range [][]int{s.Links(other), s.Parents(other), s.Children(other)} {
			for _, v := range set {
				if v == id {
					t.Errorf("entity %d still references deleted entity %d", other, id)
				}
			}
		}
	}
}

// AssertJSONEqual compares two values after JSON encoding.
func AssertJSONEqual(t T, expected, actual any) {
	t.Helper()
	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}
