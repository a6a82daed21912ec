package graph

import (
	"strings"

	"github.com/vanderheijden86/storyweb/pkg/metrics"
	"github.com/vanderheijden86/storyweb/pkg/model"
)

// LinearParents returns id's ancestors in depth-first post-order: a node's
// own parents are visited before the node is appended. Each ancestor appears
// once even when reachable through several paths, and cycles terminate.
func (s *Store) LinearParents(id int) []int {
	if !s.Has(id) {
		return nil
	}
	seen := map[int]bool{id: true}
	var out []int
	var visit func(n int)
	visit = func(n int) {
		for _, p := range s.parentsOf.get(n) {
			if seen[p] {
				continue
			}
			seen[p] = true
			visit(p)
			out = append(out, p)
		}
	}
	visit(id)
	return out
}

// resolver memoizes effective attributes for the duration of one top-level
// EffectiveAttrs call. It is never kept across mutations.
type resolver struct {
	s      *Store
	memo   map[int][]model.EffectiveAttr
	active map[int]bool
}

// EffectiveAttrs computes the inheritance-resolved attribute list of id.
//
// Keys flow down every containment edge; values do not. For each direct
// parent in enumeration order, each key of the parent's effective list not
// yet claimed yields an inherited record, filled from the entity's own
// record with that key (the override) or left as an empty text placeholder.
// The entity's own records whose keys were not claimed follow, in storage
// order. Blank keys are never inherited.
func (s *Store) EffectiveAttrs(id int) []model.EffectiveAttr {
	if !s.Has(id) {
		return nil
	}
	defer metrics.Timer(metrics.EffectiveAttrs)()
	r := &resolver{
		s:      s,
		memo:   make(map[int][]model.EffectiveAttr),
		active: make(map[int]bool),
	}
	return r.effective(id)
}

func (r *resolver) effective(id int) []model.EffectiveAttr {
	if out, ok := r.memo[id]; ok {
		return out
	}
	e := r.s.entities[id]
	if e == nil || r.active[id] {
		// containment cycle: the ancestor on the stack contributes nothing
		return nil
	}
	r.active[id] = true
	defer delete(r.active, id)

	claimed := make(map[string]bool)
	out := []model.EffectiveAttr{}
	for _, p := range r.s.parentsOf.get(id) {
		for _, pa := range r.effective(p) {
			key := pa.Key
			if strings.TrimSpace(key) == "" || claimed[key] {
				continue
			}
			claimed[key] = true
			rec := model.EffectiveAttr{
				Attribute: model.TextAttr(key, ""),
				Inherited: true,
				Source:    p,
			}
			if i := e.AttrIndex(key); i >= 0 {
				rec.Attribute = e.Attributes[i].Clone()
			}
			out = append(out, rec)
		}
	}
	for _, a := range e.Attributes {
		if a.Key != "" && claimed[a.Key] {
			continue
		}
		out = append(out, model.EffectiveAttr{Attribute: a.Clone()})
	}
	r.memo[id] = out
	return out
}

// InheritedKeys returns the set of keys id currently inherits.
func (s *Store) InheritedKeys(id int) map[string]bool {
	keys := make(map[string]bool)
	for _, a := range s.EffectiveAttrs(id) {
		if a.Inherited {
			keys[a.Key] = true
		}
	}
	return keys
}

// OwnRow is an own attribute that is not shadowed by an inherited key,
// together with its index in the entity's attribute storage.
type OwnRow struct {
	Index int
	Attr  model.Attribute
}

// TrueOwnAttrs returns id's own attributes whose keys are not currently
// inherited, in storage order. The position in the returned slice is the
// display index used by the attribute editor.
func (s *Store) TrueOwnAttrs(id int) []OwnRow {
	e := s.entities[id]
	if e == nil {
		return nil
	}
	inherited := s.InheritedKeys(id)
	var rows []OwnRow
	for i, a := range e.Attributes {
		if a.Key != "" && inherited[a.Key] {
			continue
		}
		rows = append(rows, OwnRow{Index: i, Attr: a.Clone()})
	}
	return rows
}

// ResolveEntityByName finds an entity by trimmed, case-insensitive exact
// name among fromID's outgoing link targets only.
func (s *Store) ResolveEntityByName(name string, fromID int) *model.Entity {
	want := normalizeName(name)
	if want == "" {
		return nil
	}
	for _, target := range s.links.get(fromID) {
		if e := s.entities[target]; e != nil && normalizeName(e.Name) == want {
			return e
		}
	}
	return nil
}
