// Package graph is the single source of truth for entities and their two
// relationship graphs: directed links and multi-parent containment.
//
// Lookups by id never fail loudly: a missing id yields nil, false or an
// empty slice, and mutations on missing ids are no-ops. Every mutation that
// changes state invokes the dirty hook so persistence can schedule a save.
package graph

import (
	"strings"

	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/model"
)

// Option configures a Store.
type Option func(*Store)

// WithDirtyHook sets the callback invoked after every mutating operation.
func WithDirtyHook(fn func()) Option {
	return func(s *Store) {
		if fn != nil {
			s.onDirty = fn
		}
	}
}

// Store owns entities, the link graph and the containment graph.
// It is not safe for concurrent use; callers serialize access on their
// event loop.
type Store struct {
	entities map[int]*model.Entity
	order    []int
	nextID   int

	links      adjacency // source -> targets
	parentsOf  adjacency // child -> parents
	childrenOf adjacency // parent -> children

	onDirty func()
}

// NewStore creates an empty store. The first entity receives id 1.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entities:   make(map[int]*model.Entity),
		nextID:     1,
		links:      make(adjacency),
		parentsOf:  make(adjacency),
		childrenOf: make(adjacency),
		onDirty:    func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDirtyHook replaces the dirty callback. A nil fn disables it.
func (s *Store) SetDirtyHook(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	s.onDirty = fn
}

func (s *Store) markDirty() {
	s.onDirty()
}

// NextID returns the id the next created entity will receive.
func (s *Store) NextID() int {
	return s.nextID
}

// CreateEntity allocates the next id and inserts an empty entity.
func (s *Store) CreateEntity() *model.Entity {
	id := s.nextID
	s.nextID++
	e := &model.Entity{
		ID:              id,
		Name:            model.DefaultName(id),
		Attributes:      []model.Attribute{},
		Representations: []string{},
	}
	s.entities[id] = e
	s.order = append(s.order, id)
	s.markDirty()
	debug.Log("graph: created entity %d", id)
	return e
}

// DeleteEntity removes the entity and every edge incident to it, in both
// directions and in both graphs. Deleting a missing id is a no-op.
func (s *Store) DeleteEntity(id int) {
	if _, ok := s.entities[id]; !ok {
		return
	}
	for _, target := range s.links.get(id) {
		s.links.remove(id, target)
	}
	for _, src := range s.Backlinks(id) {
		s.links.remove(src, id)
	}
	for _, p := range s.parentsOf.get(id) {
		s.childrenOf.remove(p, id)
		s.parentsOf.remove(id, p)
	}
	for _, c := range s.childrenOf.get(id) {
		s.parentsOf.remove(c, id)
		s.childrenOf.remove(id, c)
	}
	delete(s.entities, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.markDirty()
	debug.Log("graph: deleted entity %d", id)
}

// Entity returns the entity with id, or nil.
func (s *Store) Entity(id int) *model.Entity {
	return s.entities[id]
}

// Has reports whether id exists.
func (s *Store) Has(id int) bool {
	_, ok := s.entities[id]
	return ok
}

// Len returns the number of entities.
func (s *Store) Len() int {
	return len(s.order)
}

// IDs returns every entity id in creation order.
func (s *Store) IDs() []int {
	return append([]int(nil), s.order...)
}

// Entities returns every entity in creation order.
func (s *Store) Entities() []*model.Entity {
	out := make([]*model.Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id])
	}
	return out
}

// Link adds the directed edge a -> b. Self-links and links to missing
// entities are ignored; the reverse edge is never created.
func (s *Store) Link(a, b int) {
	if a == b || !s.Has(a) || !s.Has(b) {
		return
	}
	if s.links.add(a, b) {
		s.markDirty()
	}
}

// Unlink removes the directed edge a -> b only.
func (s *Store) Unlink(a, b int) {
	if s.links.remove(a, b) {
		s.markDirty()
	}
}

// HasLink reports whether the edge a -> b exists.
func (s *Store) HasLink(a, b int) bool {
	return s.links.has(a, b)
}

// Links returns the targets of id's outgoing links in insertion order.
func (s *Store) Links(id int) []int {
	return s.links.get(id)
}

// Backlinks returns every entity that links to id, in creation order.
func (s *Store) Backlinks(id int) []int {
	var out []int
	for _, src := range s.order {
		if s.links.has(src, id) {
			out = append(out, src)
		}
	}
	return out
}

// Contain makes child a child of parent. A child may have several parents.
func (s *Store) Contain(parent, child int) {
	if parent == child || !s.Has(parent) || !s.Has(child) {
		return
	}
	added := s.childrenOf.add(parent, child)
	added = s.parentsOf.add(child, parent) || added
	if added {
		s.markDirty()
	}
}

// RemoveParent is the inverse of Contain.
func (s *Store) RemoveParent(child, parent int) {
	removed := s.parentsOf.remove(child, parent)
	removed = s.childrenOf.remove(parent, child) || removed
	if removed {
		s.markDirty()
	}
}

// Parents returns id's direct parents in insertion order.
func (s *Store) Parents(id int) []int {
	return s.parentsOf.get(id)
}

// Children returns id's direct children in insertion order.
func (s *Store) Children(id int) []int {
	return s.childrenOf.get(id)
}

// IsChild reports whether child is directly contained in parent.
func (s *Store) IsChild(parent, child int) bool {
	return s.childrenOf.has(parent, child)
}

// SetName renames an entity. Blank names are ignored.
func (s *Store) SetName(id int, name string) bool {
	e := s.entities[id]
	name = strings.TrimSpace(name)
	if e == nil || name == "" || e.Name == name {
		return false
	}
	e.Name = name
	s.markDirty()
	return true
}

// SetType sets the entity's type label; an empty string clears it.
func (s *Store) SetType(id int, typ string) {
	e := s.entities[id]
	if e == nil || e.Type == typ {
		return
	}
	e.Type = typ
	s.markDirty()
}

// SetContent replaces the entity's free-text content.
func (s *Store) SetContent(id int, content string) {
	e := s.entities[id]
	if e == nil || e.Content == content {
		return
	}
	e.Content = content
	s.markDirty()
}

// AddRepresentation appends a media reference to the entity.
func (s *Store) AddRepresentation(id int, ref string) {
	e := s.entities[id]
	if e == nil || ref == "" {
		return
	}
	e.Representations = append(e.Representations, ref)
	s.markDirty()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
