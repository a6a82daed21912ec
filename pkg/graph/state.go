package graph

import (
	"fmt"

	"github.com/vanderheijden86/storyweb/pkg/model"
)

// Adjacency is one flattened entry of an adjacency map: ID -> IDs.
type Adjacency struct {
	ID  int
	IDs []int
}

// State is the serializable form of a Store.
type State struct {
	Cards      []model.Entity
	NextID     int
	ParentsOf  []Adjacency
	ChildrenOf []Adjacency
	Links      []Adjacency
}

// State flattens the store. Adjacency entries follow entity creation order
// and each target list keeps its insertion order.
func (s *Store) State() State {
	st := State{
		Cards:  make([]model.Entity, 0, len(s.order)),
		NextID: s.nextID,
	}
	for _, id := range s.order {
		st.Cards = append(st.Cards, *s.entities[id].Clone())
		if ids := s.parentsOf.get(id); len(ids) > 0 {
			st.ParentsOf = append(st.ParentsOf, Adjacency{ID: id, IDs: ids})
		}
		if ids := s.childrenOf.get(id); len(ids) > 0 {
			st.ChildrenOf = append(st.ChildrenOf, Adjacency{ID: id, IDs: ids})
		}
		if ids := s.links.get(id); len(ids) > 0 {
			st.Links = append(st.Links, Adjacency{ID: id, IDs: ids})
		}
	}
	return st
}

// Restore replaces the store's contents with st. Both containment maps are
// rebuilt from their pair-lists (preserving order) and then any edge present
// on only one side is mirrored. References to unknown ids and self-edges
// are dropped. The dirty hook is not invoked.
func (s *Store) Restore(st State) error {
	entities := make(map[int]*model.Entity, len(st.Cards))
	order := make([]int, 0, len(st.Cards))
	maxID := 0
	for i := range st.Cards {
		e := st.Cards[i].Clone()
		if err := e.Validate(); err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
		if _, dup := entities[e.ID]; dup {
			return fmt.Errorf("duplicate entity id %d", e.ID)
		}
		if e.Attributes == nil {
			e.Attributes = []model.Attribute{}
		}
		entities[e.ID] = e
		order = append(order, e.ID)
		if e.ID > maxID {
			maxID = e.ID
		}
	}

	links := make(adjacency)
	parentsOf := make(adjacency)
	childrenOf := make(adjacency)
	valid := func(a, b int) bool {
		_, okA := entities[a]
		_, okB := entities[b]
		return okA && okB && a != b
	}
	for _, adj := range st.Links {
		for _, to := range adj.IDs {
			if valid(adj.ID, to) {
				links.add(adj.ID, to)
			}
		}
	}
	for _, adj := range st.ParentsOf {
		for _, p := range adj.IDs {
			if valid(adj.ID, p) {
				parentsOf.add(adj.ID, p)
			}
		}
	}
	for _, adj := range st.ChildrenOf {
		for _, c := range adj.IDs {
			if valid(adj.ID, c) {
				childrenOf.add(adj.ID, c)
			}
		}
	}
	// repair the mirror in both directions
	for _, id := range order {
		for _, p := range parentsOf.get(id) {
			childrenOf.add(p, id)
		}
		for _, c := range childrenOf.get(id) {
			parentsOf.add(c, id)
		}
	}

	s.entities = entities
	s.order = order
	s.links = links
	s.parentsOf = parentsOf
	s.childrenOf = childrenOf
	s.nextID = st.NextID
	if s.nextID <= maxID {
		s.nextID = maxID + 1
	}
	return nil
}
