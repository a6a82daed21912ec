package graph

// idSet is an insertion-ordered set of entity ids. Iteration order matters:
// the inheritance tie-break picks the first parent in enumeration order.
type idSet struct {
	order []int
	index map[int]struct{}
}

func newIDSet() *idSet {
	return &idSet{index: make(map[int]struct{})}
}

func (s *idSet) add(id int) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *idSet) remove(id int) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *idSet) has(id int) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

func (s *idSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// ids returns a copy of the members in insertion order.
func (s *idSet) ids() []int {
	if s == nil || len(s.order) == 0 {
		return nil
	}
	return append([]int(nil), s.order...)
}

// adjacency maps an id to an ordered set of ids. Empty sets are deleted so
// that snapshots never carry empty entries.
type adjacency map[int]*idSet

func (a adjacency) add(from, to int) bool {
	s, ok := a[from]
	if !ok {
		s = newIDSet()
		a[from] = s
	}
	return s.add(to)
}

func (a adjacency) remove(from, to int) bool {
	s, ok := a[from]
	if !ok {
		return false
	}
	removed := s.remove(to)
	if s.len() == 0 {
		delete(a, from)
	}
	return removed
}

func (a adjacency) get(from int) []int {
	return a[from].ids()
}

func (a adjacency) has(from, to int) bool {
	return a[from].has(to)
}
