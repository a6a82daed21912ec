package interact

// BindingKey identifies the handlers attached to one attribute row: the
// card, the row's position among the card's displayed rows and whether the
// row is inherited. A row that turns from own to inherited gets a new key
// and therefore fresh handlers.
type BindingKey struct {
	EntityID  int
	Row       int
	Inherited bool
}

// BindingRegistry remembers which rows have handlers attached so a
// renderer does not attach them twice after a redraw.
type BindingRegistry struct {
	bound map[BindingKey]struct{}
}

func NewBindingRegistry() *BindingRegistry {
	return &BindingRegistry{bound: make(map[BindingKey]struct{})}
}

// Bind records k and reports whether handlers must be attached, which is
// only the case the first time k is seen.
func (b *BindingRegistry) Bind(k BindingKey) bool {
	if _, ok := b.bound[k]; ok {
		return false
	}
	b.bound[k] = struct{}{}
	return true
}

// Bound reports whether k has handlers attached.
func (b *BindingRegistry) Bound(k BindingKey) bool {
	_, ok := b.bound[k]
	return ok
}

// Prune drops every key of entityID that is not in live and returns how
// many were dropped. Renderers call it after re-laying out a card.
func (b *BindingRegistry) Prune(entityID int, live []BindingKey) int {
	keep := make(map[BindingKey]bool, len(live))
	for _, k := range live {
		keep[k] = true
	}
	n := 0
	for k := range b.bound {
		if k.EntityID == entityID && !keep[k] {
			delete(b.bound, k)
			n++
		}
	}
	return n
}

// Unbind forgets every key of entityID.
func (b *BindingRegistry) Unbind(entityID int) {
	b.Prune(entityID, nil)
}

// Len returns the number of bound rows.
func (b *BindingRegistry) Len() int { return len(b.bound) }
