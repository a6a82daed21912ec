package graph

import "github.com/vanderheijden86/storyweb/pkg/model"

// OwnAttrs returns a deep copy of id's own attribute storage.
func (s *Store) OwnAttrs(id int) []model.Attribute {
	e := s.entities[id]
	if e == nil {
		return nil
	}
	out := make([]model.Attribute, len(e.Attributes))
	for i, a := range e.Attributes {
		out[i] = a.Clone()
	}
	return out
}

// SetAttr updates the own attribute with a.Key in place, or appends it when
// the key is not present yet.
func (s *Store) SetAttr(id int, a model.Attribute) {
	e := s.entities[id]
	if e == nil {
		return
	}
	if i := e.AttrIndex(a.Key); i >= 0 && a.Key != "" {
		e.Attributes[i] = a.Clone()
	} else {
		e.Attributes = append(e.Attributes, a.Clone())
	}
	s.markDirty()
}

// AppendAttr appends a record without key de-duplication. Used for fresh
// blank editor rows.
func (s *Store) AppendAttr(id int, a model.Attribute) {
	e := s.entities[id]
	if e == nil {
		return
	}
	e.Attributes = append(e.Attributes, a.Clone())
	s.markDirty()
}

// UpdateAttrAt replaces the record at storage index i. If another record
// already carries the new key it is dropped so keys stay unique.
func (s *Store) UpdateAttrAt(id, i int, a model.Attribute) {
	e := s.entities[id]
	if e == nil || i < 0 || i >= len(e.Attributes) {
		return
	}
	e.Attributes[i] = a.Clone()
	if a.Key != "" {
		for j := len(e.Attributes) - 1; j >= 0; j-- {
			if j != i && e.Attributes[j].Key == a.Key {
				e.Attributes = append(e.Attributes[:j], e.Attributes[j+1:]...)
			}
		}
	}
	s.markDirty()
}

// RemoveAttr deletes the own record with key. Returns false if absent.
func (s *Store) RemoveAttr(id int, key string) bool {
	e := s.entities[id]
	if e == nil {
		return false
	}
	i := e.AttrIndex(key)
	if i < 0 {
		return false
	}
	e.Attributes = append(e.Attributes[:i], e.Attributes[i+1:]...)
	s.markDirty()
	return true
}

// RemoveAttrAt deletes the record at storage index i.
func (s *Store) RemoveAttrAt(id, i int) {
	e := s.entities[id]
	if e == nil || i < 0 || i >= len(e.Attributes) {
		return
	}
	e.Attributes = append(e.Attributes[:i], e.Attributes[i+1:]...)
	s.markDirty()
}

// RenameAttr relabels the own record oldKey to newKey. When the entity
// already has a newKey record, that record wins and the old one is dropped.
func (s *Store) RenameAttr(id int, oldKey, newKey string) bool {
	e := s.entities[id]
	if e == nil || oldKey == newKey || newKey == "" {
		return false
	}
	i := e.AttrIndex(oldKey)
	if i < 0 {
		return false
	}
	if e.AttrIndex(newKey) >= 0 {
		e.Attributes = append(e.Attributes[:i], e.Attributes[i+1:]...)
	} else {
		e.Attributes[i].Key = newKey
	}
	s.markDirty()
	return true
}
