// Package model defines the entity and attribute types shared by the graph
// store, the viewport engine and the interaction controller.
package model

import (
	"fmt"
	"strings"
)

// AttrKind discriminates the payload an Attribute carries.
type AttrKind string

const (
	KindText       AttrKind = "text"
	KindEntity     AttrKind = "entity"
	KindEntityList AttrKind = "entityList"
)

// IsValid returns true if the kind is one of the known discriminants.
func (k AttrKind) IsValid() bool {
	switch k {
	case KindText, KindEntity, KindEntityList:
		return true
	}
	return false
}

// ListItem is one token of an entityList attribute. EntityID is 0 when the
// token did not resolve to a linked entity.
type ListItem struct {
	EntityID int    `json:"entityId,omitempty"`
	Text     string `json:"text"`
}

// Resolved returns true if the token points at an entity.
func (li ListItem) Resolved() bool {
	return li.EntityID != 0
}

// Attribute is an entity's own attribute record. When its key matches a key
// inherited from a parent it acts as the override for that slot.
type Attribute struct {
	Key      string     `json:"key"`
	Value    string     `json:"value"`
	Kind     AttrKind   `json:"kind"`
	EntityID int        `json:"entityId,omitempty"`  // KindEntity only
	Items    []ListItem `json:"entityIds,omitempty"` // KindEntityList only
}

// TextAttr builds a plain text attribute.
func TextAttr(key, value string) Attribute {
	return Attribute{Key: key, Value: value, Kind: KindText}
}

// EntityAttr builds a single entity reference attribute.
func EntityAttr(key, display string, id int) Attribute {
	return Attribute{Key: key, Value: display, Kind: KindEntity, EntityID: id}
}

// ListAttr builds an entityList attribute; Value is the comma-joined display text.
func ListAttr(key string, items []ListItem) Attribute {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	return Attribute{
		Key:   key,
		Value: strings.Join(texts, ", "),
		Kind:  KindEntityList,
		Items: append([]ListItem(nil), items...),
	}
}

// IsEmpty reports whether both key and value are blank.
func (a Attribute) IsEmpty() bool {
	return strings.TrimSpace(a.Key) == "" && strings.TrimSpace(a.Value) == ""
}

// Clone returns a deep copy of the attribute.
func (a Attribute) Clone() Attribute {
	if a.Items != nil {
		a.Items = append([]ListItem(nil), a.Items...)
	}
	return a
}

// Validate checks that the payload matches the discriminant.
func (a Attribute) Validate() error {
	if !a.Kind.IsValid() {
		return fmt.Errorf("attribute %q: unknown kind %q", a.Key, a.Kind)
	}
	switch a.Kind {
	case KindEntity:
		if a.EntityID <= 0 {
			return fmt.Errorf("attribute %q: entity kind without entity id", a.Key)
		}
	case KindText:
		if a.EntityID != 0 || len(a.Items) > 0 {
			return fmt.Errorf("attribute %q: text kind carries entity payload", a.Key)
		}
	}
	return nil
}

// EffectiveAttr is an inheritance-resolved attribute. Source is the direct
// parent the key was inherited through, 0 for the entity's own attributes.
type EffectiveAttr struct {
	Attribute
	Inherited bool `json:"inherited"`
	Source    int  `json:"source,omitempty"`
}

// Entity is a card on the canvas.
type Entity struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Type            string      `json:"type,omitempty"`
	Content         string      `json:"content"`
	Attributes      []Attribute `json:"attributes"`
	Representations []string    `json:"representations"`
}

// DefaultName is the name a freshly created entity receives.
func DefaultName(id int) string {
	return fmt.Sprintf("Entity %d", id)
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	c.Attributes = make([]Attribute, len(e.Attributes))
	for i, a := range e.Attributes {
		c.Attributes[i] = a.Clone()
	}
	c.Representations = append([]string{}, e.Representations...)
	return &c
}

// AttrIndex returns the storage index of the own attribute with key, or -1.
func (e *Entity) AttrIndex(key string) int {
	for i, a := range e.Attributes {
		if a.Key == key {
			return i
		}
	}
	return -1
}

// Validate checks basic structural constraints of an entity.
func (e *Entity) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("entity id must be positive, got %d", e.ID)
	}
	seen := make(map[string]bool, len(e.Attributes))
	for _, a := range e.Attributes {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("entity %d: %w", e.ID, err)
		}
		if a.Key == "" {
			continue
		}
		if seen[a.Key] {
			return fmt.Errorf("entity %d: duplicate attribute key %q", e.ID, a.Key)
		}
		seen[a.Key] = true
	}
	return nil
}
