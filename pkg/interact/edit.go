package interact

import (
	"strings"

	"github.com/vanderheijden86/storyweb/pkg/model"
)

// Default keys given to a row filled by dropping an entity name on it.
const (
	DefaultEntityKey   = "entity"
	DefaultEntitiesKey = "entities"
)

// RowEdit is the text of a key/value row as the user left it.
type RowEdit struct {
	Key   string
	Value string
}

// CommitInheritedRow commits the value field of an inherited row. A
// non-empty value creates or updates the override for the inherited key;
// an empty value removes the override. If the key field was unlocked and
// renamed, the override is dropped and the value lands in a new own
// attribute under the new key.
func (c *Controller) CommitInheritedRow(ref RowRef, edit RowEdit) {
	id := ref.CardID
	if !c.store.Has(id) || ref.Key == "" {
		return
	}
	key := strings.TrimSpace(edit.Key)
	value := strings.TrimSpace(edit.Value)

	if key != ref.Key && c.KeyUnlocked(id, ref.Key) {
		delete(c.st.unlocked, unlockKey{id, ref.Key})
		c.store.RemoveAttr(id, ref.Key)
		if key != "" {
			c.store.SetAttr(id, c.parseValue(id, key, value))
		}
		c.r.UpdateCardUI(id, false)
		return
	}

	if value == "" {
		c.store.RemoveAttr(id, ref.Key)
	} else {
		c.store.SetAttr(id, c.parseValue(id, ref.Key, value))
	}
	c.r.UpdateCardUI(id, false)
}

// CommitOwnRow commits a non-inherited row addressed by its display index
// among the card's true own attributes, recomputed from the store on every
// call. Clearing both fields deletes the attribute and the same-key
// override on every direct child; changing the key renames those overrides.
// With enter set on the last row a fresh blank row is appended and focused.
func (c *Controller) CommitOwnRow(ref RowRef, edit RowEdit, enter bool) {
	id := ref.CardID
	if !c.store.Has(id) {
		return
	}
	key := strings.TrimSpace(edit.Key)
	value := strings.TrimSpace(edit.Value)
	rows := c.store.TrueOwnAttrs(id)

	if ref.Row < 0 || ref.Row >= len(rows) {
		// a row the store has not seen yet
		if key == "" && value == "" {
			return
		}
		c.store.SetAttr(id, c.parseValue(id, key, value))
		c.r.UpdateCardUI(id, false)
		return
	}

	row := rows[ref.Row]
	old := row.Attr.Key
	if key == "" && value == "" {
		c.store.RemoveAttrAt(id, row.Index)
		c.cascadeDelete(id, old)
		c.r.UpdateCardUI(id, false)
		return
	}
	if key != old {
		if key == "" {
			c.cascadeDelete(id, old)
		} else {
			c.cascadeRename(id, old, key)
		}
	}
	c.store.UpdateAttrAt(id, row.Index, c.parseValue(id, key, value))

	if enter && ref.Row == len(rows)-1 {
		c.store.AppendAttr(id, model.TextAttr("", ""))
		n := len(c.store.TrueOwnAttrs(id))
		c.st.Focus = &RowRef{CardID: id, Row: n - 1}
		c.r.UpdateCardUI(id, true)
		return
	}
	c.r.UpdateCardUI(id, false)
}

// cascadeDelete removes the key's override from every direct child.
func (c *Controller) cascadeDelete(parent int, key string) {
	if key == "" {
		return
	}
	for _, child := range c.store.Children(parent) {
		if c.store.RemoveAttr(child, key) {
			c.r.UpdateCardUI(child, false)
		}
	}
}

// cascadeRename relabels every direct child's override for oldKey.
func (c *Controller) cascadeRename(parent int, oldKey, newKey string) {
	if oldKey == "" {
		return
	}
	for _, child := range c.store.Children(parent) {
		if c.store.RenameAttr(child, oldKey, newKey) {
			c.r.UpdateCardUI(child, false)
		}
	}
}

// Backspace handles backspace in an empty value field. On an own row whose
// key is empty too, the row is deleted and true is returned.
func (c *Controller) Backspace(ref RowRef, edit RowEdit) bool {
	if ref.Inherited || strings.TrimSpace(edit.Key) != "" || strings.TrimSpace(edit.Value) != "" {
		return false
	}
	rows := c.store.TrueOwnAttrs(ref.CardID)
	if ref.Row < 0 || ref.Row >= len(rows) {
		return false
	}
	c.CommitOwnRow(ref, edit, false)
	if ref.Row > 0 {
		c.st.Focus = &RowRef{CardID: ref.CardID, Row: ref.Row - 1}
	} else {
		c.st.Focus = nil
	}
	return true
}

// DropEntityOnRow fills a row with a dropped entity name, appending to the
// existing value as a comma list. The name resolves like typed text, so it
// only becomes a reference when the card links to the entity. An empty own key becomes "entity", or
// "entities" when the value turns into a list. A negative Row means the drop
// landed on the attribute section: it goes to the card's existing default
// row if it has one, otherwise to a new row. Returns the committed edit.
func (c *Controller) DropEntityOnRow(ref RowRef, entityID int) (RowEdit, bool) {
	ent := c.store.Entity(entityID)
	if ent == nil || !c.store.Has(ref.CardID) {
		return RowEdit{}, false
	}
	rows := c.store.TrueOwnAttrs(ref.CardID)

	var edit RowEdit
	switch {
	case ref.Inherited:
		if ref.Key == "" {
			return RowEdit{}, false
		}
		edit.Key = ref.Key
		for _, a := range c.store.EffectiveAttrs(ref.CardID) {
			if a.Inherited && a.Key == ref.Key {
				edit.Value = a.Value
				break
			}
		}
	case ref.Row < 0:
		ref.Row = len(rows)
		for i, row := range rows {
			if row.Attr.Key == DefaultEntitiesKey || row.Attr.Key == DefaultEntityKey {
				ref.Row = i
				edit = RowEdit{Key: row.Attr.Key, Value: row.Attr.Value}
				break
			}
		}
	case ref.Row < len(rows):
		edit = RowEdit{Key: rows[ref.Row].Attr.Key, Value: rows[ref.Row].Attr.Value}
	}

	existing := strings.TrimSpace(edit.Value)
	if existing == "" {
		edit.Value = ent.Name
	} else {
		edit.Value = existing + ", " + ent.Name
	}
	if !ref.Inherited && strings.TrimSpace(edit.Key) == "" {
		edit.Key = DefaultEntityKey
		if existing != "" {
			edit.Key = DefaultEntitiesKey
		}
	}

	if ref.Inherited {
		c.CommitInheritedRow(ref, edit)
	} else {
		c.CommitOwnRow(ref, edit, false)
	}
	return edit, true
}

// parseValue turns committed text into an attribute. Text with a comma
// becomes an entityList whose tokens resolve against the card's outgoing
// links, unresolved tokens staying plain text. A single token that resolves
// becomes an entity reference; anything else stays text.
func (c *Controller) parseValue(cardID int, key, value string) model.Attribute {
	if strings.Contains(value, ",") {
		var items []model.ListItem
		for _, tok := range strings.Split(value, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				items = append(items, c.resolveToken(cardID, tok))
			}
		}
		if len(items) == 0 {
			return model.TextAttr(key, "")
		}
		return model.ListAttr(key, items)
	}
	if item := c.resolveToken(cardID, value); item.Resolved() {
		return model.EntityAttr(key, item.Text, item.EntityID)
	}
	return model.TextAttr(key, value)
}

func (c *Controller) resolveToken(cardID int, tok string) model.ListItem {
	if e := c.store.ResolveEntityByName(tok, cardID); e != nil {
		return model.ListItem{EntityID: e.ID, Text: e.Name}
	}
	return model.ListItem{Text: tok}
}

// UnlockKey makes an inherited row's key editable until its next commit.
func (c *Controller) UnlockKey(cardID int, key string) bool {
	if !c.store.InheritedKeys(cardID)[key] {
		return false
	}
	c.st.unlocked[unlockKey{cardID, key}] = true
	return true
}

// KeyUnlocked reports whether an inherited key field has been unlocked.
func (c *Controller) KeyUnlocked(cardID int, key string) bool {
	return c.st.unlocked[unlockKey{cardID, key}]
}

// SetContent commits a card's free-text content.
func (c *Controller) SetContent(cardID int, content string) {
	if !c.store.Has(cardID) {
		return
	}
	c.store.SetContent(cardID, content)
	c.r.UpdateCardUI(cardID, false)
}

// SetType commits a card's type label.
func (c *Controller) SetType(cardID int, typ string) {
	if !c.store.Has(cardID) {
		return
	}
	c.store.SetType(cardID, strings.TrimSpace(typ))
	c.r.UpdateCardUI(cardID, false)
}
