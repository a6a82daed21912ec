package interact

import (
	"strings"

	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// HandleWheel zooms around the pointer. Crossing a zoom threshold enters
// the hovered card or exits to the parent plane.
func (c *Controller) HandleWheel(ev WheelEvent) viewport.Nav {
	hover := c.r.ElementAt(ev.X, ev.Y).CardID
	nav := c.view.ZoomAt(ev.X, ev.Y, ev.DeltaY, hover)
	switch nav.Kind {
	case viewport.NavEntered:
		c.setSelection()
		c.RenderPlane()
	case viewport.NavExited:
		c.setSelection()
		c.RenderPlane()
		c.r.Pulse(nav.Frame.EnteredChildID)
	default:
		c.r.RenderPlane(c.view.CurrentPlane())
	}
	return nav
}

// HandleKey applies a canvas shortcut and reports whether the key was used.
//
//	delete, x   delete the selected cards
//	enter       enter the single selected card
//	backspace   exit to the parent plane
//	n           new card at the centre of the screen
//	escape      close suggestions, cancel a rename, or clear the selection
func (c *Controller) HandleKey(ev KeyEvent) bool {
	switch strings.ToLower(ev.Key) {
	case "delete", "x":
		return c.DeleteSelection() > 0
	case "enter":
		if c.st.Selection.Len() != 1 {
			return false
		}
		return c.EnterCard(c.st.Selection.IDs()[0])
	case "backspace":
		return c.ExitPlane()
	case "n":
		w, h := c.view.ScreenSize()
		c.CreateCard(w/2, h/2)
		return true
	case "escape", "esc":
		switch {
		case c.CloseSuggestions():
		case c.st.Rename != nil:
			c.CancelRename()
		case c.st.Selection.Len() > 0:
			c.setSelection()
		default:
			return false
		}
		return true
	}
	return false
}

// OpenSuggestions lists the card's linked entity names that start with the
// last comma-separated token of typed. Returns nil and closes the list when
// nothing matches.
func (c *Controller) OpenSuggestions(ref RowRef, typed string) []string {
	if !c.store.Has(ref.CardID) {
		return nil
	}
	prefix := typed
	if i := strings.LastIndex(prefix, ","); i >= 0 {
		prefix = prefix[i+1:]
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	var options []string
	for _, id := range c.store.Links(ref.CardID) {
		e := c.store.Entity(id)
		if e == nil {
			continue
		}
		if prefix == "" || strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			options = append(options, e.Name)
		}
	}
	if len(options) == 0 {
		c.CloseSuggestions()
		return nil
	}
	c.st.Dropdown = &Dropdown{Row: ref, Prefix: typed, Options: options}
	c.r.ShowSuggestions(ref.CardID, options, true)
	return options
}

// CloseSuggestions hides the suggestion list. In-progress text is kept.
func (c *Controller) CloseSuggestions() bool {
	d := c.st.Dropdown
	if d == nil {
		return false
	}
	c.st.Dropdown = nil
	c.r.ShowSuggestions(d.Row.CardID, nil, false)
	return true
}

// PickSuggestion replaces the last token of the typed text with option i
// and closes the list. The caller puts the result in the value field.
func (c *Controller) PickSuggestion(i int) (string, bool) {
	d := c.st.Dropdown
	if d == nil || i < 0 || i >= len(d.Options) {
		return "", false
	}
	value := d.Options[i]
	if j := strings.LastIndex(d.Prefix, ","); j >= 0 {
		value = strings.TrimSpace(d.Prefix[:j]) + ", " + value
	}
	c.CloseSuggestions()
	return value, true
}

// BeginRename starts editing a card title.
func (c *Controller) BeginRename(cardID int) bool {
	e := c.store.Entity(cardID)
	if e == nil {
		return false
	}
	c.st.Rename = &RenameState{CardID: cardID, Original: e.Name}
	return true
}

// CommitRename writes the edited title. A blank title leaves the name as
// it was.
func (c *Controller) CommitRename(name string) bool {
	r := c.st.Rename
	if r == nil {
		return false
	}
	c.st.Rename = nil
	ok := c.store.SetName(r.CardID, name)
	c.r.UpdateCardUI(r.CardID, false)
	return ok
}

// CancelRename abandons the title edit and returns the name to show again.
func (c *Controller) CancelRename() string {
	r := c.st.Rename
	if r == nil {
		return ""
	}
	c.st.Rename = nil
	c.r.UpdateCardUI(r.CardID, false)
	return r.Original
}
