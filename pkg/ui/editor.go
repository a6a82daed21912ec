package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/storyweb/pkg/interact"
)

type editKind int

const (
	editTitle editKind = iota
	editType
	editContent
	editRow
)

func (k editKind) String() string {
	switch k {
	case editTitle:
		return "name"
	case editType:
		return "type"
	case editContent:
		return "content"
	default:
		return "attribute"
	}
}

// editor is an in-card text field. Title, type and content edits use the
// value input only; attribute rows use key and value.
type editor struct {
	kind      editKind
	cardID    int
	ref       interact.RowRef
	key       textinput.Model
	value     textinput.Model
	onKey     bool
	keyLocked bool
	binding   *interact.BindingKey // nil for rows not shown yet
}

func newInput(v string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.SetValue(v)
	ti.CursorEnd()
	return ti
}

func (ed *editor) focus(onKey bool) {
	ed.onKey = onKey && !ed.keyLocked
	if ed.onKey {
		ed.value.Blur()
		ed.key.Focus()
	} else {
		ed.key.Blur()
		ed.value.Focus()
	}
}

func (ed *editor) rowEdit() interact.RowEdit {
	return interact.RowEdit{Key: ed.key.Value(), Value: ed.value.Value()}
}

// mark describes the editor for the renderer. The caret is drawn as a bar
// at the active input's cursor.
func (ed *editor) mark() *EditMark {
	m := &EditMark{CardID: ed.cardID, Title: ed.kind == editTitle, Ref: ed.ref}
	withCaret := func(ti textinput.Model, active bool) string {
		if !active {
			return ti.Value()
		}
		r := []rune(ti.Value())
		p := min(max(ti.Position(), 0), len(r))
		return string(r[:p]) + "▏" + string(r[p:])
	}
	switch ed.kind {
	case editRow:
		m.Text = withCaret(ed.key, ed.onKey) + ": " + withCaret(ed.value, !ed.onKey)
	case editType:
		m.Subtitle = true
		m.Text = "type: " + withCaret(ed.value, true)
	case editContent:
		m.Subtitle = true
		m.Text = "content: " + withCaret(ed.value, true)
	default:
		m.Text = withCaret(ed.value, true)
	}
	return m
}

// openRename starts a title edit.
func (m *Model) openRename(id int) {
	if !m.ctl.BeginRename(id) {
		return
	}
	m.ed = &editor{kind: editTitle, cardID: id, value: newInput(m.store.Entity(id).Name)}
	m.ed.focus(false)
}

func (m *Model) openField(id int, kind editKind) {
	e := m.store.Entity(id)
	if e == nil {
		return
	}
	v := e.Type
	if kind == editContent {
		v = e.Content
	}
	m.ed = &editor{kind: kind, cardID: id, ref: interact.RowRef{CardID: id, Row: -1}, value: newInput(v)}
	m.ed.focus(false)
}

// openRow starts editing an existing attribute row. Inherited keys stay
// locked until unlocked with ctrl+u.
func (m *Model) openRow(ref interact.RowRef) {
	for _, r := range displayRows(m.store, ref.CardID) {
		if !sameRow(r.ref, ref) {
			continue
		}
		ed := &editor{
			kind:   editRow,
			cardID: ref.CardID,
			ref:    r.ref,
			key:    newInput(r.attr.Key),
			value:  newInput(r.attr.Value),
		}
		ed.keyLocked = ref.Inherited && !m.ctl.KeyUnlocked(ref.CardID, ref.Key)
		if k, ok := m.r.RowBinding(r.ref); ok {
			ed.binding = &k
		}
		m.ed = ed
		ed.focus(!ref.Inherited && strings.TrimSpace(r.attr.Key) == "")
		return
	}
	m.openNewRow(ref.CardID)
}

// openNewRow starts a row the store has not seen yet, after the card's own
// rows.
func (m *Model) openNewRow(id int) {
	if !m.store.Has(id) {
		return
	}
	n := len(m.store.TrueOwnAttrs(id))
	m.ed = &editor{
		kind:   editRow,
		cardID: id,
		ref:    interact.RowRef{CardID: id, Row: n},
		key:    newInput(""),
		value:  newInput(""),
	}
	m.ed.focus(true)
}

// openTarget opens the editor that fits a double-clicked element.
func (m *Model) openTarget(t interact.Target) bool {
	switch t.Kind {
	case interact.TargetCard:
		m.openRename(t.CardID)
	case interact.TargetAttrRow:
		m.openRow(interact.RowRef{CardID: t.CardID, Row: t.Row, Inherited: t.Inherited, Key: t.Key})
	case interact.TargetAttrSection:
		m.openNewRow(t.CardID)
	default:
		return false
	}
	return m.ed != nil
}

// commitEditor writes the open editor back and closes it.
func (m *Model) commitEditor() {
	ed := m.ed
	if ed == nil {
		return
	}
	m.ed = nil
	m.ctl.CloseSuggestions()
	switch ed.kind {
	case editTitle:
		m.ctl.CommitRename(ed.value.Value())
	case editType:
		m.ctl.SetType(ed.cardID, ed.value.Value())
	case editContent:
		m.ctl.SetContent(ed.cardID, ed.value.Value())
	case editRow:
		if ed.ref.Inherited {
			m.ctl.CommitInheritedRow(ed.ref, ed.rowEdit())
		} else {
			m.ctl.CommitOwnRow(ed.ref, ed.rowEdit(), false)
		}
	}
}

// cancelEditor closes the editor without writing.
func (m *Model) cancelEditor() {
	if m.ed == nil {
		return
	}
	if m.ed.kind == editTitle {
		m.ctl.CancelRename()
	}
	m.ctl.CloseSuggestions()
	m.ed = nil
}

// moveRow commits the current row and opens the one delta lines away in
// display order.
func (m *Model) moveRow(delta int) {
	ed := m.ed
	m.commitEditor()
	rows := displayRows(m.store, ed.cardID)
	at := len(rows)
	for i, r := range rows {
		if sameRow(r.ref, ed.ref) {
			at = i
			break
		}
	}
	next := at + delta
	if next < 0 || next >= len(rows) {
		return
	}
	m.openRow(rows[next].ref)
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	ed := m.ed
	dropdown := m.ctl.State().Dropdown != nil

	switch msg.String() {
	case "esc":
		if m.ctl.CloseSuggestions() {
			return nil
		}
		m.cancelEditor()
		return nil

	case "enter":
		if dropdown {
			m.pickSuggestion()
			return nil
		}
		if ed.kind != editRow {
			m.commitEditor()
			return nil
		}
		m.ed = nil
		m.ctl.CloseSuggestions()
		if ed.ref.Inherited {
			m.ctl.CommitInheritedRow(ed.ref, ed.rowEdit())
			return nil
		}
		own := len(m.store.TrueOwnAttrs(ed.cardID))
		if ed.ref.Row >= own {
			// a brand new row: commit it, then offer another
			m.ctl.CommitOwnRow(ed.ref, ed.rowEdit(), false)
			if len(m.store.TrueOwnAttrs(ed.cardID)) > own {
				m.openNewRow(ed.cardID)
			}
			return nil
		}
		m.ctl.CommitOwnRow(ed.ref, ed.rowEdit(), true)
		if id := m.r.TakeFocus(); id != 0 {
			if f := m.ctl.State().Focus; f != nil {
				m.openRow(*f)
			}
		}
		return nil

	case "tab", "shift+tab":
		if dropdown {
			m.pickSuggestion()
			return nil
		}
		if ed.kind == editRow {
			ed.focus(!ed.onKey)
		}
		return nil

	case "up", "down":
		if dropdown {
			d := 1
			if msg.String() == "up" {
				d = -1
			}
			m.r.MoveSuggestion(d)
			return nil
		}
		if ed.kind == editRow {
			if msg.String() == "up" {
				m.moveRow(-1)
			} else {
				m.moveRow(1)
			}
		}
		return nil

	case "ctrl+u":
		if ed.kind == editRow && ed.ref.Inherited && ed.keyLocked {
			if m.ctl.UnlockKey(ed.cardID, ed.ref.Key) {
				ed.keyLocked = false
				ed.focus(true)
				m.setStatus("key unlocked", false)
			}
		}
		return nil

	case "backspace":
		if ed.kind == editRow && !ed.ref.Inherited && ed.key.Value() == "" && ed.value.Value() == "" {
			if m.ctl.Backspace(ed.ref, ed.rowEdit()) {
				m.ed = nil
				if f := m.ctl.State().Focus; f != nil {
					m.openRow(*f)
				}
				return nil
			}
		}
	}

	var cmd tea.Cmd
	if ed.onKey {
		ed.key, cmd = ed.key.Update(msg)
		return cmd
	}
	before := ed.value.Value()
	ed.value, cmd = ed.value.Update(msg)
	if ed.kind == editRow && ed.value.Value() != before {
		if strings.TrimSpace(ed.value.Value()) == "" {
			m.ctl.CloseSuggestions()
		} else {
			m.ctl.OpenSuggestions(ed.ref, ed.value.Value())
		}
	}
	return cmd
}

func (m *Model) pickSuggestion() {
	i := m.r.SuggestionCursor()
	if v, ok := m.ctl.PickSuggestion(i); ok && m.ed != nil {
		m.ed.value.SetValue(v)
		m.ed.value.CursorEnd()
	}
}
