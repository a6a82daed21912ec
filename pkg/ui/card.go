package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/model"
)

type rowKind int

const (
	rowTitle rowKind = iota
	rowSubtitle
	rowAttr
	rowMore
	rowSection
	rowChips
)

// chip is a linked entity name drawn on a card's bottom line.
type chip struct {
	x0, x1 int // cells [x0, x1)
	id     int
	label  string
}

type cardRow struct {
	kind  rowKind
	y     int
	attr  model.EffectiveAttr
	ref   interact.RowRef
	more  int
	first bool // first section line carries the add hint
	chips []chip
}

// cardBox is a card projected onto the cell grid.
type cardBox struct {
	id         int
	x, y, w, h int
	rows       []cardRow
}

func (b cardBox) contains(cx, cy int) bool {
	return cx >= b.x && cx < b.x+b.w && cy >= b.y && cy < b.y+b.h
}

// displayRow is one attribute line in effective order with the reference
// the editor uses to address it.
type displayRow struct {
	attr model.EffectiveAttr
	ref  interact.RowRef
}

// displayRows lists id's attribute rows: inherited slots first, then the
// true own rows numbered by their own display index.
func displayRows(s *graph.Store, id int) []displayRow {
	attrs := s.EffectiveAttrs(id)
	out := make([]displayRow, 0, len(attrs))
	own := 0
	for _, a := range attrs {
		ref := interact.RowRef{CardID: id}
		if a.Inherited {
			ref.Inherited = true
			ref.Key = a.Key
		} else {
			ref.Row = own
			own++
		}
		out = append(out, displayRow{attr: a, ref: ref})
	}
	return out
}

// cellRect converts a screen pixel rectangle to whole cells. Cards never
// shrink below a border and one text line.
func cellRect(x, y, w, h, cw, ch float64) (int, int, int, int) {
	cx := int(math.Floor(x / cw))
	cy := int(math.Floor(y / ch))
	cwid := max(int(math.Round(w/cw)), 4)
	chgt := max(int(math.Round(h/ch)), 3)
	return cx, cy, cwid, chgt
}

// layoutRows fills in the rows of a card box from the store.
func layoutRows(s *graph.Store, b cardBox) cardBox {
	top, last := b.y+1, b.y+b.h-2
	if last < top {
		return b
	}
	b.rows = append(b.rows, cardRow{kind: rowTitle, y: top})
	next := top + 1

	links := s.Links(b.id)
	chipsY := -1
	if len(links) > 0 && last-next >= 1 {
		chipsY = last
		last--
	}
	if next <= last && b.h >= 5 {
		b.rows = append(b.rows, cardRow{kind: rowSubtitle, y: next})
		next++
	}

	rows := displayRows(s, b.id)
	avail := last - next + 1
	shown, more := rows, 0
	if len(rows) > avail {
		n := max(avail-1, 0)
		shown, more = rows[:n], len(rows)-n
	}
	for _, r := range shown {
		if next > last {
			break
		}
		b.rows = append(b.rows, cardRow{kind: rowAttr, y: next, attr: r.attr, ref: r.ref})
		next++
	}
	if more > 0 && next <= last {
		b.rows = append(b.rows, cardRow{kind: rowMore, y: next, more: more})
		next++
	}
	first := true
	for ; next <= last; next++ {
		b.rows = append(b.rows, cardRow{kind: rowSection, y: next, first: first})
		first = false
	}

	if chipsY >= 0 {
		row := cardRow{kind: rowChips, y: chipsY}
		x, limit := b.x+2, b.x+b.w-2
		for _, id := range links {
			e := s.Entity(id)
			if e == nil {
				continue
			}
			label := " " + truncate(e.Name, 16) + " "
			w := stringWidth(label)
			if x+w > limit {
				break
			}
			row.chips = append(row.chips, chip{x0: x, x1: x + w, id: id, label: label})
			x += w + 1
		}
		b.rows = append(b.rows, row)
	}
	return b
}

func (b cardBox) rowAt(cy int) (cardRow, bool) {
	for _, r := range b.rows {
		if r.y == cy {
			return r, true
		}
	}
	return cardRow{}, false
}

// editRowY finds the line an in-card editor sits on, or -1.
func (b cardBox) editRowY(m *EditMark) int {
	if m == nil || m.CardID != b.id {
		return -1
	}
	for _, r := range b.rows {
		switch {
		case m.Title && r.kind == rowTitle:
			return r.y
		case m.Subtitle && r.kind == rowSubtitle:
			return r.y
		case !m.Title && !m.Subtitle && r.kind == rowAttr && sameRow(r.ref, m.Ref):
			return r.y
		}
	}
	if !m.Title && !m.Subtitle {
		for _, r := range b.rows {
			if r.kind == rowSection {
				return r.y
			}
		}
	}
	return -1
}

func sameRow(a, b interact.RowRef) bool {
	if a.CardID != b.CardID || a.Inherited != b.Inherited {
		return false
	}
	if a.Inherited {
		return a.Key == b.Key
	}
	return a.Row == b.Row
}

// hit maps a cell inside the box to a controller target.
func (b cardBox) hit(cx, cy int, edit *EditMark) interact.Target {
	t := interact.Target{Kind: interact.TargetCard, CardID: b.id}
	if cx == b.x || cx == b.x+b.w-1 || cy == b.y || cy == b.y+b.h-1 {
		return t
	}
	if cy == b.editRowY(edit) {
		t.Kind = interact.TargetEditable
		return t
	}
	row, ok := b.rowAt(cy)
	if !ok {
		return t
	}
	switch row.kind {
	case rowAttr:
		t.Kind = interact.TargetAttrRow
		t.Row = row.ref.Row
		t.Inherited = row.ref.Inherited
		t.Key = row.ref.Key
	case rowSection:
		t.Kind = interact.TargetAttrSection
		t.Row = -1
	case rowChips:
		for _, c := range row.chips {
			if cx >= c.x0 && cx < c.x1 {
				t.Kind = interact.TargetLinkedEntity
				t.LinkedID = c.id
				break
			}
		}
	}
	return t
}

// subtitle summarises type, nesting and content on one line.
func subtitle(s *graph.Store, e *model.Entity) string {
	var parts []string
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if n := len(s.Children(e.ID)); n > 0 {
		parts = append(parts, fmt.Sprintf("%d inside", n))
	}
	if c := oneLine(e.Content); c != "" {
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return "#" + fmt.Sprint(e.ID)
	}
	return strings.Join(parts, " · ")
}
