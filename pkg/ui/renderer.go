package ui

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/model"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// Effect durations.
const (
	flashDuration = 450 * time.Millisecond
	pulseDuration = 900 * time.Millisecond
)

// EditMark tells the renderer which card line an open editor covers and
// what to show there.
type EditMark struct {
	CardID   int
	Title    bool
	Subtitle bool // type and content edits
	Ref      interact.RowRef
	Text     string
}

// Renderer draws the current plane onto a cell grid and answers the
// controller's hit tests. Screen pixels map to cells at UIConfig.CellWidth
// by UIConfig.CellHeight.
type Renderer struct {
	store  *graph.Store
	view   *viewport.Engine
	canvas config.CanvasConfig
	cellW  float64
	cellH  float64
	now    func() time.Time

	plane    int
	hidden   map[int]bool
	selected map[int]bool
	affinity map[int]interact.Zone
	flash    map[int]time.Time
	pulse    map[int]time.Time

	marquee   viewport.Rect
	marqueeOn bool
	ghost     int
	ghostAt   viewport.Point

	suggestFor    int
	suggestions   []string
	suggestCursor int

	edit      *EditMark
	focusCard int

	bindings   *interact.BindingRegistry
	boundCards map[int]bool
	attached   int

	renders int
	updates map[int]int
}

var _ interact.Renderer = (*Renderer)(nil)

// NewRenderer builds a renderer over store and view.
func NewRenderer(store *graph.Store, view *viewport.Engine, ui config.UIConfig) *Renderer {
	return &Renderer{
		store:    store,
		view:     view,
		canvas:   view.Config(),
		cellW:    ui.CellWidth,
		cellH:    ui.CellHeight,
		now:      time.Now,
		hidden:   make(map[int]bool),
		selected: make(map[int]bool),
		affinity: make(map[int]interact.Zone),
		flash:    make(map[int]time.Time),
		pulse:    make(map[int]time.Time),
		updates:  make(map[int]int),

		boundCards: make(map[int]bool),
	}
}

// SetBindings attaches the registry that tracks which attribute rows have
// handlers. Without one rows are not tracked.
func (r *Renderer) SetBindings(b *interact.BindingRegistry) {
	r.bindings = b
	r.boundCards = make(map[int]bool)
}

func rowBinding(id, row int, inherited bool) interact.BindingKey {
	return interact.BindingKey{EntityID: id, Row: row, Inherited: inherited}
}

// bindRows refreshes the row bindings of card id after it was laid out
// again. Only rows with a new identity count as attached.
func (r *Renderer) bindRows(id int) {
	if r.bindings == nil {
		return
	}
	if !r.store.Has(id) {
		r.bindings.Unbind(id)
		delete(r.boundCards, id)
		return
	}
	rows := displayRows(r.store, id)
	live := make([]interact.BindingKey, len(rows))
	for i, row := range rows {
		live[i] = rowBinding(id, i, row.ref.Inherited)
		if r.bindings.Bind(live[i]) {
			r.attached++
		}
	}
	r.bindings.Prune(id, live)
	r.boundCards[id] = true
}

// RowBinding returns the binding of the displayed row ref addresses. It is
// false for rows the card does not show yet, such as a blank new row.
func (r *Renderer) RowBinding(ref interact.RowRef) (interact.BindingKey, bool) {
	if r.bindings == nil {
		return interact.BindingKey{}, false
	}
	r.bindRows(ref.CardID)
	for i, row := range displayRows(r.store, ref.CardID) {
		if sameRow(row.ref, ref) {
			return rowBinding(ref.CardID, i, row.ref.Inherited), true
		}
	}
	return interact.BindingKey{}, false
}

// CellCenter returns the screen pixel at the middle of cell (cx, cy).
func (r *Renderer) CellCenter(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) * r.cellW, (float64(cy) + 0.5) * r.cellH
}

// ScreenPixels converts a grid size in cells to the pixel size the viewport
// works in.
func (r *Renderer) ScreenPixels(w, h int) (float64, float64) {
	return float64(w) * r.cellW, float64(h) * r.cellH
}

func (r *Renderer) RenderCard(id int, _ viewport.Point) {
	r.updates[id]++
	r.bindRows(id)
}

func (r *Renderer) UpdateCardUI(id int, focusNewRow bool) {
	r.updates[id]++
	r.bindRows(id)
	if focusNewRow {
		r.focusCard = id
	}
}

// TakeFocus returns the card that asked for a freshly appended row to be
// focused, clearing the request.
func (r *Renderer) TakeFocus() int {
	id := r.focusCard
	r.focusCard = 0
	return id
}

func (r *Renderer) RenderPlane(plane int) {
	r.plane = plane
	r.renders++
	on := make(map[int]bool)
	for _, id := range r.view.OnPlane() {
		on[id] = true
	}
	for id := range r.affinity {
		if !on[id] {
			delete(r.affinity, id)
		}
	}
	for id := range r.selected {
		if !on[id] {
			delete(r.selected, id)
		}
	}
	if r.bindings == nil {
		return
	}
	for id := range r.boundCards {
		if !on[id] {
			r.bindings.Unbind(id)
			delete(r.boundCards, id)
		}
	}
	for id := range on {
		r.bindRows(id)
	}
}

func (r *Renderer) SetHidden(ids []int, hidden bool) {
	for _, id := range ids {
		if hidden {
			r.hidden[id] = true
		} else {
			delete(r.hidden, id)
		}
	}
}

func (r *Renderer) SetSelected(id int, selected bool) {
	if selected {
		r.selected[id] = true
	} else {
		delete(r.selected, id)
	}
}

func (r *Renderer) SetAffinity(id int, zone interact.Zone) {
	if zone == interact.ZoneNone {
		delete(r.affinity, id)
		return
	}
	r.affinity[id] = zone
}

func (r *Renderer) SetMarquee(rect viewport.Rect, visible bool) {
	r.marquee, r.marqueeOn = rect, visible
}

func (r *Renderer) ShowGhost(sourceID int, at viewport.Point, visible bool) {
	if !visible {
		r.ghost = 0
		return
	}
	r.ghost, r.ghostAt = sourceID, at
}

func (r *Renderer) ShowSuggestions(cardID int, options []string, visible bool) {
	if !visible || len(options) == 0 {
		r.suggestFor, r.suggestions, r.suggestCursor = 0, nil, 0
		return
	}
	r.suggestFor = cardID
	r.suggestions = append([]string(nil), options...)
	r.suggestCursor = min(r.suggestCursor, len(options)-1)
}

// MoveSuggestion moves the dropdown cursor by delta, wrapping around, and
// returns the highlighted index.
func (r *Renderer) MoveSuggestion(delta int) int {
	n := len(r.suggestions)
	if n == 0 {
		return -1
	}
	r.suggestCursor = ((r.suggestCursor+delta)%n + n) % n
	return r.suggestCursor
}

// SuggestionCursor returns the highlighted dropdown index, -1 when closed.
func (r *Renderer) SuggestionCursor() int {
	if len(r.suggestions) == 0 {
		return -1
	}
	return r.suggestCursor
}

func (r *Renderer) Flash(ids ...int) {
	until := r.now().Add(flashDuration)
	for _, id := range ids {
		r.flash[id] = until
	}
}

func (r *Renderer) Pulse(id int) {
	if id != 0 {
		r.pulse[id] = r.now().Add(pulseDuration)
	}
}

// SetEditing marks the line covered by an open editor; nil clears it.
func (r *Renderer) SetEditing(m *EditMark) { r.edit = m }

// Animating reports whether a flash or pulse is still running. Expired
// effects are dropped.
func (r *Renderer) Animating() bool {
	now := r.now()
	for id, until := range r.flash {
		if !now.Before(until) {
			delete(r.flash, id)
		}
	}
	for id, until := range r.pulse {
		if !now.Before(until) {
			delete(r.pulse, id)
		}
	}
	return len(r.flash) > 0 || len(r.pulse) > 0
}

// geometry returns the cell boxes of the cards on the current plane in
// paint order: selected cards last so they sit on top while dragged.
func (r *Renderer) geometry() []cardBox {
	ids := r.view.OnPlane()
	slices.SortStableFunc(ids, func(a, b int) int {
		sa, sb := r.selected[a], r.selected[b]
		switch {
		case sa == sb:
			return 0
		case sb:
			return -1
		default:
			return 1
		}
	})
	z := r.view.Zoom()
	out := make([]cardBox, 0, len(ids))
	for _, id := range ids {
		p, ok := r.view.Position(id)
		if !ok || !r.store.Has(id) {
			continue
		}
		s := r.view.ScreenCoords(p.X, p.Y)
		x, y, w, h := cellRect(s.X, s.Y, r.canvas.CardWidth*z, r.canvas.CardHeight*z, r.cellW, r.cellH)
		out = append(out, cardBox{id: id, x: x, y: y, w: w, h: h})
	}
	return out
}

func (r *Renderer) ElementAt(x, y float64) interact.Target {
	cx := int(math.Floor(x / r.cellW))
	cy := int(math.Floor(y / r.cellH))
	boxes := r.geometry()
	for i := len(boxes) - 1; i >= 0; i-- {
		b := boxes[i]
		if r.hidden[b.id] || !b.contains(cx, cy) {
			continue
		}
		return layoutRows(r.store, b).hit(cx, cy, r.edit)
	}
	return interact.Target{}
}

// CardRect returns the pixel rectangle of the card as drawn, so the link
// zone lines up with whole cells.
func (r *Renderer) CardRect(id int) (viewport.Rect, bool) {
	for _, b := range r.geometry() {
		if b.id == id {
			return viewport.Rect{
				X: float64(b.x) * r.cellW,
				Y: float64(b.y) * r.cellH,
				W: float64(b.w) * r.cellW,
				H: float64(b.h) * r.cellH,
			}, true
		}
	}
	return viewport.Rect{}, false
}

// Draw paints the plane into a w by h grid.
func (r *Renderer) Draw(w, h int) *grid {
	g := newGrid(w, h)
	r.Animating()
	boxes := r.geometry()
	laid := make([]cardBox, 0, len(boxes))
	for _, b := range boxes {
		if b.x >= w || b.y >= h || b.x+b.w <= 0 || b.y+b.h <= 0 {
			continue
		}
		b = layoutRows(r.store, b)
		r.paintCard(g, b)
		laid = append(laid, b)
	}
	if r.marqueeOn {
		x, y, mw, mh := cellRect(r.marquee.X, r.marquee.Y, r.marquee.W, r.marquee.H, r.cellW, r.cellH)
		g.outline(x, y, max(mw, 2), max(mh, 2), stMarquee)
	}
	if r.ghost != 0 {
		r.paintGhost(g)
	}
	for _, b := range laid {
		if b.id == r.suggestFor {
			r.paintSuggestions(g, b)
		}
	}
	return g
}

func (r *Renderer) borderStyle(id int) styleID {
	switch {
	case !r.pulse[id].IsZero():
		return stBorderPulse
	case !r.flash[id].IsZero():
		return stBorderFlash
	case r.affinity[id] == interact.ZoneContain:
		return stBorderContain
	case r.affinity[id] == interact.ZoneLink:
		return stBorderLink
	case r.selected[id]:
		return stBorderSelected
	default:
		return stBorder
	}
}

func (r *Renderer) paintCard(g *grid, b cardBox) {
	e := r.store.Entity(b.id)
	if e == nil {
		return
	}
	g.box(b.x, b.y, b.w, b.h, r.borderStyle(b.id))
	if r.affinity[b.id] == interact.ZoneLink {
		r.paintLinkZone(g, b)
	}
	inner := b.w - 4
	if inner <= 0 {
		return
	}
	cx := b.x + 2
	for _, row := range b.rows {
		switch row.kind {
		case rowTitle:
			g.text(cx, row.y, truncate(e.Name, inner), stTitle, inner)
		case rowSubtitle:
			g.text(cx, row.y, truncate(subtitle(r.store, e), inner), stSubtitle, inner)
		case rowAttr:
			paintAttr(g, cx, row.y, inner, row.attr)
		case rowMore:
			g.text(cx, row.y, fmt.Sprintf("+%d more", row.more), stSection, inner)
		case rowSection:
			if row.first {
				g.text(cx, row.y, "+ attribute", stSection, inner)
			}
		case rowChips:
			for _, c := range row.chips {
				g.text(c.x0, row.y, c.label, stChip, c.x1-c.x0)
			}
		}
	}
	if y := b.editRowY(r.edit); y >= 0 {
		g.fill(cx, y, inner, 1, ' ', stEditing)
		g.text(cx, y, truncateLeft(r.edit.Text, inner), stEditing, inner)
	}
}

// paintLinkZone highlights the border cells of the card's lower band, the
// last LinkZoneHeight screen pixels.
func (r *Renderer) paintLinkZone(g *grid, b cardBox) {
	band := int(math.Ceil(r.canvas.LinkZoneHeight / r.cellH))
	band = min(max(band, 1), b.h)
	for y := b.y + b.h - band; y < b.y+b.h; y++ {
		g.restyle(b.x, y, 1, stLinkZone)
		g.restyle(b.x+b.w-1, y, 1, stLinkZone)
	}
	g.restyle(b.x, b.y+b.h-1, b.w, stLinkZone)
}

func paintAttr(g *grid, x, y, width int, a model.EffectiveAttr) {
	keySt := stKey
	if a.Inherited {
		keySt = stKeyInherited
	}
	key := a.Key
	if key == "" {
		key = "·"
	}
	keyW := min(stringWidth(key), max(width/2, 1))
	used := g.text(x, y, truncate(key, keyW), keySt, keyW)
	used += g.text(x+used, y, ": ", stSection, width-used)
	valSt := stValue
	if a.Kind != model.KindText {
		valSt = stValueEntity
	}
	value := oneLine(a.Value)
	if value == "" && a.Inherited {
		value, valSt = "·", stSection
	}
	g.text(x+used, y, truncate(value, width-used), valSt, width-used)
}

func (r *Renderer) paintGhost(g *grid) {
	e := r.store.Entity(r.ghost)
	if e == nil {
		return
	}
	x := int(math.Floor(r.ghostAt.X / r.cellW))
	y := int(math.Floor(r.ghostAt.Y / r.cellH))
	w := min(max(stringWidth(e.Name)+4, 10), 24)
	g.box(x-w/2, y-1, w, 3, stGhost)
	g.text(x-w/2+2, y, truncate(e.Name, w-4), stGhost, w-4)
}

func (r *Renderer) paintSuggestions(g *grid, b cardBox) {
	y := b.editRowY(r.edit)
	if y < 0 {
		y = b.y + 1
	}
	w := b.w - 4
	for i, opt := range r.suggestions {
		st := stDropdown
		if i == r.suggestCursor {
			st = stDropdownCursor
		}
		row := y + 1 + i
		g.fill(b.x+2, row, w, 1, ' ', st)
		g.text(b.x+3, row, truncate(opt, w-2), st, w-2)
	}
}

// truncateLeft keeps the tail of s so the cursor end of an editor stays
// visible.
func truncateLeft(s string, width int) string {
	if stringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for i := range runes {
		if tail := string(runes[i:]); stringWidth(tail) <= width-1 {
			return "…" + tail
		}
	}
	return ""
}
