package interact

import (
	"slices"

	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// Button is a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Modifiers held during an event. Ctrl stands for ctrl or cmd.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
}

// PointerKind is the phase of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is a pointer event in screen pixels.
type PointerEvent struct {
	Kind   PointerKind
	X, Y   float64
	Button Button
	Mods   Modifiers
}

// WheelEvent is a scroll event at a screen point. Positive DeltaY scrolls
// towards the user and zooms out.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
	Mods   Modifiers
}

// KeyEvent is a key press outside any text field.
type KeyEvent struct {
	Key  string // "delete", "enter", "backspace", "escape" or a printable rune
	Mods Modifiers
}

// Mode is the gesture in progress. Exactly one is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeMarquee
	ModeDragCards
	ModeDragPlane
	ModeDragLinkEntity
	ModeDragVariant
)

func (m Mode) String() string {
	switch m {
	case ModeMarquee:
		return "marquee-selecting"
	case ModeDragCards:
		return "dragging-cards"
	case ModeDragPlane:
		return "dragging-plane"
	case ModeDragLinkEntity:
		return "dragging-link-entity"
	case ModeDragVariant:
		return "dragging-variant"
	default:
		return "idle"
	}
}

// Selection is an insertion-ordered set of card ids.
type Selection struct {
	ids []int
}

func (s *Selection) Has(id int) bool { return slices.Contains(s.ids, id) }
func (s *Selection) Len() int        { return len(s.ids) }
func (s *Selection) IDs() []int      { return slices.Clone(s.ids) }

// Add selects id. Returns false if it already was.
func (s *Selection) Add(id int) bool {
	if s.Has(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove deselects id. Returns false if it was not selected.
func (s *Selection) Remove(id int) bool {
	i := slices.Index(s.ids, id)
	if i < 0 {
		return false
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	return true
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id int) bool {
	if s.Remove(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) Clear() { s.ids = nil }

// MarqueeState is the rubber band rectangle, in world space.
type MarqueeState struct {
	Start, End viewport.Point
	Base       []int // selection kept from before the marquee (ctrl held)
}

// Rect returns the normalised marquee rectangle.
func (m MarqueeState) Rect() viewport.Rect {
	return viewport.Rect{X: m.Start.X, Y: m.Start.Y, W: m.End.X - m.Start.X, H: m.End.Y - m.Start.Y}.Normalize()
}

// CardDrag tracks a card drag. Positions are recomputed from Origins plus
// the accumulated pointer delta on every move.
type CardDrag struct {
	Source  int
	Start   viewport.Point // world point of the press
	Press   viewport.Point // screen point of the press
	Origins map[int]viewport.Point
	Moved   bool
	Target  int
	Zone    Zone
}

// PlaneDrag tracks a pan gesture and its release velocity.
type PlaneDrag struct {
	Last     viewport.Point // screen
	Velocity viewport.Point // px per move event, smoothed
}

// LinkEntityDrag carries a linked entity name towards an attribute row.
type LinkEntityDrag struct {
	EntityID int
	FromCard int
	Over     Target
}

// VariantDrag shows a ghost of Source until release.
type VariantDrag struct {
	Source int
	At     viewport.Point // screen
}

// Dropdown is an open value suggestion list.
type Dropdown struct {
	Row     RowRef
	Prefix  string
	Options []string
}

// RenameState is an in-progress title edit.
type RenameState struct {
	CardID   int
	Original string
}

// RowRef addresses one attribute row of a card.
type RowRef struct {
	CardID    int
	Inherited bool
	Row       int    // display index among true own rows
	Key       string // the inherited key
}

type unlockKey struct {
	cardID int
	key    string
}

// InteractionState is the controller's whole mutable UI state. Tests can
// build one directly and feed synthetic events.
type InteractionState struct {
	Mode      Mode
	Selection Selection
	Hover     int

	Marquee    MarqueeState
	Drag       CardDrag
	Pan        PlaneDrag
	LinkEntity LinkEntityDrag
	Variant    VariantDrag

	Dropdown *Dropdown
	Rename   *RenameState
	Focus    *RowRef

	unlocked map[unlockKey]bool
}

// NewInteractionState returns an idle state.
func NewInteractionState() *InteractionState {
	return &InteractionState{unlocked: make(map[unlockKey]bool)}
}

func (st *InteractionState) reset() {
	st.Mode = ModeIdle
	st.Marquee = MarqueeState{}
	st.Drag = CardDrag{}
	st.Pan = PlaneDrag{}
	st.LinkEntity = LinkEntityDrag{}
	st.Variant = VariantDrag{}
}
