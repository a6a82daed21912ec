package interact

import "github.com/vanderheijden86/storyweb/pkg/viewport"

// TargetKind classifies the element under the pointer: empty canvas, a card
// body, a text field inside a card, a linked entity name chip, an attribute
// row or the attribute section below the rows.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetCard
	TargetEditable
	TargetLinkedEntity
	TargetAttrRow
	TargetAttrSection
)

// Target is a renderer hit-test result.
type Target struct {
	Kind      TargetKind
	CardID    int
	Row       int    // display index for TargetAttrRow
	Inherited bool   // TargetAttrRow is an inherited row
	Key       string // inherited key for inherited rows
	LinkedID  int    // entity named by a TargetLinkedEntity chip
}

// OnCard reports whether the target belongs to some card.
func (t Target) OnCard() bool {
	return t.Kind != TargetNone && t.CardID != 0
}

// Zone is the part of a drop target the pointer is over.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneContain
	ZoneLink
)

func (z Zone) String() string {
	switch z {
	case ZoneContain:
		return "contain"
	case ZoneLink:
		return "link"
	default:
		return "none"
	}
}

// Renderer projects graph and viewport state and answers hit tests. The
// controller only ever calls into it; all coordinates are screen pixels.
type Renderer interface {
	RenderCard(id int, pos viewport.Point)
	UpdateCardUI(id int, focusNewRow bool)
	RenderPlane(plane int)

	// ElementAt returns the topmost element under a point, ignoring
	// hidden cards.
	ElementAt(x, y float64) Target
	CardRect(id int) (viewport.Rect, bool)
	SetHidden(ids []int, hidden bool)

	SetSelected(id int, selected bool)
	SetAffinity(id int, zone Zone)
	SetMarquee(r viewport.Rect, visible bool)
	ShowGhost(sourceID int, at viewport.Point, visible bool)
	ShowSuggestions(cardID int, options []string, visible bool)
	Flash(ids ...int)
	Pulse(id int)
}

// NopRenderer implements Renderer with no-ops. Embed it to implement only
// the calls you care about.
type NopRenderer struct{}

func (NopRenderer) RenderCard(int, viewport.Point)      {}
func (NopRenderer) UpdateCardUI(int, bool)              {}
func (NopRenderer) RenderPlane(int)                     {}
func (NopRenderer) ElementAt(float64, float64) Target   { return Target{} }
func (NopRenderer) CardRect(int) (viewport.Rect, bool)  { return viewport.Rect{}, false }
func (NopRenderer) SetHidden([]int, bool)               {}
func (NopRenderer) SetSelected(int, bool)               {}
func (NopRenderer) SetAffinity(int, Zone)               {}
func (NopRenderer) SetMarquee(viewport.Rect, bool)      {}
func (NopRenderer) ShowGhost(int, viewport.Point, bool) {}
func (NopRenderer) ShowSuggestions(int, []string, bool) {}
func (NopRenderer) Flash(...int)                        {}
func (NopRenderer) Pulse(int)                           {}
