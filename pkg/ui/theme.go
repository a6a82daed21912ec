package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// styleID indexes the per-cell styles of the canvas grid.
type styleID uint8

const (
	stPlain styleID = iota
	stBorder
	stBorderSelected
	stBorderContain
	stBorderLink
	stBorderFlash
	stBorderPulse
	stLinkZone
	stTitle
	stSubtitle
	stKey
	stKeyInherited
	stValue
	stValueEntity
	stChip
	stSection
	stEditing
	stGhost
	stMarquee
	stDropdown
	stDropdownCursor
	numStyles
)

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Drop affinity
	Contain lipgloss.AdaptiveColor
	Link    lipgloss.AdaptiveColor
	Flash   lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Chrome
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusWarn lipgloss.Style
	Breadcrumb lipgloss.Style
	Help       lipgloss.Style
	Preview    lipgloss.Style

	cells [numStyles]lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Contain: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Link:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan
		Flash:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}
	text := lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"}

	t.cells[stPlain] = r.NewStyle()
	t.cells[stBorder] = r.NewStyle().Foreground(t.Border)
	t.cells[stBorderSelected] = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.cells[stBorderContain] = r.NewStyle().Foreground(t.Contain).Bold(true)
	t.cells[stBorderLink] = r.NewStyle().Foreground(t.Link)
	t.cells[stBorderFlash] = r.NewStyle().Foreground(t.Flash).Bold(true)
	t.cells[stBorderPulse] = r.NewStyle().Foreground(t.Primary).Background(t.Highlight).Bold(true)
	t.cells[stLinkZone] = r.NewStyle().Foreground(t.Link).Background(ThemeBg("#1A3344")).Bold(true)
	t.cells[stTitle] = r.NewStyle().Foreground(text).Bold(true)
	t.cells[stSubtitle] = r.NewStyle().Foreground(t.Muted).Italic(true)
	t.cells[stKey] = r.NewStyle().Foreground(t.Primary)
	t.cells[stKeyInherited] = r.NewStyle().Foreground(t.Secondary).Italic(true)
	t.cells[stValue] = r.NewStyle().Foreground(text)
	t.cells[stValueEntity] = r.NewStyle().Foreground(t.Link).Underline(true)
	t.cells[stChip] = r.NewStyle().Foreground(t.Link).Background(ThemeBg("#1A3344"))
	t.cells[stSection] = r.NewStyle().Foreground(t.Muted)
	t.cells[stEditing] = r.NewStyle().Foreground(text).Background(t.Highlight)
	t.cells[stGhost] = r.NewStyle().Foreground(t.Flash).Faint(true)
	t.cells[stMarquee] = r.NewStyle().Foreground(t.Primary).Faint(true)
	t.cells[stDropdown] = r.NewStyle().Foreground(text).Background(t.Highlight)
	t.cells[stDropdownCursor] = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).Background(t.Primary).Bold(true)

	t.StatusBar = r.NewStyle().Foreground(t.Subtext).Background(ThemeBg("#1E1F29"))
	t.StatusKey = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.StatusWarn = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.Breadcrumb = r.NewStyle().Foreground(t.Primary)
	t.Help = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)
	t.Preview = r.NewStyle().
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(t.Border).
		PaddingLeft(1)

	return t
}

// cell returns the style for one grid style id.
func (t Theme) cell(id styleID) lipgloss.Style {
	if id >= numStyles {
		return t.cells[stPlain]
	}
	return t.cells[id]
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
