package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY HINTS
// ══════════════════════════════════════════════════════════════════════════════

// RenderKeyHint renders "key action" with the key emphasised.
func RenderKeyHint(key, action string) string {
	k := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render(key)
	a := lipgloss.NewStyle().Foreground(ColorMuted).Render(action)
	return k + " " + a
}

// RenderKeyHints joins hints with a muted separator.
func RenderKeyHints(pairs ...[2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, RenderKeyHint(p[0], p[1]))
	}
	sep := lipgloss.NewStyle().Foreground(ColorMuted).Render(" · ")
	return strings.Join(parts, sep)
}
