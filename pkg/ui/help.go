package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Mouse", [][2]string{
		{"drag card", "move; drop on a card to nest or link"},
		{"drag canvas", "marquee select (ctrl adds)"},
		{"right drag", "pan the plane"},
		{"alt+right drag", "create a variant"},
		{"ctrl+click", "toggle selection"},
		{"double click", "rename or edit a row"},
		{"wheel", "zoom; deep zoom enters a card"},
	}},
	{"Canvas", [][2]string{
		{"n", "new card"},
		{"x / del", "delete selection"},
		{"enter", "enter selected card"},
		{"backspace", "back to parent plane"},
		{"tab", "select next card"},
		{"arrows / hjkl", "pan"},
		{"+ / -", "zoom"},
		{"0", "reset zoom"},
		{".", "centre content"},
		{"v", "variant of selection"},
	}},
	{"Editing", [][2]string{
		{"r", "rename"},
		{"e / a", "edit rows / add row"},
		{"t / c", "type / content"},
		{"tab", "switch key and value"},
		{"ctrl+u", "unlock inherited key"},
		{"esc", "cancel"},
	}},
	{"Other", [][2]string{
		{"p", "toggle preview"},
		{"y", "copy names"},
		{"ctrl+s", "save now"},
		{"?", "close help"},
		{"q", "quit"},
	}},
}

// helpView renders the keyboard reference overlay.
func helpView(t Theme) string {
	keyStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Width(16)
	descStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	titleStyle := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Underline(true)

	var cols []string
	for _, sec := range helpSections {
		var sb strings.Builder
		sb.WriteString(titleStyle.Render(sec.title))
		sb.WriteString("\n\n")
		for _, k := range sec.keys {
			sb.WriteString(keyStyle.Render(k[0]))
			sb.WriteString(descStyle.Render(k[1]))
			sb.WriteByte('\n')
		}
		cols = append(cols, t.Renderer.NewStyle().MarginRight(3).Render(sb.String()))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, cols[0], cols[1])
	right := lipgloss.JoinVertical(lipgloss.Left, cols[2], cols[3])
	return t.Help.Render(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
}
