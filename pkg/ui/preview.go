package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/storyweb/pkg/graph"
)

// previewWidth is the width of the content pane in cells, border included.
const previewWidth = 42

// previewPane renders the selected entity's content as markdown. Output is
// cached per entity until its text changes.
type previewPane struct {
	md    *glamour.TermRenderer
	cache map[int]previewEntry
}

type previewEntry struct {
	source string
	out    string
}

func newPreviewPane() *previewPane {
	md, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(previewWidth-4),
	)
	return &previewPane{md: md, cache: make(map[int]previewEntry)}
}

// previewSource builds the markdown shown for id.
func previewSource(s *graph.Store, id int) string {
	e := s.Entity(id)
	if e == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", e.Name)
	if e.Type != "" {
		fmt.Fprintf(&sb, "*%s*\n\n", e.Type)
	}
	if ancestors := s.LinearParents(id); len(ancestors) > 0 {
		names := make([]string, len(ancestors))
		for i, a := range ancestors {
			names[i] = s.Entity(a).Name
		}
		fmt.Fprintf(&sb, "Within: %s\n\n", strings.Join(names, " › "))
	}
	if strings.TrimSpace(e.Content) != "" {
		sb.WriteString(e.Content)
		sb.WriteString("\n\n")
	}
	for _, a := range s.EffectiveAttrs(id) {
		if a.Key == "" && a.Value == "" {
			continue
		}
		marker := ""
		if a.Inherited {
			marker = " _(inherited)_"
		}
		fmt.Fprintf(&sb, "- **%s**: %s%s\n", a.Key, a.Value, marker)
	}
	return sb.String()
}

func (p *previewPane) render(s *graph.Store, id int) string {
	src := previewSource(s, id)
	if src == "" {
		return ""
	}
	if c, ok := p.cache[id]; ok && c.source == src {
		return c.out
	}
	out := src
	if p.md != nil {
		if r, err := p.md.Render(src); err == nil {
			out = strings.TrimRight(r, "\n")
		}
	}
	p.cache[id] = previewEntry{source: src, out: out}
	return out
}

// View renders the pane for the given selection at height h.
func (p *previewPane) View(t Theme, s *graph.Store, selected []int, h int) string {
	var body string
	switch len(selected) {
	case 0:
		body = t.Renderer.NewStyle().Foreground(t.Muted).Render("Select a card to preview it.")
	case 1:
		body = p.render(s, selected[0])
	default:
		body = t.Renderer.NewStyle().Foreground(t.Muted).Render(fmt.Sprintf("%d cards selected", len(selected)))
	}
	lines := strings.Split(body, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	return t.Preview.
		Width(previewWidth - 2).
		Height(h).
		MaxHeight(h).
		Render(strings.Join(lines, "\n"))
}
