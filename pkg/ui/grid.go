package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cell is one terminal cell. A zero rune marks the right half of a wide
// character drawn in the cell to its left.
type cell struct {
	r     rune
	style styleID
}

// grid is an off-screen canvas that cards, overlays and the marquee are
// painted into before it is flattened to a string.
type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	w, h = max(w, 0), max(h, 0)
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

func (g *grid) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

func (g *grid) at(x, y int) cell {
	if !g.in(x, y) {
		return cell{}
	}
	return g.cells[y*g.w+x]
}

func (g *grid) set(x, y int, r rune, st styleID) {
	if g.in(x, y) {
		g.cells[y*g.w+x] = cell{r: r, style: st}
	}
}

// text writes s from (x, y), clipped to maxW cells and to the grid. It
// returns the number of cells used.
func (g *grid) text(x, y int, s string, st styleID, maxW int) int {
	used := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if used+rw > maxW {
			break
		}
		g.set(x+used, y, r, st)
		if rw == 2 {
			g.set(x+used+1, y, 0, st)
		}
		used += rw
	}
	return used
}

// fill paints a rectangle with r.
func (g *grid) fill(x, y, w, h int, r rune, st styleID) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			g.set(xx, yy, r, st)
		}
	}
}

// box draws a rounded border and clears its inside.
func (g *grid) box(x, y, w, h int, st styleID) {
	if w < 2 || h < 2 {
		g.fill(x, y, w, h, '▪', st)
		return
	}
	g.fill(x+1, y+1, w-2, h-2, ' ', stPlain)
	for xx := x + 1; xx < x+w-1; xx++ {
		g.set(xx, y, '─', st)
		g.set(xx, y+h-1, '─', st)
	}
	for yy := y + 1; yy < y+h-1; yy++ {
		g.set(x, yy, '│', st)
		g.set(x+w-1, yy, '│', st)
	}
	g.set(x, y, '╭', st)
	g.set(x+w-1, y, '╮', st)
	g.set(x, y+h-1, '╰', st)
	g.set(x+w-1, y+h-1, '╯', st)
}

// outline draws a dotted rectangle without clearing the inside.
func (g *grid) outline(x, y, w, h int, st styleID) {
	for xx := x; xx < x+w; xx++ {
		g.set(xx, y, '┄', st)
		g.set(xx, y+h-1, '┄', st)
	}
	for yy := y; yy < y+h; yy++ {
		g.set(x, yy, '┆', st)
		g.set(x+w-1, yy, '┆', st)
	}
}

// restyle changes the style of a run of cells, keeping their runes.
func (g *grid) restyle(x, y, w int, st styleID) {
	for xx := x; xx < x+w; xx++ {
		if g.in(xx, y) {
			g.cells[y*g.w+xx].style = st
		}
	}
}

// plain returns the grid text without styling.
func (g *grid) plain() string {
	var sb strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < g.w; x++ {
			if c := g.cells[y*g.w+x]; c.r != 0 {
				sb.WriteRune(c.r)
			}
		}
	}
	return sb.String()
}

// render flattens the grid, styling runs of equal style together.
func (g *grid) render(t Theme) string {
	var sb strings.Builder
	var run strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		cur := styleID(255)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur == stPlain {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(t.cell(cur).Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < g.w; x++ {
			c := g.cells[y*g.w+x]
			if c.r == 0 {
				continue
			}
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return sb.String()
}
