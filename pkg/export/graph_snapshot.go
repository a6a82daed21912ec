// Package export renders canvas planes to static SVG or PNG images.
package export

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/storyweb/pkg/analysis"
	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/metrics"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
)

// PlaneSnapshotOptions controls plane export.
type PlaneSnapshotOptions struct {
	Path   string           // Output path; format inferred from extension when Format empty
	Format string           // "svg" or "png" (case-insensitive)
	Title  string           // Optional; defaults to the plane's name
	Store  *graph.Store     // Source of names, links and children
	View   *viewport.Engine // Source of card positions
	Plane  int              // viewport.Root or an entity id
}

// SavePlane renders one plane: every visible card at its layout position,
// the links between them and a small summary header.
func SavePlane(opts PlaneSnapshotOptions) error {
	defer metrics.Timer(metrics.PlaneExport)()
	if opts.Store == nil || opts.View == nil {
		return fmt.Errorf("store and viewport are required for plane export")
	}
	if opts.Plane != viewport.Root && !opts.Store.Has(opts.Plane) {
		return fmt.Errorf("plane %d does not exist", opts.Plane)
	}
	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path
	return render(format, opts.Path, buildLayout(opts))
}

func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

func render(format, path string, layout layoutResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	switch format {
	case "svg":
		return renderSVG(path, layout)
	case "png":
		return renderPNG(path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// SaveAllPlanes renders the root plane and every entity that has children
// into dir, one file per plane. Layouts are computed up front on the
// calling goroutine; only the drawing runs concurrently. It returns the
// written paths in plane order.
func SaveAllPlanes(ctx context.Context, dir, format string, store *graph.Store, view *viewport.Engine) ([]string, error) {
	if format == "" {
		format = "svg"
	}
	planes := []int{viewport.Root}
	for _, id := range store.IDs() {
		if len(store.Children(id)) > 0 {
			planes = append(planes, id)
		}
	}

	type job struct {
		path   string
		layout layoutResult
	}
	jobs := make([]job, 0, len(planes))
	paths := make([]string, 0, len(planes))
	for _, plane := range planes {
		opts := PlaneSnapshotOptions{Store: store, View: view, Plane: plane}
		f, path, err := resolveFormat(format, filepath.Join(dir, planeFileName(store, plane)+"."+format))
		if err != nil {
			return nil, err
		}
		format = f
		jobs = append(jobs, job{path: path, layout: buildLayout(opts)})
		paths = append(paths, path)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defer metrics.Timer(metrics.PlaneExport)()
			return render(format, j.path, j.layout)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	debug.Log("export: wrote %d planes to %s", len(paths), dir)
	return paths, nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

func planeFileName(store *graph.Store, plane int) string {
	if plane == viewport.Root {
		return "root"
	}
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(store.Entity(plane).Name), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("plane-%d", plane)
	}
	return fmt.Sprintf("plane-%d-%s", plane, slug)
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	ID       int
	Name     string
	Type     string
	Children int
	Attrs    int
	X, Y     float64
	NodeW    float64
	NodeH    float64
}

type layoutEdge struct {
	From int
	To   int
}

type layoutResult struct {
	Nodes   []layoutNode
	Edges   []layoutEdge
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title     string
	Path      string
	NodeCount int
	EdgeCount int
	Warning   string
}

func buildLayout(opts PlaneSnapshotOptions) layoutResult {
	const (
		padding      = 36.0
		headerHeight = 120.0
	)
	cfg := opts.View.Config()
	cards := opts.View.Project(opts.Plane)

	var minX, minY, maxX, maxY float64
	for i, c := range cards {
		if i == 0 {
			minX, minY = c.X, c.Y
			maxX, maxY = c.X+cfg.CardWidth, c.Y+cfg.CardHeight
			continue
		}
		minX, minY = min(minX, c.X), min(minY, c.Y)
		maxX, maxY = max(maxX, c.X+cfg.CardWidth), max(maxY, c.Y+cfg.CardHeight)
	}

	offX := padding - minX
	offY := padding + headerHeight - minY
	onPlane := make(map[int]bool, len(cards))
	nodes := make([]layoutNode, 0, len(cards))
	for _, c := range cards {
		e := opts.Store.Entity(c.RefID)
		if e == nil {
			continue
		}
		onPlane[e.ID] = true
		nodes = append(nodes, layoutNode{
			ID:       e.ID,
			Name:     e.Name,
			Type:     e.Type,
			Children: len(opts.Store.Children(e.ID)),
			Attrs:    len(opts.Store.EffectiveAttrs(e.ID)),
			X:        c.X + offX,
			Y:        c.Y + offY,
			NodeW:    cfg.CardWidth,
			NodeH:    cfg.CardHeight,
		})
	}

	var edges []layoutEdge
	for _, n := range nodes {
		for _, to := range opts.Store.Links(n.ID) {
			if onPlane[to] {
				edges = append(edges, layoutEdge{From: n.ID, To: to})
			}
		}
	}

	width := int(math.Ceil(padding*2 + maxX - minX))
	if width < 640 {
		width = 640
	}
	height := int(math.Ceil(padding*2 + headerHeight + maxY - minY))
	if height < 480 {
		height = 480
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = planeTitle(opts.Store, opts.Plane)
	}
	return layoutResult{
		Nodes:  nodes,
		Edges:  edges,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:     title,
			Path:      planePath(opts.Store, opts.View, opts.Plane),
			NodeCount: len(nodes),
			EdgeCount: len(edges),
			Warning:   analysis.Analyze(opts.Store).CycleWarning(),
		},
	}
}

func planeTitle(store *graph.Store, plane int) string {
	if plane == viewport.Root {
		return "Root plane"
	}
	if name := store.Entity(plane).Name; name != "" {
		return name
	}
	return fmt.Sprintf("Plane %d", plane)
}

// planePath renders the breadcrumb of the navigation stack when plane is
// the current plane, otherwise the first-parent chain up to the root.
func planePath(store *graph.Store, view *viewport.Engine, plane int) string {
	var chain []int
	if plane == view.CurrentPlane() {
		for _, f := range view.Stack() {
			chain = append(chain, f.EnteredChildID)
		}
	} else {
		seen := map[int]bool{}
		for id := plane; id != viewport.Root && !seen[id]; {
			seen[id] = true
			chain = append([]int{id}, chain...)
			parents := store.Parents(id)
			if len(parents) == 0 {
				break
			}
			id = parents[0]
		}
	}
	parts := []string{viewport.RootKey}
	for _, id := range chain {
		parts = append(parts, planeTitle(store, id))
	}
	return strings.Join(parts, " > ")
}

// edgeEndpoints clips the centre-to-centre segment to both card borders.
func edgeEndpoints(from, to layoutNode) (x1, y1, x2, y2 float64) {
	fx, fy := from.X+from.NodeW/2, from.Y+from.NodeH/2
	tx, ty := to.X+to.NodeW/2, to.Y+to.NodeH/2
	dx, dy := tx-fx, ty-fy
	x1, y1 = clipToBox(fx, fy, dx, dy, from.NodeW/2, from.NodeH/2)
	x2, y2 = clipToBox(tx, ty, -dx, -dy, to.NodeW/2, to.NodeH/2)
	return
}

func clipToBox(cx, cy, dx, dy, hw, hh float64) (float64, float64) {
	if dx == 0 && dy == 0 {
		return cx, cy
	}
	t := math.Inf(1)
	if dx != 0 {
		t = hw / math.Abs(dx)
	}
	if dy != 0 {
		t = math.Min(t, hh/math.Abs(dy))
	}
	return cx + dx*t, cy + dy*t
}

// arrowHead returns the three corners of an arrow tip at (x, y) pointing
// away from (fromX, fromY).
func arrowHead(fromX, fromY, x, y float64) (xs, ys [3]float64) {
	const size = 9.0
	angle := math.Atan2(y-fromY, x-fromX)
	xs = [3]float64{x, x - size*math.Cos(angle-0.4), x - size*math.Cos(angle+0.4)}
	ys = [3]float64{y, y - size*math.Sin(angle-0.4), y - size*math.Sin(angle+0.4)}
	return
}

// --- rendering -------------------------------------------------------------

var (
	colorCard      = color.RGBA{0xe3, 0xf2, 0xfd, 0xff}
	colorPlane     = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge      = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorEdgeArrow = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorWarn      = color.RGBA{0xc6, 0x28, 0x28, 0xff}
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG  = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func nodeColor(n layoutNode) color.RGBA {
	if n.Children > 0 {
		return colorPlane
	}
	return colorCard
}

func nodeCaption(n layoutNode) string {
	parts := []string{}
	if n.Type != "" {
		parts = append(parts, n.Type)
	}
	parts = append(parts, fmt.Sprintf("%d attrs", n.Attrs))
	if n.Children > 0 {
		parts = append(parts, fmt.Sprintf("%d inside", n.Children))
	}
	return strings.Join(parts, ", ")
}

func displayName(n layoutNode) string {
	if n.Name == "" {
		return fmt.Sprintf("#%d", n.ID)
	}
	return n.Name
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, layout)
	drawLegend(dc, layout)

	nodePos := make(map[int]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}
	dc.SetLineWidth(2)
	for _, e := range layout.Edges {
		x1, y1, x2, y2 := edgeEndpoints(nodePos[e.From], nodePos[e.To])
		dc.SetColor(colorEdge)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrow(dc, x1, y1, x2, y2)
	}

	for _, n := range layout.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, layout layoutResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, layout)
	drawLegendSVG(canvas, layout)

	nodePos := make(map[int]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}

	for _, e := range layout.Edges {
		x1, y1, x2, y2 := edgeEndpoints(nodePos[e.From], nodePos[e.To])
		canvas.Line(int(x1), int(y1), int(x2), int(y2), fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge)))
		xs, ys := arrowHead(x1, y1, x2, y2)
		canvas.Polygon(
			[]int{int(xs[0]), int(xs[1]), int(xs[2])},
			[]int{int(ys[0]), int(ys[1]), int(ys[2])},
			fmt.Sprintf("fill:%s", css(colorEdgeArrow)),
		)
	}

	for _, n := range layout.Nodes {
		x := int(n.X)
		y := int(n.Y)
		canvas.Roundrect(x, y, int(n.NodeW), int(n.NodeH), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(nodeColor(n)), css(colorStroke)))
		canvas.Text(x+10, y+22, truncate(displayName(n), 28), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+42, truncate(nodeCaption(n), 32), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(nodeColor(n))
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(truncate(displayName(n), 28), n.X+10, n.Y+18, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(truncate(nodeCaption(n), 32), n.X+10, n.Y+36, 0, 0.5)
}

func drawArrow(dc *gg.Context, fromX, fromY, x, y float64) {
	xs, ys := arrowHead(fromX, fromY, x, y)
	dc.SetColor(colorEdgeArrow)
	dc.NewSubPath()
	dc.MoveTo(xs[0], ys[0])
	dc.LineTo(xs[1], ys[1])
	dc.LineTo(xs[2], ys[2])
	dc.ClosePath()
	dc.Fill()
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Summary.Path, 32, 64, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("cards: %d  links: %d", layout.Summary.NodeCount, layout.Summary.EdgeCount), 32, 84, 0, 0.5)
	if layout.Summary.Warning != "" {
		dc.SetColor(colorWarn)
		dc.DrawStringAnchored(layout.Summary.Warning, 32, 104, 0, 0.5)
	}
}

func drawLegend(dc *gg.Context, layout layoutResult) {
	boxW := 180.0
	boxH := 64.0
	x := float64(layout.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+18, 0, 0.5)
	drawLegendRow(dc, x+12, y+36, colorCard, "Card")
	drawLegendRow(dc, x+12, y+52, colorPlane, "Card with children")
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, layout layoutResult) {
	canvas.Text(32, 44, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, layout.Summary.Path, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, fmt.Sprintf("cards: %d  links: %d", layout.Summary.NodeCount, layout.Summary.EdgeCount), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	if layout.Summary.Warning != "" {
		canvas.Text(32, 104, layout.Summary.Warning, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorWarn)))
	}
}

func drawLegendSVG(canvas *svg.SVG, layout layoutResult) {
	boxW := 180
	boxH := 64
	x := layout.Width - boxW - 20
	y := 24
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendRowSVG(canvas, x+12, y+36, colorCard, "Card")
	drawLegendRowSVG(canvas, x+12, y+52, colorPlane, "Card with children")
}

func drawLegendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+20, y, label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
