package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/analysis"
	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/persist"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
	"github.com/vanderheijden86/storyweb/pkg/watcher"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	doubleClickWindow = 400 * time.Millisecond
	panStepCells      = 4
	wheelNotch        = 120
)

// FileChangedMsg carries a watcher report about the snapshot file.
type FileChangedMsg struct {
	Change watcher.Change
}

// saveRequestMsg asks the event loop to run a pending autosave.
type saveRequestMsg struct{}

// frameMsg drives momentum and card effects.
type frameMsg struct{}

// WatchFileCmd returns a command that waits for the next watcher report
// and sends it as a FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Change: <-w.Changes()}
	}
}

func waitForSaveCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return saveRequestMsg{}
	}
}

// Options configure a Model.
type Options struct {
	Config  config.Config
	Backend persist.Store // nil disables saving
	Watcher *watcher.Watcher
	Notice  string // shown in the status bar at start
}

// Model is the bubbletea model of the canvas: one plane of cards drawn on
// a cell grid, a status bar and optional preview and help panes.
type Model struct {
	cfg   config.Config
	theme Theme

	store *graph.Store
	view  *viewport.Engine
	ctl   *interact.Controller
	r     *Renderer

	backend persist.Store
	saver   *persist.AutoSaver
	saveReq chan struct{}
	watcher *watcher.Watcher
	written watcher.Stamp // revision of our last save
	saveErr error

	report  analysis.Report
	stale   bool
	loading bool

	ed          *editor
	preview     *previewPane
	showPreview bool
	showHelp    bool

	width, height int
	button        interact.Button
	lastClick     time.Time
	lastCell      [2]int
	ticking       bool

	status     string
	statusWarn bool
	quitting   bool
}

// New wires a model over an already loaded store and viewport.
func New(store *graph.Store, view *viewport.Engine, opts Options) *Model {
	m := &Model{
		cfg:         opts.Config,
		theme:       DefaultTheme(lipgloss.DefaultRenderer()),
		store:       store,
		view:        view,
		backend:     opts.Backend,
		watcher:     opts.Watcher,
		saveReq:     make(chan struct{}, 1),
		preview:     newPreviewPane(),
		showPreview: opts.Config.UI.ContentPreview,
		stale:       true,
	}
	m.r = NewRenderer(store, view, opts.Config.UI)
	m.ctl = interact.New(store, view, m.r)
	m.r.SetBindings(m.ctl.Bindings())

	if m.backend != nil {
		m.saver = persist.NewAutoSaver(m.backend,
			m.captureForSave,
			opts.Config.Storage.AutosaveDelay,
			persist.WithDispatch(func() {
				select {
				case m.saveReq <- struct{}{}:
				default:
				}
			}),
			persist.WithAfterSave(m.afterSave),
		)
	}
	store.SetDirtyHook(func() {
		m.stale = true
		m.markDirty()
	})
	view.SetDirtyHook(m.markDirty)

	if opts.Notice != "" {
		m.setStatus(opts.Notice, true)
	}
	m.refreshAnalysis()
	return m
}

// Controller exposes the interaction controller.
func (m *Model) Controller() *interact.Controller { return m.ctl }

func (m *Model) markDirty() {
	if m.saver != nil && !m.loading {
		m.saver.MarkDirty()
	}
}

func (m *Model) afterSave(err error) {
	m.saveErr = err
	if err != nil {
		m.setStatus("save failed: "+err.Error(), true)
	}
}

// captureForSave stamps the snapshot before the store writes it, so the
// watcher report for the write can be recognised whatever its timing.
func (m *Model) captureForSave() persist.Snapshot {
	snap := persist.Capture(m.store, m.view).Stamped()
	m.written = snap.Stamp()
	return snap
}

func (m *Model) setStatus(msg string, warn bool) {
	m.status, m.statusWarn = msg, warn
}

func (m *Model) refreshAnalysis() {
	if !m.stale {
		return
	}
	m.report = analysis.Analyze(m.store)
	m.stale = false
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSaveCmd(m.saveReq)}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case frameMsg:
		m.ticking = false
		if m.view.Coasting() {
			m.view.StepMomentum()
		}

	case saveRequestMsg:
		m.flush()
		cmds = append(cmds, waitForSaveCmd(m.saveReq))

	case FileChangedMsg:
		m.fileChanged(msg.Change)
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}
	}

	if m.quitting {
		return m, tea.Quit
	}
	m.refreshAnalysis()
	m.syncEditor()
	if !m.ticking && (m.view.Coasting() || m.r.Animating()) {
		m.ticking = true
		cmds = append(cmds, tea.Tick(m.cfg.UI.FrameInterval, func(time.Time) tea.Msg {
			return frameMsg{}
		}))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) syncEditor() {
	if m.ed == nil {
		m.r.SetEditing(nil)
		return
	}
	if !m.store.Has(m.ed.cardID) {
		m.ed = nil
		m.r.SetEditing(nil)
		return
	}
	if m.ed.binding != nil && !m.ctl.Bindings().Bound(*m.ed.binding) {
		// the row under the editor moved or turned own/inherited
		m.cancelEditor()
		m.r.SetEditing(nil)
		m.setStatus("row changed; edit discarded", true)
		return
	}
	m.r.SetEditing(m.ed.mark())
}

// canvasSize is the grid size left for cards in cells.
func (m *Model) canvasSize() (int, int) {
	w, h := m.width, m.height-1
	if m.showPreview && w > previewWidth*2 {
		w -= previewWidth
	}
	return max(w, 0), max(h, 0)
}

func (m *Model) resize() {
	w, h := m.canvasSize()
	m.view.SetScreenSize(m.r.ScreenPixels(w, h))
	m.ctl.RenderPlane()
}

func (m *Model) screenCenter() (float64, float64) {
	w, h := m.view.ScreenSize()
	return w / 2, h / 2
}

func mapButton(b tea.MouseButton) (interact.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return interact.ButtonPrimary, true
	case tea.MouseButtonMiddle:
		return interact.ButtonMiddle, true
	case tea.MouseButtonRight:
		return interact.ButtonSecondary, true
	}
	return 0, false
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	w, h := m.canvasSize()
	inCanvas := msg.X < w && msg.Y < h
	px, py := m.r.CellCenter(msg.X, msg.Y)
	mods := interact.Modifiers{Ctrl: msg.Ctrl, Alt: msg.Alt, Shift: msg.Shift}

	switch msg.Action {
	case tea.MouseActionPress:
		if !inCanvas {
			return
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			delta := float64(wheelNotch)
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -delta
			}
			m.ctl.HandleWheel(interact.WheelEvent{X: px, Y: py, DeltaY: delta, Mods: mods})
			return
		}
		btn, ok := mapButton(msg.Button)
		if !ok {
			return
		}
		t := m.r.ElementAt(px, py)
		if m.ed != nil && t.Kind != interact.TargetEditable {
			m.commitEditor()
			m.syncEditor()
			t = m.r.ElementAt(px, py)
		}
		cell := [2]int{msg.X, msg.Y}
		now := time.Now()
		double := btn == interact.ButtonPrimary && !mods.Ctrl &&
			cell == m.lastCell && now.Sub(m.lastClick) < doubleClickWindow
		m.lastClick, m.lastCell = now, cell
		if double && m.openTarget(t) {
			m.lastClick = time.Time{}
			return
		}
		m.button = btn
		m.ctl.HandlePointer(interact.PointerEvent{Kind: interact.PointerDown, X: px, Y: py, Button: btn, Mods: mods})

	case tea.MouseActionMotion:
		m.ctl.HandlePointer(interact.PointerEvent{Kind: interact.PointerMove, X: px, Y: py, Button: m.button, Mods: mods})

	case tea.MouseActionRelease:
		m.ctl.HandlePointer(interact.PointerEvent{Kind: interact.PointerUp, X: px, Y: py, Button: m.button, Mods: mods})
		m.button = 0
	}
}

// single returns the only selected card, or 0.
func (m *Model) single() int {
	ids := m.ctl.State().Selection.IDs()
	if len(ids) != 1 {
		return 0
	}
	return ids[0]
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.ed != nil {
		return m.updateEditor(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return nil
	}

	key := msg.String()
	step := float64(panStepCells) * m.cfg.UI.CellWidth
	vstep := float64(panStepCells/2) * m.cfg.UI.CellHeight

	switch key {
	case "ctrl+c", "q":
		m.quit()
		return nil
	case "?":
		m.showHelp = true
	case "ctrl+s":
		m.flush()
		if m.saveErr == nil && m.backend != nil {
			m.setStatus("saved to "+m.backend.Path(), false)
		}
	case "left", "h":
		m.view.Pan(step, 0)
	case "right", "l":
		m.view.Pan(-step, 0)
	case "up", "k":
		m.view.Pan(0, vstep)
	case "down", "j":
		m.view.Pan(0, -vstep)
	case "+", "=":
		x, y := m.screenCenter()
		m.ctl.HandleWheel(interact.WheelEvent{X: x, Y: y, DeltaY: -wheelNotch})
	case "-":
		x, y := m.screenCenter()
		m.ctl.HandleWheel(interact.WheelEvent{X: x, Y: y, DeltaY: wheelNotch})
	case "0":
		m.view.ResetZoom()
		m.ctl.RenderPlane()
	case ".":
		m.view.CenterOnContent()
	case "tab":
		m.selectNext()
	case "r", "f2":
		if id := m.single(); id != 0 {
			m.openRename(id)
		}
	case "e":
		if id := m.single(); id != 0 {
			if rows := displayRows(m.store, id); len(rows) > 0 {
				m.openRow(rows[0].ref)
			} else {
				m.openNewRow(id)
			}
		}
	case "a":
		if id := m.single(); id != 0 {
			m.openNewRow(id)
		}
	case "t":
		if id := m.single(); id != 0 {
			m.openField(id, editType)
		}
	case "c":
		if id := m.single(); id != 0 {
			m.openField(id, editContent)
		}
	case "v":
		m.variantOfSelection()
	case "y":
		m.copyNames()
	case "p":
		m.showPreview = !m.showPreview
		m.resize()
	default:
		if !m.ctl.HandleKey(interact.KeyEvent{Key: key}) {
			return nil
		}
	}
	return nil
}

// selectNext moves a single selection to the next card in display order.
func (m *Model) selectNext() {
	ids := m.view.OnPlane()
	if len(ids) == 0 {
		return
	}
	next := ids[0]
	if cur := m.single(); cur != 0 {
		for i, id := range ids {
			if id == cur {
				next = ids[(i+1)%len(ids)]
				break
			}
		}
	}
	m.ctl.Select(next)
	if r, ok := m.r.CardRect(next); ok {
		w, h := m.view.ScreenSize()
		if r.X+r.W < 0 || r.Y+r.H < 0 || r.X > w || r.Y > h {
			m.view.FocusOn(next)
		}
	}
}

// variantOfSelection places a variant of the selected card beside it.
func (m *Model) variantOfSelection() {
	id := m.single()
	if id == 0 {
		return
	}
	r, ok := m.r.CardRect(id)
	if !ok {
		return
	}
	m.ctl.CreateVariantAt(id, r.X+r.W*1.6, r.Y+r.H/2)
}

func (m *Model) copyNames() {
	ids := m.ctl.State().Selection.IDs()
	if len(ids) == 0 {
		return
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if e := m.store.Entity(id); e != nil {
			names = append(names, e.Name)
		}
	}
	if err := clipboard.WriteAll(strings.Join(names, "\n")); err != nil {
		m.setStatus("clipboard: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("copied %d name(s)", len(names)), false)
}

// flush runs a pending autosave now.
func (m *Model) flush() {
	if m.saver == nil {
		return
	}
	if err := m.saver.Flush(context.Background()); err != nil {
		debug.Log("ui: save: %v", err)
	}
}

// quit flushes unsaved work and stops the watcher.
func (m *Model) quit() {
	m.cancelEditor()
	if m.saver != nil {
		if err := m.saver.Stop(context.Background()); err != nil {
			debug.Log("ui: final save: %v", err)
		}
	}
	if m.watcher != nil {
		m.watcher.Stop()
	}
	m.quitting = true
}

// Close flushes unsaved work and stops the watcher unless q already did.
func (m *Model) Close() {
	if !m.quitting {
		m.quit()
	}
}

// reload replaces the graph and viewport with the file on disk. Local edits
// that have not been saved yet win over the external change.
// fileChanged handles one watcher report. Reports of our own saves are
// dropped by stamp.
func (m *Model) fileChanged(c watcher.Change) {
	switch {
	case c.Removed:
		m.setStatus("snapshot file removed; the next save writes it again", true)
	case c.Err != nil:
		m.setStatus("watching snapshot: "+c.Err.Error(), true)
	case !c.Stamp.IsZero() && c.Stamp.Equal(m.written):
		debug.Log("ui: own save %s seen on disk", c.Stamp)
	default:
		m.reload()
	}
}

func (m *Model) reload() {
	if m.backend == nil {
		return
	}
	if m.saver != nil && m.saver.Dirty() {
		m.setStatus("file changed on disk; keeping unsaved edits", true)
		return
	}
	snap, err := m.backend.Load(context.Background())
	if err != nil {
		m.setStatus("reload failed: "+err.Error(), true)
		return
	}
	m.loading = true
	defer func() { m.loading = false }()
	if err := snap.Apply(m.store, m.view); err != nil {
		m.setStatus("reload failed: "+err.Error(), true)
		return
	}
	m.cancelEditor()
	m.ctl.Select()
	m.stale = true
	m.resize()
	m.setStatus("reloaded "+m.backend.Path(), false)
	debug.Log("ui: reloaded %s", m.backend.Path())
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading canvas…"
	}
	w, h := m.canvasSize()
	var body string
	if m.showHelp {
		body = lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, helpView(m.theme))
	} else {
		body = m.r.Draw(w, h).render(m.theme)
	}
	if w < m.width {
		pane := m.preview.View(m.theme, m.store, m.ctl.State().Selection.IDs(), h)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

// breadcrumb names the planes from the root to the current one.
func (m *Model) breadcrumb() string {
	parts := []string{viewport.RootKey}
	for _, f := range m.view.Stack() {
		if e := m.store.Entity(f.EnteredChildID); e != nil {
			parts = append(parts, e.Name)
		}
	}
	return strings.Join(parts, " › ")
}

func (m *Model) statusBar() string {
	t := m.theme
	left := t.StatusKey.Render("SW") + " " + t.Breadcrumb.Render(truncate(m.breadcrumb(), max(m.width/3, 8)))

	var info []string
	info = append(info, fmt.Sprintf("zoom %.2f×", m.view.Zoom()))
	if n := m.ctl.State().Selection.Len(); n > 0 {
		info = append(info, fmt.Sprintf("%d selected", n))
	}
	if mode := m.ctl.State().Mode; mode != interact.ModeIdle {
		info = append(info, mode.String())
	}
	if m.ed != nil {
		info = append(info, "editing "+m.ed.kind.String())
	}
	if m.saver != nil && m.saver.Dirty() {
		info = append(info, "● unsaved")
	}
	mid := t.Renderer.NewStyle().Foreground(t.Subtext).Render("  " + strings.Join(info, " · "))

	var right string
	switch {
	case m.status != "" && m.statusWarn:
		right = t.StatusWarn.Render(m.status)
	case m.report.HasCycles():
		right = t.StatusWarn.Render(m.report.CycleWarning())
	case m.status != "":
		right = t.Renderer.NewStyle().Foreground(t.Subtext).Render(m.status)
	default:
		right = RenderKeyHint("?", "help")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = max(m.width-lipgloss.Width(left)-lipgloss.Width(mid), 0)
	}
	line := left + mid + strings.Repeat(" ", gap) + right
	return t.StatusBar.Width(m.width).MaxWidth(m.width).Render(line)
}
