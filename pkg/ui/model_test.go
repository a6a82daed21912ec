package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/interact"
	"github.com/vanderheijden86/storyweb/pkg/model"
	"github.com/vanderheijden86/storyweb/pkg/persist"
	"github.com/vanderheijden86/storyweb/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.UI.ContentPreview = false
	cfg.Storage.AutosaveDelay = time.Hour
	return cfg
}

// newTestModel wraps the renderer scene in a sized model.
func newTestModel(t *testing.T, backend persist.Store) (*Model, *scene) {
	t.Helper()
	sc := newScene(t)
	m := New(sc.store, sc.view, Options{Config: testConfig(), Backend: backend})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 31})
	return m, sc
}

func hasEntityNamed(s *graph.Store, name string) bool {
	for _, e := range s.Entities() {
		if e.Name == name {
			return true
		}
	}
	return false
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func press(cx, cy int) tea.MouseMsg {
	return tea.MouseMsg{X: cx, Y: cy, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func release(cx, cy int) tea.MouseMsg {
	return tea.MouseMsg{X: cx, Y: cy, Action: tea.MouseActionRelease}
}

func TestModelViewBeforeResize(t *testing.T) {
	sc := newScene(t)
	m := New(sc.store, sc.view, Options{Config: testConfig()})
	if got := m.View(); !strings.Contains(got, "Loading") {
		t.Errorf("View before size = %q", got)
	}
}

func TestModelViewDrawsCanvasAndStatus(t *testing.T) {
	m, _ := newTestModel(t, nil)
	out := m.View()
	for _, want := range []string{"Thief", "Blade", "ROOT", "zoom 1.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("view is missing %q", want)
		}
	}
	if w, h := m.view.ScreenSize(); w != 800 || h != 480 {
		t.Errorf("screen = %vx%v, want 800x480", w, h)
	}
}

func TestModelNewCardKey(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.Update(runes("n"))
	if sc.store.Len() != 4 {
		t.Fatalf("store has %d cards, want 4", sc.store.Len())
	}
	if m.ctl.State().Selection.Len() != 1 {
		t.Error("new card should be selected")
	}
}

func TestModelRenameFlow(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.ctl.Select(sc.thief)
	m.Update(runes("r"))
	if m.ed == nil || m.ed.kind != editTitle {
		t.Fatalf("rename editor not open: %+v", m.ed)
	}
	m.Update(runes("X"))
	m.Update(key(tea.KeyEnter))
	if m.ed != nil {
		t.Error("editor still open after enter")
	}
	if got := sc.store.Entity(sc.thief).Name; got != "ThiefX" {
		t.Errorf("name = %q", got)
	}
}

func TestModelRenameCancel(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.ctl.Select(sc.thief)
	m.Update(runes("r"))
	m.Update(runes("zzz"))
	m.Update(key(tea.KeyEsc))
	if got := sc.store.Entity(sc.thief).Name; got != "Thief" {
		t.Errorf("name = %q after cancel", got)
	}
	if m.ctl.State().Rename != nil {
		t.Error("rename state left behind")
	}
}

func TestModelAddRowWithSuggestion(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.ctl.Select(sc.thief)
	m.Update(runes("a"))
	if m.ed == nil || !m.ed.onKey {
		t.Fatal("new row editor should start on the key")
	}
	m.Update(runes("weapon"))
	m.Update(key(tea.KeyTab))
	m.Update(runes("Bl"))
	if d := m.ctl.State().Dropdown; d == nil || len(d.Options) != 1 {
		t.Fatalf("dropdown = %+v, want Blade", d)
	}
	m.Update(key(tea.KeyEnter)) // pick
	if got := m.ed.value.Value(); got != "Blade" {
		t.Fatalf("value after pick = %q", got)
	}
	m.Update(key(tea.KeyEnter)) // commit

	var got model.Attribute
	for _, a := range sc.store.OwnAttrs(sc.thief) {
		if a.Key == "weapon" {
			got = a
		}
	}
	if got.Kind != model.KindEntity || got.EntityID != sc.blade {
		t.Errorf("weapon = %+v, want entity Blade", got)
	}
	if m.ed == nil || m.ed.ref.Row != 2 {
		t.Fatalf("enter should offer another blank row, editor = %+v", m.ed)
	}
	m.Update(key(tea.KeyEsc))
	if m.ed != nil {
		t.Error("esc should close the blank row")
	}
	if n := len(sc.store.TrueOwnAttrs(sc.thief)); n != 2 {
		t.Errorf("own rows = %d, want 2", n)
	}
}

func TestModelEnterOnLastRowAppendsBlankRow(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.ctl.Select(sc.thief)
	m.openRow(interact.RowRef{CardID: sc.thief, Row: 0})
	m.Update(key(tea.KeyEnter))
	if m.ed == nil || m.ed.ref.Row != 1 || !m.ed.onKey {
		t.Fatalf("blank row not focused: %+v", m.ed)
	}
	if n := len(sc.store.TrueOwnAttrs(sc.thief)); n != 2 {
		t.Fatalf("own rows = %d, want 2", n)
	}
	// enter on the empty last row deletes it again
	m.Update(key(tea.KeyEnter))
	if n := len(sc.store.TrueOwnAttrs(sc.thief)); n != 1 {
		t.Errorf("own rows = %d after enter on blank row, want 1", n)
	}
}

func TestModelInheritedKeyLocked(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.openRow(interact.RowRef{CardID: sc.thief, Inherited: true, Key: "role"})
	if m.ed == nil || !m.ed.keyLocked || m.ed.onKey {
		t.Fatalf("inherited row should open on a locked key: %+v", m.ed)
	}
	m.Update(key(tea.KeyTab))
	if m.ed.onKey {
		t.Error("tab moved onto a locked key")
	}
	m.Update(key(tea.KeyCtrlU))
	if m.ed.keyLocked || !m.ed.onKey {
		t.Error("ctrl+u should unlock and focus the key")
	}
	m.Update(key(tea.KeyEsc))

	m.openRow(interact.RowRef{CardID: sc.thief, Inherited: true, Key: "role"})
	m.Update(runes("spy"))
	m.Update(key(tea.KeyEnter))
	for _, a := range sc.store.EffectiveAttrs(sc.thief) {
		if a.Key == "role" && a.Value != "spy" {
			t.Errorf("override = %q, want spy", a.Value)
		}
	}
}

func TestModelDoubleClickOpensRow(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.Update(press(5, 4))
	m.Update(release(5, 4))
	m.Update(press(5, 4))
	if m.ed == nil || m.ed.kind != editRow || m.ed.ref.Row != 0 || m.ed.cardID != sc.thief {
		t.Fatalf("double click did not open the mood row: %+v", m.ed)
	}
	// clicking elsewhere commits and closes
	m.Update(press(40, 20))
	m.Update(release(40, 20))
	if m.ed != nil {
		t.Error("editor still open")
	}
}

func TestModelWheelZooms(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(tea.MouseMsg{X: 40, Y: 12, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if z := m.view.Zoom(); z <= 1 {
		t.Errorf("zoom = %v after wheel up", z)
	}
	m.Update(runes("0"))
	if z := m.view.Zoom(); z != 1 {
		t.Errorf("zoom = %v after reset", z)
	}
}

func TestModelArrowPans(t *testing.T) {
	m, _ := newTestModel(t, nil)
	x0, _ := m.view.View()
	m.Update(key(tea.KeyLeft))
	if x, _ := m.view.View(); x != x0+32 {
		t.Errorf("view x = %v, want %v", x, x0+32)
	}
}

func TestModelHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "unlock inherited key") {
		t.Fatal("help not shown")
	}
	m.Update(runes("x"))
	if m.showHelp {
		t.Error("any key should close help")
	}
}

func TestModelStatusShowsCycle(t *testing.T) {
	m, sc := newTestModel(t, nil)
	sc.store.Contain(sc.thief, sc.guild)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 31})
	if !strings.Contains(m.View(), "containment cycle") {
		t.Error("cycle warning missing from the status bar")
	}
}

func TestModelAutosaveAndQuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	backend := persist.NewFileStore(path)
	m, sc := newTestModel(t, backend)

	m.Update(runes("n"))
	if !m.saver.Dirty() {
		t.Fatal("new card should mark the saver dirty")
	}
	m.Update(saveRequestMsg{})
	if m.saver.Dirty() {
		t.Fatal("save request should flush")
	}
	snap, err := backend.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Cards) != 4 {
		t.Errorf("saved %d cards, want 4", len(snap.Cards))
	}

	m.ctl.Select(sc.thief)
	m.Update(runes("x"))
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	snap, err = backend.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Cards) != 3 {
		t.Errorf("quit should flush the delete, saved %d cards", len(snap.Cards))
	}
}

func TestModelReloadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	backend := persist.NewFileStore(path)
	m, sc := newTestModel(t, backend)
	m.Update(saveRequestMsg{})

	other := graph.NewStore()
	e := other.CreateEntity()
	other.SetName(e.ID, "Stranger")
	if err := backend.Save(context.Background(), persist.Capture(other, nil)); err != nil {
		t.Fatal(err)
	}
	stamp, err := persist.ReadStamp(path)
	if err != nil {
		t.Fatal(err)
	}

	m.Update(FileChangedMsg{Change: watcher.Change{Stamp: stamp}})
	if sc.store.Len() != 1 || !hasEntityNamed(sc.store, "Stranger") {
		t.Fatalf("store not reloaded: %v", sc.store.IDs())
	}
	if m.saver.Dirty() {
		t.Error("reload must not mark the saver dirty")
	}
	if !strings.Contains(m.View(), "Stranger") {
		t.Error("reloaded card not drawn")
	}
}

func TestModelReloadKeepsUnsavedEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	backend := persist.NewFileStore(path)
	m, sc := newTestModel(t, backend)
	m.Update(saveRequestMsg{})
	m.Update(runes("n"))

	if err := backend.Save(context.Background(), persist.Capture(graph.NewStore(), nil)); err != nil {
		t.Fatal(err)
	}
	m.Update(FileChangedMsg{Change: watcher.Change{Stamp: watcher.Stamp{Version: 1, SavedAt: time.Now()}}})
	if sc.store.Len() != 4 {
		t.Errorf("unsaved edits were replaced, store has %d cards", sc.store.Len())
	}
	if !m.statusWarn {
		t.Error("expected a warning in the status bar")
	}
}

func TestModelSkipsOwnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	backend := persist.NewFileStore(path)
	m, sc := newTestModel(t, backend)
	m.Update(runes("n"))
	m.Update(saveRequestMsg{})
	if m.saver.Dirty() {
		t.Fatal("save did not run")
	}
	stamp, err := persist.ReadStamp(path)
	if err != nil {
		t.Fatal(err)
	}

	m.setStatus("", false)
	m.Update(FileChangedMsg{Change: watcher.Change{Stamp: stamp}})
	if strings.Contains(m.status, "reloaded") {
		t.Errorf("own save was reloaded: status %q", m.status)
	}

	// Another writer saving the same content is still a foreign revision.
	snap := persist.Capture(sc.store, sc.view)
	if err := backend.Save(context.Background(), snap); err != nil {
		t.Fatal(err)
	}
	foreign, err := persist.ReadStamp(path)
	if err != nil {
		t.Fatal(err)
	}
	if foreign.Equal(stamp) {
		t.Fatal("second save reused the stamp")
	}
	m.Update(FileChangedMsg{Change: watcher.Change{Stamp: foreign}})
	if !strings.Contains(m.status, "reloaded") {
		t.Errorf("foreign save not reloaded: status %q", m.status)
	}
}

func TestModelReportsRemovedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	m, sc := newTestModel(t, persist.NewFileStore(path))
	before := sc.store.Len()

	m.Update(FileChangedMsg{Change: watcher.Change{Removed: true, Err: watcher.ErrFileRemoved}})
	if !m.statusWarn || !strings.Contains(m.status, "removed") {
		t.Errorf("status = %q, want a removal warning", m.status)
	}
	if sc.store.Len() != before {
		t.Error("removal must not clear the canvas")
	}
}

func TestModelEditorClosesWhenRowTurnsInherited(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.openRow(interact.RowRef{CardID: sc.thief, Row: 0})
	if m.ed == nil || m.ed.binding == nil {
		t.Fatalf("mood row editor should carry its binding: %+v", m.ed)
	}

	sc.store.SetAttr(sc.guild, model.TextAttr("mood", "tense"))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 31})
	if m.ed != nil {
		t.Fatal("editor should close once its row turned inherited")
	}
	if !m.statusWarn || !strings.Contains(m.status, "row changed") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelEditorSurvivesRedraw(t *testing.T) {
	m, sc := newTestModel(t, nil)
	m.openRow(interact.RowRef{CardID: sc.thief, Row: 0})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 31})
	if m.ed == nil {
		t.Error("a redraw with unchanged rows closed the editor")
	}
}
