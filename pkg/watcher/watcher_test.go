package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// revisionStamp reads a file holding a bare revision number.
func revisionStamp(path string) (Stamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stamp{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Stamp{}, fmt.Errorf("bad revision %q", data)
	}
	return Stamp{Version: n, SavedAt: time.Unix(int64(n), 0)}, nil
}

func writeRevision(t *testing.T, path, rev string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(rev), 0o644); err != nil {
		t.Fatal(err)
	}
}

// saveRevision replaces the file the way the snapshot store does.
func saveRevision(t *testing.T, path, rev string) {
	t.Helper()
	tmp := path + ".tmp"
	writeRevision(t, tmp, rev)
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, path string, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{
		WithDebounce(30 * time.Millisecond),
		WithPollInterval(20 * time.Millisecond),
		WithStamp(revisionStamp),
	}, opts...)
	w, err := NewWatcher(path, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func nextChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes():
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	return Change{}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case c := <-w.Changes():
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(d):
	}
}

func TestWatcher_ReportsNewRevision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "1")
	w := startWatcher(t, path)
	if w.Last().Version != 1 {
		t.Fatalf("initial revision = %s", w.Last())
	}
	time.Sleep(50 * time.Millisecond)

	saveRevision(t, path, "2")
	c := nextChange(t, w)
	if c.Err != nil || c.Removed {
		t.Fatalf("change = %+v", c)
	}
	if c.Stamp.Version != 2 {
		t.Errorf("reported %s, want revision 2", c.Stamp)
	}
	if !w.Last().Equal(c.Stamp) {
		t.Errorf("Last = %s, want %s", w.Last(), c.Stamp)
	}
}

func TestWatcher_PollingReportsNewRevision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "1")
	w := startWatcher(t, path, WithForcePoll(true))
	if !w.Polling() {
		t.Fatal("expected polling")
	}

	saveRevision(t, path, "22")
	if c := nextChange(t, w); c.Stamp.Version != 22 {
		t.Errorf("reported %+v, want revision 22", c)
	}
}

func TestWatcher_SameRevisionNotReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "7")
	w := startWatcher(t, path, WithForcePoll(true))

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w, 200*time.Millisecond)

	writeRevision(t, path, "88")
	if c := nextChange(t, w); c.Stamp.Version != 88 {
		t.Errorf("reported %+v, want revision 88", c)
	}
}

func TestWatcher_ReportsRemovalOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "1")
	w := startWatcher(t, path, WithForcePoll(true))

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	c := nextChange(t, w)
	if !c.Removed || !errors.Is(c.Err, ErrFileRemoved) {
		t.Fatalf("change = %+v, want removal", c)
	}
	if !w.Last().IsZero() {
		t.Errorf("Last = %s after removal", w.Last())
	}
	expectQuiet(t, w, 100*time.Millisecond)

	writeRevision(t, path, "3")
	if c := nextChange(t, w); c.Stamp.Version != 3 {
		t.Errorf("reported %+v after recreation", c)
	}
}

func TestWatcher_CreatedAfterStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	w := startWatcher(t, path, WithForcePoll(true))
	if !w.Last().IsZero() {
		t.Fatalf("Last = %s for a missing file", w.Last())
	}

	writeRevision(t, path, "1")
	if c := nextChange(t, w); c.Stamp.Version != 1 {
		t.Errorf("reported %+v", c)
	}
}

func TestWatcher_UnreadableRevisionReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "1")
	w := startWatcher(t, path, WithForcePoll(true))

	writeRevision(t, path, "half-written")
	c := nextChange(t, w)
	if c.Err == nil || c.Removed {
		t.Errorf("change = %+v, want a stamp error", c)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	writeRevision(t, path, "1")
	w := startWatcher(t, path, WithForcePoll(true))

	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v", err)
	}
	w.Stop()
	w.Stop()

	writeRevision(t, path, "22")
	expectQuiet(t, w, 150*time.Millisecond)
}

func TestWatcher_LatestReportWins(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "canvas.json"))
	if err != nil {
		t.Fatal(err)
	}
	w.send(Change{Stamp: Stamp{Version: 1}})
	w.send(Change{Stamp: Stamp{Version: 2}})
	if c := <-w.Changes(); c.Stamp.Version != 2 {
		t.Errorf("read %+v, want the newer report", c)
	}
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	if _, err := NewWatcher(""); err == nil {
		t.Error("expected an error for an empty path")
	}
}

func TestModTimeStamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.json")
	if _, err := ModTimeStamp(path); !os.IsNotExist(err) {
		t.Errorf("missing file: err = %v", err)
	}
	writeRevision(t, path, "1")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}
	st, err := ModTimeStamp(path)
	if err != nil {
		t.Fatal(err)
	}
	if !st.SavedAt.Equal(at) || st.Version != 0 {
		t.Errorf("stamp = %s, want mtime %s", st, at)
	}
}

func TestStampEqual(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Stamp{Version: 1, SavedAt: at}
	b := Stamp{Version: 1, SavedAt: at.In(time.FixedZone("x", 3600))}
	if !a.Equal(b) {
		t.Error("same instant in another zone should be equal")
	}
	if a.Equal(Stamp{Version: 2, SavedAt: at}) {
		t.Error("different versions compared equal")
	}
	if !(Stamp{}).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}
