// Package watcher follows the canvas snapshot file and reports rewrites.
// Every report carries the stamp of the revision now on disk, so an editor
// that remembers the stamp of its own last save can tell its writes apart
// from another process's. The package also provides the Debouncer that
// coalesces filesystem events and autosave requests.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/debug"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often a polling watcher stats the file.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrFileRemoved is reported when the snapshot file disappears.
	ErrFileRemoved = errors.New("snapshot file removed")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Stamp identifies one saved revision of the snapshot.
type Stamp struct {
	Version int
	SavedAt time.Time
}

// IsZero reports whether s carries no revision information.
func (s Stamp) IsZero() bool { return s.Version == 0 && s.SavedAt.IsZero() }

// Equal reports whether s and o name the same revision.
func (s Stamp) Equal(o Stamp) bool {
	return s.Version == o.Version && s.SavedAt.Equal(o.SavedAt)
}

func (s Stamp) String() string {
	if s.IsZero() {
		return "unstamped"
	}
	return fmt.Sprintf("v%d@%s", s.Version, s.SavedAt.Format(time.RFC3339Nano))
}

// StampFunc reads the stamp of the file at path.
type StampFunc func(path string) (Stamp, error)

// ModTimeStamp stamps a file by its modification time, for files that
// record no revision of their own.
func ModTimeStamp(path string) (Stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{SavedAt: info.ModTime()}, nil
}

// Change is one report from a Watcher. Exactly one of Stamp, Removed and
// Err is meaningful.
type Change struct {
	Stamp   Stamp
	Removed bool
	Err     error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last filesystem event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval used when polling.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithForcePoll skips fsnotify and polls even on local disks.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithStamp sets how revisions are read; the default is ModTimeStamp.
func WithStamp(fn StampFunc) Option {
	return func(w *Watcher) {
		if fn != nil {
			w.stamp = fn
		}
	}
}

// Watcher reports new revisions of one snapshot file. A revision whose
// stamp equals the last one seen is not reported again, so touching the
// file or a burst of events for a single save yields at most one Change.
type Watcher struct {
	path      string
	debounce  time.Duration
	interval  time.Duration
	forcePoll bool
	stamp     StampFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	fsw     *fsnotify.Watcher
	polling bool
	fsType  FilesystemType
	last    Stamp
	present bool
	mtime   time.Time
	size    int64

	debouncer *Debouncer
	changes   chan Change
}

// NewWatcher returns a stopped watcher for the snapshot at path. The file
// need not exist yet.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watcher: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounceDuration,
		interval: DefaultPollInterval,
		stamp:    ModTimeStamp,
		changes:  make(chan Change, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start records the current revision and begins watching. It falls back to
// polling on network and FUSE mounts, when forced, and when fsnotify cannot
// watch the directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrAlreadyStarted
	}

	w.fsType = DetectFilesystemType(w.path)
	w.polling = w.forcePoll || isRemoteFilesystem(w.fsType)
	w.last, _ = w.stamp(w.path)
	w.present, w.mtime, w.size = statFile(w.path)

	ctx, cancel := context.WithCancel(context.Background())
	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(w.path)); err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", w.path, err)
			w.polling = true
		} else {
			w.fsw = fsw
			go w.runEvents(ctx, fsw)
		}
	}
	if w.polling {
		go w.runPolling(ctx)
	}
	w.cancel = cancel
	debug.Log("watcher: %s on %s fs, polling=%v, at %s", w.path, w.fsType, w.polling, w.last)
	return nil
}

// Stop ends watching and drops any debounced check. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
}

// Changes delivers reports. Only the newest unread report is kept.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Polling reports whether the watcher stats the file instead of using
// fsnotify.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// Last returns the most recent revision seen on disk.
func (w *Watcher) Last() Stamp {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Watcher) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *Watcher) runEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if present, _, _ := statFile(w.path); !present {
					w.removed()
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.debouncer.Trigger(w.check)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.send(Change{Err: err})
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		present, mtime, size := statFile(w.path)
		if !present {
			w.removed()
			continue
		}
		w.mu.Lock()
		moved := !w.present || !mtime.Equal(w.mtime) || size != w.size
		w.present, w.mtime, w.size = true, mtime, size
		w.mu.Unlock()
		if moved {
			w.debouncer.Trigger(w.check)
		}
	}
}

// removed reports a disappearance once per removal.
func (w *Watcher) removed() {
	w.mu.Lock()
	was := w.present
	w.present, w.last = false, Stamp{}
	w.mu.Unlock()
	if was {
		w.send(Change{Removed: true, Err: ErrFileRemoved})
	}
}

// check reads the revision on disk and reports it unless it is the one
// already seen.
func (w *Watcher) check() {
	if !w.running() {
		return
	}
	st, err := w.stamp(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.send(Change{Err: err})
		}
		return
	}
	w.mu.Lock()
	seen := !st.IsZero() && st.Equal(w.last)
	w.last, w.present = st, true
	w.mu.Unlock()
	if seen {
		return
	}
	w.send(Change{Stamp: st})
}

// send replaces an unread report with c.
func (w *Watcher) send(c Change) {
	for {
		select {
		case w.changes <- c:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}

func statFile(path string) (bool, time.Time, int64) {
	info, err := os.Stat(path)
	if err != nil {
		return false, time.Time{}, 0
	}
	return true, info.ModTime(), info.Size()
}
