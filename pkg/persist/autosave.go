package persist

import (
	"context"
	"sync"
	"time"

	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/watcher"
)

// AutoSaver coalesces dirty notifications into one save after a quiet
// period.
//
// Capturing a snapshot must happen on the goroutine that owns the graph. By
// default the debounced save runs capture on the timer goroutine; callers
// with an event loop pass WithDispatch so the timer only posts a request and
// the loop calls Flush itself.
type AutoSaver struct {
	store     Store
	capture   func() Snapshot
	debounce  *watcher.Debouncer
	dispatch  func()
	afterSave func(error)

	mu    sync.Mutex
	dirty bool
	saves int
}

// AutoSaveOption configures an AutoSaver.
type AutoSaveOption func(*AutoSaver)

// WithDispatch replaces the timer-goroutine save with fn, which should
// arrange for Flush to be called on the owning goroutine.
func WithDispatch(fn func()) AutoSaveOption {
	return func(a *AutoSaver) { a.dispatch = fn }
}

// WithAfterSave registers fn to run after every save attempt.
func WithAfterSave(fn func(error)) AutoSaveOption {
	return func(a *AutoSaver) { a.afterSave = fn }
}

// NewAutoSaver returns a saver writing capture() to store delay after the
// last MarkDirty.
func NewAutoSaver(store Store, capture func() Snapshot, delay time.Duration, opts ...AutoSaveOption) *AutoSaver {
	a := &AutoSaver{
		store:    store,
		capture:  capture,
		debounce: watcher.NewDebouncer(delay),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MarkDirty records a mutation and restarts the quiet-period timer.
func (a *AutoSaver) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
	a.debounce.Trigger(a.fire)
}

func (a *AutoSaver) fire() {
	if a.dispatch != nil {
		a.dispatch()
		return
	}
	_ = a.Flush(context.Background())
}

// Dirty reports whether there are unsaved mutations.
func (a *AutoSaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Pending reports whether a debounced save is scheduled.
func (a *AutoSaver) Pending() bool {
	return a.debounce.Pending()
}

// Saves returns the number of successful saves.
func (a *AutoSaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// Flush saves immediately if anything is dirty. A failed save leaves the
// saver dirty so the next flush retries.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	a.dirty = false
	a.mu.Unlock()

	err := a.store.Save(ctx, a.capture())

	a.mu.Lock()
	if err != nil {
		a.dirty = true
	} else {
		a.saves++
	}
	a.mu.Unlock()

	if err != nil {
		debug.Log("autosave failed: %v", err)
	}
	if a.afterSave != nil {
		a.afterSave(err)
	}
	return err
}

// Stop cancels any pending timer and flushes outstanding changes.
func (a *AutoSaver) Stop(ctx context.Context) error {
	a.debounce.Cancel()
	return a.Flush(ctx)
}
