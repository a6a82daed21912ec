// Package persist serialises the graph and the viewport to a snapshot
// document and stores it in a JSON file or a SQLite database.
//
// Snapshot shape:
//
//	{
//	  "version": 1,
//	  "savedAt": "2024-05-01T12:00:00.123456789Z",
//	  "cards": [Entity...],
//	  "nextId": 7,
//	  "parentsOf":  [[childId, [parentId...]]...],
//	  "childrenOf": [[parentId, [childId...]]...],
//	  "links":      [[sourceId, [targetId...]]...],
//	  "viewport": {
//	    "layouts": [["ROOT", {"viewX": 0, "viewY": 0, "cards": [{"refId": 1, "x": 0, "y": 0}]}], [3, {...}]],
//	    "currentPlane": null,
//	    "viewX": 0, "viewY": 0, "zoom": 1,
//	    "navigationStack": [{"planeId": null, "enteredChildId": 3}]
//	  }
//	}
package persist

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/model"
	"github.com/vanderheijden86/storyweb/pkg/viewport"
	"github.com/vanderheijden86/storyweb/pkg/watcher"
)

// Version is the snapshot format written by this package. Documents without
// a version field are read as version 1.
const Version = 1

var (
	// ErrCorrupt wraps every failure to decode or apply a snapshot.
	ErrCorrupt = errors.New("corrupt snapshot")
	// ErrNotFound is returned by Load when nothing has been saved yet.
	ErrNotFound = errors.New("no snapshot saved")
)

// Pair is one adjacency entry, encoded as [id, [ids...]].
type Pair struct {
	ID  int
	IDs []int
}

func (p Pair) MarshalJSON() ([]byte, error) {
	ids := p.IDs
	if ids == nil {
		ids = []int{}
	}
	return json.Marshal([]any{p.ID, ids})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("adjacency entry has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return fmt.Errorf("adjacency id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.IDs); err != nil {
		return fmt.Errorf("adjacency set of %d: %w", p.ID, err)
	}
	return nil
}

// LayoutEntry is one plane layout, encoded as [planeKey, layout] where
// planeKey is "ROOT" or the plane's entity id.
type LayoutEntry struct {
	Plane  int
	Layout viewport.Layout
}

func (e LayoutEntry) MarshalJSON() ([]byte, error) {
	var key any = e.Plane
	if e.Plane == viewport.Root {
		key = viewport.RootKey
	}
	l := e.Layout
	if l.Cards == nil {
		l.Cards = []viewport.CardPos{}
	}
	return json.Marshal([]any{key, l})
}

func (e *LayoutEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("layout entry has %d elements, want 2", len(raw))
	}
	var key any
	if err := json.Unmarshal(raw[0], &key); err != nil {
		return fmt.Errorf("plane key: %w", err)
	}
	switch k := key.(type) {
	case string:
		plane, ok := viewport.ParsePlaneKey(k)
		if !ok {
			return fmt.Errorf("bad plane key %q", k)
		}
		e.Plane = plane
	case float64:
		if k <= 0 || k != float64(int(k)) {
			return fmt.Errorf("bad plane key %v", k)
		}
		e.Plane = int(k)
	default:
		return fmt.Errorf("bad plane key %s", raw[0])
	}
	return json.Unmarshal(raw[1], &e.Layout)
}

// frame is a navigation stack entry; the root plane is null.
type frame struct {
	PlaneID        *int `json:"planeId"`
	EnteredChildID int  `json:"enteredChildId"`
}

// ViewportSnapshot is the persisted viewport.
type ViewportSnapshot struct {
	Layouts         []LayoutEntry `json:"layouts"`
	CurrentPlane    *int          `json:"currentPlane"`
	ViewX           float64       `json:"viewX"`
	ViewY           float64       `json:"viewY"`
	Zoom            float64       `json:"zoom"`
	NavigationStack []frame       `json:"navigationStack,omitempty"`
}

// Snapshot is the whole persisted document.
type Snapshot struct {
	Version    int              `json:"version"`
	SavedAt    time.Time        `json:"savedAt"`
	Cards      []model.Entity   `json:"cards"`
	NextID     int              `json:"nextId"`
	ParentsOf  []Pair           `json:"parentsOf"`
	ChildrenOf []Pair           `json:"childrenOf"`
	Links      []Pair           `json:"links"`
	Viewport   ViewportSnapshot `json:"viewport"`
}

func planePtr(plane int) *int {
	if plane == viewport.Root {
		return nil
	}
	return &plane
}

func planeOf(p *int) int {
	if p == nil {
		return viewport.Root
	}
	return *p
}

func toPairs(adj []graph.Adjacency) []Pair {
	out := make([]Pair, len(adj))
	for i, a := range adj {
		out[i] = Pair{ID: a.ID, IDs: a.IDs}
	}
	return out
}

func fromPairs(pairs []Pair) []graph.Adjacency {
	out := make([]graph.Adjacency, len(pairs))
	for i, p := range pairs {
		out[i] = graph.Adjacency{ID: p.ID, IDs: p.IDs}
	}
	return out
}

// Stamp identifies the revision s will be, or was, saved as.
func (s Snapshot) Stamp() watcher.Stamp {
	v := s.Version
	if v == 0 {
		v = Version
	}
	return watcher.Stamp{Version: v, SavedAt: s.SavedAt}
}

// Stamped returns s with SavedAt set to now unless it is already set.
// Stores stamp every snapshot they write.
func (s Snapshot) Stamped() Snapshot {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	return s
}

// ReadStamp reads the revision of the json snapshot at path without
// decoding the cards. Documents written before savedAt existed are stamped
// by their modification time.
func ReadStamp(path string) (watcher.Stamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watcher.Stamp{}, err
	}
	var head struct {
		Version int       `json:"version"`
		SavedAt time.Time `json:"savedAt"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return watcher.Stamp{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	st := Snapshot{Version: head.Version, SavedAt: head.SavedAt}.Stamp()
	if st.SavedAt.IsZero() {
		mt, err := watcher.ModTimeStamp(path)
		if err != nil {
			return watcher.Stamp{}, err
		}
		st.SavedAt = mt.SavedAt
	}
	return st, nil
}

// Capture snapshots the store and, when view is non-nil, the viewport.
func Capture(store *graph.Store, view *viewport.Engine) Snapshot {
	st := store.State()
	snap := Snapshot{
		Version:    Version,
		Cards:      st.Cards,
		NextID:     st.NextID,
		ParentsOf:  toPairs(st.ParentsOf),
		ChildrenOf: toPairs(st.ChildrenOf),
		Links:      toPairs(st.Links),
		Viewport:   ViewportSnapshot{Zoom: 1, Layouts: []LayoutEntry{}},
	}
	if snap.Cards == nil {
		snap.Cards = []model.Entity{}
	}
	if view == nil {
		return snap
	}
	vs := view.State()
	snap.Viewport = ViewportSnapshot{
		Layouts:      make([]LayoutEntry, 0, len(vs.Layouts)),
		CurrentPlane: planePtr(vs.CurrentPlane),
		ViewX:        vs.ViewX,
		ViewY:        vs.ViewY,
		Zoom:         vs.Zoom,
	}
	for _, pl := range vs.Layouts {
		snap.Viewport.Layouts = append(snap.Viewport.Layouts, LayoutEntry{Plane: pl.Plane, Layout: pl.Layout})
	}
	for _, f := range vs.Stack {
		snap.Viewport.NavigationStack = append(snap.Viewport.NavigationStack, frame{
			PlaneID:        planePtr(f.PlaneID),
			EnteredChildID: f.EnteredChildID,
		})
	}
	return snap
}

// Apply restores the snapshot into store and, when view is non-nil, into
// the viewport. Graph validation failures are reported as ErrCorrupt and
// leave the store untouched.
func (s Snapshot) Apply(store *graph.Store, view *viewport.Engine) error {
	st := graph.State{
		Cards:      s.Cards,
		NextID:     s.NextID,
		ParentsOf:  fromPairs(s.ParentsOf),
		ChildrenOf: fromPairs(s.ChildrenOf),
		Links:      fromPairs(s.Links),
	}
	if err := store.Restore(st); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if view == nil {
		return nil
	}
	vs := viewport.State{
		CurrentPlane: planeOf(s.Viewport.CurrentPlane),
		ViewX:        s.Viewport.ViewX,
		ViewY:        s.Viewport.ViewY,
		Zoom:         s.Viewport.Zoom,
	}
	for _, l := range s.Viewport.Layouts {
		vs.Layouts = append(vs.Layouts, viewport.PlaneLayout{Plane: l.Plane, Layout: l.Layout})
	}
	if s.Viewport.NavigationStack != nil {
		vs.Stack = make([]viewport.Frame, 0, len(s.Viewport.NavigationStack))
		for _, f := range s.Viewport.NavigationStack {
			vs.Stack = append(vs.Stack, viewport.Frame{PlaneID: planeOf(f.PlaneID), EnteredChildID: f.EnteredChildID})
		}
	}
	view.Restore(vs)
	return nil
}

// Encode renders the snapshot as indented JSON.
func Encode(s Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot document. Malformed JSON and unknown versions
// are reported as ErrCorrupt.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	switch {
	case s.Version == 0:
		s.Version = Version
	case s.Version < 0 || s.Version > Version:
		return Snapshot{}, fmt.Errorf("%w: version %d, this build reads up to %d", ErrCorrupt, s.Version, Version)
	}
	return s, nil
}
