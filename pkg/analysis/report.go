// Package analysis computes structural statistics over the entity graph:
// containment cycles, nesting depth and link centrality.
package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/storyweb/pkg/graph"
	"github.com/vanderheijden86/storyweb/pkg/metrics"
)

// DefaultTopN is how many entities TopReferenced keeps.
const DefaultTopN = 5

// Ranked is one entry of the most-referenced list.
type Ranked struct {
	ID       int
	Name     string
	PageRank float64
	InDegree int
}

// Report summarises one store.
type Report struct {
	Entities     int
	Links        int
	Containments int
	Roots        int // entities without parents
	Planes       int // entities with at least one child

	// MaxDepth is the longest parent->child chain in edges. Members of a
	// containment cycle share one depth.
	MaxDepth int
	// Cycles lists containment strongly connected components with more
	// than one member, each sorted by id.
	Cycles [][]int

	InDegree      map[int]int
	OutDegree     map[int]int
	PageRank      map[int]float64
	TopReferenced []Ranked

	names map[int]string
}

// Analyze builds the containment and link graphs of s and computes the
// report.
func Analyze(s *graph.Store) Report {
	defer metrics.Timer(metrics.GraphAnalysis)()

	ids := s.IDs()
	r := Report{
		Entities:  len(ids),
		InDegree:  make(map[int]int, len(ids)),
		OutDegree: make(map[int]int, len(ids)),
		PageRank:  make(map[int]float64, len(ids)),
		names:     make(map[int]string, len(ids)),
	}

	contain := simple.NewDirectedGraph()
	links := simple.NewDirectedGraph()
	for _, id := range ids {
		contain.AddNode(simple.Node(id))
		links.AddNode(simple.Node(id))
		r.names[id] = s.Entity(id).Name
	}
	for _, id := range ids {
		children := s.Children(id)
		for _, c := range children {
			contain.SetEdge(contain.NewEdge(simple.Node(id), simple.Node(c)))
		}
		r.Containments += len(children)
		if len(children) > 0 {
			r.Planes++
		}
		if len(s.Parents(id)) == 0 {
			r.Roots++
		}

		out := s.Links(id)
		for _, to := range out {
			links.SetEdge(links.NewEdge(simple.Node(id), simple.Node(to)))
		}
		r.Links += len(out)
		r.OutDegree[id] = len(out)
		r.InDegree[id] = len(s.Backlinks(id))
	}

	r.Cycles, r.MaxDepth = containmentShape(s, contain)

	if len(ids) > 0 {
		for n, score := range network.PageRank(links, 0.85, 1e-6) {
			r.PageRank[int(n)] = score
		}
	}
	r.TopReferenced = r.topReferenced(DefaultTopN)
	return r
}

// containmentShape finds the cycles and the depth of the containment DAG's
// condensation. TarjanSCC returns components in reverse topological order.
func containmentShape(s *graph.Store, g *simple.DirectedGraph) ([][]int, int) {
	sccs := topo.TarjanSCC(g)
	comp := make(map[int]int, g.Nodes().Len())
	var cycles [][]int
	for i, scc := range sccs {
		members := make([]int, 0, len(scc))
		for _, n := range scc {
			comp[int(n.ID())] = i
			members = append(members, int(n.ID()))
		}
		if len(members) > 1 {
			slices.Sort(members)
			cycles = append(cycles, members)
		}
	}
	slices.SortFunc(cycles, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })

	depth := make([]int, len(sccs))
	maxDepth := 0
	for i := len(sccs) - 1; i >= 0; i-- {
		for _, n := range sccs[i] {
			for _, p := range s.Parents(int(n.ID())) {
				if pc := comp[p]; pc != i && depth[pc]+1 > depth[i] {
					depth[i] = depth[pc] + 1
				}
			}
		}
		maxDepth = max(maxDepth, depth[i])
	}
	return cycles, maxDepth
}

func (r Report) topReferenced(n int) []Ranked {
	var ranked []Ranked
	for id, in := range r.InDegree {
		if in == 0 {
			continue
		}
		ranked = append(ranked, Ranked{ID: id, Name: r.names[id], PageRank: r.PageRank[id], InDegree: in})
	}
	slices.SortFunc(ranked, func(a, b Ranked) int {
		if c := cmp.Compare(b.PageRank, a.PageRank); c != 0 {
			return c
		}
		if c := cmp.Compare(b.InDegree, a.InDegree); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// HasCycles reports whether any containment cycle exists.
func (r Report) HasCycles() bool { return len(r.Cycles) > 0 }

// CycleWarning returns a one-line warning naming the first containment
// cycle, or "" when there is none.
func (r Report) CycleWarning() string {
	if !r.HasCycles() {
		return ""
	}
	path := r.cyclePath(r.Cycles[0])
	if len(r.Cycles) == 1 {
		return "containment cycle: " + path
	}
	return fmt.Sprintf("containment cycle: %s (+%d more)", path, len(r.Cycles)-1)
}

func (r Report) cyclePath(ids []int) string {
	parts := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		parts = append(parts, r.label(id))
	}
	parts = append(parts, r.label(ids[0]))
	return strings.Join(parts, " > ")
}

func (r Report) label(id int) string {
	if name := r.names[id]; name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// Summary renders the report for --stats.
func (r Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "entities:      %d\n", r.Entities)
	fmt.Fprintf(&sb, "links:         %d\n", r.Links)
	fmt.Fprintf(&sb, "containments:  %d\n", r.Containments)
	fmt.Fprintf(&sb, "root entities: %d\n", r.Roots)
	fmt.Fprintf(&sb, "planes:        %d\n", r.Planes)
	fmt.Fprintf(&sb, "max depth:     %d\n", r.MaxDepth)
	if r.HasCycles() {
		fmt.Fprintf(&sb, "cycles:        %d\n", len(r.Cycles))
		for _, c := range r.Cycles {
			fmt.Fprintf(&sb, "  %s\n", r.cyclePath(c))
		}
	}
	if len(r.TopReferenced) > 0 {
		sb.WriteString("most referenced:\n")
		for _, rk := range r.TopReferenced {
			fmt.Fprintf(&sb, "  %-20s in=%d  pagerank=%.3f\n", r.label(rk.ID), rk.InDegree, rk.PageRank)
		}
	}
	return sb.String()
}
