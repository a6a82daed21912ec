// Package testutil provides fixture generators for containment/link graph
// topologies and invariant assertions shared by package tests.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/storyweb/pkg/graph"
)

// GraphFixture describes an abstract entity graph. Edges are index pairs
// into Nodes: Contain edges are [parent, child], Link edges are [from, to].
type GraphFixture struct {
	Description string
	Nodes       []string
	Contain     [][2]int
	Links       [][2]int
}

// Generator creates fixtures with various topologies.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator; seed 0 selects the default seed 42.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = 42
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Chain creates n0 ⊃ n1 ⊃ ... ⊃ n{size-1}: each node contains the next.
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	var contain [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			contain = append(contain, [2]int{i - 1, i})
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Containment chain of %d nodes", size),
		Nodes:       nodes,
		Contain:     contain,
	}
}

// Diamond creates top ⊃ mid1..midN ⊃ bottom, so bottom has width parents
// that share one ancestor.
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}
	size := width + 2
	nodes := make([]string, size)
	nodes[0] = "top"
	nodes[size-1] = "bottom"
	var contain [][2]int
	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		contain = append(contain, [2]int{0, i}, [2]int{i, size - 1})
	}
	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes", width),
		Nodes:       nodes,
		Contain:     contain,
	}
}

// Cycle creates a containment cycle n0 ⊃ n1 ⊃ ... ⊃ n0.
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	contain := make([][2]int, size)
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		contain[i] = [2]int{i, (i + 1) % size}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Containment cycle of %d nodes", size),
		Nodes:       nodes,
		Contain:     contain,
	}
}

// Star creates a hub linking to every spoke.
func (g *Generator) Star(spokes int) GraphFixture {
	nodes := make([]string, spokes+1)
	nodes[0] = "hub"
	links := make([][2]int, spokes)
	for i := 1; i <= spokes; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		links[i-1] = [2]int{0, i}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Hub linking to %d spokes", spokes),
		Nodes:       nodes,
		Links:       links,
	}
}

// RandomDAG creates a random containment DAG plus random links. Containment
// edges always point from a lower to a higher index.
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	nodes := make([]string, size)
	var contain, links [][2]int
	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
	}
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if i == j {
				continue
			}
			if i < j && g.rng.Float64() < density {
				contain = append(contain, [2]int{i, j})
			}
			if g.rng.Float64() < density/2 {
				links = append(links, [2]int{i, j})
			}
		}
	}
	return GraphFixture{
		Description: fmt.Sprintf("Random DAG of %d nodes (density %.2f)", size, density),
		Nodes:       nodes,
		Contain:     contain,
		Links:       links,
	}
}

// Build materializes a fixture into a fresh store. The returned slice maps
// fixture node index to entity id.
func Build(gf GraphFixture) (*graph.Store, []int) {
	s := graph.NewStore()
	ids := make([]int, len(gf.Nodes))
	for i, name := range gf.Nodes {
		e := s.CreateEntity()
		s.SetName(e.ID, name)
		ids[i] = e.ID
	}
	for _, c := range gf.Contain {
		s.Contain(ids[c[0]], ids[c[1]])
	}
	for _, l := range gf.Links {
		s.Link(ids[l[0]], ids[l[1]])
	}
	return s, ids
}
