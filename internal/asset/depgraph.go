package asset

import (
	"fmt"
	"sort"
	"strings"
)

// Phase is a loader stage an object passes through.
type Phase uint8

const (
	PhaseCreate Phase = iota
	PhaseSerialize
)

func (p Phase) String() string {
	if p == PhaseCreate {
		return "create"
	}
	return "serialize"
}

// Node is one (object, phase) vertex of the dependency graph.
type Node struct {
	Index Index
	Phase Phase
}

func (n Node) String() string {
	return fmt.Sprintf("%d:%s", n.Index, n.Phase)
}

// DependencyGraph is the partial order encoded by the exports' four dependency
// lists. An edge a -> b means a must happen before b.
//
// For an export E and a dependency D:
//   - create_before_serialization:        D:create    -> E:serialize
//   - create_before_create:               D:create    -> E:create
//   - serialization_before_serialization: D:serialize -> E:serialize
//   - serialization_before_create:        D:serialize -> E:create
//
// Every export also has the implicit edge E:create -> E:serialize.
type DependencyGraph struct {
	edges    map[Node][]Node
	dangling []string
}

// BuildDependencyGraph derives the dependency graph of g. References that do
// not resolve are recorded and reported by Check.
func BuildDependencyGraph(g *Graph) *DependencyGraph {
	dg := &DependencyGraph{edges: make(map[Node][]Node)}

	for slot := range g.Exports {
		e := &g.Exports[slot]
		self := ExportIndex(slot)
		dg.addEdge(Node{self, PhaseCreate}, Node{self, PhaseSerialize})

		lists := []struct {
			name string
			deps []Index
			from Phase
			to   Phase
		}{
			{"create_before_serialization", e.CreateBeforeSerialization, PhaseCreate, PhaseSerialize},
			{"create_before_create", e.CreateBeforeCreate, PhaseCreate, PhaseCreate},
			{"serialization_before_serialization", e.SerializationBeforeSerialization, PhaseSerialize, PhaseSerialize},
			{"serialization_before_create", e.SerializationBeforeCreate, PhaseSerialize, PhaseCreate},
		}
		for _, l := range lists {
			for _, dep := range l.deps {
				if !g.Live(dep) {
					dg.dangling = append(dg.dangling,
						fmt.Sprintf("export %d %s: %s references %d", self, e.ObjectName, l.name, dep))
					continue
				}
				dg.addEdge(Node{dep, l.from}, Node{self, l.to})
			}
		}
	}

	return dg
}

func (dg *DependencyGraph) addEdge(from, to Node) {
	dg.edges[from] = append(dg.edges[from], to)
	if _, ok := dg.edges[to]; !ok {
		dg.edges[to] = []Node{}
	}
}

// Successors returns the nodes that must come after n.
func (dg *DependencyGraph) Successors(n Node) []Node {
	return dg.edges[n]
}

// Cycles returns every strongly connected component that forms a cycle:
// components of more than one node, and single nodes with a self-loop.
func (dg *DependencyGraph) Cycles() [][]Node {
	var cycles [][]Node
	for _, scc := range dg.tarjanSCC() {
		if len(scc) > 1 || dg.hasSelfLoop(scc[0]) {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

// Check verifies the two invariants the loader relies on: every dependency
// entry resolves, and the order is acyclic.
func (dg *DependencyGraph) Check() error {
	var problems []string
	problems = append(problems, dg.dangling...)
	for _, cycle := range dg.Cycles() {
		parts := make([]string, len(cycle))
		for i, n := range cycle {
			parts[i] = n.String()
		}
		problems = append(problems, "dependency cycle: "+strings.Join(parts, " -> "))
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (dg *DependencyGraph) hasSelfLoop(n Node) bool {
	for _, s := range dg.edges[n] {
		if s == n {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in a sorted order so results are deterministic.
func (dg *DependencyGraph) tarjanSCC() [][]Node {
	var (
		index   = 0
		stack   []Node
		indices = make(map[Node]int)
		lowlink = make(map[Node]int)
		onStack = make(map[Node]bool)
		sccs    [][]Node
	)

	var strongConnect func(Node)
	strongConnect = func(v Node) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range dg.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []Node
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]Node, 0, len(dg.edges))
	for n := range dg.edges {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Index != nodes[j].Index {
			return nodes[i].Index < nodes[j].Index
		}
		return nodes[i].Phase < nodes[j].Phase
	})

	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}

	return sccs
}
