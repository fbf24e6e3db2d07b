package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/featsynth/internal/ir"
)

// CycleWarning represents a cycle in the plan's relationship graph.
//
// Cycles are warnings: synthesis follows links one hop from the target and
// never loops.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["customer", "orders", "customer"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles reports every cycle in the parent → child relationship graph.
//
// The algorithm:
//  1. Build a table → child tables graph from the declared relationships
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// Nodes are visited in table declaration order, so the result is
// deterministic. An acyclic plan returns an empty list.
func AnalyzeCycles(plan *ir.Plan) []CycleWarning {
	if len(plan.Relationships) == 0 {
		return []CycleWarning{}
	}

	graph, nodes := buildRelationshipGraph(plan)
	sccs := tarjanSCC(graph, nodes)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// relationshipGraph maps table name → child table names.
type relationshipGraph map[string][]string

// buildRelationshipGraph returns the graph and its nodes in declaration
// order: plan tables first, then any table only named by a relationship.
func buildRelationshipGraph(plan *ir.Plan) (relationshipGraph, []string) {
	graph := make(relationshipGraph)
	var nodes []string
	addNode := func(name string) {
		if _, ok := graph[name]; !ok {
			graph[name] = []string{}
			nodes = append(nodes, name)
		}
	}

	for _, t := range plan.Tables {
		addNode(t.Name)
	}
	for _, r := range plan.Relationships {
		addNode(r.Parent)
		addNode(r.Child)
		graph[r.Parent] = append(graph[r.Parent], r.Child)
	}
	return graph, nodes
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph relationshipGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph relationshipGraph, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
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

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph relationshipGraph) CycleWarning {
	if len(scc) == 1 {
		table := scc[0]
		return CycleWarning{
			Path:    []string{table, table},
			Message: fmt.Sprintf("Self-referencing relationship: %s → %s", table, table),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relationship cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its last-popped
// node until it returns to the start.
func reconstructCyclePath(scc []string, graph relationshipGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
