package compiler

import (
	"fmt"
	"strings"
)

// DependencyCycle is a loop in the dependsOn chain of a table. Dependent
// clearing walks the chain, so a loop would never settle.
type DependencyCycle struct {
	Path    []string `json:"path"`    // ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeDependencies finds dependsOn cycles.
//
// The algorithm:
//  1. Build the column → parent graph from dependsOn
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Columns are visited in declaration order so results are deterministic.
func AnalyzeDependencies(spec *TableSpec) []DependencyCycle {
	graph := make(dependencyGraph)
	order := make([]string, 0, len(spec.Columns))
	for _, c := range spec.Columns {
		order = append(order, c.Field)
		if graph[c.Field] == nil {
			graph[c.Field] = []string{}
		}
		if c.Edit != nil && c.Edit.DependsOn != "" {
			graph[c.Field] = append(graph[c.Field], c.Edit.DependsOn)
		}
	}

	var cycles []DependencyCycle
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// dependencyGraph maps field → fields it depends on.
type dependencyGraph map[string][]string

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// starting from nodes in order.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
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

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToCycle(scc []string, graph dependencyGraph) DependencyCycle {
	if len(scc) == 1 {
		return DependencyCycle{
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("column depends on itself: %s → %s", scc[0], scc[0]),
		}
	}
	path := reconstructCyclePath(scc, graph)
	return DependencyCycle{
		Path:    path,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its root node
// until it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, nb := range graph[current] {
			if members[nb] && (!visited[nb] || nb == start) {
				next = nb
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
