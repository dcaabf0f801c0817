package graph

import (
	"sort"

	"github.com/dominikbraun/graph"
)

// Impact reports direct callers, transitive callers and affected tests for
// every reported function whose qualified or bare name is in targets. An empty
// targets list analyzes every reported function.
func (cg *CallGraph) Impact(targets []string) *ImpactAnalysis {
	analysis := &ImpactAnalysis{}

	reverse, tests := cg.reverseGraph()

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	directSeen := make(map[CallerInfo]bool)
	transitiveSeen := make(map[string]bool)
	testSeen := make(map[string]bool)

	for _, fn := range cg.Functions {
		if len(targetSet) > 0 && !targetSet[fn.Name] && !targetSet[bareName(fn.Name)] {
			continue
		}

		report := ImpactReport{
			Function:      fn.Name,
			File:          fn.File,
			DirectCallers: cg.callers[fn.Name],
		}
		for _, c := range report.DirectCallers {
			directSeen[c] = true
		}

		for _, caller := range transitiveCallers(reverse, fn.Name) {
			report.TransitiveCallers = append(report.TransitiveCallers, caller)
			transitiveSeen[caller] = true
			if tests[caller] {
				report.AffectedTests = append(report.AffectedTests, caller)
				testSeen[caller] = true
			}
		}

		analysis.Functions = append(analysis.Functions, report)
	}

	analysis.DirectCallers = len(directSeen)
	analysis.TransitiveCallers = len(transitiveSeen)
	analysis.AffectedTests = len(testSeen)
	return analysis
}

// reverseGraph builds a directed graph with an edge from every callee to each
// of its callers, plus the set of callers classified as tests.
func (cg *CallGraph) reverseGraph() (graph.Graph[string, string], map[string]bool) {
	g := graph.New(graph.StringHash, graph.Directed())
	tests := make(map[string]bool)

	// Vertices are added once per mention; ErrVertexAlreadyExists is expected.
	addVertex := func(name string) {
		_ = g.AddVertex(name)
	}

	for callee, callers := range cg.callers {
		addVertex(callee)
		for _, c := range callers {
			addVertex(c.Function)
			if IsTestFunction(c.Function) || IsTestFile(c.File) {
				tests[c.Function] = true
			}
			if c.Function == callee {
				continue
			}
			// Duplicate call sites produce ErrEdgeAlreadyExists; one edge is enough.
			_ = g.AddEdge(callee, c.Function)
		}
	}

	return g, tests
}

// transitiveCallers returns every function that reaches name through one or
// more calls, sorted by name.
func transitiveCallers(reverse graph.Graph[string, string], name string) []string {
	var callers []string
	// BFS fails only when name has no vertex, meaning nothing calls it.
	_ = graph.BFS(reverse, name, func(vertex string) bool {
		if vertex != name {
			callers = append(callers, vertex)
		}
		return false
	})
	sort.Strings(callers)
	return callers
}
