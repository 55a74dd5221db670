// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graph builds per-kind dependency graphs and condenses them into
// a DAG of strongly-connected components, mirroring original_source's
// graph::compute_sccs / graph::transitive_closure.
package graph

import "sort"

// SCCID identifies one strongly-connected component.
type SCCID int

// Graph is an adjacency map: node -> the nodes it depends on.
type Graph[K comparable] struct {
	order []K
	adj   map[K][]K
}

// Build constructs a Graph from an explicit node list (for deterministic
// iteration order) and a dependency lookup.
func Build[K comparable](nodes []K, deps func(K) []K) *Graph[K] {
	g := &Graph[K]{adj: make(map[K][]K, len(nodes))}
	for _, n := range nodes {
		g.order = append(g.order, n)
	}
	for _, n := range nodes {
		g.adj[n] = deps(n)
	}
	return g
}

func (g *Graph[K]) Nodes() []K { return g.order }

// SCCGraph is the condensation of a Graph: a DAG of SCCs plus the mapping
// from SCC id to member nodes.
type SCCGraph[K comparable] struct {
	DAG     map[SCCID][]SCCID
	ElemMap map[SCCID][]K
	idOf    map[K]SCCID
}

// MemberSCC returns the SCC id containing a node.
func (s *SCCGraph[K]) MemberSCC(n K) (SCCID, bool) {
	id, ok := s.idOf[n]
	return id, ok
}

// CondenseSCC runs Tarjan's algorithm over g with deterministic vertex
// order (the order g was built with) and returns the condensed DAG.
func CondenseSCC[K comparable](g *Graph[K]) *SCCGraph[K] {
	t := &tarjan[K]{
		g:       g,
		index:   make(map[K]int),
		low:     make(map[K]int),
		onStack: make(map[K]bool),
	}
	for _, n := range g.order {
		if _, visited := t.index[n]; !visited {
			t.strongconnect(n)
		}
	}

	out := &SCCGraph[K]{
		DAG:     make(map[SCCID][]SCCID),
		ElemMap: make(map[SCCID][]K),
		idOf:    make(map[K]SCCID),
	}
	for id, members := range t.sccs {
		sorted := append([]K(nil), members...)
		out.ElemMap[SCCID(id)] = sorted
		for _, m := range members {
			out.idOf[m] = SCCID(id)
		}
	}
	// Build condensed edges: for every original edge n -> dep whose SCCs
	// differ, add an edge between their SCC ids (deduplicated).
	seen := make(map[[2]SCCID]bool)
	for _, n := range g.order {
		from := out.idOf[n]
		for _, dep := range g.adj[n] {
			to, ok := out.idOf[dep]
			if !ok || to == from {
				continue
			}
			key := [2]SCCID{from, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			out.DAG[from] = append(out.DAG[from], to)
		}
		if _, ok := out.DAG[from]; !ok {
			out.DAG[from] = nil
		}
	}
	for id := range out.DAG {
		sort.Slice(out.DAG[id], func(i, j int) bool { return out.DAG[id][i] < out.DAG[id][j] })
	}
	return out
}

// tarjan is a standard iterative-free (recursive) Tarjan SCC implementation.
// Recursion depth is bounded by the dependency graph's longest chain, which
// for translation-unit-scale C programs is small enough not to need an
// explicit stack rewrite.
type tarjan[K comparable] struct {
	g       *Graph[K]
	index   map[K]int
	low     map[K]int
	onStack map[K]bool
	stack   []K
	counter int
	sccs    [][]K
}

func (t *tarjan[K]) strongconnect(v K) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.adj[v] {
		if _, ok := t.index[w]; !ok {
			t.strongconnect(w)
			if t.low[w] < t.low[v] {
				t.low[v] = t.low[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.low[v] {
				t.low[v] = t.index[w]
			}
		}
	}

	if t.low[v] == t.index[v] {
		var scc []K
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

// TransitiveClosure returns, for every node, the set of all nodes
// transitively reachable from it (used to build the type context prefix,
// spec §3 TransitiveTypeClosure).
func TransitiveClosure[K comparable](g *Graph[K]) map[K]map[K]struct{} {
	memo := make(map[K]map[K]struct{}, len(g.order))
	visiting := make(map[K]bool)

	var visit func(K) map[K]struct{}
	visit = func(n K) map[K]struct{} {
		if s, ok := memo[n]; ok {
			return s
		}
		if visiting[n] {
			// Cycle: return empty for now, caller (type translator) treats
			// genuine mutual recursion between distinct nominal types as
			// unsupported once SCC condensation surfaces it.
			return map[K]struct{}{}
		}
		visiting[n] = true
		set := make(map[K]struct{})
		for _, dep := range g.adj[n] {
			set[dep] = struct{}{}
			for d := range visit(dep) {
				set[d] = struct{}{}
			}
		}
		visiting[n] = false
		memo[n] = set
		return set
	}

	for _, n := range g.order {
		memo[n] = visit(n)
	}
	return memo
}
