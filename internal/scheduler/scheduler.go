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

// Package scheduler drains a per-kind SCC dependency DAG, dispatching each
// ready component for translation and committing results before unblocking
// its dependents (§4.I). It collapses the three near-identical per-kind
// parallel translate loops original_source keeps separate (types,
// variables, functions) into one generic drain routine.
package scheduler

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/relanguage-io/c2rust/internal/graph"
	"github.com/relanguage-io/c2rust/internal/state"
)

// ErrUnsupportedCycle signals a non-singleton SCC: genuine mutual recursion
// between members of Kind, which no translator in this engine resolves.
type ErrUnsupportedCycle struct {
	Kind    string
	Members []string
}

func (e *ErrUnsupportedCycle) Error() string {
	return "scheduler: unsupported cycle in " + e.Kind + ": " + join(e.Members)
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// RunKind drains sccg's DAG to completion, calling translate for every
// member (bounded by concurrency parallel in-flight calls per wave) and
// commit synchronously once the whole wave of a round completes. Kind names
// the graph for error reporting only ("type", "variable", "function").
func RunKind[K comparable](
	ctx context.Context,
	kind string,
	sccg *graph.SCCGraph[K],
	memberName func(K) string,
	translate func(ctx context.Context, member K) (*state.TranslationResult, error),
	commit func(member K, res *state.TranslationResult),
	concurrency int,
) error {
	remaining := make(map[graph.SCCID][]K, len(sccg.ElemMap))
	for id, members := range sccg.ElemMap {
		remaining[id] = members
	}
	// Track unresolved dependency count per SCC (out-degree within the
	// remaining set), since DAG[id] lists the SCCs id depends on.
	depsLeft := make(map[graph.SCCID]map[graph.SCCID]struct{}, len(sccg.DAG))
	dependents := make(map[graph.SCCID][]graph.SCCID)
	for id, deps := range sccg.DAG {
		set := make(map[graph.SCCID]struct{}, len(deps))
		for _, d := range deps {
			set[d] = struct{}{}
			dependents[d] = append(dependents[d], id)
		}
		depsLeft[id] = set
	}

	for len(remaining) > 0 {
		var ready []graph.SCCID
		for id := range remaining {
			if len(depsLeft[id]) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			// Every remaining SCC still has an unresolved dependency: since
			// the DAG is acyclic by construction, this can only happen if
			// the caller fed a non-condensed graph. Surface it rather than
			// spin.
			var stuck []string
			for id := range remaining {
				for _, m := range remaining[id] {
					stuck = append(stuck, memberName(m))
				}
			}
			sort.Strings(stuck)
			return &ErrUnsupportedCycle{Kind: kind, Members: stuck}
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

		for _, id := range ready {
			members := remaining[id]
			if len(members) != 1 {
				names := make([]string, len(members))
				for i, m := range members {
					names[i] = memberName(m)
				}
				sort.Strings(names)
				return &ErrUnsupportedCycle{Kind: kind, Members: names}
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		if concurrency > 0 {
			g.SetLimit(concurrency)
		}
		results := make([]*state.TranslationResult, len(ready))
		for i, id := range ready {
			i, id := i, id
			member := remaining[id][0]
			g.Go(func() error {
				res, err := translate(gctx, member)
				if err != nil {
					return errors.Wrapf(err, "scheduler: translate %s %s", kind, memberName(member))
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, id := range ready {
			member := remaining[id][0]
			commit(member, results[i])
			delete(remaining, id)
			delete(depsLeft, id)
			for _, dep := range dependents[id] {
				if set, ok := depsLeft[dep]; ok {
					delete(set, id)
				}
			}
		}
	}
	return nil
}
