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

// Package vartr translates one C global variable into Rust (§4.G),
// grounded on original_source's translate_variable.
package vartr

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/relanguage-io/c2rust/internal/compiler"
	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/llmclient"
	"github.com/relanguage-io/c2rust/internal/logx"
	"github.com/relanguage-io/c2rust/internal/registry"
	"github.com/relanguage-io/c2rust/internal/render"
	"github.com/relanguage-io/c2rust/internal/repair"
	"github.com/relanguage-io/c2rust/internal/state"
)

var log = logx.New("vartr")

// Translate produces the TranslationResult for one global variable.
// transitiveTypes is the type dependency graph's transitive closure
// (original_source's graph::transitive_closure, `transitive=true` in
// make_translation_prefix), used to pull in every type reachable from a
// direct dependency, not just the direct dependency itself.
func Translate(ctx context.Context, client llmclient.Client, comp *compiler.Compiler, prog *cparse.Program, name string, fixErrors bool, tstate *state.TranslationState, reg *registry.Registry, transitiveTypes map[cparse.CustomType][]cparse.CustomType) (*state.TranslationResult, error) {
	v, ok := prog.Variables()[name]
	if !ok {
		return nil, errors.Errorf("vartr: unknown variable %s", name)
	}
	newName, ok := reg.Terms[name]
	if !ok {
		return nil, errors.Errorf("vartr: no registered name for %s", name)
	}

	subs := render.BuildReplaceVec(reg, v.TypeDependencies, v.Dependencies, nil)
	subs = append(subs, render.Sub{Span: v.Identifier, Replacement: newName})

	code, err := render.Substitute(prog.Source(), subs)
	if err != nil {
		return nil, err
	}

	var prefix string
	tstate.Snapshot(func() {
		for _, d := range expandTypeDeps(v.TypeDependencies, transitiveTypes) {
			if res, ok := tstate.Types[d]; ok {
				prefix += res.SimpleCode() + "\n"
			}
		}
		for _, d := range v.Dependencies {
			if res, ok := tstate.Variables[d.Name]; ok {
				prefix += res.SimpleCode() + "\n"
			}
		}
	})

	translated, err := client.TranslateVariable(ctx, code, prefix)
	signatureOnly := false
	if err != nil {
		signatureOnly = true
		strippedSubs := append(append([]render.Sub(nil), subs...), render.Sub{Span: v.InitializerSpan, Replacement: ""})
		strippedCode, serr := render.Substitute(prog.Source(), strippedSubs)
		if serr != nil {
			return nil, serr
		}
		translated, err = client.TranslateVariable(ctx, strippedCode, prefix)
		if err != nil {
			return nil, errors.Wrapf(err, "vartr: translate_variable %s (signature-only fallback)", newName)
		}
	}

	items, err := compiler.Parse(translated)
	if err != nil {
		return nil, errors.Wrapf(err, "vartr: parse reply for %s", newName)
	}
	items = dedupAgainstCommitted(items, tstate)
	if !hasItem(items, newName) {
		return nil, errors.Wrapf(repair.ErrInvariantViolation, "vartr: main item %s missing after dedup", newName)
	}
	items, uses := liftUses(ctx, comp, items)

	names := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Sort.Kind != state.UseSortKind {
			names[it.Name] = struct{}{}
		}
	}

	var checkingPrefix string
	tstate.Snapshot(func() { checkingPrefix = tstate.Emit() })

	candidateCode := joinCode(items)
	rctx, err := repair.New(ctx, comp, uses, checkingPrefix, candidateCode, names)
	if err != nil {
		return nil, err
	}

	// repair.New only compiles the candidate. Tiers 1-2 always run (in
	// FixByCompiler, which FixByLLM also starts with); tier 3 is gated by
	// fixErrors, matching original_source's `if self.config.fix_errors`.
	if fixErrors {
		if err := repair.FixByLLM(ctx, rctx, client); err != nil {
			return nil, err
		}
	} else {
		if err := repair.FixByCompiler(ctx, rctx); err != nil {
			return nil, err
		}
	}

	if rctx.Code != candidateCode {
		fixedItems, err := compiler.Parse(rctx.Code)
		if err != nil {
			return nil, errors.Wrap(err, "vartr: parse repaired code")
		}
		items = fixedItems
	}

	errCount := 0
	if rctx.Result != nil {
		errCount = len(rctx.Result.Errors)
	}
	log.Info("variable: %s (%d errors)", newName, errCount)

	return &state.TranslationResult{
		Items:         items,
		Uses:          rctx.Uses,
		Errors:        errCount,
		SignatureOnly: signatureOnly,
	}, nil
}

// expandTypeDeps expands each direct type dependency to its full
// transitively-reachable set (original_source's transitive=true prefix
// construction), deduplicated and in first-seen order.
func expandTypeDeps(direct []cparse.TypeDependency, transitive map[cparse.CustomType][]cparse.CustomType) []cparse.CustomType {
	seen := make(map[cparse.CustomType]struct{}, len(direct))
	var out []cparse.CustomType
	add := func(ty cparse.CustomType) {
		if _, ok := seen[ty]; ok {
			return
		}
		seen[ty] = struct{}{}
		out = append(out, ty)
	}
	for _, d := range direct {
		add(d.Type)
		for _, t := range transitive[d.Type] {
			add(t)
		}
	}
	return out
}

func dedupAgainstCommitted(items []state.ParsedItem, tstate *state.TranslationState) []state.ParsedItem {
	var out []state.ParsedItem
	for _, it := range items {
		if it.Sort.Kind == state.UseSortKind {
			out = append(out, it)
			continue
		}
		if tstate.HasTranslatedName(it.Name) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func hasItem(items []state.ParsedItem, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}

func liftUses(ctx context.Context, comp *compiler.Compiler, items []state.ParsedItem) ([]state.ParsedItem, map[string]struct{}) {
	uses := make(map[string]struct{})
	var rest []state.ParsedItem
	for _, it := range items {
		if it.Sort.Kind != state.UseSortKind {
			rest = append(rest, it)
			continue
		}
		probe := fmt.Sprintf("%s\nfn main() {}", it.Code)
		res, err := comp.TypeCheck(ctx, probe)
		if err == nil && res.Passed {
			uses[it.Code] = struct{}{}
		}
	}
	return rest, uses
}

func joinCode(items []state.ParsedItem) string {
	s := ""
	for _, it := range items {
		s += it.Code + "\n"
	}
	return s
}
