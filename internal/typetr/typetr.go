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

// Package typetr translates one C nominal type into Rust (§4.F), grounded
// on original_source's translate_typedef / translate_struct /
// translate_type / remove_wrong_derives.
package typetr

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

var log = logx.New("typetr")

// DERIVES is the exact derive ordering of §4.F.
var DERIVES = []string{"Clone", "Copy", "Debug", "Default", "PartialOrd", "Ord", "PartialEq", "Eq", "Hash"}

// maxDeriveRounds bounds derive minimization: the full derive list has 9
// entries, so at most 9 removal rounds are needed, and the check that follows
// the 9th cannot reject an already-empty set.
const maxDeriveRounds = 9

// Translate produces the TranslationResult for one custom type.
func Translate(ctx context.Context, client llmclient.Client, comp *compiler.Compiler, prog *cparse.Program, ty cparse.CustomType, tstate *state.TranslationState, reg *registry.Registry) (*state.TranslationResult, error) {
	newName, ok := reg.Types[ty]
	if !ok {
		return nil, errors.Errorf("typetr: no registered name for %v", ty)
	}

	if ty.Variant == cparse.Typedef {
		if td, ok := prog.Typedefs()[ty.Name]; ok && td.IsStructAlias && len(td.Dependencies) > 0 {
			aliasedType := td.Dependencies[0].Type
			var aliased *state.TranslationResult
			tstate.Snapshot(func() { aliased = tstate.Types[aliasedType] })
			if aliased == nil {
				return nil, errors.Errorf("typetr: struct-alias %s references untranslated %v", ty.Name, aliasedType)
			}
			copy := *aliased
			copy.Copied = true
			return &copy, nil
		}
	}

	code, sort, _, deps, err := renderDeclaration(prog, ty, reg)
	if err != nil {
		return nil, err
	}

	var prefix string
	tstate.Snapshot(func() {
		for _, d := range deps {
			if res, ok := tstate.Types[d]; ok {
				prefix += res.SimpleCode() + "\n"
			}
		}
	})

	reply, err := client.TranslateType(ctx, code, sort, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "typetr: translate_type %s", newName)
	}

	items, err := compiler.Parse(reply)
	if err != nil {
		return nil, errors.Wrapf(err, "typetr: parse reply for %s", newName)
	}

	items = dedupAgainstCommitted(items, tstate)
	if !hasItem(items, newName) {
		return nil, errors.Wrapf(repair.ErrInvariantViolation, "typetr: main item %s missing after dedup", newName)
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
	if err := repair.FixByLLM(ctx, rctx, client); err != nil {
		return nil, err
	}
	if rctx.Code != candidateCode {
		fixedItems, err := compiler.Parse(rctx.Code)
		if err != nil {
			return nil, errors.Wrap(err, "typetr: parse repaired code")
		}
		items = fixedItems
	}

	errCount := 0
	if rctx.Result != nil {
		errCount = len(rctx.Result.Errors)
	}

	attachDerives(items, ty)
	items, err = minimizeDerives(ctx, comp, items, checkingPrefix)
	if err != nil {
		return nil, err
	}

	log.Info("type: %s (%d errors)", newName, errCount)
	return &state.TranslationResult{
		Items:  items,
		Uses:   rctx.Uses,
		Errors: errCount,
	}, nil
}

func renderDeclaration(prog *cparse.Program, ty cparse.CustomType, reg *registry.Registry) (code, sort string, identSpan cparse.Span, deps []cparse.CustomType, err error) {
	newName := reg.Types[ty]
	switch ty.Variant {
	case cparse.Typedef:
		td, ok := prog.Typedefs()[ty.Name]
		if !ok {
			return "", "", cparse.Span{}, nil, errors.Errorf("typetr: unknown typedef %s", ty.Name)
		}
		subs := render.BuildReplaceVec(reg, td.Dependencies, nil, nil)
		subs = append(subs, render.Sub{Span: td.Identifier, Replacement: newName})
		rendered, err := render.Substitute(prog.Source(), subs)
		if err != nil {
			return "", "", cparse.Span{}, nil, err
		}
		for _, d := range td.Dependencies {
			deps = append(deps, d.Type)
		}
		return rendered, "type", td.Identifier, deps, nil

	default:
		st, ok := prog.Structs()[ty.Name]
		if !ok {
			return "", "", cparse.Span{}, nil, errors.Errorf("typetr: unknown struct/union %s", ty.Name)
		}
		subs := render.BuildReplaceVec(reg, st.Dependencies, nil, nil)
		subs = append(subs, render.Sub{Span: st.Identifier, Replacement: newName})
		rendered, err := render.Substitute(prog.Source()[:], subs)
		if err != nil {
			return "", "", cparse.Span{}, nil, err
		}
		sortLabel := "struct"
		if !st.IsStruct {
			sortLabel = "union"
		}
		for _, d := range st.Dependencies {
			deps = append(deps, d.Type)
		}
		return rendered, sortLabel, st.Identifier, deps, nil
	}
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

// liftUses pulls `use` items out of items, keeping only those that
// independently pass a standalone compile probe.
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

func attachDerives(items []state.ParsedItem, ty cparse.CustomType) {
	var want []string
	switch ty.Variant {
	case cparse.Typedef:
		want = DERIVES[:0]
	case cparse.UnionVariant:
		want = DERIVES[:2]
	default:
		want = DERIVES[:]
	}
	for i := range items {
		if items[i].Sort.Kind != state.TypeSortKind {
			continue
		}
		if items[i].Sort.Derives == nil {
			items[i].Sort.Derives = make(map[string]struct{})
		}
		for _, d := range want {
			items[i].Sort.Derives[d] = struct{}{}
		}
	}
}

// minimizeDerives removes derive annotations the compiler rejects,
// recompiling after each round, bounded at maxDeriveRounds (§4.F).
func minimizeDerives(ctx context.Context, comp *compiler.Compiler, items []state.ParsedItem, checkingPrefix string) ([]state.ParsedItem, error) {
	for round := 0; round <= maxDeriveRounds; round++ {
		code := checkingPrefix + "\n" + joinCode(items)
		bad, err := comp.CheckDerive(ctx, code)
		if err != nil {
			return nil, errors.Wrap(err, "typetr: check_derive")
		}
		if len(bad) == 0 {
			return items, nil
		}
		for i := range items {
			if removeSet, ok := bad[items[i].Name]; ok {
				for d := range removeSet {
					delete(items[i].Sort.Derives, d)
				}
			}
		}
	}
	return nil, errors.Wrapf(repair.ErrInvariantViolation, "typetr: derive minimization exceeded %d rounds", maxDeriveRounds)
}
