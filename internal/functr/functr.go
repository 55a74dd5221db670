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

// Package functr translates one C function into Rust via signature
// exploration (§4.H), grounded on original_source's translate_function /
// try_signature.
package functr

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/relanguage-io/c2rust/internal/compiler"
	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/llmclient"
	"github.com/relanguage-io/c2rust/internal/logx"
	"github.com/relanguage-io/c2rust/internal/registry"
	"github.com/relanguage-io/c2rust/internal/render"
	"github.com/relanguage-io/c2rust/internal/repair"
	"github.com/relanguage-io/c2rust/internal/state"
)

var log = logx.New("functr")

// ErrAllSignaturesFailed signals that no candidate signature produced a
// parseable, name-matching body translation (§4.H).
var ErrAllSignaturesFailed = errors.New("functr: all candidate signatures failed")

// Config gates the two behaviors §6 names for function translation.
type Config struct {
	TryMultipleSignatures bool
	FixErrors             bool
}

// Translate produces the TranslationResult for one function. transitiveTypes
// is the type dependency graph's transitive closure (original_source's
// graph::transitive_closure, `transitive=true` in make_translation_prefix),
// used to pull in every type reachable from a direct dependency, not just
// the direct dependency itself.
func Translate(ctx context.Context, client llmclient.Client, comp *compiler.Compiler, prog *cparse.Program, name string, cfg Config, tstate *state.TranslationState, reg *registry.Registry, transitiveTypes map[cparse.CustomType][]cparse.CustomType) (*state.TranslationResult, error) {
	fn, ok := prog.Functions()[name]
	if !ok {
		return nil, errors.Errorf("functr: unknown function %s", name)
	}
	newName, ok := reg.Terms[name]
	if !ok {
		return nil, errors.Errorf("functr: no registered name for %s", name)
	}

	subs := render.BuildReplaceVec(reg, fn.TypeDependencies, fn.Dependencies, fn.Callees)
	for _, span := range cparse.FindIdentifierSpans(prog.Source(), "in") {
		subs = append(subs, render.Sub{Span: span, Replacement: "in_data"})
	}
	subs = append(subs, render.Sub{Span: fn.Identifier, Replacement: newName})

	code, err := render.Substitute(prog.Source(), subs)
	if err != nil {
		return nil, err
	}

	var prefix string
	tstate.Snapshot(func() { prefix = buildPrefix(fn, tstate, transitiveTypes) })

	n := 1
	if cfg.TryMultipleSignatures {
		n = 3
	}
	rawSigs, err := client.TranslateSignature(ctx, code, newName, prefix, n)
	if err != nil {
		return nil, errors.Wrapf(err, "functr: translate_signature %s", newName)
	}

	sigs := dedupSignatures(rawSigs, newName)
	sigs = preferFaithfulArity(sigs, fn.Params)
	if len(sigs) == 0 {
		return nil, errors.Wrapf(ErrAllSignaturesFailed, "functr: no usable signature for %s", newName)
	}

	var checkingPrefix string
	tstate.Snapshot(func() { checkingPrefix = tstate.Emit() })

	candidates, err := trySignatures(ctx, client, comp, sigs, newName, code, prefix, checkingPrefix, cfg.FixErrors)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		stubCode := functionToSignatureString(fn, subs, prog)
		candidates, err = trySignatures(ctx, client, comp, sigs, newName, stubCode, "", checkingPrefix, cfg.FixErrors)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			candidates[i].SignatureOnly = true
		}
	}
	if len(candidates) == 0 {
		return nil, errors.Wrapf(ErrAllSignaturesFailed, "functr: no candidate body translation succeeded for %s", newName)
	}

	minErrors := candidates[0].Errors
	for _, c := range candidates {
		if c.Errors < minErrors {
			minErrors = c.Errors
		}
	}
	var finalists []*state.TranslationResult
	for i := range candidates {
		if candidates[i].Errors == minErrors {
			finalists = append(finalists, &candidates[i])
		}
	}

	best := finalists[0]
	for _, cand := range finalists[1:] {
		cmp, err := client.Compare(ctx, best.Code(), cand.Code())
		if err != nil {
			continue
		}
		if cmp == llmclient.Greater {
			best = cand
		}
	}

	log.Info("function: %s (%d errors)", newName, best.Errors)
	return best, nil
}

func buildPrefix(fn *cparse.FunctionDecl, tstate *state.TranslationState, transitiveTypes map[cparse.CustomType][]cparse.CustomType) string {
	var b strings.Builder
	for _, d := range expandTypeDeps(fn.TypeDependencies, transitiveTypes) {
		if res, ok := tstate.Types[d]; ok {
			b.WriteString(res.SimpleCode())
			b.WriteByte('\n')
		}
	}
	for _, d := range fn.Dependencies {
		if res, ok := tstate.Variables[d.Name]; ok {
			b.WriteString(res.SimpleCode())
			b.WriteByte('\n')
		}
	}
	for _, d := range fn.Callees {
		if res, ok := tstate.Functions[d.Name]; ok {
			b.WriteString(res.SimpleCode())
			b.WriteByte('\n')
		}
	}
	return b.String()
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

// dedupSignatures rejects malformed candidate lines (unbalanced angle
// brackets after stripping `->`), parses each as a signature stub, and
// keeps one representative per distinct normalized shape.
func dedupSignatures(raw []string, newName string) []string {
	seen := make(map[state.SignatureShape]struct{})
	var out []string
	for _, sig := range raw {
		stripped := strings.ReplaceAll(sig, "->", "")
		if strings.Count(stripped, "<") != strings.Count(stripped, ">") {
			continue
		}
		items, err := compiler.Parse(sig + "{}")
		if err != nil || len(items) != 1 {
			continue
		}
		if items[0].Name != newName {
			continue
		}
		shape := items[0].Sort.NormalizedSignatureTy
		if _, dup := seen[shape]; dup {
			continue
		}
		seen[shape] = struct{}{}
		out = append(out, sig)
	}
	return out
}

// preferFaithfulArity drops candidates with more parameters than the C
// function if at least one candidate matches or undercuts it.
func preferFaithfulArity(sigs []string, cParams int) []string {
	hasFaithful := false
	counts := make([]int, len(sigs))
	for i, sig := range sigs {
		if items, err := compiler.Parse(sig + "{}"); err == nil && len(items) == 1 {
			counts[i] = items[0].Sort.NormalizedSignatureTy.ParamCount
		}
		if counts[i] <= cParams {
			hasFaithful = true
		}
	}
	if !hasFaithful {
		return sigs
	}
	var out []string
	for i, sig := range sigs {
		if counts[i] <= cParams {
			out = append(out, sig)
		}
	}
	return out
}

// trySignatures runs tryOneSignature for every signature concurrently in one
// errgroup (no concurrency limit) and collects non-nil results.
func trySignatures(ctx context.Context, client llmclient.Client, comp *compiler.Compiler, sigs []string, newName, code, prefix, checkingPrefix string, fixErrors bool) ([]state.TranslationResult, error) {
	results := make([]*state.TranslationResult, len(sigs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sig := range sigs {
		i, sig := i, sig
		g.Go(func() error {
			res, err := tryOneSignature(gctx, client, comp, sig, newName, code, prefix, checkingPrefix, fixErrors)
			if err != nil {
				log.Debug("try_signature failed for %s (%s): %v", newName, sig, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []state.TranslationResult
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func tryOneSignature(ctx context.Context, client llmclient.Client, comp *compiler.Compiler, sig, newName, code, prefix, checkingPrefix string, fixErrors bool) (*state.TranslationResult, error) {
	translated, err := client.TranslateFunction(ctx, code, sig, prefix)
	if err != nil {
		return nil, err
	}
	items, err := compiler.Parse(translated)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Sort.Kind != state.UseSortKind {
			names[it.Name] = struct{}{}
		}
	}
	if _, ok := names[newName]; !ok {
		return nil, errors.Errorf("signature for %s produced no matching item", newName)
	}

	rest, uses := liftUses(ctx, comp, items)
	candidateCode := joinCode(rest)

	rctx, err := repair.New(ctx, comp, uses, checkingPrefix, candidateCode, names)
	if err != nil {
		return nil, err
	}
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
		fixed, err := compiler.Parse(rctx.Code)
		if err == nil {
			rest = fixed
		}
	}
	errCount := 0
	if rctx.Result != nil {
		errCount = len(rctx.Result.Errors)
	}
	return &state.TranslationResult{Items: rest, Uses: rctx.Uses, Errors: errCount}, nil
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

// functionToSignatureString renders a stub body (`{ unimplemented!() }`)
// under the same substitutions, used when every body candidate fails to
// parse (§4.H).
func functionToSignatureString(fn *cparse.FunctionDecl, subs []render.Sub, prog *cparse.Program) string {
	rendered, err := render.Substitute(prog.Source(), subs)
	if err != nil {
		return fn.Content
	}
	if idx := strings.IndexByte(rendered, '{'); idx >= 0 {
		return rendered[:idx] + "{ unimplemented!() }"
	}
	return rendered
}
