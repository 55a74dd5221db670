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

// Package repair implements the three-tier compiler-in-the-loop repair
// loop (§4.E), grounded directly on original_source's FixContext /
// fix_by_suggestions / fix_by_compiler / fix_by_llm.
package repair

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/relanguage-io/c2rust/internal/compiler"
	"github.com/relanguage-io/c2rust/internal/llmclient"
	"github.com/relanguage-io/c2rust/internal/logx"
)

var log = logx.New("repair")

// ErrInvariantViolation signals a condition the spec requires to abort on:
// a compiler diagnostic landing inside the supposedly-clean prefix.
var ErrInvariantViolation = errors.New("repair: invariant violation")

// Context bundles the repair state for one candidate under repair (§4.E).
type Context struct {
	Uses           map[string]struct{}
	Prefix         string
	Code           string
	ProtectedNames map[string]struct{}
	Result         *compiler.TypeCheckingResult

	compiler *compiler.Compiler
}

// New constructs a Context and runs its initial check, asserting the
// prefix-is-clean invariant.
func New(ctx context.Context, comp *compiler.Compiler, uses map[string]struct{}, prefix, code string, names map[string]struct{}) (*Context, error) {
	c := &Context{
		Uses:           cloneSet(uses),
		Prefix:         prefix,
		Code:           code,
		ProtectedNames: names,
		compiler:       comp,
	}
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Clone returns a deep-enough copy for forming an independent candidate
// Context in tier 3.
func (c *Context) Clone() *Context {
	return &Context{
		Uses:           cloneSet(c.Uses),
		Prefix:         c.Prefix,
		Code:           c.Code,
		ProtectedNames: c.ProtectedNames,
		Result:         c.Result,
		compiler:       c.compiler,
	}
}

// FullCode renders the uses, then the prefix, then the candidate code —
// the self-contained program submitted to the compiler.
func (c *Context) FullCode() string {
	return c.usesAndPrefix() + "\n" + c.Code
}

func (c *Context) usesAndPrefix() string {
	return c.usesStr() + c.Prefix
}

func (c *Context) usesStr() string {
	uses := make([]string, 0, len(c.Uses))
	for u := range c.Uses {
		uses = append(uses, u)
	}
	sort.Strings(uses)
	return strings.Join(uses, "\n")
}

func (c *Context) prefixLines() int {
	return compiler.PrefixLines(c.usesAndPrefix())
}

// check recompiles the full candidate and asserts every diagnostic lies
// strictly after the prefix (§4.E invariant).
func (c *Context) check(ctx context.Context) error {
	res, err := c.compiler.TypeCheck(ctx, c.FullCode())
	if err != nil {
		return errors.Wrap(err, "repair: type_check")
	}
	c.Result = res
	pl := c.prefixLines()
	for _, e := range res.Errors {
		if e.Line() <= pl {
			return errors.Wrapf(ErrInvariantViolation, "diagnostic at line %d within %d-line prefix: %s", e.Line(), pl, e.Message)
		}
	}
	return nil
}

// update replaces the candidate code (not the prefix) and recompiles.
func (c *Context) update(ctx context.Context, code string) error {
	c.Code = code
	return c.check(ctx)
}

// addUses merges any newly-suggested, non-glob, non-already-provided
// imports into the use set. Returns whether it grew.
func (c *Context) addUses() bool {
	if c.Result == nil {
		return false
	}
	existing := make(map[string]struct{}, len(c.Uses))
	for u := range c.Uses {
		if name := importTail(u); name != "" {
			existing[name] = struct{}{}
		}
	}
	updated := false
	for _, imp := range c.Result.Imports {
		u := imp.Path
		if strings.HasSuffix(u, "*;") || strings.Contains(u, "{") {
			continue
		}
		tail := importTail(u)
		if tail == "" {
			continue
		}
		if _, ok := existing[tail]; ok {
			continue
		}
		if _, ok := c.Uses[u]; !ok {
			c.Uses[u] = struct{}{}
			existing[tail] = struct{}{}
			updated = true
		}
	}
	return updated
}

// importTail extracts the trailing identifier of a "use a::b::C;" line.
func importTail(s string) string {
	i := strings.LastIndex(s, "::")
	if i < 0 {
		return ""
	}
	tail := strings.TrimSuffix(strings.TrimSpace(s[i+2:]), ";")
	if tail == "*" {
		return ""
	}
	return tail
}

// FixBySuggestions is tier 1: apply machine-applicable suggestions to a
// fixed point.
func FixBySuggestions(ctx context.Context, c *Context) error {
	for c.Result != nil && len(c.Result.Suggestions) > 0 {
		fixed := compiler.ApplySuggestions(c.FullCode(), c.Result.Suggestions)
		whole := strings.TrimPrefix(fixed, c.usesAndPrefix())
		if whole == fixed {
			// Suggestions didn't change anything we can attribute to the
			// candidate region; stop to avoid looping forever.
			break
		}
		whole = strings.TrimPrefix(whole, "\n")
		if err := c.update(ctx, whole); err != nil {
			return err
		}
	}
	return nil
}

// FixByCompiler is tiers 1+2: suggestion auto-apply, then import
// augmentation, re-entering tier 1 whenever the use set grows.
func FixByCompiler(ctx context.Context, c *Context) error {
	if err := FixBySuggestions(ctx, c); err != nil {
		return err
	}
	for c.Result != nil && len(c.Result.Imports) > 0 {
		if !c.addUses() {
			break
		}
		if err := c.check(ctx); err != nil {
			return err
		}
		if err := FixBySuggestions(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// maxRounds is a defensive backstop on tier 3's outer loop (§4.E's
// termination argument is already structural: each round strictly
// decreases the residual count or grows the failed set).
const maxRounds = 64

// FixByLLM is tier 3: per distinct still-present error message (excluding
// previously-failed ones), fan out parallel client.Fix calls, keep the
// candidate with the fewest residual errors among those that strictly
// improved, or give up.
func FixByLLM(ctx context.Context, c *Context, client llmclient.Client) error {
	if err := FixByCompiler(ctx, c); err != nil {
		return err
	}
	failed := make(map[string]struct{})

	for round := 0; round < maxRounds; round++ {
		if c.Result == nil || len(c.Result.Errors) == 0 {
			return nil
		}
		currentErrors := len(c.Result.Errors)

		msgSet := make(map[string]struct{})
		for _, e := range c.Result.Errors {
			if _, done := failed[e.Message]; done {
				continue
			}
			msgSet[e.Message] = struct{}{}
		}
		if len(msgSet) == 0 {
			return nil
		}
		msgs := make([]string, 0, len(msgSet))
		for m := range msgSet {
			msgs = append(msgs, m)
		}
		sort.Strings(msgs)

		attempts := make([]fixAttempt, len(msgs))

		g, gctx := errgroup.WithContext(ctx)
		for i, msg := range msgs {
			i, msg := i, msg
			g.Go(func() error {
				attempts[i] = tryFix(gctx, c, client, msg)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		best := -1
		bestErrs := currentErrors
		for i, a := range attempts {
			if !a.tried || a.ctxt == nil {
				failed[msgs[i]] = struct{}{}
				continue
			}
			if a.errs >= currentErrors {
				failed[msgs[i]] = struct{}{}
				continue
			}
			// a.errs < currentErrors: a genuine improvement, a success.
			// Never blacklisted, even if another success wins this round.
			if best < 0 || a.errs < bestErrs {
				bestErrs = a.errs
				best = i
			}
		}
		if best < 0 {
			return nil
		}
		*c = *attempts[best].ctxt
	}
	log.Error("tier-3 repair hit round cap (%d); returning best effort", maxRounds)
	return nil
}

// fixAttempt is the outcome of one tier-3 client.Fix call plus its
// tier 1-2 re-check.
type fixAttempt struct {
	ctxt  *Context
	errs  int
	msg   string
	tried bool
}

// tryFix asks the LLM to fix one error message and, on a plausible reply,
// runs tiers 1-2 on the resulting candidate.
func tryFix(ctx context.Context, base *Context, client llmclient.Client, msg string) fixAttempt {
	fixed, err := client.Fix(ctx, base.Code, msg)
	if err != nil {
		return fixAttempt{msg: msg}
	}
	items, err := compiler.Parse(fixed)
	if err != nil {
		return fixAttempt{msg: msg}
	}
	kept := items[:0:0]
	for _, it := range items {
		if _, ok := base.ProtectedNames[it.Name]; ok {
			kept = append(kept, it)
		}
	}
	if len(kept) != len(base.ProtectedNames) {
		return fixAttempt{msg: msg}
	}
	var b strings.Builder
	for _, it := range kept {
		b.WriteString(it.Code)
		b.WriteByte('\n')
	}
	newCode := b.String()
	if newCode == base.Code {
		return fixAttempt{msg: msg}
	}

	cand := base.Clone()
	if err := cand.update(ctx, newCode); err != nil {
		return fixAttempt{msg: msg}
	}
	if err := FixByCompiler(ctx, cand); err != nil {
		return fixAttempt{msg: msg}
	}
	errs := 0
	if cand.Result != nil {
		errs = len(cand.Result.Errors)
	}
	return fixAttempt{ctxt: cand, errs: errs, msg: msg, tried: true}
}
