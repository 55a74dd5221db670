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

// Package state holds the single append-only, mutex-guarded store of
// committed translation artifacts (§3, §4.D), mirroring original_source's
// Arc<RwLock<TranslatorInner>>.
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/relanguage-io/c2rust/internal/cparse"
)

// ItemSort distinguishes what kind of top-level Rust item a ParsedItem is.
// Only one of the embedded fields is meaningful per Kind.
type ItemSort struct {
	Kind ItemSortKind

	// TypeSort
	Derives map[string]struct{}

	// FuncSort
	Signature             string
	NormalizedSignatureTy SignatureShape
	NormalizedSignature   string
}

type ItemSortKind int

const (
	TypeSortKind ItemSortKind = iota
	VarSortKind
	FuncSortKind
	UseSortKind
)

// SignatureShape is the normalized arity/shape used to dedup candidate
// function signatures (§4.H).
type SignatureShape struct {
	ParamCount int
	Shape      string
}

// ParsedItem is one top-level Rust item produced by a translation call.
type ParsedItem struct {
	Name       string
	Sort       ItemSort
	Code       string
	SimpleCode string
	CheckingCode string
}

// TranslationResult is everything produced by translating one declaration:
// its items, the set of `use` lines it introduced, the residual compiler
// error count, and the two status flags from §3/§4.G/§4.H.
type TranslationResult struct {
	Items         []ParsedItem
	Uses          map[string]struct{}
	Errors        int
	Copied        bool
	SignatureOnly bool
}

// Code renders every non-skipped item's full code, in item order.
func (r *TranslationResult) Code() string {
	var b strings.Builder
	for _, it := range r.Items {
		b.WriteString(it.Code)
		b.WriteByte('\n')
	}
	return b.String()
}

// SimpleCode renders the minimal public-surface rendering used to build a
// dependent item's context prefix (§3's second rendering).
func (r *TranslationResult) SimpleCode() string {
	var b strings.Builder
	for _, it := range r.Items {
		if it.SimpleCode != "" {
			b.WriteString(it.SimpleCode)
		} else {
			b.WriteString(it.Code)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CheckingCode renders the rendering submitted to the compiler during
// repair (§3's third rendering): like Code but every item contributes its
// CheckingCode override when present.
func (r *TranslationResult) CheckingCode() string {
	var b strings.Builder
	for _, it := range r.Items {
		if it.CheckingCode != "" {
			b.WriteString(it.CheckingCode)
		} else {
			b.WriteString(it.Code)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Kind selects which of the three per-kind maps Commit writes to.
type Kind int

const (
	KindType Kind = iota
	KindVariable
	KindFunction
)

// TranslationState is the single shared, append-only store every
// translator commits into and every repair prefix is built from.
type TranslationState struct {
	mu sync.RWMutex

	Types     map[cparse.CustomType]*TranslationResult
	Variables map[string]*TranslationResult
	Functions map[string]*TranslationResult
	GlobalUses map[string]struct{}

	TranslatedTypeNames map[string]struct{}
	TranslatedTermNames map[string]struct{}

	typeOrder []cparse.CustomType
	varOrder  []string
	funcOrder []string
}

// New returns an empty TranslationState.
func New() *TranslationState {
	return &TranslationState{
		Types:               make(map[cparse.CustomType]*TranslationResult),
		Variables:           make(map[string]*TranslationResult),
		Functions:           make(map[string]*TranslationResult),
		GlobalUses:          make(map[string]struct{}),
		TranslatedTypeNames: make(map[string]struct{}),
		TranslatedTermNames: make(map[string]struct{}),
	}
}

// Commit is the one write path into the state: it inserts res under key,
// merges res.Uses into GlobalUses, and registers every item's name into the
// appropriate translated-name set. One atomic critical section (§3
// invariant iii is enforced by the caller before Commit is invoked: every
// `use` line must already have been individually compiler-probed).
func (s *TranslationState) Commit(kind Kind, key interface{}, res *TranslationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for u := range res.Uses {
		s.GlobalUses[u] = struct{}{}
	}

	switch kind {
	case KindType:
		ty := key.(cparse.CustomType)
		s.Types[ty] = res
		s.typeOrder = append(s.typeOrder, ty)
		for _, it := range res.Items {
			s.TranslatedTypeNames[it.Name] = struct{}{}
		}
	case KindVariable:
		name := key.(string)
		s.Variables[name] = res
		s.varOrder = append(s.varOrder, name)
		for _, it := range res.Items {
			s.TranslatedTermNames[it.Name] = struct{}{}
		}
	case KindFunction:
		name := key.(string)
		s.Functions[name] = res
		s.funcOrder = append(s.funcOrder, name)
		for _, it := range res.Items {
			s.TranslatedTermNames[it.Name] = struct{}{}
		}
	}
}

// Snapshot returns a point-in-time read lock scope helper: callers that need
// a consistent view across several field reads (e.g. building a checking
// prefix) should call this instead of reading fields directly, to avoid a
// torn read racing a concurrent Commit.
func (s *TranslationState) Snapshot(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// HasTranslatedName reports whether name has already been committed as a
// type or term name, used by translators to detect and drop collisions.
func (s *TranslationState) HasTranslatedName(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, t := s.TranslatedTypeNames[name]
	_, v := s.TranslatedTermNames[name]
	return t || v
}

// Emit implements §6's final-output concatenation: global uses, then every
// non-Copied item across types, then variables, then functions in commit
// order, then the empty entry point.
func (s *TranslationState) Emit() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder

	uses := make([]string, 0, len(s.GlobalUses))
	for u := range s.GlobalUses {
		uses = append(uses, u)
	}
	sort.Strings(uses)
	for _, u := range uses {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if len(uses) > 0 {
		b.WriteByte('\n')
	}

	emitResult := func(res *TranslationResult) {
		if res == nil || res.Copied {
			return
		}
		b.WriteString(res.Code())
	}
	for _, ty := range s.typeOrder {
		emitResult(s.Types[ty])
	}
	for _, name := range s.varOrder {
		emitResult(s.Variables[name])
	}
	for _, name := range s.funcOrder {
		emitResult(s.Functions[name])
	}

	b.WriteString("fn main() {}\n")
	return b.String()
}
