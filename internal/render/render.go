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

// Package render substitutes identifier spans in C source with their
// registered target names, mirroring original_source's make_replace_vec /
// *_to_string span-splicing helpers.
package render

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/registry"
)

// Sub is one span replacement.
type Sub struct {
	Span        cparse.Span
	Replacement string
}

// Substitute splices every Sub's replacement text over its span. Overlapping
// spans are an AST invariant violation, never a recoverable condition.
func Substitute(src []byte, subs []Sub) (string, error) {
	ordered := append([]Sub(nil), subs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Span.Start < ordered[j].Span.Start })

	var b strings.Builder
	cursor := uint32(0)
	for _, s := range ordered {
		if s.Span.Start < cursor {
			return "", errors.Errorf("render: overlapping substitution spans at byte %d", s.Span.Start)
		}
		if int(s.Span.Start) > len(src) || int(s.Span.End) > len(src) || s.Span.Start > s.Span.End {
			return "", errors.Errorf("render: span %v out of bounds for %d-byte source", s.Span, len(src))
		}
		b.Write(src[cursor:s.Span.Start])
		b.WriteString(s.Replacement)
		cursor = s.Span.End
	}
	if int(cursor) <= len(src) {
		b.Write(src[cursor:])
	}
	return b.String(), nil
}

// BuildReplaceVec builds the substitution list for one declaration: every
// type dependency, variable/callee reference resolved through reg, grouped
// by kind (types, then variables, then callees); Substitute orders them by
// position. The declaration's own identifier span is NOT included here;
// callers append it themselves (it is the one span every call site names
// explicitly, matching make_replace_vec's caller-appended pattern).
func BuildReplaceVec(reg *registry.Registry, types []cparse.TypeDependency, vars, callees []cparse.Ref) []Sub {
	var subs []Sub
	for _, d := range types {
		if name, ok := reg.Types[d.Type]; ok {
			subs = append(subs, Sub{Span: d.At, Replacement: name})
		}
	}
	for _, d := range vars {
		if name, ok := reg.Terms[d.Name]; ok {
			subs = append(subs, Sub{Span: d.At, Replacement: name})
		}
	}
	for _, d := range callees {
		if name, ok := reg.Terms[d.Name]; ok {
			subs = append(subs, Sub{Span: d.At, Replacement: name})
		}
	}
	return subs
}
