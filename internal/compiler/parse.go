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

package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relanguage-io/c2rust/internal/state"
)

var (
	itemHeaderRe = regexp.MustCompile(`^\s*(?:pub\s+)?(struct|enum|union|type|fn|static|const)\s+(\w+)`)
	deriveAttrRe = regexp.MustCompile(`^\s*#\[derive\(([^)]*)\)\]\s*$`)
)

// parseItems splits a rendered Rust source blob into top-level items,
// attributing a preceding #[derive(...)] attribute line to the item it
// decorates, and peeling off leading `use` lines as UseSort items. This is
// the concrete (brace-counting, not a full parser) backend for the
// externally-specified `parse` collaborator (§6).
func parseItems(code string) ([]state.ParsedItem, error) {
	lines := strings.Split(code, "\n")
	var items []state.ParsedItem

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "use ") {
			items = append(items, state.ParsedItem{
				Sort: state.ItemSort{Kind: state.UseSortKind},
				Code: trimmed,
			})
			i++
			continue
		}

		var derives map[string]struct{}
		if m := deriveAttrRe.FindStringSubmatch(trimmed); m != nil {
			derives = make(map[string]struct{})
			for _, d := range strings.Split(m[1], ",") {
				derives[strings.TrimSpace(d)] = struct{}{}
			}
			i++
			if i >= len(lines) {
				break
			}
			trimmed = strings.TrimSpace(lines[i])
		}

		m := itemHeaderRe.FindStringSubmatch(trimmed)
		if m == nil {
			i++
			continue
		}
		kw, name := m[1], m[2]
		start := i
		end := findItemEnd(lines, i)

		body := strings.Join(lines[start:end+1], "\n")

		var sort state.ItemSort
		switch kw {
		case "struct", "enum", "union", "type":
			sort = state.ItemSort{Kind: state.TypeSortKind, Derives: derives}
		case "fn":
			sig := extractSignature(trimmed)
			shape, normalized := normalizeSignature(sig)
			sort = state.ItemSort{
				Kind:                  state.FuncSortKind,
				Signature:             sig,
				NormalizedSignatureTy: shape,
				NormalizedSignature:   normalized,
			}
		default:
			sort = state.ItemSort{Kind: state.VarSortKind}
		}

		items = append(items, state.ParsedItem{Name: name, Sort: sort, Code: body})
		i = end + 1
	}
	return items, nil
}

// findItemEnd scans forward from start, returning the index of the line
// that closes the item: the first `;`-terminated line for type-alias/const/
// static declarations with no braces, or the line whose brace depth returns
// to zero for brace-delimited items.
func findItemEnd(lines []string, start int) int {
	depth := 0
	seenBrace := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				seenBrace = true
			case '}':
				depth--
			}
		}
		if seenBrace && depth <= 0 {
			return i
		}
		if !seenBrace && strings.Contains(lines[i], ";") {
			return i
		}
	}
	return len(lines) - 1
}

var sigRe = regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+\w+\s*(?:<[^>]*>)?\s*\([^)]*\)(?:\s*->\s*[^\{;]+)?`)

func extractSignature(headerLine string) string {
	if m := sigRe.FindString(headerLine); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(headerLine)
}

var sigParenRe = regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+\w+\s*(?:<[^>]*>)?\s*\(`)

// normalizeSignature derives the structural dedup key original_source calls
// normalized_signature_ty: parameter types with names stripped and whitespace
// collapsed, plus the return type, so two candidates that differ only in
// parameter-name spelling or formatting hash to the same shape (§4.H's
// sig_map is keyed on this, not on the printable signature text). It also
// returns a normalized printable rendering for logging/diagnostics.
func normalizeSignature(sig string) (state.SignatureShape, string) {
	openIdx := sigParenRe.FindStringIndex(sig)
	if openIdx == nil {
		collapsed := collapseWhitespace(sig)
		return state.SignatureShape{ParamCount: 0, Shape: collapsed}, collapsed
	}
	parenStart := openIdx[1] - 1
	parenEnd := matchingParen(sig, parenStart)
	if parenEnd < 0 {
		collapsed := collapseWhitespace(sig)
		return state.SignatureShape{ParamCount: 0, Shape: collapsed}, collapsed
	}

	paramsRaw := sig[parenStart+1 : parenEnd]
	params := splitTopLevelCommas(paramsRaw)

	var types []string
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		types = append(types, normalizeParamType(p))
	}

	ret := "()"
	if arrow := strings.Index(sig[parenEnd:], "->"); arrow >= 0 {
		ret = collapseWhitespace(sig[parenEnd+arrow+2:])
		ret = strings.TrimSuffix(ret, "{")
		ret = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(ret), ";"))
		if ret == "" {
			ret = "()"
		}
	}

	shape := fmt.Sprintf("(%s)->%s", strings.Join(types, ","), ret)
	normalized := fmt.Sprintf("fn(%s) -> %s", strings.Join(types, ", "), ret)
	return state.SignatureShape{ParamCount: len(types), Shape: shape}, normalized
}

// normalizeParamType strips a `name: Type` / `mut name: Type` parameter down
// to just its (whitespace-collapsed) type, leaving receiver params
// (`self`, `&self`, `&mut self`) untouched.
func normalizeParamType(param string) string {
	trimmed := strings.TrimSpace(param)
	bare := strings.TrimPrefix(strings.TrimPrefix(trimmed, "&mut "), "&")
	if bare == "self" {
		return collapseWhitespace(trimmed)
	}
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		return collapseWhitespace(trimmed[idx+1:])
	}
	return collapseWhitespace(trimmed)
}

// splitTopLevelCommas splits on commas that are not nested inside
// <>, (), or [] (generic args, tuple types, array/slice types).
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

// matchingParen returns the index of the ')' matching the '(' at openIdx,
// or -1 if unbalanced.
func matchingParen(s string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
