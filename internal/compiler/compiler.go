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

// Package compiler wraps the target-language compiler (cargo/rustc) as a
// stateless, reentrant type-checking oracle (§5, §6), modeled the way the
// teacher's lang/rust/writer shells out to cargo/rustfmt.
package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/relanguage-io/c2rust/internal/logx"
	"github.com/relanguage-io/c2rust/internal/state"
)

var log = logx.New("compiler")

// Diagnostic is one compiler error with its location.
type Diagnostic struct {
	Range   lsp.Range
	Message string
}

// Line returns the diagnostic's 1-based starting line, matching
// rustc's human-readable line numbering.
func (d Diagnostic) Line() int { return d.Range.Start.Line + 1 }

// Suggestion is a rustfix-style machine-applicable fix.
type Suggestion struct {
	Range        lsp.Range
	Replacement  string
	MachineApply bool
}

// ImportHint is a compiler-suggested "add this import" hint.
type ImportHint struct {
	Path string // e.g. "use std::fmt;"
}

// TypeCheckingResult is the parsed outcome of one type_check invocation.
type TypeCheckingResult struct {
	Errors      []Diagnostic
	Uses        []string
	Suggestions []Suggestion
	Imports     []ImportHint
	Passed      bool
}

// Compiler shells out to a real rustc toolchain. Every call is reentrant and
// stateless: each invocation compiles a fresh, self-contained program string
// with --emit=metadata, so checking never requires linkage (§5). The wrapper
// adds nothing to the program; callers supply the empty `fn main() {}`
// (TranslationState.Emit ends with one, and use-probes append one).
type Compiler struct {
	path    string // configured compiler path, default "cargo"; not used by TypeCheck
	workDir string // scratch directory for throwaway check crates
}

// New returns a Compiler recording path (default "cargo" if empty) and
// using dir as scratch space for throwaway single-file check crates.
// TypeCheck and CheckDerive always invoke `rustc` from PATH; path does not
// change which binary runs.
func New(path, dir string) *Compiler {
	if path == "" {
		path = "cargo"
	}
	return &Compiler{path: path, workDir: dir}
}

// TypeCheck compiles code as a standalone program and reports diagnostics.
// It never returns an error for a program that merely fails to compile —
// that is communicated via Passed=false and a populated Errors list. An
// error return means the compiler itself could not be invoked.
func (c *Compiler) TypeCheck(ctx context.Context, code string) (*TypeCheckingResult, error) {
	out, err := c.runRustc(ctx, code)
	if err != nil {
		return nil, err
	}
	return parseRustcJSON(out), nil
}

// CheckDerive asks the compiler which derive annotations on which items are
// unjustified, returning item name -> set of derive names to remove.
func (c *Compiler) CheckDerive(ctx context.Context, code string) (map[string]map[string]struct{}, error) {
	res, err := c.TypeCheck(ctx, code)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]struct{})
	for _, d := range res.Errors {
		item, derive, ok := parseDeriveDiagnostic(d.Message)
		if !ok {
			continue
		}
		if out[item] == nil {
			out[item] = make(map[string]struct{})
		}
		out[item][derive] = struct{}{}
	}
	return out, nil
}

var deriveDiagRe = regexp.MustCompile(`the trait bound \x60.*\x60 for \x60(\w+)\x60 is not satisfied because of a mismatch in (\w+)`)
var deriveSimpleRe = regexp.MustCompile(`the trait \x60(\w+)\x60 is not implemented for \x60(\w+)\x60`)

// parseDeriveDiagnostic extracts (item, derive) from a derive-related rustc
// diagnostic message. Returns ok=false for any unrelated diagnostic.
func parseDeriveDiagnostic(msg string) (item, derive string, ok bool) {
	if m := deriveSimpleRe.FindStringSubmatch(msg); m != nil {
		return m[2], m[1], true
	}
	if m := deriveDiagRe.FindStringSubmatch(msg); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// ApplySuggestions applies every machine-applicable suggestion to code,
// splicing from the last suggestion to the first so earlier offsets stay
// valid (rustfix-equivalent, §6).
func ApplySuggestions(code string, suggestions []Suggestion) string {
	lines := strings.Split(code, "\n")
	type edit struct {
		lineIdx int
		s       Suggestion
	}
	var edits []edit
	for _, s := range suggestions {
		if !s.MachineApply {
			continue
		}
		edits = append(edits, edit{lineIdx: s.Range.Start.Line, s: s})
	}
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if e.lineIdx < 0 || e.lineIdx >= len(lines) {
			continue
		}
		line := lines[e.lineIdx]
		start := e.s.Range.Start.Character
		end := e.s.Range.End.Character
		if start < 0 || end > len(line) || start > end {
			continue
		}
		lines[e.lineIdx] = line[:start] + e.s.Replacement + line[end:]
	}
	return strings.Join(lines, "\n")
}

// Parse splits code into top-level items via a light brace-matching scan
// (the concrete counterpart to the spec's external `parse` collaborator).
func Parse(code string) ([]state.ParsedItem, error) {
	return parseItems(code)
}

func (c *Compiler) runRustc(ctx context.Context, code string) ([]byte, error) {
	dir := c.workDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "c2rust-check-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)
	}
	srcPath := filepath.Join(dir, "check.rs")
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "rustc", "--edition", "2021", "--error-format=json",
		"--emit=metadata", "-o", filepath.Join(dir, "check.rmeta"), srcPath)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		// rustc exits non-zero on compile errors; that is expected. Any other
		// failure means rustc itself could not be run.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}
	return out, nil
}

// parseRustcJSON parses rustc's `--error-format=json` line-delimited
// diagnostics into a TypeCheckingResult.
func parseRustcJSON(out []byte) *TypeCheckingResult {
	res := &TypeCheckingResult{Passed: true}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] != '{' {
			continue
		}
		var msg rustcMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		if msg.Level != "error" {
			continue
		}
		res.Passed = false
		d := Diagnostic{Message: msg.Message}
		if len(msg.Spans) > 0 {
			sp := msg.Spans[0]
			d.Range = lsp.Range{
				Start: lsp.Position{Line: sp.LineStart - 1, Character: sp.ColumnStart - 1},
				End:   lsp.Position{Line: sp.LineEnd - 1, Character: sp.ColumnEnd - 1},
			}
			for _, sg := range sp.Suggestions {
				res.Suggestions = append(res.Suggestions, Suggestion{
					Range:        d.Range,
					Replacement:  sg,
					MachineApply: true,
				})
			}
		}
		if imp := extractImportHint(msg.Message); imp != "" {
			res.Imports = append(res.Imports, ImportHint{Path: imp})
		}
		res.Errors = append(res.Errors, d)
	}
	return res
}

var importHintRe = regexp.MustCompile(`consider importing (?:this|one of these)[^` + "`" + `]*` + "`" + `([^` + "`" + `]+)` + "`")

func extractImportHint(msg string) string {
	m := importHintRe.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	return "use " + m[1] + ";"
}

type rustcSpan struct {
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end"`
	ColumnStart int      `json:"column_start"`
	ColumnEnd   int      `json:"column_end"`
	Suggestions []string `json:"suggested_replacement,omitempty"`
}

type rustcMessage struct {
	Message string      `json:"message"`
	Level   string      `json:"level"`
	Spans   []rustcSpan `json:"spans"`
}

// PrefixLines counts the lines in prefix, so repair.New can assert every
// diagnostic it sees lies strictly after it (§4.E invariant).
func PrefixLines(prefix string) int {
	if prefix == "" {
		return 0
	}
	return strings.Count(prefix, "\n") + 1
}
