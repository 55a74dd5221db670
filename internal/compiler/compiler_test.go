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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsp "github.com/sourcegraph/go-lsp"
)

func TestParseItems(t *testing.T) {
	code := "use std::fmt;\n\n#[derive(Clone, Debug)]\nstruct Pair {\n    x: i32,\n}\n\nfn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n"
	items, err := parseItems(code)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "use std::fmt;", items[0].Code)

	assert.Equal(t, "Pair", items[1].Name)
	_, hasClone := items[1].Sort.Derives["Clone"]
	assert.True(t, hasClone)

	assert.Equal(t, "add", items[2].Name)
	assert.Contains(t, items[2].Sort.Signature, "fn add(a: i32, b: i32) -> i32")
}

func TestApplySuggestions(t *testing.T) {
	code := "let x = old_call();"
	out := ApplySuggestions(code, []Suggestion{{
		Range:        lsp.Range{Start: lsp.Position{Line: 0, Character: 8}, End: lsp.Position{Line: 0, Character: 18}},
		Replacement:  "new_call()",
		MachineApply: true,
	}})
	assert.Equal(t, "let x = new_call();", out)
}

func TestNormalizeSignature_IgnoresParamNamesAndSpacing(t *testing.T) {
	shapeA, _ := normalizeSignature("fn add(a: i32, b: i32) -> i32")
	shapeB, _ := normalizeSignature("fn add(x:i32,y:i32)->i32")
	assert.Equal(t, shapeA, shapeB)
	assert.Equal(t, 2, shapeA.ParamCount)
}

func TestNormalizeSignature_DistinguishesParamTypes(t *testing.T) {
	shapeA, _ := normalizeSignature("fn add(a: i32, b: i32) -> i32")
	shapeB, _ := normalizeSignature("fn add(a: i32, b: i64) -> i32")
	assert.NotEqual(t, shapeA, shapeB)
}

func TestNormalizeSignature_UnitReturn(t *testing.T) {
	shape, normalized := normalizeSignature("fn run(a: &mut Ctx)")
	assert.Equal(t, 1, shape.ParamCount)
	assert.Equal(t, "fn(&mut Ctx) -> ()", normalized)
}

func TestParseItems_PopulatesNormalizedSignature(t *testing.T) {
	code := "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n"
	items, err := parseItems(code)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Sort.NormalizedSignatureTy.ParamCount)
	assert.Equal(t, "fn(i32, i32) -> i32", items[0].Sort.NormalizedSignature)
}

func TestParseDeriveDiagnostic(t *testing.T) {
	item, derive, ok := parseDeriveDiagnostic("the trait `Eq` is not implemented for `Pair`")
	require.True(t, ok)
	assert.Equal(t, "Pair", item)
	assert.Equal(t, "Eq", derive)
}
