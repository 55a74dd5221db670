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

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/state"
)

func TestTypeDeps(t *testing.T) {
	prog := cparse.NewProgram("t", []byte("typedef struct foo bar;"))
	inner := cparse.CustomType{Name: "foo", Variant: cparse.StructVariant}
	prog.AddTypedef(&cparse.TypedefDecl{
		Name:         "bar",
		Dependencies: []cparse.TypeDependency{{Type: inner}},
	})
	deps := typeDeps(prog, cparse.CustomType{Name: "bar", Variant: cparse.Typedef})
	assert.Equal(t, []cparse.CustomType{inner}, deps)
}

func TestVarDeps(t *testing.T) {
	prog := cparse.NewProgram("t", nil)
	prog.AddVariable(&cparse.VariableDecl{Name: "x", Dependencies: []cparse.Ref{{Name: "y"}}})
	assert.Equal(t, []string{"y"}, varDeps(prog, "x"))
	assert.Nil(t, varDeps(prog, "missing"))
}

func TestFuncDeps(t *testing.T) {
	prog := cparse.NewProgram("t", nil)
	prog.AddFunction(&cparse.FunctionDecl{Name: "f", Callees: []cparse.Ref{{Name: "g"}}})
	assert.Equal(t, []string{"g"}, funcDeps(prog, "f"))
}

func TestFlattenTransitiveClosure_SortsDeterministically(t *testing.T) {
	foo := cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant}
	bar := cparse.CustomType{Name: "Bar", Variant: cparse.StructVariant}
	baz := cparse.CustomType{Name: "Baz", Variant: cparse.UnionVariant}

	closure := map[cparse.CustomType]map[cparse.CustomType]struct{}{
		foo: {bar: {}, baz: {}},
	}
	out := flattenTransitiveClosure(closure)
	assert.Equal(t, []cparse.CustomType{bar, baz}, out[foo])
}

func TestRecordOutcome(t *testing.T) {
	r := &Result{}
	recordOutcome(r, "a", &state.TranslationResult{Errors: 2})
	recordOutcome(r, "b", &state.TranslationResult{Errors: 0, SignatureOnly: true})
	recordOutcome(r, "c", nil)
	assert.Equal(t, 2, r.Errors)
	assert.ElementsMatch(t, []string{"a", "c"}, r.FailedNodes)
	assert.Equal(t, []string{"b"}, r.SignatureOnly)
}
