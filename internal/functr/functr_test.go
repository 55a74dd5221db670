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

package functr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/state"
)

func TestDedupSignatures_RejectsUnbalancedAngleBrackets(t *testing.T) {
	raw := []string{
		"fn my_add(a: i32, b: i32) -> i32",
		"fn my_add(a: Vec<i32) -> i32", // unbalanced after stripping "->"
	}
	out := dedupSignatures(raw, "my_add")
	assert.Len(t, out, 1)
	assert.Equal(t, raw[0], out[0])
}

func TestDedupSignatures_DropsWrongName(t *testing.T) {
	raw := []string{"fn other(a: i32) -> i32"}
	out := dedupSignatures(raw, "my_add")
	assert.Empty(t, out)
}

func TestDedupSignatures_StructuralShapeIgnoresParamNamesAndSpacing(t *testing.T) {
	raw := []string{
		"fn my_add(a: i32, b: i32) -> i32",
		"fn my_add(x:i32,y:i32)->i32", // same shape, different names/spacing
		"fn my_add(a: i32, b: i64) -> i32",
	}
	out := dedupSignatures(raw, "my_add")
	assert.Len(t, out, 2)
	assert.Equal(t, raw[0], out[0])
	assert.Equal(t, raw[2], out[1])
}

func TestPreferFaithfulArity_DropsHigherArityWhenFaithfulExists(t *testing.T) {
	sigs := []string{
		"fn f(a: i32) -> i32",
		"fn f(a: i32, b: i32, c: i32) -> i32",
	}
	out := preferFaithfulArity(sigs, 1)
	assert.Equal(t, []string{"fn f(a: i32) -> i32"}, out)
}

func TestPreferFaithfulArity_KeepsAllWhenNoneFaithful(t *testing.T) {
	sigs := []string{
		"fn f(a: i32, b: i32) -> i32",
		"fn f(a: i32, b: i32, c: i32) -> i32",
	}
	out := preferFaithfulArity(sigs, 1)
	assert.Equal(t, sigs, out)
}

func TestExpandTypeDeps_PullsInTransitiveMembers(t *testing.T) {
	foo := cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant}
	bar := cparse.CustomType{Name: "Bar", Variant: cparse.StructVariant}

	direct := []cparse.TypeDependency{{Type: foo}}
	transitive := map[cparse.CustomType][]cparse.CustomType{foo: {bar}}
	out := expandTypeDeps(direct, transitive)
	assert.Equal(t, []cparse.CustomType{foo, bar}, out)
}

func TestJoinCode(t *testing.T) {
	items := []state.ParsedItem{{Name: "a", Code: "fn a() {}"}, {Name: "b", Code: "fn b() {}"}}
	assert.Equal(t, "fn a() {}\nfn b() {}\n", joinCode(items))
}
