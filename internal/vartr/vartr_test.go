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

package vartr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/state"
)

func TestDedupAgainstCommitted_DropsCommittedNames(t *testing.T) {
	tstate := state.New()
	tstate.TranslatedTermNames["x"] = struct{}{}

	items := []state.ParsedItem{
		{Name: "x", Sort: state.ItemSort{Kind: state.VarSortKind}},
		{Name: "y", Sort: state.ItemSort{Kind: state.VarSortKind}},
		{Name: "use std::fmt;", Sort: state.ItemSort{Kind: state.UseSortKind}},
	}
	out := dedupAgainstCommitted(items, tstate)

	var names []string
	for _, it := range out {
		names = append(names, it.Name)
	}
	assert.ElementsMatch(t, []string{"y", "use std::fmt;"}, names)
}

func TestHasItem(t *testing.T) {
	items := []state.ParsedItem{{Name: "x"}, {Name: "y"}}
	assert.True(t, hasItem(items, "y"))
	assert.False(t, hasItem(items, "z"))
}

func TestExpandTypeDeps_PullsInTransitiveMembers(t *testing.T) {
	foo := cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant}
	bar := cparse.CustomType{Name: "Bar", Variant: cparse.StructVariant}
	baz := cparse.CustomType{Name: "Baz", Variant: cparse.StructVariant}

	direct := []cparse.TypeDependency{{Type: foo}}
	transitive := map[cparse.CustomType][]cparse.CustomType{
		foo: {bar, baz},
	}
	out := expandTypeDeps(direct, transitive)
	assert.Equal(t, []cparse.CustomType{foo, bar, baz}, out)
}

func TestExpandTypeDeps_DedupsAcrossDirectDeps(t *testing.T) {
	foo := cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant}
	bar := cparse.CustomType{Name: "Bar", Variant: cparse.StructVariant}
	shared := cparse.CustomType{Name: "Shared", Variant: cparse.StructVariant}

	direct := []cparse.TypeDependency{{Type: foo}, {Type: bar}}
	transitive := map[cparse.CustomType][]cparse.CustomType{
		foo: {shared},
		bar: {shared},
	}
	out := expandTypeDeps(direct, transitive)
	assert.Equal(t, []cparse.CustomType{foo, shared, bar}, out)
}

func TestJoinCode(t *testing.T) {
	items := []state.ParsedItem{
		{Name: "x", Code: "static X: i32 = 1;"},
		{Name: "y", Code: "static Y: i32 = 2;"},
	}
	assert.Equal(t, "static X: i32 = 1;\nstatic Y: i32 = 2;\n", joinCode(items))
}
