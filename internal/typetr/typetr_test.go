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

package typetr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/state"
)

func TestDedupAgainstCommitted_DropsCommittedNames(t *testing.T) {
	tstate := state.New()
	tstate.TranslatedTypeNames["Foo"] = struct{}{}

	items := []state.ParsedItem{
		{Name: "Foo", Sort: state.ItemSort{Kind: state.TypeSortKind}},
		{Name: "Bar", Sort: state.ItemSort{Kind: state.TypeSortKind}},
		{Name: "use std::fmt;", Sort: state.ItemSort{Kind: state.UseSortKind}},
	}
	out := dedupAgainstCommitted(items, tstate)

	var names []string
	for _, it := range out {
		names = append(names, it.Name)
	}
	assert.ElementsMatch(t, []string{"Bar", "use std::fmt;"}, names)
}

func TestHasItem(t *testing.T) {
	items := []state.ParsedItem{{Name: "Foo"}, {Name: "Bar"}}
	assert.True(t, hasItem(items, "Bar"))
	assert.False(t, hasItem(items, "Baz"))
}

func TestJoinCode(t *testing.T) {
	items := []state.ParsedItem{
		{Name: "Foo", Code: "struct Foo;"},
		{Name: "Bar", Code: "struct Bar;"},
	}
	assert.Equal(t, "struct Foo;\nstruct Bar;\n", joinCode(items))
}

func TestAttachDerives_TypedefGetsNone(t *testing.T) {
	items := []state.ParsedItem{{Name: "Foo", Sort: state.ItemSort{Kind: state.TypeSortKind}}}
	attachDerives(items, cparse.CustomType{Name: "Foo", Variant: cparse.Typedef})
	assert.Empty(t, items[0].Sort.Derives)
}

func TestAttachDerives_UnionGetsCloneCopyOnly(t *testing.T) {
	items := []state.ParsedItem{{Name: "Foo", Sort: state.ItemSort{Kind: state.TypeSortKind}}}
	attachDerives(items, cparse.CustomType{Name: "Foo", Variant: cparse.UnionVariant})
	_, hasClone := items[0].Sort.Derives["Clone"]
	_, hasCopy := items[0].Sort.Derives["Copy"]
	_, hasDebug := items[0].Sort.Derives["Debug"]
	assert.True(t, hasClone)
	assert.True(t, hasCopy)
	assert.False(t, hasDebug)
}

func TestAttachDerives_StructGetsFullSet(t *testing.T) {
	items := []state.ParsedItem{{Name: "Foo", Sort: state.ItemSort{Kind: state.TypeSortKind}}}
	attachDerives(items, cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant})
	assert.Len(t, items[0].Sort.Derives, len(DERIVES))
}

func TestAttachDerives_SkipsNonTypeItems(t *testing.T) {
	items := []state.ParsedItem{{Name: "Foo", Sort: state.ItemSort{Kind: state.FuncSortKind}}}
	attachDerives(items, cparse.CustomType{Name: "Foo", Variant: cparse.StructVariant})
	assert.Nil(t, items[0].Sort.Derives)
}
