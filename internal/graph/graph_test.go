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

package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondenseSCC_DAG(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	}
	g := Build([]string{"a", "b", "c"}, func(k string) []string { return deps[k] })
	sccs := CondenseSCC(g)

	require.Len(t, sccs.ElemMap, 3)
	idA, _ := sccs.MemberSCC("a")
	idB, _ := sccs.MemberSCC("b")
	idC, _ := sccs.MemberSCC("c")
	assert.Contains(t, sccs.DAG[idA], idB)
	assert.Contains(t, sccs.DAG[idB], idC)
	assert.NotContains(t, sccs.DAG[idC], idA)
}

func TestCondenseSCC_Cycle(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	g := Build([]string{"a", "b"}, func(k string) []string { return deps[k] })
	sccs := CondenseSCC(g)

	require.Len(t, sccs.ElemMap, 1)
	idA, _ := sccs.MemberSCC("a")
	idB, _ := sccs.MemberSCC("b")
	assert.Equal(t, idA, idB)
	members := sccs.ElemMap[idA]
	sort.Strings(members)
	assert.Equal(t, []string{"a", "b"}, members)
}

func TestCondenseSCC_Empty(t *testing.T) {
	g := Build[string](nil, func(string) []string { return nil })
	sccs := CondenseSCC(g)
	assert.Empty(t, sccs.ElemMap)
	assert.Empty(t, sccs.DAG)
}

func TestTransitiveClosure(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": nil,
	}
	g := Build([]string{"a", "b", "c"}, func(k string) []string { return deps[k] })
	tc := TransitiveClosure(g)

	_, hasC := tc["a"]["c"]
	assert.True(t, hasC)
	assert.Empty(t, tc["c"])
}
