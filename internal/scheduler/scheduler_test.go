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

package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relanguage-io/c2rust/internal/graph"
	"github.com/relanguage-io/c2rust/internal/state"
)

func TestRunKind_DrainsInDependencyOrder(t *testing.T) {
	// c depends on b, b depends on a.
	deps := map[string][]string{"a": nil, "b": {"a"}, "c": {"b"}}
	g := graph.Build([]string{"a", "b", "c"}, func(k string) []string { return deps[k] })
	sccg := graph.CondenseSCC(g)

	var mu sync.Mutex
	var order []string
	committed := make(map[string]*state.TranslationResult)

	err := RunKind(context.Background(), "variable", sccg,
		func(k string) string { return k },
		func(ctx context.Context, member string) (*state.TranslationResult, error) {
			mu.Lock()
			order = append(order, member)
			mu.Unlock()
			return &state.TranslationResult{}, nil
		},
		func(member string, res *state.TranslationResult) {
			committed[member] = res
		},
		4,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Len(t, committed, 3)
}

func TestRunKind_RejectsNonSingletonSCC(t *testing.T) {
	deps := map[string][]string{"a": {"b"}, "b": {"a"}}
	g := graph.Build([]string{"a", "b"}, func(k string) []string { return deps[k] })
	sccg := graph.CondenseSCC(g)

	err := RunKind(context.Background(), "function", sccg,
		func(k string) string { return k },
		func(ctx context.Context, member string) (*state.TranslationResult, error) {
			return &state.TranslationResult{}, nil
		},
		func(member string, res *state.TranslationResult) {},
		4,
	)
	require.Error(t, err)
	var cyc *ErrUnsupportedCycle
	assert.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"a", "b"}, cyc.Members)
}
