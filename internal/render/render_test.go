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

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relanguage-io/c2rust/internal/cparse"
)

func TestSubstitute(t *testing.T) {
	src := []byte("int add(Pair p) { return p.x; }")
	// "Pair" is at byte 8..12
	out, err := Substitute(src, []Sub{{Span: cparse.Span{Start: 8, End: 12}, Replacement: "MyPair"}})
	require.NoError(t, err)
	assert.Equal(t, "int add(MyPair p) { return p.x; }", out)
}

func TestSubstitute_RejectsOverlap(t *testing.T) {
	src := []byte("abcdef")
	_, err := Substitute(src, []Sub{
		{Span: cparse.Span{Start: 0, End: 3}, Replacement: "x"},
		{Span: cparse.Span{Start: 2, End: 4}, Replacement: "y"},
	})
	assert.Error(t, err)
}
