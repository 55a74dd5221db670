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

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relanguage-io/c2rust/internal/cparse"
)

func TestCommitAndEmit(t *testing.T) {
	s := New()
	ty := cparse.CustomType{Name: "Pair", Variant: cparse.StructVariant}
	s.Commit(KindType, ty, &TranslationResult{
		Items: []ParsedItem{{Name: "MyPair", Code: "struct MyPair { x: i32 }\n"}},
		Uses:  map[string]struct{}{"use std::fmt;": {}},
	})
	s.Commit(KindFunction, "main_fn", &TranslationResult{
		Items: []ParsedItem{{Name: "my_main_fn", Code: "fn my_main_fn() {}\n"}},
	})

	assert.True(t, s.HasTranslatedName("MyPair"))
	assert.True(t, s.HasTranslatedName("my_main_fn"))

	out := s.Emit()
	assert.Contains(t, out, "use std::fmt;")
	assert.Contains(t, out, "struct MyPair")
	assert.Contains(t, out, "fn my_main_fn()")
	assert.Contains(t, out, "fn main() {}")
}

func TestEmit_SkipsCopied(t *testing.T) {
	s := New()
	ty := cparse.CustomType{Name: "Alias", Variant: cparse.Typedef}
	s.Commit(KindType, ty, &TranslationResult{
		Copied: true,
		Items:  []ParsedItem{{Name: "MyAlias", Code: "type MyAlias = Other;\n"}},
	})
	out := s.Emit()
	assert.NotContains(t, out, "MyAlias")
}
