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

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/llmclient"
)

type fakeClient struct {
	llmclient.Client
	typeNames map[string]string
	varNames  map[string]string
	funcNames map[string]string
}

func (f *fakeClient) RenameType(_ context.Context, name string) (string, error) {
	return f.typeNames[name], nil
}

func (f *fakeClient) RenameVariable(_ context.Context, name string) (string, error) {
	return f.varNames[name], nil
}

func (f *fakeClient) RenameFunction(_ context.Context, name string) (string, error) {
	return f.funcNames[name], nil
}

func TestBuild_AppliesCollisionRules(t *testing.T) {
	client := &fakeClient{
		typeNames: map[string]string{"MaybeInt": "Option"},
		varNames:  map[string]string{"counter": "counter"},
		funcNames: map[string]string{"main": "main", "helper": "helper"},
	}
	types := []cparse.CustomType{{Name: "MaybeInt", Variant: cparse.Typedef}}

	reg, err := Build(context.Background(), client, types, []string{"counter"}, []string{"main", "helper"})
	require.NoError(t, err)

	assert.Equal(t, "MyOption", reg.Types[types[0]])
	assert.Equal(t, "counter", reg.Terms["counter"])
	assert.Equal(t, "my_main", reg.Terms["main"])
	assert.Equal(t, "helper", reg.Terms["helper"])
}
