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

package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relanguage-io/c2rust/internal/config"
)

func TestHandleTranslateModule_RequiresSourcePath(t *testing.T) {
	_, err := handleTranslateModule(context.Background(), TranslateModuleRequest{}, nil)
	require.Error(t, err)
}

func TestHandleTranslateModule_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := handleTranslateModule(context.Background(), TranslateModuleRequest{
		SourcePath: filepath.Join(dir, "missing.c"),
	}, nil)
	require.Error(t, err)
}

func TestConfigLoad_ReadsFixErrorsFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("fix_errors: false\n"), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.False(t, cfg.FixErrors)
}
