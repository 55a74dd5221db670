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

// Package config loads the engine's YAML configuration, in the teacher's
// style (see llm/skill's frontmatter loading and llm/api.go's ModelConfig).
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/relanguage-io/c2rust/internal/llmclient"
)

// EngineConfig is the top-level configuration for one translation run
// (§6, §4.H, §4.I).
type EngineConfig struct {
	Model llmclient.ModelConfig `yaml:"model"`

	// TryMultipleSignatures requests up to 3 candidate function signatures
	// instead of exactly 1 (§4.H).
	TryMultipleSignatures bool `yaml:"try_multiple_signatures"`

	// FixErrors gates tier 3 (LLM-assisted) repair for variables and
	// functions; tiers 1-2 always run (§4.E, §4.G, §4.H).
	FixErrors bool `yaml:"fix_errors"`

	// Concurrency bounds the scheduler's per-wave dispatch. Registry
	// renaming, repair tier-3 and signature exploration are not limited by it.
	Concurrency int `yaml:"concurrency"`

	// CompilerPath is handed to compiler.New (default "cargo", mirroring
	// lang/rust/writer's CompilerPath). Type checking always runs `rustc`
	// from PATH, whatever this is set to.
	CompilerPath string `yaml:"compiler_path"`

	// OutputDir is loaded from the config file but no component reads it;
	// the CLI writes the emitted translation to -o or to stdout.
	OutputDir string `yaml:"output_dir"`
}

// Default returns an EngineConfig with the engine's baseline defaults.
func Default() *EngineConfig {
	return &EngineConfig{
		TryMultipleSignatures: true,
		FixErrors:             true,
		Concurrency:           4,
		CompilerPath:          "cargo",
		OutputDir:             ".",
	}
}

// Load reads and parses an EngineConfig from a YAML file at path, filling
// in defaults for any zero-valued field the file leaves unset.
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.CompilerPath == "" {
		cfg.CompilerPath = "cargo"
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = 600 * time.Second
	}
	return cfg, nil
}
