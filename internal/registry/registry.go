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

// Package registry builds the frozen source-name -> target-name mapping
// (§4.B), mirroring original_source's Translator::translate_names.
package registry

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/llmclient"
	"github.com/relanguage-io/c2rust/internal/logx"
)

var log = logx.New("registry")

// Registry is the frozen set of renames. It is built once before any
// translation begins and never mutated afterward.
type Registry struct {
	Types map[cparse.CustomType]string
	Terms map[string]string
}

// Build issues every rename request (types, variables and functions)
// concurrently in one errgroup with no concurrency limit, and applies the
// two post-processing collision rules from §4.B.
func Build(ctx context.Context, client llmclient.Client, types []cparse.CustomType, vars, funcs []string) (*Registry, error) {
	typeNames := make([]string, len(types))
	varNames := make([]string, len(vars))
	funcNames := make([]string, len(funcs))

	g, gctx := errgroup.WithContext(ctx)

	for i, ty := range types {
		i, ty := i, ty
		g.Go(func() error {
			name, err := client.RenameType(gctx, ty.Name)
			if err != nil {
				return errors.Wrapf(err, "registry: rename type %q", ty.Name)
			}
			typeNames[i] = name
			return nil
		})
	}
	for i, v := range vars {
		i, v := i, v
		g.Go(func() error {
			name, err := client.RenameVariable(gctx, v)
			if err != nil {
				return errors.Wrapf(err, "registry: rename variable %q", v)
			}
			varNames[i] = name
			return nil
		})
	}
	for i, f := range funcs {
		i, f := i, f
		g.Go(func() error {
			name, err := client.RenameFunction(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "registry: rename function %q", f)
			}
			funcNames[i] = name
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := &Registry{
		Types: make(map[cparse.CustomType]string, len(types)),
		Terms: make(map[string]string, len(vars)+len(funcs)),
	}
	for i, ty := range types {
		name := typeNames[i]
		if name == "Option" {
			name = "My" + name
		}
		reg.Types[ty] = name
	}
	for i, v := range vars {
		reg.Terms[v] = varNames[i]
	}
	for i, f := range funcs {
		name := funcNames[i]
		if name == "main" {
			name = "my_" + name
		}
		reg.Terms[f] = name
	}

	log.Info("built registry: %d types, %d terms", len(reg.Types), len(reg.Terms))
	return reg, nil
}
