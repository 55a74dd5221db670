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

package llmclient

import "context"

// CompareResult mirrors Rust's std::cmp::Ordering for the pairwise
// function-candidate comparison (§4.H).
type CompareResult int

const (
	Less CompareResult = iota - 1
	Equal
	Greater
)

// Client is the nine-call translation contract of §6, backing every LLM
// touchpoint in internal/registry, internal/typetr, internal/vartr,
// internal/functr and internal/repair.
type Client interface {
	// RenameType proposes an idiomatic target name for a C nominal type.
	RenameType(ctx context.Context, name string) (string, error)
	// RenameVariable proposes a target name for a C global variable.
	RenameVariable(ctx context.Context, name string) (string, error)
	// RenameFunction proposes a target name for a C function.
	RenameFunction(ctx context.Context, name string) (string, error)

	// TranslateType translates one typedef/struct/union declaration. sort
	// is a human label ("typedef"/"struct"/"union") threaded into the
	// prompt, not parsed back out.
	TranslateType(ctx context.Context, code, sort, prefix string) (string, error)

	// TranslateVariable translates one global variable declaration.
	TranslateVariable(ctx context.Context, code, prefix string) (string, error)

	// TranslateSignature proposes up to n candidate function signatures
	// for a C function body, returned as raw candidate lines.
	TranslateSignature(ctx context.Context, code, newName, prefix string, n int) ([]string, error)

	// TranslateFunction translates a function body under a fixed
	// signature line.
	TranslateFunction(ctx context.Context, code, sig, prefix string) (string, error)

	// Fix proposes a revised version of code given one compiler
	// diagnostic message.
	Fix(ctx context.Context, code, message string) (string, error)

	// Compare ranks two candidate translations, Less meaning a is
	// preferred over b. Pairwise only — §9 acknowledges this is not
	// guaranteed transitive across more than two candidates.
	Compare(ctx context.Context, a, b string) (CompareResult, error)
}
