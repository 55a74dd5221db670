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

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/relanguage-io/c2rust/internal/logx"
)

var log = logx.New("llmclient")

// einoClient is the concrete Client backed by an eino chat model.
type einoClient struct {
	model model.ToolCallingChatModel
}

// New wraps an already-constructed eino chat model (see NewChatModel) as a
// Client.
func New(m model.ToolCallingChatModel) Client {
	return &einoClient{model: m}
}

func (c *einoClient) generate(ctx context.Context, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	out, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return "", errors.Wrap(err, "llmclient: generate")
	}
	return strings.TrimSpace(out.Content), nil
}

func (c *einoClient) RenameType(ctx context.Context, name string) (string, error) {
	return c.generate(ctx,
		"You rename C type identifiers into idiomatic Rust type names. "+
			"Reply with the new name alone, no punctuation, no explanation.",
		"C type name: "+name)
}

func (c *einoClient) RenameVariable(ctx context.Context, name string) (string, error) {
	return c.generate(ctx,
		"You rename C global variable identifiers into idiomatic Rust "+
			"snake_case names. Reply with the new name alone.",
		"C variable name: "+name)
}

func (c *einoClient) RenameFunction(ctx context.Context, name string) (string, error) {
	return c.generate(ctx,
		"You rename C function identifiers into idiomatic Rust snake_case "+
			"names. Reply with the new name alone.",
		"C function name: "+name)
}

func (c *einoClient) TranslateType(ctx context.Context, code, sort, prefix string) (string, error) {
	return c.generate(ctx,
		"You translate a single C "+sort+" declaration into idiomatic, "+
			"memory-safe Rust. Reply with Rust source only, no fences, no "+
			"commentary. You may emit helper items alongside the main one; "+
			"every `use` statement must be its own line.",
		prefix+"\n\n"+code)
}

func (c *einoClient) TranslateVariable(ctx context.Context, code, prefix string) (string, error) {
	return c.generate(ctx,
		"You translate a single C global variable declaration into "+
			"idiomatic Rust. Reply with Rust source only, no fences, no "+
			"commentary.",
		prefix+"\n\n"+code)
}

type signatureResponse struct {
	Signatures []string `json:"signatures" jsonschema:"description=candidate Rust function signatures, no body"`
}

func (c *einoClient) TranslateSignature(ctx context.Context, code, newName, prefix string, n int) ([]string, error) {
	schemaJSON, err := json.Marshal(jsonschema.Reflect(&signatureResponse{}))
	if err != nil {
		return nil, errors.Wrap(err, "llmclient: reflect signature schema")
	}
	system := "You propose Rust function signatures for a C function being " +
		"translated. Reply with a single JSON object matching this schema, " +
		"and nothing else:\n" + string(schemaJSON)
	user := prefix + "\n\nTarget name: " + newName + "\nC function:\n" + code
	raw, err := c.generate(ctx, system, user)
	if err != nil {
		return nil, err
	}
	var resp signatureResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return nil, errors.Wrap(err, "llmclient: unparseable signature response")
	}
	if len(resp.Signatures) > n {
		resp.Signatures = resp.Signatures[:n]
	}
	return resp.Signatures, nil
}

func (c *einoClient) TranslateFunction(ctx context.Context, code, sig, prefix string) (string, error) {
	return c.generate(ctx,
		"You translate a C function body into idiomatic Rust, implementing "+
			"exactly the following signature (do not change it):\n"+sig+
			"\nReply with Rust source only, no fences, no commentary.",
		prefix+"\n\n"+code)
}

func (c *einoClient) Fix(ctx context.Context, code, message string) (string, error) {
	return c.generate(ctx,
		"You repair a Rust compilation error. Reply with the full corrected "+
			"source, no fences, no commentary, preserving every item name.",
		"Compiler error:\n"+message+"\n\nSource:\n"+code)
}

func (c *einoClient) Compare(ctx context.Context, a, b string) (CompareResult, error) {
	out, err := c.generate(ctx,
		"You judge which of two Rust translation candidates is more "+
			"idiomatic and correct. Reply with exactly one word: \"a\", "+
			"\"b\", or \"equal\".",
		"Candidate a:\n"+a+"\n\nCandidate b:\n"+b)
	if err != nil {
		return Equal, err
	}
	switch strings.ToLower(strings.TrimSpace(out)) {
	case "a":
		return Less, nil
	case "b":
		return Greater, nil
	default:
		return Equal, nil
	}
}

// extractJSON trims any surrounding prose/fences a model adds despite
// instructions, returning the first balanced {...} block.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
