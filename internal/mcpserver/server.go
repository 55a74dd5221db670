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

// Package mcpserver exposes the translation engine as an MCP tool,
// grounded on the teacher's llm/mcp.NewTool generic wrapper and its
// stdio-server wiring in main.go's "mcp" subcommand.
package mcpserver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/relanguage-io/c2rust/internal/config"
	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/engine"
	"github.com/relanguage-io/c2rust/internal/logx"
)

var log = logx.New("mcpserver")

const (
	toolTranslateModule = "translate_module"
	descTranslateModule = "Translate a preprocessed C translation unit into Rust, returning the emitted program and a per-run error/signature-only summary."
)

var schemaTranslateModule = json.RawMessage(`{
	"type": "object",
	"properties": {
		"source_path": {"type": "string", "description": "path to a preprocessed C source file"},
		"config_path": {"type": "string", "description": "path to an engine.yaml config file (optional)"}
	},
	"required": ["source_path"]
}`)

// TranslateModuleRequest is the translate_module tool's argument shape.
type TranslateModuleRequest struct {
	SourcePath string `json:"source_path"`
	ConfigPath string `json:"config_path"`
}

// TranslateModuleResponse is the translate_module tool's result shape.
type TranslateModuleResponse struct {
	Code   string         `json:"code"`
	Result *engine.Result `json:"result"`
}

// ServerOptions configures the MCP server (§6's CLI/server wiring).
type ServerOptions struct {
	ServerName    string
	ServerVersion string
	Verbose       bool
	DefaultConfig *config.EngineConfig
}

// Server wraps an mcp-go server pre-registered with the translation tool.
type Server struct {
	mcp *server.MCPServer
}

// NewServer constructs a Server exposing translate_module.
func NewServer(opts ServerOptions) *Server {
	if opts.Verbose {
		logx.SetLevel(logx.LevelDebug)
	}
	s := server.NewMCPServer(opts.ServerName, opts.ServerVersion)

	handler := func(ctx context.Context, req TranslateModuleRequest) (*TranslateModuleResponse, error) {
		return handleTranslateModule(ctx, req, opts.DefaultConfig)
	}
	s.AddTool(
		mcp.NewToolWithRawSchema(toolTranslateModule, descTranslateModule, schemaTranslateModule),
		wrapHandler(handler),
	)
	return &Server{mcp: s}
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func handleTranslateModule(ctx context.Context, req TranslateModuleRequest, defaultCfg *config.EngineConfig) (*TranslateModuleResponse, error) {
	if req.SourcePath == "" {
		return nil, errors.New("mcpserver: source_path is required")
	}
	src, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "mcpserver: read %s", req.SourcePath)
	}

	cfg := defaultCfg
	if req.ConfigPath != "" {
		cfg, err = config.Load(req.ConfigPath)
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = config.Default()
	}

	prog, err := cparse.ParseTreeSitter(ctx, req.SourcePath, src)
	if err != nil {
		return nil, errors.Wrap(err, "mcpserver: parse source")
	}

	code, result, err := engine.Translate(ctx, cfg, prog)
	if err != nil {
		return nil, err
	}
	log.Info("translated %s: %d errors", req.SourcePath, result.Errors)
	return &TranslateModuleResponse{Code: code, Result: result}, nil
}

// wrapHandler adapts a typed (req -> resp, error) handler to mcp-go's raw
// CallToolRequest/CallToolResult contract, mirroring the teacher's
// llm/mcp.NewTool generic wrapper.
func wrapHandler[Req any, Resp any](handler func(ctx context.Context, req Req) (*Resp, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req Req
		if err := request.BindArguments(&req); err != nil {
			return nil, err
		}
		resp, err := handler(ctx, req)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(err.Error())},
				IsError: true,
			}, nil
		}
		js, err := json.Marshal(resp)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.NewTextContent(err.Error())},
				IsError: true,
			}, nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(js))}}, nil
	}
}
