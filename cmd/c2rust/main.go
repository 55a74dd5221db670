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

// Command c2rust runs the dependency-ordered C-to-Rust translation engine,
// modeled on the teacher's single flag.NewFlagSet-based CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/relanguage-io/c2rust/internal/config"
	"github.com/relanguage-io/c2rust/internal/cparse"
	"github.com/relanguage-io/c2rust/internal/engine"
	"github.com/relanguage-io/c2rust/internal/llmclient"
	"github.com/relanguage-io/c2rust/internal/logx"
	"github.com/relanguage-io/c2rust/internal/mcpserver"
)

const version = "0.1.0"

const usage = `c2rust <Action> <Path> [Flags]
Action:
   translate    translate a preprocessed C translation unit into Rust
   mcp          run as an MCP server exposing translate_module
   version      print the version of c2rust

Flags:
`

func main() {
	flags := flag.NewFlagSet("c2rust", flag.ExitOnError)
	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagOutput := flags.String("o", "", "Output path (default: stdout).")
	flagConfig := flags.String("config", "", "Path to an engine.yaml config file.")
	flagModelType := flags.String("model-type", "claude", "Chat model backend: ark, claude, ollama, openai, qwen.")
	flagModelName := flags.String("model-name", "", "Chat model endpoint name.")
	flagAPIKey := flags.String("api-key", "", "Chat model API key.")
	flagBaseURL := flags.String("base-url", "", "Chat model base URL.")
	flagNoMultiSig := flags.Bool("no-multi-signature", false, "Request exactly one function signature instead of up to three.")
	flagNoFixErrors := flags.Bool("no-fix-errors", false, "Skip tier-3 LLM-assisted repair for variables and functions; types always get all three tiers.")
	flagConcurrency := flags.Int("concurrency", 4, "Max in-flight parallel translations per scheduler wave.")
	flagCompiler := flags.String("compiler", "cargo", "Destination compiler path.")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	flags.Parse(os.Args[2:])

	if *flagHelp {
		flags.Usage()
		return
	}
	if *flagVerbose {
		logx.SetLevel(logx.LevelDebug)
	}

	action := os.Args[1]
	switch action {
	case "version":
		fmt.Println(version)

	case "translate":
		path := flags.Arg(0)
		if path == "" {
			fmt.Fprintln(os.Stderr, "c2rust: Path argument is required")
			os.Exit(1)
		}
		runTranslate(path, *flagOutput, *flagConfig, *flagModelType, *flagModelName, *flagAPIKey, *flagBaseURL,
			*flagNoMultiSig, *flagNoFixErrors, *flagConcurrency, *flagCompiler)

	case "mcp":
		cfg := loadOrBuildConfig(*flagConfig, *flagModelType, *flagModelName, *flagAPIKey, *flagBaseURL,
			*flagNoMultiSig, *flagNoFixErrors, *flagConcurrency, *flagCompiler)
		svr := mcpserver.NewServer(mcpserver.ServerOptions{
			ServerName:    "c2rust",
			ServerVersion: version,
			Verbose:       *flagVerbose,
			DefaultConfig: cfg,
		})
		if err := svr.ServeStdio(); err != nil {
			fmt.Fprintf(os.Stderr, "c2rust: mcp server failed: %v\n", err)
			os.Exit(1)
		}

	default:
		flags.Usage()
		os.Exit(1)
	}
}

func modelTypeFromFlag(s string) llmclient.ModelType {
	return llmclient.NewModelType(s)
}

func runTranslate(path, output, configPath, modelType, modelName, apiKey, baseURL string,
	noMultiSig, noFixErrors bool, concurrency int, compilerPath string) {
	cfg := loadOrBuildConfig(configPath, modelType, modelName, apiKey, baseURL, noMultiSig, noFixErrors, concurrency, compilerPath)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "c2rust: read %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx := context.Background()
	prog, err := cparse.ParseTreeSitter(ctx, path, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "c2rust: parse %s: %v\n", path, err)
		os.Exit(1)
	}

	code, result, err := engine.Translate(ctx, cfg, prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "c2rust: translate %s: %v\n", path, err)
		os.Exit(1)
	}

	if output == "" {
		fmt.Println(code)
	} else if err := os.WriteFile(output, []byte(code), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "c2rust: write %s: %v\n", output, err)
		os.Exit(1)
	}

	if result.Errors > 0 {
		fmt.Fprintf(os.Stderr, "c2rust: %d residual compiler error(s) across %d node(s); %d item(s) signature-only\n",
			result.Errors, len(result.FailedNodes), len(result.SignatureOnly))
	}
}

func loadOrBuildConfig(configPath, modelType, modelName, apiKey, baseURL string,
	noMultiSig, noFixErrors bool, concurrency int, compilerPath string) *config.EngineConfig {
	var cfg *config.EngineConfig
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "c2rust: load config %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if modelName != "" {
		cfg.Model.ModelName = modelName
	}
	if apiKey != "" {
		cfg.Model.APIKey = apiKey
	}
	if baseURL != "" {
		cfg.Model.BaseURL = baseURL
	}
	cfg.Model.APIType = modelTypeFromFlag(modelType)

	if noMultiSig {
		cfg.TryMultipleSignatures = false
	}
	if noFixErrors {
		cfg.FixErrors = false
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if compilerPath != "" {
		cfg.CompilerPath = compilerPath
	}
	return cfg
}
