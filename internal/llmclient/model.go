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

// Package llmclient wraps an eino chat model with the nine translation
// contract calls the engine needs (§6), and the model-backend selection
// logic for picking a concrete eino-ext implementation.
package llmclient

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"
)

// ModelType selects the backend wired up in NewChatModel.
type ModelType string

const (
	ModelTypeUnknown ModelType = ""
	ModelTypeOllama  ModelType = "ollama"
	ModelTypeARK     ModelType = "ark"
	ModelTypeOpenAI  ModelType = "openai"
	ModelTypeClaude  ModelType = "claude"
	ModelTypeQwen    ModelType = "qwen"
)

// NewModelType normalizes a free-form config string into a ModelType.
func NewModelType(t string) ModelType {
	switch strings.ToLower(t) {
	case "ollama":
		return ModelTypeOllama
	case "ark", "doubao":
		return ModelTypeARK
	case "openai", "gpt":
		return ModelTypeOpenAI
	case "claude", "anthropic":
		return ModelTypeClaude
	case "qwen", "dashscope", "tongyi":
		return ModelTypeQwen
	}
	return ModelTypeUnknown
}

// ModelConfig describes one chat-model endpoint.
type ModelConfig struct {
	APIType     ModelType     `yaml:"type"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	ModelName   string        `yaml:"model_name"`
	Temperature *float32      `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NewChatModel constructs a concrete eino ToolCallingChatModel for the
// configured backend. Unlike the teacher's version this never panics: every
// construction failure is returned so the caller (internal/engine) can
// report it cleanly.
func NewChatModel(ctx context.Context, m ModelConfig) (model.ToolCallingChatModel, error) {
	if m.MaxTokens == 0 {
		m.MaxTokens = 16 * 1024
	}
	if m.Timeout == 0 {
		m.Timeout = 600 * time.Second
	}

	switch m.APIType {
	case ModelTypeARK:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
		})
	case ModelTypeOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
	case ModelTypeQwen:
		baseURL := m.BaseURL
		if baseURL == "" {
			baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		}
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
	case ModelTypeOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: m.BaseURL,
			Model:   m.ModelName,
		})
	case ModelTypeClaude:
		return claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     &m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		})
	default:
		return nil, errors.Errorf("llmclient: unsupported model type %q", m.APIType)
	}
}
