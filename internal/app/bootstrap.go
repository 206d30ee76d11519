// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"country-agent/internal/agent/intent"
	"country-agent/internal/agent/workflow"
	"country-agent/internal/countries"
	"country-agent/internal/model"
	"country-agent/internal/model/llm"
	"country-agent/internal/runtime/session"
	"country-agent/internal/storage/cache"
	"country-agent/pkg/config"
	"country-agent/pkg/log"
	"country-agent/pkg/secrets"
	"country-agent/pkg/utils"
)

// Bootstrap 统一初始化：日志、缓存、会话、模型降级链、国家数据源与问答编排器
type Bootstrap struct {
	Config         *config.Config
	Logger         *log.Logger
	Cache          cache.Store
	SessionStore   session.SessionStore
	SessionManager session.SessionManager
	Invoker        *llm.Invoker
	Orchestrator   *workflow.Orchestrator
}

// NewBootstrap 根据配置创建 Bootstrap
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	// 响应缓存（memory LRU 或 redis）
	cacheStore, err := cache.NewCache(context.Background(), cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存failed: %w", err)
	}

	// 会话存储：注入式，无包级全局
	sessionStore := session.NewMemoryStore()
	sessionManager := session.NewManager(sessionStore)

	// 模型降级链：primary -> fallback，顺序固定
	invoker, err := newInvokerFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化模型降级链failed: %w", err)
	}

	// 国家数据源与并发分发器
	timeout := utils.ParseDuration(cfg.Countries.Timeout, countries.DefaultTimeout)
	countryClient := countries.NewClient(cfg.Countries.BaseURL, timeout)
	dispatcher := countries.NewDispatcher(countryClient, cacheStore)

	classifier := intent.NewClassifier(invoker)
	synthesizer := workflow.NewSynthesizer(invoker)
	orchestrator := workflow.NewOrchestrator(classifier, dispatcher, synthesizer, sessionManager, logger)

	return &Bootstrap{
		Config:         cfg,
		Logger:         logger,
		Cache:          cacheStore,
		SessionStore:   sessionStore,
		SessionManager: sessionManager,
		Invoker:        invoker,
		Orchestrator:   orchestrator,
	}, nil
}

// newInvokerFromConfig 装配 LLM 降级链：按 defaults.primary / defaults.fallback
// 取 provider 配置，API Key 经 Secret Store 解析，可选限流包装，最后注册到模型注册表。
func newInvokerFromConfig(cfg *config.Config, logger *log.Logger) (*llm.Invoker, error) {
	secretStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret Store failed: %w", err)
	}

	var limiter *llm.LLMRateLimiter
	if len(cfg.RateLimits.LLM) > 0 {
		limits := make(map[string]llm.LLMLimitConfig, len(cfg.RateLimits.LLM))
		for provider, lc := range cfg.RateLimits.LLM {
			limits[provider] = llm.LLMLimitConfig{
				TokensPerMinute:   lc.TokensPerMinute,
				RequestsPerMinute: lc.RequestsPerMinute,
				MaxConcurrent:     lc.MaxConcurrent,
			}
		}
		limiter = llm.NewLLMRateLimiter(limits, nil)
	}

	var backends []llm.Client
	for _, role := range []struct {
		name     string
		provider string
	}{
		{"primary", cfg.Model.Defaults.Primary},
		{"fallback", cfg.Model.Defaults.Fallback},
	} {
		if role.provider == "" {
			continue
		}
		client, err := newClientForProvider(cfg, secretStore, role.provider)
		if err != nil {
			logger.Warn("模型后端初始化失败，跳过", "role", role.name, "provider", role.provider, "error", err)
			continue
		}
		if limiter != nil {
			client = llm.NewRateLimitedClient(client, limiter)
		}
		model.RegisterLLM(role.name, client)
		backends = append(backends, client)
		logger.Info("模型后端已装配", "role", role.name, "provider", role.provider, "model", client.Model())
	}

	return llm.NewInvoker(backends...)
}

// newClientForProvider 创建单个 provider 的 LLM 客户端
func newClientForProvider(cfg *config.Config, secretStore secrets.Store, provider string) (llm.Client, error) {
	providerCfg, ok := cfg.Model.LLM.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider 未配置: %s", provider)
	}

	apiKey := providerCfg.APIKey
	if apiKey == "" {
		// 配置未内联 key 时从 Secret Store 解析（env: OPENAI_API_KEY / GEMINI_API_KEY）
		key, err := secretStore.Get(context.Background(), secretKeyForProvider(provider))
		if err != nil {
			return nil, fmt.Errorf("解析 %s API Key failed: %w", provider, err)
		}
		apiKey = key
	}

	var modelName string
	var timeout time.Duration
	for _, info := range providerCfg.Models {
		modelName = info.Name
		break
	}

	client, err := llm.NewClient(provider, modelName, apiKey, providerCfg.BaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.API.Timeout != "" {
		timeout = utils.ParseDuration(cfg.API.Timeout, 30*time.Second)
		switch c := client.(type) {
		case *llm.OpenAIClient:
			c.SetTimeout(timeout)
		case *llm.GeminiClient:
			c.SetTimeout(timeout)
		}
	}
	return client, nil
}

// secretKeyForProvider provider -> Secret Store 键名约定
func secretKeyForProvider(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}
