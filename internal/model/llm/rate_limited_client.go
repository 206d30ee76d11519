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

package llm

import (
	"context"
	"time"

	"country-agent/pkg/metrics"
)

// RateLimitedClient 带限流的 LLM 客户端包装器
type RateLimitedClient struct {
	client  Client
	limiter *LLMRateLimiter
}

// NewRateLimitedClient 创建带限流的客户端
func NewRateLimitedClient(client Client, limiter *LLMRateLimiter) *RateLimitedClient {
	return &RateLimitedClient{
		client:  client,
		limiter: limiter,
	}
}

// Generate 生成文本（带限流）
func (c *RateLimitedClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 使用上下文生成文本（带限流）
func (c *RateLimitedClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	estimatedTokens := estimateTokens(prompt, options.MaxTokens)

	if err := c.waitWithMetrics(ctx, estimatedTokens); err != nil {
		return "", err
	}
	defer c.limiter.Release(c.client.Provider())

	return c.client.GenerateWithContext(ctx, prompt, options)
}

// Chat 聊天（带限流）
func (c *RateLimitedClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天（带限流）
func (c *RateLimitedClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	estimatedTokens := estimateTokens(messagesText(messages), options.MaxTokens)

	if err := c.waitWithMetrics(ctx, estimatedTokens); err != nil {
		return "", err
	}
	defer c.limiter.Release(c.client.Provider())

	return c.client.ChatWithContext(ctx, messages, options)
}

// waitWithMetrics 等待限流许可并上报等待耗时（超过 100ms 才观测，避免噪音）
func (c *RateLimitedClient) waitWithMetrics(ctx context.Context, estimatedTokens int) error {
	start := time.Now()
	err := c.limiter.Wait(ctx, c.client.Provider(), estimatedTokens)
	if waited := time.Since(start); waited > 100*time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues("llm", c.client.Provider()).Observe(waited.Seconds())
	}
	return err
}

// Model 返回模型名称
func (c *RateLimitedClient) Model() string {
	return c.client.Model()
}

// Provider 返回提供商名称
func (c *RateLimitedClient) Provider() string {
	return c.client.Provider()
}

// SetModel 设置模型
func (c *RateLimitedClient) SetModel(model string) {
	c.client.SetModel(model)
}

// SetAPIKey 设置 API Key
func (c *RateLimitedClient) SetAPIKey(apiKey string) {
	c.client.SetAPIKey(apiKey)
}

// estimateTokens 粗略估算 token 数：输入按 4 字符/token，加上输出上限
func estimateTokens(text string, maxTokens int) int {
	estimated := len(text)/4 + maxTokens
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

// messagesText 拼接消息内容用于 token 估算
func messagesText(messages []Message) string {
	var total string
	for _, msg := range messages {
		total += msg.Content
	}
	return total
}
