package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeminiClient Gemini 客户端（降级链默认后端）
type GeminiClient struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	client   *resty.Client
}

// NewGeminiClient 创建新的 Gemini 客户端。内部重试关闭，理由同 OpenAIClient。
func NewGeminiClient(model, apiKey string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	baseURL := "https://generativelanguage.googleapis.com/v1"
	if envURL := os.Getenv("GEMINI_BASE_URL"); envURL != "" {
		baseURL = envURL
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(0)

	return &GeminiClient{
		provider: "gemini",
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   client,
	}, nil
}

// Generate 生成文本
func (c *GeminiClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

// GenerateWithContext 使用上下文生成文本
func (c *GeminiClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return c.ChatWithContext(ctx, []Message{{Role: "user", Content: prompt}}, options)
}

// Chat 聊天
func (c *GeminiClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天
func (c *GeminiClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	// 转换消息格式；Gemini 无 system 角色，system 消息并入首条 user 内容
	contents := make([]map[string]interface{}, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		role := msg.Role
		content := msg.Content
		switch role {
		case "system":
			systemText += content + "\n"
			continue
		case "assistant":
			role = "model"
		}
		if systemText != "" && role == "user" {
			content = systemText + content
			systemText = ""
		}
		contents = append(contents, map[string]interface{}{
			"role": role,
			"parts": []map[string]interface{}{{
				"text": content,
			}},
		})
	}

	// 构建请求
	request := map[string]interface{}{
		"contents": contents,
		"generationConfig": map[string]interface{}{
			"temperature":     options.Temperature,
			"maxOutputTokens": options.MaxTokens,
			"topP":            options.TopP,
			"stopSequences":   options.Stop,
		},
	}

	// 发送请求
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		Post(c.baseURL + "/models/" + c.model + ":generateContent?key=" + c.apiKey)

	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}

	// 检查响应状态
	if response.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Gemini API 返回错误 (status %d): %s", response.StatusCode(), response.String())
	}

	// 解析响应
	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", fmt.Errorf("解析 Gemini 响应失败: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("Gemini API 没有返回结果")
	}

	if len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API 没有返回文本")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// Model 返回模型名称
func (c *GeminiClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *GeminiClient) Provider() string {
	return c.provider
}

// SetModel 设置模型
func (c *GeminiClient) SetModel(model string) {
	c.model = model
}

// SetAPIKey 设置 API Key
func (c *GeminiClient) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}

// SetTimeout 设置单次调用超时
func (c *GeminiClient) SetTimeout(d time.Duration) {
	c.client.SetTimeout(d)
}
