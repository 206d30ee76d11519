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

package intent

import (
	"context"
	"fmt"
	"strings"

	"country-agent/internal/model/llm"
	pkgerrors "country-agent/pkg/errors"
)

const identifySystemPrompt = `You are an intelligent assistant designed to identify the intent and entities from a user's query about countries.

You have access to the conversation history. Use it to resolve references like "it", "they", "those countries", etc.

Task:
1. Extract Country Names: A list of country names mentioned or referred to.
2. Identify Intent: What does the user want to know?
   Valid intents: 'get_population', 'get_capital', 'get_currency', 'get_language', 'get_flag', 'general_info', 'comparison'.
   If unclear or not about countries, use 'unknown'.

Respond with a single JSON object: {"intent": "<intent>", "countries": ["<name>", ...]}. No other text.`

// schema 结构化输出目标。Validate 在反序列化后调用，意图越界即判失败。
type schema struct {
	Intent    string   `json:"intent"`
	Countries []string `json:"countries"`
}

// Validate 实现 llm.Validator
func (s *schema) Validate() error {
	if _, err := Parse(s.Intent); err != nil {
		return err
	}
	return nil
}

// Classification 一次意图识别的结果
type Classification struct {
	Intent    Intent
	Countries []string
}

// Completer 结构化补全抽象（由 llm.Invoker 实现）
type Completer interface {
	CompleteStructured(ctx context.Context, messages []llm.Message, options llm.GenerateOptions, out any) error
}

// Classifier 意图识别器。意图与国家名由 LLM 按固定 JSON 模式产出，
// 识别失败（含模型输出不可解析）一律降为 Unknown，不对外抛异常。
type Classifier struct {
	completer Completer
}

// NewClassifier 创建意图识别器
func NewClassifier(completer Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify 识别意图并提取国家名。history 是本会话已有对话，用于指代消解。
// 返回的 error 仅用于区分降级链耗尽：调用方据此决定是否给出降级回答；
// 无论 error 与否，返回的 Classification 都可用（失败时为 Unknown）。
func (c *Classifier) Classify(ctx context.Context, question string, history []llm.Message) (Classification, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: identifySystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	var out schema
	err := c.completer.CompleteStructured(ctx, messages, llm.GenerateOptions{
		Temperature: 0,
		MaxTokens:   256,
	}, &out)
	if err != nil {
		return Classification{Intent: Unknown}, fmt.Errorf("%w: %w", pkgerrors.ErrClassificationFailed, err)
	}

	parsed, err := Parse(out.Intent)
	if err != nil {
		return Classification{Intent: Unknown}, nil
	}

	countries := make([]string, 0, len(out.Countries))
	for _, name := range out.Countries {
		if strings.TrimSpace(name) != "" {
			countries = append(countries, strings.TrimSpace(name))
		}
	}
	return Classification{Intent: parsed, Countries: countries}, nil
}
