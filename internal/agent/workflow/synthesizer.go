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

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"country-agent/internal/countries"
	"country-agent/internal/model/llm"
)

// Completer 自由文本补全抽象（由 llm.Invoker 实现）
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (string, error)
}

// Synthesizer 把查询结果合成为自然语言回答
type Synthesizer struct {
	completer Completer
}

// NewSynthesizer 创建合成器
func NewSynthesizer(completer Completer) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// Greet 问候/离题路径：不查数据，让模型按引导语回复。
// 模型不可用时退回固定问候语，degraded 标记为 true。
func (s *Synthesizer) Greet(ctx context.Context, question string, history []llm.Message) (answer string, degraded bool) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: greetingSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	result, err := s.completer.Complete(ctx, messages, llm.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   256,
	})
	if err != nil {
		return fallbackGreeting, true
	}
	return result, false
}

// Synthesize 数据路径：把各国家的查询结果拼进上下文，让模型回答。
// 结果按请求顺序进入上下文，失败的国家标记为 unavailable 而不是丢弃。
// 全部查询失败时直接返回汇总信息，不发起模型调用。
func (s *Synthesizer) Synthesize(ctx context.Context, question string, history []llm.Message, lookups []countries.Lookup) (string, error) {
	var dataLines []string
	var failures []string

	for _, l := range lookups {
		if l.Outcome.Status == countries.StatusFound {
			raw, err := json.Marshal(l.Outcome.Record)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", l.Country, err))
				continue
			}
			dataLines = append(dataLines, fmt.Sprintf("Data for %s: %s", l.Country, raw))
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", l.Country, l.Outcome.Message))
			dataLines = append(dataLines, fmt.Sprintf("Data for %s: unavailable (%s)", l.Country, l.Outcome.Message))
		}
	}

	if len(lookups) == 0 {
		return noCountriesAnswer, nil
	}
	if len(failures) == len(lookups) {
		return fmt.Sprintf("I couldn't find information. Errors: %s", strings.Join(failures, "; ")), nil
	}

	system := fmt.Sprintf(synthesizeSystemPrompt, strings.Join(dataLines, "\n"))
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	return s.completer.Complete(ctx, messages, llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   1024,
	})
}
