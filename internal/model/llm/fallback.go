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
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "country-agent/pkg/errors"
	"country-agent/pkg/metrics"
)

// FailureClass 后端单次调用的失败分类（封闭集合）
type FailureClass string

const (
	FailureAuth      FailureClass = "auth"       // 401/403，key 无效
	FailureRateLimit FailureClass = "rate_limit" // 429
	FailureServer    FailureClass = "server"     // 5xx
	FailureNetwork   FailureClass = "network"    // 连接/超时
	FailureBadOutput FailureClass = "bad_output" // 结构化输出不可解析或校验不通过
	FailureOther     FailureClass = "other"
)

// ClassifyFailure 将后端错误归入封闭分类。客户端错误信息带有 status 码，据此判别。
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return FailureOther
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "status 401") || strings.Contains(msg, "status 403"):
		return FailureAuth
	case strings.Contains(msg, "status 429"):
		return FailureRateLimit
	case strings.Contains(msg, "status 5"):
		return FailureServer
	case strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host"):
		return FailureNetwork
	default:
		return FailureOther
	}
}

// advanceOn 决定该分类失败时是否推进到下一个后端。
// 策略刻意宽泛：每一类都推进（与原始链路的 catch-all 语义一致），
// 但按分类逐项声明而非捕获任意异常，保证降级决策可审计。
func advanceOn(class FailureClass) bool {
	switch class {
	case FailureAuth, FailureRateLimit, FailureServer, FailureNetwork, FailureBadOutput, FailureOther:
		return true
	}
	return true
}

// BackendError 单个后端的一次失败记录
type BackendError struct {
	Provider string
	Class    FailureClass
	Err      error
}

// ExhaustedError 整条降级链耗尽；携带每个后端的失败明细
type ExhaustedError struct {
	Attempts []BackendError
}

// Error 实现 error 接口
func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s(%s): %v", a.Provider, a.Class, a.Err)
	}
	return fmt.Sprintf("%v: %s", pkgerrors.ErrAllBackendsExhausted, strings.Join(parts, "; "))
}

// Unwrap 支持 errors.Is(err, pkgerrors.ErrAllBackendsExhausted)
func (e *ExhaustedError) Unwrap() error {
	return pkgerrors.ErrAllBackendsExhausted
}

// Validator 结构化输出的校验钩子；目标类型实现后在反序列化成功时调用
type Validator interface {
	Validate() error
}

// Invoker 按固定顺序尝试多个 LLM 后端：primary 失败立即推进到 fallback，
// 每个后端至多尝试一次，全部失败返回 *ExhaustedError。
// 顺序确定、不随机、不做负载均衡，保证行为可复现、降级可观测。
type Invoker struct {
	backends []Client
}

// NewInvoker 创建 Invoker，后端顺序即降级顺序
func NewInvoker(backends ...Client) (*Invoker, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("降级链至少需要一个后端")
	}
	return &Invoker{backends: backends}, nil
}

// Providers 返回链上各后端的提供商名（按降级顺序）
func (v *Invoker) Providers() []string {
	out := make([]string, len(v.backends))
	for i, b := range v.backends {
		out[i] = b.Provider()
	}
	return out
}

// Complete 自由文本补全；Intent 分类与答案合成共用此入口
func (v *Invoker) Complete(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	result, _, err := v.complete(ctx, messages, options)
	return result, err
}

// CompleteStructured 结构化补全：调用成功后把输出解析到 out 指向的静态类型，
// 解析或校验失败算该后端失败（bad_output），继续推进降级链。
func (v *Invoker) CompleteStructured(ctx context.Context, messages []Message, options GenerateOptions, out any) error {
	var attempts []BackendError
	for i, backend := range v.backends {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, err := backend.ChatWithContext(ctx, messages, options)
		if err == nil {
			err = decodeStructured(raw, out)
			if err == nil {
				v.record(i, backend, true)
				return nil
			}
			err = fmt.Errorf("结构化输出解析失败: %w", err)
			attempts = append(attempts, BackendError{Provider: backend.Provider(), Class: FailureBadOutput, Err: err})
			v.record(i, backend, false)
			continue
		}
		class := ClassifyFailure(err)
		attempts = append(attempts, BackendError{Provider: backend.Provider(), Class: class, Err: err})
		v.record(i, backend, false)
		if !advanceOn(class) {
			break
		}
	}
	return &ExhaustedError{Attempts: attempts}
}

// complete 依次尝试后端；返回成功结果与命中的后端序号
func (v *Invoker) complete(ctx context.Context, messages []Message, options GenerateOptions) (string, int, error) {
	var attempts []BackendError
	for i, backend := range v.backends {
		if ctx.Err() != nil {
			return "", i, ctx.Err()
		}
		result, err := backend.ChatWithContext(ctx, messages, options)
		if err == nil {
			v.record(i, backend, true)
			return result, i, nil
		}
		class := ClassifyFailure(err)
		attempts = append(attempts, BackendError{Provider: backend.Provider(), Class: class, Err: err})
		v.record(i, backend, false)
		if !advanceOn(class) {
			break
		}
	}
	return "", -1, &ExhaustedError{Attempts: attempts}
}

// record 上报调用与降级指标
func (v *Invoker) record(index int, backend Client, ok bool) {
	status := "error"
	if ok {
		status = "ok"
	}
	metrics.LLMCallTotal.WithLabelValues(backend.Provider(), status).Inc()
	if ok && index > 0 {
		metrics.LLMFallbackTotal.WithLabelValues(backend.Provider()).Inc()
	}
}

// decodeStructured 从模型输出中取 JSON 并解析到 out；带 Markdown 代码栅栏时先剥掉
func decodeStructured(raw string, out any) error {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	// 模型偶尔会在 JSON 前后加说明文字，截取首个对象
	if start := strings.Index(text, "{"); start > 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return err
	}
	if v, ok := out.(Validator); ok {
		return v.Validate()
	}
	return nil
}
