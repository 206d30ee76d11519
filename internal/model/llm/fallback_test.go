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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "country-agent/pkg/errors"
)

// fakeClient 测试用后端：固定返回预设结果或错误，并记录调用次数
type fakeClient struct {
	provider string
	reply    string
	err      error
	calls    int
}

func (f *fakeClient) Generate(prompt string, options GenerateOptions) (string, error) {
	return f.GenerateWithContext(context.Background(), prompt, options)
}

func (f *fakeClient) GenerateWithContext(ctx context.Context, prompt string, options GenerateOptions) (string, error) {
	return f.ChatWithContext(ctx, []Message{{Role: "user", Content: prompt}}, options)
}

func (f *fakeClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return f.ChatWithContext(context.Background(), messages, options)
}

func (f *fakeClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) Model() string    { return "fake-model" }
func (f *fakeClient) Provider() string { return f.provider }
func (f *fakeClient) SetModel(string)  {}
func (f *fakeClient) SetAPIKey(string) {}

func TestInvokerPrimarySuccess(t *testing.T) {
	primary := &fakeClient{provider: "openai", reply: "你好"}
	fallback := &fakeClient{provider: "gemini", reply: "should not be used"}

	invoker, err := NewInvoker(primary, fallback)
	require.NoError(t, err)

	result, err := invoker.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "你好", result)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "primary 成功时不应触碰 fallback")
}

func TestInvokerFallbackOnPrimaryFailure(t *testing.T) {
	primary := &fakeClient{provider: "openai", err: fmt.Errorf("OpenAI API 返回错误 (status 500): internal")}
	fallback := &fakeClient{provider: "gemini", reply: "answer from fallback"}

	invoker, err := NewInvoker(primary, fallback)
	require.NoError(t, err)

	result, err := invoker.Complete(context.Background(), nil, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "answer from fallback", result)
	assert.Equal(t, 1, primary.calls, "primary 至多尝试一次")
	assert.Equal(t, 1, fallback.calls)
}

func TestInvokerExhausted(t *testing.T) {
	primary := &fakeClient{provider: "openai", err: fmt.Errorf("OpenAI API 返回错误 (status 401): bad key")}
	fallback := &fakeClient{provider: "gemini", err: fmt.Errorf("调用 Gemini API 失败: connection refused")}

	invoker, err := NewInvoker(primary, fallback)
	require.NoError(t, err)

	_, err = invoker.Complete(context.Background(), nil, GenerateOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrAllBackendsExhausted))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, FailureAuth, exhausted.Attempts[0].Class)
	assert.Equal(t, FailureNetwork, exhausted.Attempts[1].Class)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestInvokerRequiresBackend(t *testing.T) {
	_, err := NewInvoker()
	assert.Error(t, err)
}

type intentPayload struct {
	Intent    string   `json:"intent"`
	Countries []string `json:"countries"`
}

func (p *intentPayload) Validate() error {
	if p.Intent == "" {
		return fmt.Errorf("intent 字段为空")
	}
	return nil
}

func TestInvokerCompleteStructured(t *testing.T) {
	primary := &fakeClient{
		provider: "openai",
		reply:    "```json\n{\"intent\": \"get_capital\", \"countries\": [\"France\"]}\n```",
	}

	invoker, err := NewInvoker(primary)
	require.NoError(t, err)

	var out intentPayload
	require.NoError(t, invoker.CompleteStructured(context.Background(), nil, GenerateOptions{}, &out))
	assert.Equal(t, "get_capital", out.Intent)
	assert.Equal(t, []string{"France"}, out.Countries)
}

func TestInvokerStructuredBadOutputAdvances(t *testing.T) {
	primary := &fakeClient{provider: "openai", reply: "I cannot produce JSON, sorry"}
	fallback := &fakeClient{provider: "gemini", reply: `{"intent": "get_population", "countries": ["Japan"]}`}

	invoker, err := NewInvoker(primary, fallback)
	require.NoError(t, err)

	var out intentPayload
	require.NoError(t, invoker.CompleteStructured(context.Background(), nil, GenerateOptions{}, &out))
	assert.Equal(t, "get_population", out.Intent)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestInvokerStructuredValidationFailure(t *testing.T) {
	primary := &fakeClient{provider: "openai", reply: `{"countries": []}`}

	invoker, err := NewInvoker(primary)
	require.NoError(t, err)

	var out intentPayload
	err = invoker.CompleteStructured(context.Background(), nil, GenerateOptions{}, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrAllBackendsExhausted))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, FailureBadOutput, exhausted.Attempts[0].Class)
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"auth 401", errors.New("OpenAI API 返回错误 (status 401): x"), FailureAuth},
		{"auth 403", errors.New("Gemini API 返回错误 (status 403): x"), FailureAuth},
		{"rate limit", errors.New("OpenAI API 返回错误 (status 429): x"), FailureRateLimit},
		{"server", errors.New("OpenAI API 返回错误 (status 503): x"), FailureServer},
		{"timeout", errors.New("调用 OpenAI API failed: context deadline exceeded"), FailureNetwork},
		{"refused", errors.New("dial tcp: connection refused"), FailureNetwork},
		{"other", errors.New("OpenAI API 没有返回结果"), FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}
