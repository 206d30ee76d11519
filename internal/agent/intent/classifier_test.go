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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"country-agent/internal/model/llm"
	pkgerrors "country-agent/pkg/errors"
)

// fakeCompleter 测试用 Completer：直接把预设 JSON 解析进 out
type fakeCompleter struct {
	raw string
	err error
}

func (f *fakeCompleter) CompleteStructured(ctx context.Context, messages []llm.Message, options llm.GenerateOptions, out any) error {
	if f.err != nil {
		return f.err
	}
	if err := json.Unmarshal([]byte(f.raw), out); err != nil {
		return err
	}
	if v, ok := out.(llm.Validator); ok {
		return v.Validate()
	}
	return nil
}

func TestClassify(t *testing.T) {
	c := NewClassifier(&fakeCompleter{raw: `{"intent": "get_capital", "countries": ["France", " Germany "]}`})
	got, err := c.Classify(context.Background(), "What are the capitals of France and Germany?", nil)
	require.NoError(t, err)
	assert.Equal(t, GetCapital, got.Intent)
	assert.Equal(t, []string{"France", "Germany"}, got.Countries)
}

func TestClassifyFailClosedToUnknown(t *testing.T) {
	c := NewClassifier(&fakeCompleter{err: &llm.ExhaustedError{}})
	got, err := c.Classify(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrClassificationFailed))
	assert.Equal(t, Unknown, got.Intent)
	assert.Empty(t, got.Countries)
}

func TestClassifyInvalidIntentRejected(t *testing.T) {
	// Validate 拦截越界意图，识别失败降为 Unknown
	c := NewClassifier(&fakeCompleter{raw: `{"intent": "get_weather", "countries": ["France"]}`})
	got, err := c.Classify(context.Background(), "weather in France", nil)
	require.Error(t, err)
	assert.Equal(t, Unknown, got.Intent)
}

func TestParse(t *testing.T) {
	for _, it := range All() {
		parsed, err := Parse(string(it))
		require.NoError(t, err)
		assert.Equal(t, it, parsed)
	}
	_, err := Parse("nonsense")
	assert.Error(t, err)
}

func TestRequiresData(t *testing.T) {
	assert.True(t, GetPopulation.RequiresData())
	assert.True(t, Comparison.RequiresData())
	assert.False(t, Unknown.RequiresData())
}
