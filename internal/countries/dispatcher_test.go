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

package countries

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"country-agent/internal/storage/cache"
)

// fakeFetcher 测试用 Fetcher：按预设表返回，并记录各国家的调用次数
type fakeFetcher struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	calls    map[string]int
}

func newFakeFetcher(outcomes map[string]Outcome) *fakeFetcher {
	return &fakeFetcher{outcomes: outcomes, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, name string) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[NormalizeName(name)]++
	if o, ok := f.outcomes[NormalizeName(name)]; ok {
		return o, nil
	}
	return Outcome{Status: StatusNotFound, Message: "country not found"}, nil
}

func (f *fakeFetcher) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[NormalizeName(name)]
}

func found(name string, population int64) Outcome {
	return Outcome{Status: StatusFound, Record: &CountryRecord{Name: name, Population: population}}
}

func TestDispatcherOrderPreserved(t *testing.T) {
	fetcher := newFakeFetcher(map[string]Outcome{
		"france":  found("France", 67391582),
		"germany": found("Germany", 83240525),
		"japan":   found("Japan", 125836021),
	})
	d := NewDispatcher(fetcher, nil)

	results, err := d.FetchAll(context.Background(), []string{"Japan", "France", "Germany"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Japan", results[0].Country)
	assert.Equal(t, "France", results[1].Country)
	assert.Equal(t, "Germany", results[2].Country)
}

func TestDispatcherDeduplicates(t *testing.T) {
	fetcher := newFakeFetcher(map[string]Outcome{
		"france": found("France", 67391582),
	})
	d := NewDispatcher(fetcher, nil)

	results, err := d.FetchAll(context.Background(), []string{"France", "france", "  FRANCE "})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, fetcher.callCount("France"), "规范化后同名国家只应拉取一次")
	for _, r := range results {
		assert.Equal(t, StatusFound, r.Outcome.Status)
	}
}

func TestDispatcherPartialFailure(t *testing.T) {
	fetcher := newFakeFetcher(map[string]Outcome{
		"germany": found("Germany", 83240525),
		"narnia":  {Status: StatusNotFound, Message: `country "Narnia" not found`},
	})
	d := NewDispatcher(fetcher, nil)

	results, err := d.FetchAll(context.Background(), []string{"Germany", "Narnia"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StatusFound, results[0].Outcome.Status)
	assert.Equal(t, StatusNotFound, results[1].Outcome.Status)
}

func TestDispatcherCacheHitSkipsFetch(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher(map[string]Outcome{
		"france": found("France", 67391582),
	})
	store := cache.NewMemoryStore(0)
	d := NewDispatcher(fetcher, store)

	_, err := d.FetchAll(ctx, []string{"France"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.callCount("France"))

	// 第二次命中缓存，不再拉取
	results, err := d.FetchAll(ctx, []string{"france"})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.callCount("France"))
	require.Equal(t, StatusFound, results[0].Outcome.Status)
	assert.Equal(t, int64(67391582), results[0].Outcome.Record.Population)
}

func TestDispatcherFailedLookupNotCached(t *testing.T) {
	ctx := context.Background()
	fetcher := newFakeFetcher(map[string]Outcome{
		"narnia": {Status: StatusNotFound, Message: "not found"},
	})
	store := cache.NewMemoryStore(0)
	d := NewDispatcher(fetcher, store)

	_, err := d.FetchAll(ctx, []string{"Narnia"})
	require.NoError(t, err)
	_, err = d.FetchAll(ctx, []string{"Narnia"})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount("Narnia"), "NotFound 不应写入缓存")
}

func TestDispatcherEmptyInput(t *testing.T) {
	d := NewDispatcher(newFakeFetcher(nil), nil)
	results, err := d.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)

	results, err = d.FetchAll(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Empty(t, results)
}
