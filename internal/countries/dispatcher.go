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

	"country-agent/internal/storage/cache"
	"country-agent/pkg/metrics"
)

// Lookup 一次国家查询及其结果
type Lookup struct {
	Country string // 用户提到的原始国家名
	Outcome Outcome
}

// Fetcher 单个国家的查询抽象（测试时可替换 Client）
type Fetcher interface {
	Fetch(ctx context.Context, name string) (Outcome, error)
}

// Dispatcher 并发查询多个国家：按规范化名去重后逐个并行拉取，
// 结果按调用方传入的顺序返回。缓存命中跳过远端调用，Found 结果写回缓存。
type Dispatcher struct {
	fetcher Fetcher
	cache   cache.Store
}

// NewDispatcher 创建查询分发器；cache 可为 nil（不缓存）
func NewDispatcher(fetcher Fetcher, store cache.Store) *Dispatcher {
	return &Dispatcher{fetcher: fetcher, cache: store}
}

// FetchAll 查询全部国家并按输入顺序返回。重复国家（规范化后同名）只查一次，
// 结果在对应位置共享。单个国家失败不影响其它国家。
func (d *Dispatcher) FetchAll(ctx context.Context, names []string) ([]Lookup, error) {
	if len(names) == 0 {
		return nil, nil
	}

	// 去重：规范化名 -> 首次出现位置
	distinct := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		key := NormalizeName(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, name)
	}

	outcomes := make(map[string]Outcome, len(distinct))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range distinct {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			outcome := d.fetchOne(ctx, name)
			mu.Lock()
			outcomes[NormalizeName(name)] = outcome
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// 按输入顺序还原结果
	results := make([]Lookup, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		results = append(results, Lookup{
			Country: name,
			Outcome: outcomes[NormalizeName(name)],
		})
	}
	return results, nil
}

// fetchOne 单个国家：缓存探测 -> 远端拉取 -> Found 写回缓存。
// 仅 Found 结果进缓存；NotFound 可能是拼写错误，TransportError 是暂时的。
func (d *Dispatcher) fetchOne(ctx context.Context, name string) Outcome {
	key := NormalizeName(name)

	if d.cache != nil {
		var record CountryRecord
		if err := d.cache.Get(ctx, key, &record); err == nil {
			metrics.CacheTotal.WithLabelValues("hit").Inc()
			return Outcome{Status: StatusFound, Record: &record}
		}
		metrics.CacheTotal.WithLabelValues("miss").Inc()
	}

	outcome, err := d.fetcher.Fetch(ctx, name)
	if err != nil {
		return Outcome{Status: StatusTransportError, Message: err.Error()}
	}

	if outcome.Status == StatusFound && d.cache != nil {
		// 缓存写失败不影响本次结果
		_ = d.cache.Set(ctx, key, outcome.Record)
	}
	return outcome
}
