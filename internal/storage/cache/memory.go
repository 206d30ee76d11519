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

package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultCapacity 内存缓存默认容量
const DefaultCapacity = 128

// MemoryStore 内存 LRU 缓存存储实现。容量固定，写满后淘汰最久未访问的条目；
// Get 命中会把条目提升为最近使用。
type MemoryStore struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = 最近使用
	mu       sync.Mutex
}

// cacheItem 缓存项
type cacheItem struct {
	key   string
	value []byte
}

// NewMemoryStore 创建新的内存 LRU 缓存存储；capacity <= 0 时用默认容量
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Set 设置缓存。key 已存在时覆盖值并提升为最近使用（重复写入不增长占用）。
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, exists := s.items[key]; exists {
		elem.Value.(*cacheItem).value = data
		s.order.MoveToFront(elem)
		return nil
	}

	// 容量已满时淘汰最久未访问的条目
	if s.order.Len() >= s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.items, oldest.Value.(*cacheItem).key)
		}
	}

	s.items[key] = s.order.PushFront(&cacheItem{key: key, value: data})
	return nil
}

// Get 获取缓存；命中时提升为最近使用
func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[key]
	if !exists {
		return fmt.Errorf("cache item with key %s not found", key)
	}
	s.order.MoveToFront(elem)

	if err := json.Unmarshal(elem.Value.(*cacheItem).value, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Delete 删除缓存
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[key]
	if !exists {
		return fmt.Errorf("cache item with key %s not found", key)
	}
	s.order.Remove(elem)
	delete(s.items, key)
	return nil
}

// Exists 检查缓存是否存在（不改变 LRU 顺序）
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.items[key]
	return exists, nil
}

// Clear 清除所有缓存
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*list.Element)
	s.order.Init()
	return nil
}

// Close 关闭缓存连接
func (s *MemoryStore) Close() error {
	return nil
}

// Len 返回当前条目数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
