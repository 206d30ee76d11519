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

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session 对话进程：唯一状态载体。Messages 是完整对话历史，
// LastCountries 记录最近一轮成功解析出的国家，供后续轮指代消解。
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Messages      []*Message // 对话历史
	LastCountries []string   // 最近一轮提到的国家（原始大小写）

	mu sync.RWMutex
}

// New 创建新 Session（ID 由调用方或 Store 分配时可传空）
func New(id string) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  nil,
	}
}

// AddMessage 追加一条对话消息
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.Messages = append(s.Messages, &Message{Role: role, Content: content, Timestamp: s.UpdatedAt})
}

// SetLastCountries 记录本轮解析出的国家。空列表不覆盖历史值：
// 指代消解需要回看最近一次成功提取的国家。
func (s *Session) SetLastCountries(countries []string) {
	if len(countries) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpdatedAt = time.Now()
	s.LastCountries = append([]string(nil), countries...)
}

// CopyLastCountries 返回最近国家列表的副本
func (s *Session) CopyLastCountries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.LastCountries) == 0 {
		return nil
	}
	return append([]string(nil), s.LastCountries...)
}

// CopyMessages 返回 Messages 的副本（供合成 prompt 等只读使用）
func (s *Session) CopyMessages() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return nil
	}
	out := make([]*Message, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = &Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
	}
	return out
}
