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
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	s := New("sid1")
	if s == nil || s.ID != "sid1" {
		t.Errorf("New: %+v", s)
	}
	s2 := New("")
	if s2.ID == "" {
		t.Error("empty id should generate id")
	}
}

func TestSession_AddMessage_CopyMessages(t *testing.T) {
	s := New("s1")
	s.AddMessage("user", "hello")
	s.AddMessage("assistant", "hi")
	msgs := s.CopyMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hello" {
		t.Errorf("first message: %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hi" {
		t.Errorf("second message: %+v", msgs[1])
	}
}

func TestSession_SetLastCountries(t *testing.T) {
	s := New("s1")
	s.SetLastCountries([]string{"France", "Germany"})
	got := s.CopyLastCountries()
	if len(got) != 2 || got[0] != "France" || got[1] != "Germany" {
		t.Errorf("CopyLastCountries: %+v", got)
	}
	// 空列表不覆盖：下一轮没提国家时仍可指代上一轮
	s.SetLastCountries(nil)
	got = s.CopyLastCountries()
	if len(got) != 2 {
		t.Errorf("empty update should not clear: %+v", got)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	s, err := m.GetOrCreate(ctx, "")
	if err != nil || s == nil || s.ID == "" {
		t.Fatalf("GetOrCreate empty id: s=%+v err=%v", s, err)
	}

	s2, err := m.GetOrCreate(ctx, s.ID)
	if err != nil || s2 != s {
		t.Errorf("GetOrCreate existing should return same session: %p vs %p, err=%v", s2, s, err)
	}

	s3, err := m.GetOrCreate(ctx, "client-chosen-id")
	if err != nil || s3 == nil || s3.ID != "client-chosen-id" {
		t.Errorf("GetOrCreate unseen id should create with that id: %+v err=%v", s3, err)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Put(ctx, New("s1"))
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	s, err := store.Get(ctx, "s1")
	if err != nil || s != nil {
		t.Errorf("Get after Clear: s=%+v err=%v", s, err)
	}
}
