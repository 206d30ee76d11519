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

package http

import (
	"bytes"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"country-agent/internal/api/http/middleware"
	"country-agent/internal/runtime/session"
)

func buildRouterForTest() *server.Hertz {
	h := NewHandler(nil, session.NewMemoryStore())
	mw := middleware.NewMiddleware()
	r := NewRouter(h, mw)
	return r.Build(":0")
}

func TestRouter_Health(t *testing.T) {
	s := buildRouterForTest()

	w := ut.PerformRequest(s.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /api/health status = %d, want 200", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte(`"status":"ok"`)) {
		t.Fatalf("health body: %s", w.Result().Body())
	}
}

func TestRouter_QueryValidation(t *testing.T) {
	s := buildRouterForTest()

	body := []byte(`{"question": ""}`)
	w := ut.PerformRequest(s.Engine, "POST", "/api/query",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("POST /api/query empty question status = %d, want 400", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte("question is required")) {
		t.Fatalf("validation body: %s", w.Result().Body())
	}
}

func TestRouter_QueryMalformedBody(t *testing.T) {
	s := buildRouterForTest()

	body := []byte(`{not json`)
	w := ut.PerformRequest(s.Engine, "POST", "/api/query",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("POST /api/query malformed body status = %d, want 400", got)
	}
}

func TestRouter_SystemMetrics(t *testing.T) {
	s := buildRouterForTest()

	w := ut.PerformRequest(s.Engine, "GET", "/api/system/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET /api/system/metrics status = %d, want 200", got)
	}
}

func TestRouter_ClearSessions(t *testing.T) {
	s := buildRouterForTest()

	w := ut.PerformRequest(s.Engine, "DELETE", "/api/sessions", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("DELETE /api/sessions status = %d, want 200", got)
	}
	if !bytes.Contains(w.Result().Body(), []byte(`"status":"cleared"`)) {
		t.Fatalf("clear body: %s", w.Result().Body())
	}
}
