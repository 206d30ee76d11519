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
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"country-agent/internal/agent/workflow"
	"country-agent/internal/model"
	"country-agent/internal/runtime/session"
	"country-agent/pkg/metrics"
)

// QueryRequest 问答请求体
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// QueryResponse 问答响应体
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Intent    string   `json:"intent,omitempty"`
	Countries []string `json:"countries"`
	SessionID string   `json:"session_id"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// Handler HTTP 处理器
type Handler struct {
	orchestrator *workflow.Orchestrator
	sessionStore session.SessionStore
	startedAt    time.Time
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(orchestrator *workflow.Orchestrator, sessionStore session.SessionStore) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sessionStore: sessionStore,
		startedAt:    time.Now(),
	}
}

// Query 问答入口
// POST /api/query
func (h *Handler) Query(c context.Context, ctx *app.RequestContext) {
	var req QueryRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "question is required",
		})
		return
	}
	if h.orchestrator == nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "agent is not configured",
		})
		return
	}

	hlog.CtxInfof(c, "received query from session %q", req.SessionID)
	result := h.orchestrator.HandleQuestion(c, req.SessionID, req.Question)

	ctx.JSON(consts.StatusOK, QueryResponse{
		Answer:    result.Answer,
		Intent:    string(result.Intent),
		Countries: result.Countries,
		SessionID: result.SessionID,
		Degraded:  result.Degraded,
	})
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "ok",
	})
}

// SystemStatus 系统状态
// GET /api/system/status
func (h *Handler) SystemStatus(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"llm_backends":   model.ListLLMs(),
	})
}

// SystemMetrics Prometheus 指标
// GET /api/system/metrics
func (h *Handler) SystemMetrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// ClearSessions 清空全部会话（运维接口）
// DELETE /api/sessions
func (h *Handler) ClearSessions(c context.Context, ctx *app.RequestContext) {
	if h.sessionStore == nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "session store is not configured",
		})
		return
	}
	if err := h.sessionStore.Clear(c); err != nil {
		hlog.CtxErrorf(c, "failed to clear sessions: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "cleared",
	})
}
