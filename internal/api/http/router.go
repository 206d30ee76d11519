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
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"

	"country-agent/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	queryRPS   int
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: mw,
	}
}

// SetQueryRPS 设置 /api/query 的全局限流；0 表示不限流
func (r *Router) SetQueryRPS(rps int) {
	r.queryRPS = rps
}

// Build 创建 Hertz server 并注册路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	options := append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(options...)

	api := h.Group("/api", r.middleware.CORS())

	// 健康检查
	api.GET("/health", r.handler.HealthCheck)

	// 问答
	if r.queryRPS > 0 {
		api.POST("/query", r.middleware.RateLimit(r.queryRPS), r.handler.Query)
	} else {
		api.POST("/query", r.handler.Query)
	}

	// 会话管理
	api.DELETE("/sessions", r.handler.ClearSessions)

	// 系统管理
	system := api.Group("/system")
	{
		system.GET("/status", r.handler.SystemStatus)
		system.GET("/metrics", r.handler.SystemMetrics)
	}

	return h
}
