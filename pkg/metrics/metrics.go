package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，由 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RequestDuration, RequestTotal,
		LookupDuration, LookupTotal,
		CacheTotal,
		LLMCallTotal, LLMFallbackTotal,
		RateLimitWaitSeconds,
	)
}

// RequestDuration 单次对话请求耗时（秒），按最终意图
var RequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cagent_request_duration_seconds",
		Help:    "对话请求耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"intent"},
)

// RequestTotal 对话请求总数（按结果）
var RequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cagent_request_total",
		Help: "对话请求总数（按结果）",
	},
	[]string{"status"}, // ok | degraded
)

// LookupDuration 国家数据查询耗时（秒）
var LookupDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cagent_lookup_duration_seconds",
		Help:    "国家数据查询耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"outcome"}, // found | not_found | transport_error
)

// LookupTotal 国家数据查询总数（按结果）
var LookupTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cagent_lookup_total",
		Help: "国家数据查询总数（按结果）",
	},
	[]string{"outcome"},
)

// CacheTotal 响应缓存命中统计
var CacheTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cagent_cache_total",
		Help: "响应缓存命中统计",
	},
	[]string{"result"}, // hit | miss
)

// LLMCallTotal LLM 调用总数（按提供商与状态）
var LLMCallTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cagent_llm_call_total",
		Help: "LLM 调用总数（按提供商与状态）",
	},
	[]string{"provider", "status"}, // ok | error
)

// LLMFallbackTotal 主链路失败后走降级后端的次数（顺序固定，便于观察降级使用率）
var LLMFallbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cagent_llm_fallback_total",
		Help: "降级后端使用次数",
	},
	[]string{"provider"},
)

// RateLimitWaitSeconds 限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cagent_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
