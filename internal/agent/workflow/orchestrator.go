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

package workflow

import (
	"context"
	"errors"
	"time"

	"country-agent/internal/agent/intent"
	"country-agent/internal/countries"
	"country-agent/internal/model/llm"
	"country-agent/internal/runtime/session"
	pkgerrors "country-agent/pkg/errors"
	"country-agent/pkg/log"
	"country-agent/pkg/metrics"
)

// Result 一轮问答的最终产物。HandleQuestion 永远返回非 nil Result，
// 内部错误折叠为固定回答并置 Degraded。
type Result struct {
	SessionID string
	Answer    string
	Intent    intent.Intent
	Countries []string
	Degraded  bool
}

// Orchestrator 问答主流程：意图识别 -> 指代消解 -> 数据查询 -> 答案合成。
// 会话状态通过注入的 SessionManager 读写，Orchestrator 自身无全局状态。
type Orchestrator struct {
	classifier  classifierAPI
	dispatcher  dispatcherAPI
	synthesizer *Synthesizer
	sessions    session.SessionManager
	logger      *log.Logger
}

type classifierAPI interface {
	Classify(ctx context.Context, question string, history []llm.Message) (intent.Classification, error)
}

type dispatcherAPI interface {
	FetchAll(ctx context.Context, names []string) ([]countries.Lookup, error)
}

// NewOrchestrator 创建问答编排器
func NewOrchestrator(classifier classifierAPI, dispatcher dispatcherAPI, synthesizer *Synthesizer, sessions session.SessionManager, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		dispatcher:  dispatcher,
		synthesizer: synthesizer,
		sessions:    sessions,
		logger:      logger,
	}
}

// HandleQuestion 处理一个用户问题。sessionID 为空时新建会话。
// 不向调用方返回 error：任何内部失败都折叠进 Result。
func (o *Orchestrator) HandleQuestion(ctx context.Context, sessionID, question string) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while handling question", "panic", r, "session_id", sessionID)
			result = &Result{
				SessionID: sessionID,
				Answer:    apologeticAnswer,
				Intent:    intent.Unknown,
				Degraded:  true,
			}
		}
		status := "ok"
		if result.Degraded {
			status = "degraded"
		}
		metrics.RequestDuration.WithLabelValues(string(result.Intent)).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(status).Inc()
	}()

	sess, err := o.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		o.logger.Error("session lookup failed", "error", err, "session_id", sessionID)
		return &Result{SessionID: sessionID, Answer: apologeticAnswer, Intent: intent.Unknown, Degraded: true}
	}

	history := session.MessagesToLLM(sess.CopyMessages())
	result = o.answer(ctx, sess, question, history)
	result.SessionID = sess.ID

	sess.AddMessage("user", question)
	sess.AddMessage("assistant", result.Answer)
	if err := o.sessions.Save(ctx, sess); err != nil {
		o.logger.Warn("session save failed", "error", err, "session_id", sess.ID)
	}
	return result
}

// answer 核心分支逻辑；history 不含本轮问题
func (o *Orchestrator) answer(ctx context.Context, sess *session.Session, question string, history []llm.Message) *Result {
	cls, clsErr := o.classifier.Classify(ctx, question, history)
	if clsErr != nil {
		if errors.Is(clsErr, pkgerrors.ErrAllBackendsExhausted) {
			o.logger.Error("intent classification exhausted all backends", "error", clsErr, "session_id", sess.ID)
			return &Result{Answer: degradedAnswer, Intent: intent.Unknown, Degraded: true}
		}
		o.logger.Error("intent classification failed", "error", clsErr, "session_id", sess.ID)
		return &Result{Answer: apologeticAnswer, Intent: intent.Unknown, Degraded: true}
	}

	o.logger.Info("intent classified", "intent", cls.Intent, "countries", cls.Countries, "session_id", sess.ID)

	if cls.Intent == intent.Unknown {
		answer, degraded := o.synthesizer.Greet(ctx, question, history)
		return &Result{Answer: answer, Intent: intent.Unknown, Degraded: degraded}
	}

	// 指代消解：本轮没提国家时回看最近一轮
	resolved := cls.Countries
	if len(resolved) == 0 {
		resolved = sess.CopyLastCountries()
	}
	if len(resolved) == 0 {
		return &Result{Answer: noCountriesAnswer, Intent: cls.Intent}
	}

	lookups, err := o.dispatcher.FetchAll(ctx, resolved)
	if err != nil {
		o.logger.Error("country lookup failed", "error", err, "session_id", sess.ID)
		return &Result{Answer: apologeticAnswer, Intent: cls.Intent, Countries: resolved, Degraded: true}
	}

	sess.SetLastCountries(resolved)

	answer, err := o.synthesizer.Synthesize(ctx, question, history, lookups)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrAllBackendsExhausted) {
			o.logger.Error("answer synthesis exhausted all backends", "error", err, "session_id", sess.ID)
			return &Result{Answer: degradedAnswer, Intent: cls.Intent, Countries: resolved, Degraded: true}
		}
		o.logger.Error("answer synthesis failed", "error", err, "session_id", sess.ID)
		return &Result{Answer: apologeticAnswer, Intent: cls.Intent, Countries: resolved, Degraded: true}
	}

	return &Result{Answer: answer, Intent: cls.Intent, Countries: resolved}
}
