// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误（可按需扩展错误码）
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
)

// 对话工作流的失败分类：Orchestrator 边界之下的失败都会被转换为值，
// 不会穿透问答入口成为传输层错误
var (
	// ErrClassificationFailed 意图分类不可用或输出不可解析（就地恢复为 unknown）
	ErrClassificationFailed = errors.New("intent classification failed")
	// ErrLookupNotFound 数据源不认识该国家（404 等价）
	ErrLookupNotFound = errors.New("country not found")
	// ErrLookupTransport 网络/超时/5xx（对合成器与 NotFound 同样处理，日志单独区分）
	ErrLookupTransport = errors.New("country lookup transport error")
	// ErrAllBackendsExhausted 所有模型后端均失败（唯一允许成为用户可见降级回答的条件）
	ErrAllBackendsExhausted = errors.New("all model backends exhausted")
	// ErrSessionCorrupted 会话存储状态损坏（重置会话而非失败请求）
	ErrSessionCorrupted = errors.New("session state corrupted")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
