// Package apperr 定义了面向客户端的错误分类。
// 上游服务商（Stripe、聊天后端、数据库）的原始错误只进入日志，
// 绝不直接下发给客户端。
package apperr

import (
	"errors"
	"net/http"
)

// Kind 表示错误的分类。
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Upstream
)

// Error 携带一个安全的对外消息、错误分类和内部原因。
type Error struct {
	Kind Kind
	Msg  string // 可直接下发给客户端的消息
	Err  error  // 内部原因，仅用于日志
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建一个不带内部原因的分类错误。
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 创建一个携带内部原因的分类错误。
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 返回错误的分类；非 *Error 一律视为 Internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message 返回可安全下发的消息；非 *Error 返回通用提示。
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "服务内部错误，请稍后重试"
}

// HTTPStatus 将错误分类映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		// Upstream 与 Internal 统一为 500，细节只留在日志里
		return http.StatusInternalServerError
	}
}
