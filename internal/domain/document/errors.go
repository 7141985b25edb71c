package document

import (
	"errors"
	"fmt"
)

// ErrorKind 错误类别
type ErrorKind string

const (
	// KindValidation 参数或输入校验失败，发生在任何持久化修改之前
	KindValidation ErrorKind = "validation"
	// KindNotFound 文档或资源不存在
	KindNotFound ErrorKind = "not_found"
	// KindQuotaExceeded 超出单文件大小或用户总存储配额
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	// KindIllegalTransition 状态机拒绝了当前状态下的事件
	KindIllegalTransition ErrorKind = "illegal_transition"
	// KindStageFailed 处理阶段（转换、分块、QA 抽取、向量化）失败
	KindStageFailed ErrorKind = "stage_failed"
	// KindIO 底层存储错误
	KindIO ErrorKind = "io"
)

// Error 文档领域错误
// 通过 errors.Is 与同类哨兵错误比较，通过 errors.As 读取详细信息
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 按错误类别比较
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// 哨兵错误，用于 errors.Is 判断类别
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded}
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition}
	ErrStageFailed       = &Error{Kind: KindStageFailed}
	ErrIO                = &Error{Kind: KindIO}
)

// NewError 创建领域错误
func NewError(kind ErrorKind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError 包装底层错误
func WrapError(kind ErrorKind, op string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 返回错误类别，非领域错误返回空字符串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
