package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the UI.
type ErrorKind string

const (
	KindRegionUnsupported    ErrorKind = "region_unsupported"
	KindInvalidCredential    ErrorKind = "invalid_credential"
	KindNoContentReturned    ErrorKind = "no_content_returned"
	KindSafetyBlocked        ErrorKind = "safety_blocked"
	KindRecitationBlocked    ErrorKind = "recitation_blocked"
	KindModelRefusalWithText ErrorKind = "model_refusal"
	KindMalformedResponse    ErrorKind = "malformed_response"
	KindTransportError       ErrorKind = "transport_error"
)

// Error is a classified provider failure. Message is the short localized
// text shown to the end user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrRegionUnsupported    = &Error{Kind: KindRegionUnsupported, Message: "您的地区暂不支持 Gemini API (Region not supported)。请检查网络代理环境或参考官方可用地区列表。"}
	ErrInvalidCredential    = &Error{Kind: KindInvalidCredential, Message: "API Key 无效或缺失。"}
	ErrNoContentReturned    = &Error{Kind: KindNoContentReturned, Message: "API 未返回有效内容。"}
	ErrSafetyBlocked        = &Error{Kind: KindSafetyBlocked, Message: "内容因违反安全策略被拦截。"}
	ErrRecitationBlocked    = &Error{Kind: KindRecitationBlocked, Message: "内容被拦截：检测到受版权保护的内容。"}
	ErrModelRefusalWithText = &Error{Kind: KindModelRefusalWithText, Message: "模型拒绝生成音频。"}
	ErrMalformedResponse    = &Error{Kind: KindMalformedResponse, Message: "未获取到音频数据流。"}
	ErrTransport            = &Error{Kind: KindTransportError, Message: "服务请求失败。"}
)

// Wrap returns a copy of the sentinel carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

// NewRefusal carries the provider's explanatory text as the message.
func NewRefusal(text string) *Error {
	return &Error{Kind: KindModelRefusalWithText, Message: text}
}

// KindOf reports the kind of err, or "" when err is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrEmptyText is returned before any network call when the input is blank.
var ErrEmptyText = errors.New("text cannot be empty")

// ValidationError marks input the caller has to fix before retrying.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps err as a ValidationError; nil stays nil.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err is caller input error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) || errors.Is(err, ErrEmptyText)
}
