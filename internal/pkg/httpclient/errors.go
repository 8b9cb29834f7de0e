package httpclient

import (
	"fmt"

	"github.com/tidwall/gjson"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
)

// APIError 服务端返回的错误（HTTP 非 2xx，或信封中 code 非 0）
type APIError struct {
	Status    int    // HTTP 状态码
	Code      int    // 信封中的业务错误码（无信封时为 0）
	Message   string // 服务端消息，缺省为 "http <status>"
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("http %d: %s (request_id=%s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// UserMessage 返回可以直接展示给用户的消息
func (e *APIError) UserMessage() string {
	return e.Message
}

// AppCode 将 HTTP 状态映射为应用错误码
func (e *APIError) AppCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return apperrors.FromHTTPStatus(e.Status)
}

// messagePaths 依次尝试的错误消息字段
var messagePaths = []string{"message", "error.message", "error", "detail"}

func newAPIError(status, code int, body []byte, requestID string) *APIError {
	return &APIError{
		Status:    status,
		Code:      code,
		Message:   extractMessage(status, body),
		RequestID: requestID,
	}
}

func extractMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range messagePaths {
			r := gjson.GetBytes(body, path)
			if r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	return fmt.Sprintf("http %d", status)
}
