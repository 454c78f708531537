package ai

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates no API key has been saved. The orchestrator
// surfaces it as a conversational prompt rather than a fatal error.
var ErrMissingAPIKey = errors.New("请先在设置中填写并保存 API Key。")

// HTTPError is a non-2xx provider response. Detail carries the provider's
// error.message when the body had one, else the raw body text.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API 请求失败（HTTP %d）：%s", e.Status, e.Detail)
}

// NetworkError is a transport-level failure: no HTTP response was obtained.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "网络请求失败，请稍后重试。"
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
