package api

import (
	"fmt"
	"net/http"
)

// maxErrorBodySize 错误信息中保留的响应体长度上限
const maxErrorBodySize = 512

// HTTPError 远端返回的非 2xx 响应
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	body := e.Body
	if len(body) > maxErrorBodySize {
		body = body[:maxErrorBodySize]
	}
	return fmt.Sprintf("HTTP error: status code %d, body: %s", e.StatusCode, string(body))
}

// Retryable 判断是否为暂时性错误：429、408 与 5xx
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		(e.StatusCode >= 500 && e.StatusCode <= 599)
}
