package handlers

import (
	"context"
	"errors"
	"net/http"

	"booksearch/internal/api/ecs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey gin 上下文中请求 id 的键
const RequestIDKey = "request_id"

// SuccessResponse 成功响应
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSONSuccess 返回成功响应
func JSONSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// JSONError 按 HTTP 状态码返回错误响应
func JSONError(c *gin.Context, logger *zap.Logger, status int, message string, err error) {
	response := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
		if logger != nil {
			logger.Error(message,
				zap.String("request_id", RequestID(c)),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
	}
	c.JSON(status, response)
}

// JSONBadRequest 返回400错误
func JSONBadRequest(c *gin.Context, logger *zap.Logger, message string, err error) {
	JSONError(c, logger, http.StatusBadRequest, message, err)
}

// JSONNotFound 返回404错误
func JSONNotFound(c *gin.Context, logger *zap.Logger, message string, err error) {
	JSONError(c, logger, http.StatusNotFound, message, err)
}

// JSONInternalError 返回500错误
func JSONInternalError(c *gin.Context, logger *zap.Logger, message string, err error) {
	JSONError(c, logger, http.StatusInternalServerError, message, err)
}

// StatusForError 查询错误对应的 HTTP 状态码
// 参数或凭证问题为 400，上游超时为 504，其他传输失败为 502
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ecs.ErrValidation), errors.Is(err, ecs.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// RequestID 返回中间件分配的请求 id
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
