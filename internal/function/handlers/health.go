package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 检查依赖是否可用
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	name    string
	version string
	pinger  Pinger
}

// NewHealthHandler 创建健康检查处理器，pinger 可为 nil
func NewHealthHandler(name, version string, pinger Pinger) *HealthHandler {
	return &HealthHandler{name: name, version: version, pinger: pinger}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	data := gin.H{
		"status":  "ok",
		"name":    h.name,
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			data["status"] = "degraded"
			data["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, SuccessResponse{Code: http.StatusServiceUnavailable, Message: "degraded", Data: data})
			return
		}
		data["database"] = "ok"
	}

	JSONSuccess(c, data)
}
