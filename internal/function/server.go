package function

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"booksearch/internal/config"
	"booksearch/internal/database"
	"booksearch/internal/function/handlers"
	"booksearch/internal/repository"
	"booksearch/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader 请求 id 响应头
const RequestIDHeader = "X-Request-ID"

// Dependencies 服务器依赖，除 Searcher 外均可为 nil
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Searcher  handlers.Searcher
	Archive   *repository.SearchRepository
	Catalog   *repository.ItemCatalog
	Scheduler *scheduler.Scheduler
	Databases *database.Databases
}

// Server HTTP 服务器
type Server struct {
	config       *config.ServerConfig
	router       *gin.Engine
	logger       *zap.Logger
	httpServer   *http.Server
	dependencies *Dependencies
}

// NewServer 创建新的 HTTP 服务器
func NewServer(cfg *config.ServerConfig, logger *zap.Logger, deps *Dependencies) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 设置 gin 模式
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	// 创建 gin 引擎
	router := gin.New()

	// 添加中间件
	router.Use(requestID())
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	server := &Server{
		config:       cfg,
		router:       router,
		logger:       logger,
		dependencies: deps,
	}

	// 设置路由
	routerManager := NewRouter(router, logger, deps)
	routerManager.SetupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 查询可能包含上游重试
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器
func (s *Server) Start() error {
	if !s.config.Enabled {
		s.logger.Info("HTTP server is disabled, skipping startup")
		return nil
	}

	s.logger.Info("starting HTTP server",
		zap.String("host", s.config.Host),
		zap.Int("port", s.config.Port),
		zap.String("mode", s.config.Mode),
	)

	// 在 goroutine 中启动服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down HTTP server", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// RegisterCustomRoutes 注册自定义路由
func (s *Server) RegisterCustomRoutes(registerFunc func(*gin.RouterGroup)) {
	routerManager := NewRouter(s.router, s.logger, s.dependencies)
	routerManager.RegisterCustomRoutes(registerFunc)
}

// requestID 为每个请求分配 id，沿用客户端传入的合法 UUID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ginLogger 自定义 gin 日志中间件
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("request_id", handlers.RequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", statusCode),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		if statusCode >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
		} else {
			logger.Info("HTTP request", fields...)
		}
	}
}
