package function

import (
	"booksearch/internal/function/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router 路由管理器
type Router struct {
	router       *gin.Engine
	logger       *zap.Logger
	dependencies *Dependencies
}

// NewRouter 创建路由管理器
func NewRouter(router *gin.Engine, logger *zap.Logger, deps *Dependencies) *Router {
	return &Router{
		router:       router,
		logger:       logger,
		dependencies: deps,
	}
}

// SetupRoutes 设置所有路由
// 未提供的依赖对应的路由不注册
func (r *Router) SetupRoutes() {
	api := r.router.Group("/api/v1")

	api.GET("/health", r.healthHandler().Health)

	deps := r.dependencies
	if deps == nil {
		return
	}

	// 一次性查询
	if deps.Searcher != nil {
		searchHandler := handlers.NewSearchHandler(deps.Searcher, deps.Archive, r.logger)
		functions := api.Group("/functions")
		{
			functions.POST("/search", searchHandler.Search)
			functions.POST("/lookup", searchHandler.Lookup)
			functions.POST("/similar", searchHandler.Similar)
		}
	}

	// 存档与目录
	var catalogHandler *handlers.CatalogHandler
	switch {
	case deps.Archive != nil && deps.Catalog != nil:
		catalogHandler = handlers.NewCatalogHandler(deps.Archive, deps.Catalog, r.logger)
	case deps.Archive != nil:
		catalogHandler = handlers.NewCatalogHandler(deps.Archive, nil, r.logger)
	case deps.Catalog != nil:
		catalogHandler = handlers.NewCatalogHandler(nil, deps.Catalog, r.logger)
	}
	if catalogHandler != nil {
		api.GET("/archive", catalogHandler.RecentSearches)
		api.GET("/items/:asin", catalogHandler.GetItem)
	}

	// 定时任务
	if deps.Scheduler != nil {
		taskHandler := handlers.NewTaskHandler(deps.Scheduler, r.logger)
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("/:name/run", taskHandler.Run)
		}
	}
}

func (r *Router) healthHandler() *handlers.HealthHandler {
	name, version := "booksearch", ""
	var pinger handlers.Pinger
	if deps := r.dependencies; deps != nil {
		if deps.Config != nil {
			name, version = deps.Config.App.Name, deps.Config.App.Version
		}
		if deps.Databases != nil {
			pinger = deps.Databases
		}
	}
	return handlers.NewHealthHandler(name, version, pinger)
}

// RegisterCustomRoutes 注册自定义路由
func (r *Router) RegisterCustomRoutes(registerFunc func(*gin.RouterGroup)) {
	api := r.router.Group("/api/v1")
	registerFunc(api)
}
