package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booksearch/internal/api"
	"booksearch/internal/api/ecs"
	"booksearch/internal/config"
	"booksearch/internal/database"
	"booksearch/internal/function"
	"booksearch/internal/logger"
	"booksearch/internal/repository"
	"booksearch/internal/scheduler"
	"booksearch/internal/task"
	"booksearch/internal/tasks"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(logger.FromConfig(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zapLogger.Info("application starting",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	if err := cfg.ECSAPI.Credentials().Validate(); err != nil {
		// 凭证缺失时服务仍可启动，查询会以配置错误返回
		zapLogger.Warn("ECS credentials are incomplete", zap.Error(err))
	}

	// 初始化数据库连接
	dbs, err := database.New(database.ConfigFromAppConfig(cfg, zapLogger))
	if err != nil {
		zapLogger.Fatal("failed to initialize databases", zap.Error(err))
	}

	ctx := context.Background()
	archive, catalog := setupRepositories(ctx, dbs, zapLogger)

	// 创建 ECS 查询服务
	client := api.NewClient(api.Config{
		Timeout:           cfg.ECSAPI.Timeout,
		MaxRetries:        cfg.ECSAPI.MaxRetries,
		RetryBaseDelay:    cfg.ECSAPI.RetryBaseDelay,
		RetryMaxDelay:     cfg.ECSAPI.RetryMaxDelay,
		PrintQueryURL:     cfg.ECSAPI.PrintQueryURL,
		PrintResponseBody: cfg.ECSAPI.PrintResponseBody,
		Logger:            zapLogger,
	})
	service := ecs.NewService(ecs.NewSigner(cfg.ECSAPI.Credentials(), nil), client, zapLogger)

	// 创建任务注册表
	registry := task.NewTaskRegistry()
	if err := registerTasks(registry, cfg, service, archive, catalog, zapLogger); err != nil {
		zapLogger.Fatal("failed to register tasks", zap.Error(err))
	}

	// 获取时区和超时配置
	location, err := cfg.GetLocation()
	if err != nil {
		zapLogger.Warn("failed to load location, using UTC", zap.Error(err))
		location = time.UTC
	}

	defaultTimeout, err := cfg.GetDefaultTimeout()
	if err != nil {
		zapLogger.Warn("failed to parse default timeout, using 5m", zap.Error(err))
		defaultTimeout = 5 * time.Minute
	}

	// 创建调度器
	sched := scheduler.NewScheduler(scheduler.Config{
		Logger:         zapLogger,
		Registry:       registry,
		DefaultTimeout: defaultTimeout,
		Location:       location,
	})

	if err := sched.Start(); err != nil {
		zapLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	zapLogger.Info("scheduler started successfully",
		zap.Int("task_count", sched.GetTaskCount()),
	)

	// 启动 HTTP 服务器
	server := function.NewServer(&cfg.Server, zapLogger, &function.Dependencies{
		Config:    cfg,
		Logger:    zapLogger,
		Searcher:  service,
		Archive:   archive,
		Catalog:   catalog,
		Scheduler: sched,
		Databases: dbs,
	})
	if err := server.Start(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("received signal, shutting down...",
		zap.String("signal", sig.String()),
	)

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		zapLogger.Error("error stopping HTTP server", zap.Error(err))
	}

	if err := sched.Stop(shutdownCtx); err != nil {
		zapLogger.Error("error stopping scheduler", zap.Error(err))
	}

	// 关闭数据库连接
	if err := dbs.Close(); err != nil {
		zapLogger.Error("error closing databases", zap.Error(err))
	}

	zapLogger.Info("application stopped")
}

// setupRepositories 按已启用的数据库创建存储，未启用时返回 nil
func setupRepositories(ctx context.Context, dbs *database.Databases, zapLogger *zap.Logger) (*repository.SearchRepository, *repository.ItemCatalog) {
	var archive *repository.SearchRepository
	if dbs.MongoDB != nil {
		archive = repository.NewSearchRepository(database.NewStorage(dbs.MongoDB, zapLogger), zapLogger)
		if err := archive.EnsureIndexes(ctx); err != nil {
			zapLogger.Warn("failed to ensure MongoDB indexes", zap.Error(err))
		}
	}

	var catalog *repository.ItemCatalog
	if db, dialect := dbs.Catalog(); db != nil {
		c, err := repository.NewItemCatalog(db, dialect, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to create item catalog", zap.Error(err))
		}
		if err := c.EnsureSchema(ctx); err != nil {
			zapLogger.Fatal("failed to create item catalog schema", zap.Error(err))
		}
		catalog = c
	}

	zapLogger.Info("storage configured",
		zap.Bool("archive", archive != nil),
		zap.Bool("catalog", catalog != nil),
	)
	return archive, catalog
}

// registerTasks 注册观察列表任务和存档清理任务
func registerTasks(registry *task.TaskRegistry, cfg *config.Config, service *ecs.Service, archive *repository.SearchRepository, catalog *repository.ItemCatalog, zapLogger *zap.Logger) error {
	watchlist, err := config.LoadWatchlistConfig("", zapLogger)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	registered, err := tasks.RegisterWatchlist(registry, watchlist, service, archive, catalog, zapLogger)
	if err != nil {
		return err
	}
	zapLogger.Info("watch tasks registered",
		zap.Int("registered", registered),
		zap.Int("entries", len(watchlist.Entries)),
	)

	if archive != nil {
		cleanup := tasks.NewArchiveCleanupTask(archive, cfg.Archive.Retention, cfg.Archive.CleanupSchedule, zapLogger)
		if err := registry.Register(cleanup); err != nil {
			return fmt.Errorf("failed to register archive cleanup task: %w", err)
		}
	}

	return nil
}
