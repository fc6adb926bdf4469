package tasks

import (
	"fmt"

	"booksearch/internal/api/ecs"
	"booksearch/internal/config"
	"booksearch/internal/repository"
	"booksearch/internal/task"

	"go.uber.org/zap"
)

// RegisterWatchlist 为观察列表的每一项注册 WatchSearchTask
// 非法的项记录日志后跳过，返回成功注册的数量
func RegisterWatchlist(registry *task.TaskRegistry, watchlist *config.WatchlistConfig, service *ecs.Service, archive *repository.SearchRepository, catalog *repository.ItemCatalog, logger *zap.Logger) (int, error) {
	if registry == nil {
		return 0, fmt.Errorf("registry cannot be nil")
	}
	if watchlist == nil {
		return 0, nil
	}

	registered := 0
	for _, entry := range watchlist.Entries {
		t, err := NewWatchSearchTask(entry, service, archive, catalog, logger)
		if err != nil {
			if logger != nil {
				logger.Error("skipping watch entry", zap.String("name", entry.Name), zap.Error(err))
			}
			continue
		}
		if err := registry.Register(t); err != nil {
			if logger != nil {
				logger.Error("failed to register watch task", zap.String("name", entry.Name), zap.Error(err))
			}
			continue
		}
		registered++
	}
	return registered, nil
}
