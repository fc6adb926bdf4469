package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booksearch/internal/api/ecs"
	"booksearch/internal/config"
	"booksearch/internal/model"
	"booksearch/internal/repository"

	"go.uber.org/zap"
)

// WatchSearchTask 按观察列表定时执行一次 ECS 查询并保存结果
type WatchSearchTask struct {
	entry   config.WatchEntry
	op      ecs.Operation
	service *ecs.Service
	archive *repository.SearchRepository
	catalog *repository.ItemCatalog
	logger  *zap.Logger
}

// NewWatchSearchTask 创建观察任务
// archive 和 catalog 可为 nil，为 nil 时对应的存储被跳过
func NewWatchSearchTask(entry config.WatchEntry, service *ecs.Service, archive *repository.SearchRepository, catalog *repository.ItemCatalog, logger *zap.Logger) (*WatchSearchTask, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	op, err := entry.BuildOperation()
	if err != nil {
		return nil, fmt.Errorf("invalid watch entry %q: %w", entry.Name, err)
	}
	return &WatchSearchTask{
		entry:   entry,
		op:      op,
		service: service,
		archive: archive,
		catalog: catalog,
		logger:  logger,
	}, nil
}

func (t *WatchSearchTask) Name() string {
	return t.entry.Name
}

func (t *WatchSearchTask) Schedule() string {
	return t.entry.Schedule
}

// Timeout 使用调度器默认超时
func (t *WatchSearchTask) Timeout() time.Duration {
	return 0
}

func (t *WatchSearchTask) Enabled() bool {
	return t.entry.Enabled
}

// Source 存档中记录的触发来源
func (t *WatchSearchTask) Source() string {
	return "watch:" + t.entry.Name
}

// Run 执行查询，查询失败返回错误
// 存储失败不影响其他存储，最后合并返回
func (t *WatchSearchTask) Run(ctx context.Context) error {
	resp, err := t.service.Search(ctx, t.op)
	if err != nil {
		return fmt.Errorf("watch search %s failed: %w", t.entry.Name, err)
	}

	result := resp.Result
	if !result.IsValid {
		if t.logger != nil {
			t.logger.Warn("watch search returned an invalid response",
				zap.String("task", t.entry.Name),
				zap.String("error_message", model.StringValue(result.ErrorMessage)),
			)
		}
	} else if t.logger != nil {
		t.logger.Info("watch search completed",
			zap.String("task", t.entry.Name),
			zap.String("operation", resp.Operation),
			zap.Int("total_results", result.TotalResults),
			zap.Int("item_count", len(result.Items)),
		)
	}

	var errs []error

	// 无论是否有效都存档，便于排查
	if t.archive != nil {
		if _, err := t.archive.SaveSearch(ctx, t.Source(), resp); err != nil {
			if t.logger != nil {
				t.logger.Warn("failed to archive watch search",
					zap.String("task", t.entry.Name),
					zap.Error(err),
				)
			}
			errs = append(errs, err)
		}
	}

	if !result.IsValid || len(result.Items) == 0 {
		return errors.Join(errs...)
	}

	if t.archive != nil {
		if _, err := t.archive.SaveItems(ctx, result.Items); err != nil {
			if t.logger != nil {
				t.logger.Warn("failed to save items to MongoDB",
					zap.String("task", t.entry.Name),
					zap.Error(err),
				)
			}
			errs = append(errs, err)
		}
	}

	if t.catalog != nil {
		saved, err := t.catalog.UpsertItems(ctx, result.Items)
		if err != nil {
			if t.logger != nil {
				t.logger.Warn("failed to upsert items to catalog",
					zap.String("task", t.entry.Name),
					zap.String("dialect", t.catalog.Dialect()),
					zap.Error(err),
				)
			}
			errs = append(errs, err)
		} else if t.logger != nil {
			t.logger.Debug("catalog updated",
				zap.String("task", t.entry.Name),
				zap.Int("saved", saved),
			)
		}
	}

	return errors.Join(errs...)
}
