package tasks

import (
	"context"
	"fmt"
	"time"

	"booksearch/internal/repository"

	"go.uber.org/zap"
)

// ArchiveCleanupTaskName 存档清理任务名
const ArchiveCleanupTaskName = "archive_cleanup"

// ArchiveCleanupTask 删除超过保留期的查询存档
type ArchiveCleanupTask struct {
	repo      *repository.SearchRepository
	retention time.Duration
	schedule  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewArchiveCleanupTask 创建存档清理任务，retention 为 0 时任务不启用
func NewArchiveCleanupTask(repo *repository.SearchRepository, retention time.Duration, schedule string, logger *zap.Logger) *ArchiveCleanupTask {
	if schedule == "" {
		// 每天凌晨2点执行
		schedule = "0 0 2 * * *"
	}
	return &ArchiveCleanupTask{
		repo:      repo,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
	}
}

func (t *ArchiveCleanupTask) Name() string {
	return ArchiveCleanupTaskName
}

func (t *ArchiveCleanupTask) Schedule() string {
	return t.schedule
}

func (t *ArchiveCleanupTask) Timeout() time.Duration {
	return 10 * time.Minute
}

func (t *ArchiveCleanupTask) Enabled() bool {
	return t.repo != nil && t.retention > 0
}

// Cutoff 早于该时间的存档会被删除
func (t *ArchiveCleanupTask) Cutoff() time.Time {
	return t.now().Add(-t.retention)
}

func (t *ArchiveCleanupTask) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !t.Enabled() {
		return nil
	}

	cutoff := t.Cutoff()
	deleted, err := t.repo.PruneArchive(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive cleanup interrupted: %w", err)
	}

	if t.logger != nil {
		t.logger.Info("archive cleanup completed",
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", deleted),
		)
	}
	return nil
}
