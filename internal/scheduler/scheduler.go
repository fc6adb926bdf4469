package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"booksearch/internal/task"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 触发方式
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

// Scheduler 定时查询调度器
type Scheduler struct {
	cron           *cron.Cron
	registry       *task.TaskRegistry
	logger         *zap.Logger
	running        bool
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	jobEntries     map[string]cron.EntryID
	defaultTimeout time.Duration

	resultsMu   sync.RWMutex
	lastResults map[string]task.TaskResult
}

// Config 调度器配置
type Config struct {
	Logger         *zap.Logger
	Registry       *task.TaskRegistry
	DefaultTimeout time.Duration
	Location       *time.Location
}

// NewScheduler 创建新的调度器
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = task.NewTaskRegistry()
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	cronLogger := zapCronLogger{logger: cfg.Logger.Named("cron")}
	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithParser(task.ScheduleParser),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),           // 恢复 panic
			cron.SkipIfStillRunning(cronLogger), // 上一次查询未结束时跳过
		),
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:           c,
		registry:       cfg.Registry,
		logger:         cfg.Logger,
		ctx:            ctx,
		cancel:         cancel,
		jobEntries:     make(map[string]cron.EntryID),
		defaultTimeout: cfg.DefaultTimeout,
		lastResults:    make(map[string]task.TaskResult),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	// 注册所有启用的任务
	tasks := s.registry.GetEnabledTasks()
	for name, t := range tasks {
		if err := s.addTask(name, t); err != nil {
			s.logger.Error("failed to add task",
				zap.String("task", name),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("task registered",
			zap.String("task", name),
			zap.String("schedule", t.Schedule()),
		)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		zap.Int("total_tasks", len(s.jobEntries)),
	)

	return nil
}

// Stop 停止调度器，等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("stopping scheduler...")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("context cancelled while stopping scheduler")
		s.cancel()
		return ctx.Err()
	}

	s.cancel()
	s.running = false

	return nil
}

// addTask 添加任务到调度器
func (s *Scheduler) addTask(name string, t task.Task) error {
	if err := task.ValidateSchedule(t.Schedule()); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(t.Schedule(), func() {
		s.execute(name, t, TriggerCron)
	})
	if err != nil {
		return fmt.Errorf("failed to parse schedule: %w", err)
	}

	s.jobEntries[name] = entryID
	return nil
}

// RunNow 立即同步执行一次任务，不影响定时计划
func (s *Scheduler) RunNow(name string) (task.TaskResult, error) {
	t, ok := s.registry.GetTask(name)
	if !ok {
		return task.TaskResult{}, fmt.Errorf("%w: %s", task.ErrTaskNotFound, name)
	}
	return s.execute(name, t, TriggerManual), nil
}

// execute 带超时执行任务并记录结果
func (s *Scheduler) execute(name string, t task.Task, trigger string) task.TaskResult {
	startTime := time.Now()
	s.logger.Info("task started",
		zap.String("task", name),
		zap.String("trigger", trigger),
	)

	// 确定超时时间
	timeout := t.Timeout()
	if timeout == 0 {
		timeout = s.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := t.Run(ctx)
	endTime := time.Now()

	result := task.TaskResult{
		TaskName:  name,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
		Success:   err == nil,
		Error:     err,
		Trigger:   trigger,
	}

	s.resultsMu.Lock()
	s.lastResults[name] = result
	s.resultsMu.Unlock()

	s.logTaskResult(result)
	return result
}

// logTaskResult 记录任务执行结果
func (s *Scheduler) logTaskResult(result task.TaskResult) {
	fields := []zap.Field{
		zap.String("task", result.TaskName),
		zap.String("trigger", result.Trigger),
		zap.Duration("duration", result.Duration),
		zap.Bool("success", result.Success),
	}

	if result.Error != nil {
		fields = append(fields, zap.Error(result.Error))
		s.logger.Error("task completed with error", fields...)
	} else {
		s.logger.Info("task completed successfully", fields...)
	}
}

// LastResult 返回任务最近一次的执行结果
func (s *Scheduler) LastResult(name string) (task.TaskResult, bool) {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	result, ok := s.lastResults[name]
	return result, ok
}

// NextRun 返回任务下一次计划执行时间，未调度时返回零值
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entryID, ok := s.jobEntries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entryID).Next
}

// Registry 返回任务注册表
func (s *Scheduler) Registry() *task.TaskRegistry {
	return s.registry
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetTaskCount 获取已调度的任务数量
func (s *Scheduler) GetTaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobEntries)
}

// RemoveTask 移除任务
func (s *Scheduler) RemoveTask(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobEntries[name]
	if !exists {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, name)
	}

	s.cron.Remove(entryID)
	delete(s.jobEntries, name)

	s.logger.Info("task removed",
		zap.String("task", name),
	)

	return nil
}

// zapCronLogger 把 cron 的日志接口接到 zap
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
