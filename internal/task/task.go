package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task 定义了所有定时任务必须实现的接口
type Task interface {
	// Name 返回任务名称，用于标识和日志记录
	Name() string

	// Schedule 返回 cron 表达式，定义任务执行时间
	// 支持带秒的 cron 表达式：秒 分 时 日 月 周
	// 例如: "0 0 */6 * * *" 表示每6小时执行一次
	Schedule() string

	// Run 执行任务逻辑
	Run(ctx context.Context) error

	// Timeout 返回任务执行的超时时间
	// 如果返回 0，则使用默认超时时间
	Timeout() time.Duration

	// Enabled 返回任务是否启用
	Enabled() bool
}

// TaskResult 任务执行结果
type TaskResult struct {
	TaskName  string        `json:"task_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     error         `json:"-"`
	Trigger   string        `json:"trigger"` // cron 或 manual
}

// ErrorMessage 返回错误文本，成功时为空
func (r TaskResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// ScheduleParser 与调度器一致的带秒 cron 解析器
var ScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule 检查 cron 表达式
func ValidateSchedule(expr string) error {
	if expr == "" {
		return fmt.Errorf("%w: empty expression", ErrInvalidSchedule)
	}
	if _, err := ScheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, expr, err)
	}
	return nil
}

// TaskRegistry 任务注册表，可并发访问
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewTaskRegistry 创建新的任务注册表
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]Task),
	}
}

// Register 注册任务，启用的任务必须有合法的 cron 表达式
func (r *TaskRegistry) Register(task Task) error {
	name := task.Name()
	if name == "" {
		return ErrEmptyTaskName
	}
	if task.Enabled() {
		if err := ValidateSchedule(task.Schedule()); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyRegistered, name)
	}

	r.tasks[name] = task
	return nil
}

// GetTask 获取任务
func (r *TaskRegistry) GetTask(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, exists := r.tasks[name]
	return task, exists
}

// GetEnabledTasks 获取所有启用的任务
func (r *TaskRegistry) GetEnabledTasks() map[string]Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Task)
	for name, task := range r.tasks {
		if task.Enabled() {
			result[name] = task
		}
	}
	return result
}

// Names 返回按名称排序的全部任务名
func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
