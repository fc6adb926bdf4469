package handlers

import (
	"errors"
	"time"

	"booksearch/internal/scheduler"
	"booksearch/internal/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TaskHandler 定时任务查询与手动触发
type TaskHandler struct {
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(s *scheduler.Scheduler, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		scheduler: s,
		logger:    logger,
	}
}

// TaskInfo 任务状态
type TaskInfo struct {
	Name       string      `json:"name"`
	Schedule   string      `json:"schedule"`
	Enabled    bool        `json:"enabled"`
	NextRun    *time.Time  `json:"next_run,omitempty"`
	LastResult *TaskReport `json:"last_result,omitempty"`
}

// TaskReport 一次执行结果
type TaskReport struct {
	task.TaskResult
	Error string `json:"error,omitempty"`
}

func newTaskReport(result task.TaskResult) *TaskReport {
	return &TaskReport{TaskResult: result, Error: result.ErrorMessage()}
}

// List GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	registry := h.scheduler.Registry()
	names := registry.Names()

	infos := make([]TaskInfo, 0, len(names))
	for _, name := range names {
		t, ok := registry.GetTask(name)
		if !ok {
			continue
		}
		info := TaskInfo{
			Name:     name,
			Schedule: t.Schedule(),
			Enabled:  t.Enabled(),
		}
		if next := h.scheduler.NextRun(name); !next.IsZero() {
			info.NextRun = &next
		}
		if result, ok := h.scheduler.LastResult(name); ok {
			info.LastResult = newTaskReport(result)
		}
		infos = append(infos, info)
	}

	JSONSuccess(c, gin.H{
		"running": h.scheduler.IsRunning(),
		"tasks":   infos,
	})
}

// Run POST /tasks/:name/run，同步执行并返回结果
func (h *TaskHandler) Run(c *gin.Context) {
	name := c.Param("name")

	result, err := h.scheduler.RunNow(name)
	if errors.Is(err, task.ErrTaskNotFound) {
		JSONNotFound(c, h.logger, "task not found", err)
		return
	}
	if err != nil {
		JSONInternalError(c, h.logger, "failed to run task", err)
		return
	}

	JSONSuccess(c, newTaskReport(result))
}
