package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"booksearch/internal/task"

	"go.uber.org/zap"
)

type countingTask struct {
	name     string
	schedule string
	enabled  bool
	timeout  time.Duration
	err      error
	runs     int32
	sawLimit bool
}

func (c *countingTask) Name() string           { return c.name }
func (c *countingTask) Schedule() string       { return c.schedule }
func (c *countingTask) Timeout() time.Duration { return c.timeout }
func (c *countingTask) Enabled() bool          { return c.enabled }

func (c *countingTask) Run(ctx context.Context) error {
	atomic.AddInt32(&c.runs, 1)
	_, c.sawLimit = ctx.Deadline()
	return c.err
}

func newTestScheduler(t *testing.T, tasks ...task.Task) *Scheduler {
	t.Helper()
	registry := task.NewTaskRegistry()
	for _, tk := range tasks {
		if err := registry.Register(tk); err != nil {
			t.Fatalf("Register(%s) error = %v", tk.Name(), err)
		}
	}
	return NewScheduler(Config{
		Logger:         zap.NewNop(),
		Registry:       registry,
		DefaultTimeout: time.Second,
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(t,
		&countingTask{name: "go-books", schedule: "@every 1h", enabled: true},
		&countingTask{name: "paused", schedule: "@every 1h", enabled: false},
	)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() should fail")
	}
	if got := s.GetTaskCount(); got != 1 {
		t.Errorf("GetTaskCount() = %d, want 1", got)
	}
	if s.NextRun("go-books").IsZero() {
		t.Error("NextRun(go-books) is zero")
	}
	if !s.NextRun("paused").IsZero() {
		t.Error("NextRun(paused) should be zero")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	ok := &countingTask{name: "go-books", schedule: "@every 1h", enabled: true}
	failing := &countingTask{name: "similar", schedule: "@every 1h", enabled: true, err: errors.New("fetch failed")}
	s := newTestScheduler(t, ok, failing)

	result, err := s.RunNow("go-books")
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if !result.Success || result.Trigger != TriggerManual {
		t.Errorf("result = %+v", result)
	}
	if atomic.LoadInt32(&ok.runs) != 1 {
		t.Errorf("runs = %d, want 1", ok.runs)
	}
	if !ok.sawLimit {
		t.Error("task context has no deadline")
	}

	result, err = s.RunNow("similar")
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if result.Success || result.ErrorMessage() != "fetch failed" {
		t.Errorf("result = %+v", result)
	}

	last, found := s.LastResult("similar")
	if !found || last.Success {
		t.Errorf("LastResult(similar) = %+v, %v", last, found)
	}
	if _, found := s.LastResult("never-run"); found {
		t.Error("LastResult(never-run) found")
	}

	if _, err := s.RunNow("missing"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("RunNow(missing) error = %v, want ErrTaskNotFound", err)
	}
}

func TestScheduler_RemoveTask(t *testing.T) {
	s := newTestScheduler(t, &countingTask{name: "go-books", schedule: "@every 1h", enabled: true})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	if err := s.RemoveTask("go-books"); err != nil {
		t.Fatalf("RemoveTask() error = %v", err)
	}
	if got := s.GetTaskCount(); got != 0 {
		t.Errorf("GetTaskCount() = %d, want 0", got)
	}
	if err := s.RemoveTask("go-books"); !errors.Is(err, task.ErrTaskNotFound) {
		t.Errorf("RemoveTask() error = %v, want ErrTaskNotFound", err)
	}
}

func TestScheduler_CronTrigger(t *testing.T) {
	tk := &countingTask{name: "tick", schedule: "@every 1s", enabled: true}
	s := newTestScheduler(t, tk)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := s.LastResult("tick"); ok {
			if result.Trigger != TriggerCron {
				t.Errorf("Trigger = %s, want %s", result.Trigger, TriggerCron)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("task was not triggered by cron")
}
