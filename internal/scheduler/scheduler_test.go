package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScheduler_RegisterAndList(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	err = s.RegisterTask(TaskConfig{
		ID:          "test-task",
		Name:        "Test Task",
		Description: "does nothing",
		Cron:        "0 0 * * *",
		Func:        func(ctx context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	tasks := s.ListTasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	if tasks[0].ID != "test-task" || tasks[0].Running {
		t.Errorf("task = %+v", tasks[0])
	}
}

func TestScheduler_DuplicateIDRejected(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	cfg := TaskConfig{
		ID:   "dup",
		Name: "Dup",
		Cron: "0 0 * * *",
		Func: func(ctx context.Context) error { return nil },
	}
	if err := s.RegisterTask(cfg); err != nil {
		t.Fatalf("first RegisterTask() error = %v", err)
	}
	if err := s.RegisterTask(cfg); err == nil {
		t.Error("second RegisterTask() should fail")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Stop()

	done := make(chan struct{})
	err = s.RegisterTask(TaskConfig{
		ID:   "manual",
		Name: "Manual",
		Cron: "0 0 * * *",
		Func: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if err := s.RunNow("manual"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}

	if err := s.RunNow("missing"); err == nil {
		t.Error("RunNow() on unknown task should fail")
	}
}
