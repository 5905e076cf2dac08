package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newRun(id string, created time.Time) *Run {
	return &Run{ID: id, Source: id + ".json", Status: StatusPending, CreatedAt: created}
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	if err := s.Create(ctx, newRun("a", now)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Create(ctx, newRun("a", now)); err == nil {
		t.Error("Create() duplicate should fail")
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Source != "a.json" || got.Status != StatusPending {
		t.Errorf("Get() = %+v", got)
	}

	// Returned runs are copies.
	got.Status = StatusFailed
	again, _ := s.Get(ctx, "a")
	if again.Status != StatusPending {
		t.Error("mutating Get() result changed the store")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
	if err := s.Update(ctx, newRun("missing", time.Now())); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Update() error = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	created := time.Now()
	run := newRun("a", created)
	_ = s.Create(ctx, run)

	run.Status = StatusSucceeded
	run.Rows = 42
	run.FinishedAt = created.Add(2 * time.Second)
	if err := s.Update(ctx, run); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.Get(ctx, "a")
	if got.Status != StatusSucceeded || got.Rows != 42 {
		t.Errorf("Get() after update = %+v", got)
	}
	if got.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", got.Duration())
	}
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()

	for i := 0; i < 5; i++ {
		_ = s.Create(ctx, newRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	runs, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(runs))
	}
	want := []string{"run-4", "run-3", "run-2"}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, runs[i].ID, id)
		}
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 5 {
		t.Errorf("List(0) returned %d runs, want 5", len(all))
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run := newRun(fmt.Sprintf("run-%d", i), time.Now())
			_ = s.Create(ctx, run)
			run.Status = StatusRunning
			_ = s.Update(ctx, run)
			_, _ = s.List(ctx, 10)
		}(i)
	}
	wg.Wait()

	all, _ := s.List(ctx, 0)
	if len(all) != 50 {
		t.Errorf("List() returned %d runs, want 50", len(all))
	}
}

func TestRunStatus_Done(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusSucceeded, true},
		{StatusFailed, true},
		{StatusSkipped, true},
	}
	for _, tt := range tests {
		if got := tt.status.Done(); got != tt.want {
			t.Errorf("%s.Done() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
