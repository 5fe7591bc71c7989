package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-system/internal/core/domain"
)

type recordingRepo struct {
	mu    sync.Mutex
	got   []domain.TaskActivity
	fail  bool
	block chan struct{}
}

func (r *recordingRepo) Insert(_ context.Context, a domain.TaskActivity) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("insert failed")
	}
	r.got = append(r.got, a)
	return nil
}

func (r *recordingRepo) snapshot() []domain.TaskActivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TaskActivity, len(r.got))
	copy(out, r.got)
	return out
}

func stopWithin(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestDispatcher_RecordsEverything(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 30; i++ {
		d.Enqueue(domain.TaskActivity{TaskID: fmt.Sprintf("task-%d", i%5), Action: domain.ActivityUpdated})
	}
	stopWithin(t, d)

	if got := len(repo.snapshot()); got != 30 {
		t.Fatalf("expected 30 records, got %d", got)
	}
}

func TestDispatcher_PerTaskOrder(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start(context.Background())

	actions := []domain.ActivityAction{domain.ActivityCreated, domain.ActivityUpdated, domain.ActivityUpdated, domain.ActivityDeleted}
	for _, a := range actions {
		d.Enqueue(domain.TaskActivity{TaskID: "task-1", Action: a})
		d.Enqueue(domain.TaskActivity{TaskID: "task-2", Action: a})
	}
	stopWithin(t, d)

	var task1 []domain.ActivityAction
	for _, a := range repo.snapshot() {
		if a.TaskID == "task-1" {
			task1 = append(task1, a.Action)
		}
	}
	if len(task1) != len(actions) {
		t.Fatalf("expected %d records for task-1, got %d", len(actions), len(task1))
	}
	for i := range actions {
		if task1[i] != actions[i] {
			t.Fatalf("out of order at %d: %v", i, task1)
		}
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, &recordingRepo{}, zerolog.Nop())
	for _, id := range []string{"a", "task-1", "65f0c0ffee00000000000000"} {
		first := d.shardIndex(id)
		if first < 0 || first >= 8 {
			t.Fatalf("index out of range: %d", first)
		}
		if again := d.shardIndex(id); again != first {
			t.Fatalf("shard index not deterministic for %q", id)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	repo := &recordingRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.TaskActivity{TaskID: "task-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full queue")
	}

	close(repo.block)
	stopWithin(t, d)

	if got := len(repo.snapshot()); got > channelBuffer+1 || got == 0 {
		t.Fatalf("unexpected number of recorded activities: %d", got)
	}
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	repo := &recordingRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start(context.Background())
	stopWithin(t, d)

	d.Enqueue(domain.TaskActivity{TaskID: "task-1"})
	stopWithin(t, d)

	if got := len(repo.snapshot()); got != 0 {
		t.Fatalf("expected no records after stop, got %d", got)
	}
}

func TestDispatcher_InsertFailureKeepsWorking(t *testing.T) {
	repo := &recordingRepo{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Enqueue(domain.TaskActivity{TaskID: "task-1"})
	d.Enqueue(domain.TaskActivity{TaskID: "task-1"})
	stopWithin(t, d)

	if got := len(repo.snapshot()); got != 0 {
		t.Fatalf("failed inserts must not be recorded, got %d", got)
	}
}
