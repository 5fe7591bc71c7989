package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeCmdable implements the commands the store uses; any other call
// panics on the nil embedded interface.
type fakeCmdable struct {
	redis.Cmdable
	mu       sync.Mutex
	data     map[string]string
	ttls     map[string]time.Duration
	setnxErr error
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCmdable) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setnxErr != nil {
		return redis.NewBoolResult(false, f.setnxErr)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCmdable) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestIdempotencyStore_ReserveCompleteReplay(t *testing.T) {
	fake := newFakeCmdable()
	store := NewIdempotencyStore(fake)
	ctx := context.Background()

	reserved, id, err := store.Reserve(ctx, "owner", "k1")
	if err != nil || !reserved || id != "" {
		t.Fatalf("first Reserve = %v %q %v", reserved, id, err)
	}
	if ttl := fake.ttls["idem:task:owner:k1"]; ttl != pendingTTL {
		t.Fatalf("pending ttl = %v, want %v", ttl, pendingTTL)
	}

	// Still in flight.
	reserved, id, err = store.Reserve(ctx, "owner", "k1")
	if err != nil || reserved || id != "" {
		t.Fatalf("in-flight Reserve = %v %q %v", reserved, id, err)
	}

	if err := store.Complete(ctx, "owner", "k1", "task-1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	reserved, id, err = store.Reserve(ctx, "owner", "k1")
	if err != nil || reserved || id != "task-1" {
		t.Fatalf("completed Reserve = %v %q %v", reserved, id, err)
	}
	if ttl := fake.ttls["idem:task:owner:k1"]; ttl != idempotencyTTL {
		t.Fatalf("ttl = %v, want %v", ttl, idempotencyTTL)
	}

	if reserved, _, _ := store.Reserve(ctx, "other", "k1"); !reserved {
		t.Fatalf("keys must be scoped per owner")
	}
}

func TestIdempotencyStore_Release(t *testing.T) {
	store := NewIdempotencyStore(newFakeCmdable())
	ctx := context.Background()

	if reserved, _, _ := store.Reserve(ctx, "owner", "k1"); !reserved {
		t.Fatalf("expected reservation")
	}
	if err := store.Release(ctx, "owner", "k1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if reserved, _, _ := store.Reserve(ctx, "owner", "k1"); !reserved {
		t.Fatalf("released key must be claimable again")
	}
}

func TestIdempotencyStore_ConcurrentReserve(t *testing.T) {
	store := NewIdempotencyStore(newFakeCmdable())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reserved, _, err := store.Reserve(context.Background(), "owner", "k1")
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			if reserved {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one reservation, got %d", winners)
	}
}

func TestIdempotencyStore_ReserveError(t *testing.T) {
	fake := newFakeCmdable()
	fake.setnxErr = errors.New("connection refused")
	store := NewIdempotencyStore(fake)

	if _, _, err := store.Reserve(context.Background(), "owner", "k1"); err == nil {
		t.Fatalf("expected error")
	}
}
