package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-system/internal/api/metrics"
	"github.com/99minutos/task-system/internal/core/domain"
	"github.com/99minutos/task-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher records task activity off the request path. Records are routed
// to a fixed set of workers using consistent hashing on the task id, which
// keeps the audit trail of a single task in order.
type Dispatcher struct {
	workers []chan domain.TaskActivity
	repo    ports.ActivityRepository
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskActivity, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskActivity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is passed to the repository;
// workers exit once Stop has closed their channel and it is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a record to the worker responsible for its task. It never
// blocks: when the worker's buffer is full, or the dispatcher is stopped,
// the record is dropped and counted.
func (d *Dispatcher) Enqueue(a domain.TaskActivity) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(a, "dispatcher stopped")
		return
	}

	idx := d.shardIndex(a.TaskID)
	select {
	case d.workers[idx] <- a:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(a, "queue full")
	}
}

// Stop closes the worker channels and waits until pending records are
// written or ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(a domain.TaskActivity, reason string) {
	metrics.ActivityRecordedTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().
		Str("task_id", a.TaskID).
		Str("action", string(a.Action)).
		Str("reason", reason).
		Msg("task activity dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TaskActivity) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for a := range ch {
		metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		start := time.Now()
		err := d.repo.Insert(context.WithoutCancel(ctx), a)
		metrics.ActivityRecordDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ActivityRecordedTotal.WithLabelValues("error").Inc()
			d.log.Error().Err(err).
				Str("task_id", a.TaskID).
				Int("worker_id", id).
				Msg("task activity recording failed")
			continue
		}
		metrics.ActivityRecordedTotal.WithLabelValues("ok").Inc()
	}
}
