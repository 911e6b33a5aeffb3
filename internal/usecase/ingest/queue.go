package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/metrics"
)

// QueueConfig sizes the worker pool.
type QueueConfig struct {
	Workers int
	Size    int
	Retry   RetryPolicy
}

// Queue is an in-process, fire-and-forget ingestion worker pool.
// Jobs for the same document never run concurrently.
type Queue struct {
	proc   Processor
	cfg    QueueConfig
	jobs   chan Job
	locks  *keyedMutex
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewQueue creates a stopped queue. Jobs may be enqueued before Start.
func NewQueue(proc Processor, cfg QueueConfig, logger *zap.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		proc:   proc,
		cfg:    cfg,
		jobs:   make(chan Job, cfg.Size),
		locks:  newKeyedMutex(),
		logger: logger,
	}
}

// Start launches the workers. They run until Stop or ctx is done.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for range q.cfg.Workers {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue schedules a job without waiting for it to run.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return domain.ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		metrics.IngestQueueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		return fmt.Errorf("document %s: %w", job.DocumentID, domain.ErrQueueFull)
	}
}

// Stop rejects new jobs, lets workers drain the queue and waits for them.
// When ctx expires first the in-flight jobs are cancelled.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if q.cancel != nil {
			q.cancel()
		}
		return nil
	case <-ctx.Done():
		if q.cancel != nil {
			q.cancel()
		}
		<-done
		return ctx.Err()
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			metrics.IngestQueueDepth.Set(float64(len(q.jobs)))
			q.handle(ctx, job)
		}
	}
}

func (q *Queue) handle(ctx context.Context, job Job) {
	unlock := q.locks.Lock(job.DocumentID)
	defer unlock()

	logger := q.logger.With(zap.String("project_id", job.ProjectID), zap.String("document_id", job.DocumentID))
	err := q.cfg.Retry.Do(ctx, func(int) error {
		_, err := q.proc.Process(ctx, job)
		return err
	}, func(attempt int, err error) {
		metrics.IngestRetriesTotal.Inc()
		logger.Warn("ingestion attempt failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	})
	if err != nil {
		logger.Error("ingestion gave up", zap.Error(err))
	}
}

// keyedMutex serializes work per key and forgets idle keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
