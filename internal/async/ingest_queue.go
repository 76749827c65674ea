package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
)

// PathIngestor is the part of the ingest usecase the workers need.
type PathIngestor interface {
	IngestPath(ctx context.Context, path string) (ingest.Result, error)
}

type IngestQueue struct {
	ingestor PathIngestor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	depth    func(int)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*IngestQueue)

func WithWorkers(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *IngestQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithDepthReporter is called with the number of waiting jobs after every enqueue and dequeue.
func WithDepthReporter(fn func(int)) Option {
	return func(q *IngestQueue) {
		q.depth = fn
	}
}

func NewIngestQueue(ingestor PathIngestor, logger *slog.Logger, opts ...Option) *IngestQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &IngestQueue{
		ingestor: ingestor,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *IngestQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.reportDepth()
					q.process(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *IngestQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}

	res, err := q.ingestor.IngestPath(ctx, job.Path)
	if err != nil {
		q.logger.Error("ingest failed", "worker_id", workerID, "path", job.Path, "error", err)
		return
	}
	q.logger.Info("ingested file",
		"worker_id", workerID,
		"path", job.Path,
		"outcome", string(res.Outcome),
		"document_id", res.DocumentID,
		"waited_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full until ctx is done.
func (q *IngestQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.logger.Debug("queued file for ingestion", "path", job.Path)
	q.reportDepth()
	return nil
}

// Len is the number of jobs waiting for a worker.
func (q *IngestQueue) Len() int { return len(q.ch) }

func (q *IngestQueue) reportDepth() {
	if q.depth != nil {
		q.depth(len(q.ch))
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *IngestQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
