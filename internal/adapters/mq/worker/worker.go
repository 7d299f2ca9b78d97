// Package worker runs pipeline jobs from the queue on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/speechrate/internal/adapters/mq/queue"
	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/pkg/logger"
	"github.com/okian/speechrate/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Runner advances one recording through the pipeline.
type Runner interface {
	Run(ctx context.Context, rec *model.FileRecord, settings model.Settings) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs one at a time.
type Worker interface {
	// Run starts the worker loop until the queue is drained or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

var _ Worker = (*InMemoryWorker)(nil)

// InMemoryWorker runs jobs from a queue and emits every finished record.
type InMemoryWorker struct {
	queue   Queue
	runner  Runner
	results chan<- *model.FileRecord
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that sends finished records to results.
func NewInMemoryWorker(q Queue, runner Runner, results chan<- *model.FileRecord, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job. Failures are recorded on the job's FileRecord; the
// record is emitted either way.
func (w *InMemoryWorker) process(ctx context.Context, j Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.WorkerStarted()
	defer metrics.WorkerFinished()

	if err := w.runner.Run(ctx, j.Record, j.Settings); err != nil {
		w.logger.Debug(ctx, "job finished with failure",
			logger.String("job", j.ID),
			logger.String("recording", j.Record.ID.String()),
			logger.Error(err))
	}

	select {
	case w.results <- j.Record:
	case <-ctx.Done():
	}
}

// Pool manages multiple workers sharing one queue and one results channel.
type Pool struct {
	workers []Worker
	queue   Queue
	results chan *model.FileRecord
	wg      sync.WaitGroup

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses one
// worker per CPU.
func NewPool(workerCount int, q Queue, runner Runner, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]Worker, workerCount),
		queue:   q,
		results: make(chan *model.FileRecord, workerCount),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, runner, p.results,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger.Named("worker-"+strconv.Itoa(i))),
		)
	}

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers. The results channel is closed once every worker
// has exited.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel of finished records.
func (p *Pool) Results() <-chan *model.FileRecord { return p.results }

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown closes the queue and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
