package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	queue "github.com/okian/speechrate/internal/adapters/mq/queue"
	worker "github.com/okian/speechrate/internal/adapters/mq/worker"
	model "github.com/okian/speechrate/internal/domain/model"
	logging "github.com/okian/speechrate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockRunner fails recordings listed in failures and extracts one sample otherwise.
type mockRunner struct {
	mu       sync.Mutex
	failures map[string]error
	calls    atomic.Int64
	delay    time.Duration
}

func (m *mockRunner) Run(ctx context.Context, rec *model.FileRecord, _ model.Settings) error {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	err := m.failures[rec.ID.String()]
	m.mu.Unlock()
	if err != nil {
		rec.Fail(model.StageTranscribed, err)
		return rec.Err
	}
	rec.Samples = []model.WordRateSample{{Rate: 5}}
	rec.Advance(model.StageRatesExtracted, "")
	return nil
}

func newJob(name string) queue.Job {
	return queue.Job{ID: name, Record: model.NewFileRecord("/data/" + name + ".wav"), Settings: model.DefaultSettings()}
}

func fill(q *queue.InMemoryQueue, names ...string) {
	for _, n := range names {
		q.Enqueue(context.Background(), newJob(n))
	}
	_ = q.Close()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with a queue of jobs", t, func() {
		if err := logging.Init(); err != nil {
			t.Fatalf("init logger: %v", err)
		}
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		runner := &mockRunner{failures: map[string]error{"S01_bad": model.ErrNoTranscript}}
		results := make(chan *model.FileRecord, 10)
		w := worker.NewInMemoryWorker(q, runner, results, worker.WithName("test-worker"))

		convey.Convey("When it runs until the queue is drained", func() {
			fill(q, "S01_a", "S01_bad", "S01_b")
			w.Run(context.Background())
			close(results)

			var ok, failed int
			for rec := range results {
				if rec.Succeeded() {
					ok++
				} else {
					failed++
					convey.So(errors.Is(rec.Err, model.ErrNoTranscript), convey.ShouldBeTrue)
				}
			}

			convey.Convey("Then every record is emitted including failures", func() {
				convey.So(ok, convey.ShouldEqual, 2)
				convey.So(failed, convey.ShouldEqual, 1)
				convey.So(runner.calls.Load(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When it is shut down while idle", func() {
			go w.Run(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		if err := logging.Init(); err != nil {
			t.Fatalf("init logger: %v", err)
		}
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		runner := &mockRunner{failures: map[string]error{}, delay: time.Millisecond}
		pool := worker.NewPool(4, q, runner)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many jobs are processed", func() {
			names := make([]string, 50)
			for i := range names {
				names[i] = fmt.Sprintf("S01_t%d", i)
			}
			fill(q, names...)
			pool.Start(context.Background())

			seen := make(map[string]bool)
			for rec := range pool.Results() {
				seen[rec.ID.String()] = true
			}
			pool.Wait()

			convey.Convey("Then each job is processed once and results close", func() {
				convey.So(len(seen), convey.ShouldEqual, 50)
				convey.So(runner.calls.Load(), convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the pool is shut down", func() {
			pool.Start(context.Background())
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue is closed and workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				_, open := <-pool.Results()
				convey.So(open, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a zero worker count is given", func() {
			p := worker.NewPool(0, q, runner)

			convey.Convey("Then one worker per CPU is used", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestWorkerCancellation(t *testing.T) {
	convey.Convey("Given a pool whose context is cancelled", t, func() {
		if err := logging.Init(); err != nil {
			t.Fatalf("init logger: %v", err)
		}
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		runner := &mockRunner{failures: map[string]error{}}
		pool := worker.NewPool(2, q, runner)
		ctx, cancel := context.WithCancel(context.Background())

		pool.Start(ctx)
		cancel()

		convey.Convey("Then the results channel closes without a queue close", func() {
			done := make(chan struct{})
			go func() {
				for range pool.Results() {
				}
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("pool did not stop after cancellation")
			}
		})
	})
}
