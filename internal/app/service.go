// Package service runs subjects through the speech-rate pipeline and
// publishes the resulting report.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/speechrate/internal/adapters/mq/queue"
	workerpool "github.com/okian/speechrate/internal/adapters/mq/worker"
	repository "github.com/okian/speechrate/internal/adapters/repository"
	"github.com/okian/speechrate/internal/adapters/sink"
	"github.com/okian/speechrate/internal/adapters/transcribe"
	"github.com/okian/speechrate/internal/domain/dedupe"
	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/rate"
	"github.com/okian/speechrate/pkg/logger"
	"github.com/okian/speechrate/pkg/metrics"
)

// enqueueRetry is how long the producer waits when the queue is full.
const enqueueRetry = 10 * time.Millisecond

// Service schedules recordings, aggregates subject rates and keeps them.
type Service struct {
	runner workerpool.Runner
	store  repository.Store
	sink   sink.Sink

	settings    model.Settings
	workerCount int
	queueSize   int
	reportName  string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSettings sets the pipeline settings used for every run.
func WithSettings(settings model.Settings) Option {
	return func(s *Service) {
		s.settings = settings.Clone()
	}
}

// WithStore replaces the in-memory result store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSink sets where Publish sends the report.
func WithSink(out sink.Sink) Option {
	return func(s *Service) {
		s.sink = out
	}
}

// WithReportName sets the published report name.
func WithReportName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.reportName = name
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around the per-file runner.
func New(runner workerpool.Runner, opts ...Option) *Service {
	s := &Service{
		runner:      runner,
		settings:    model.DefaultSettings(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		reportName:  "textreading_speechrate.csv",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemStore(repository.WithMetrics())
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Store returns the result store.
func (s *Service) Store() repository.Store { return s.store }

// ProcessSubject runs every recording of subjectID through the pipeline on
// the worker pool, aggregates the rates and stores the result. A subject
// without any valid rate is stored as absent and model.ErrAggregationEmpty is
// returned with it.
func (s *Service) ProcessSubject(ctx context.Context, subjectID string, paths []string) (model.SubjectRateResult, error) {
	runID := uuid.NewString()
	log := s.logger.With(logger.String("subject", subjectID), logger.String("run", runID))
	agg := rate.NewAggregator(subjectID)

	jobs, seen := s.jobs(ctx, log, runID, paths)
	log.Info(ctx, "processing subject",
		logger.Int("recordings", len(jobs)),
		logger.Int("workers", s.workerCount))

	if len(jobs) > 0 {
		if err := s.run(ctx, log, jobs, seen, agg); err != nil {
			return model.SubjectRateResult{}, err
		}
	}

	return s.finish(ctx, log, agg)
}

// jobs builds one job per distinct recording. The returned deduper holds the
// key of every scheduled recording.
func (s *Service) jobs(ctx context.Context, log logger.Logger, runID string, paths []string) ([]eventqueue.Job, dedupe.Deduper) {
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(len(paths)))
	jobs := make([]eventqueue.Job, 0, len(paths))
	for _, p := range paths {
		if model.IsDerived(p) {
			metrics.RecordRecordingSkipped("derived")
			log.Debug(ctx, "skipping derived artifact", logger.String("path", p))
			continue
		}
		if seen.SeenAndRecord(ctx, dedupe.Key(p)) {
			metrics.RecordRecordingSkipped("duplicate")
			log.Debug(ctx, "skipping duplicate recording", logger.String("path", p))
			continue
		}
		jobs = append(jobs, eventqueue.Job{
			ID:       uuid.NewString(),
			RunID:    runID,
			Record:   model.NewFileRecord(p),
			Settings: s.settings.Clone(),
		})
	}
	return jobs, seen
}

// run feeds jobs to a fresh pool and collects every finished record. When ctx
// is canceled the pool is shut down and unscheduled jobs are abandoned.
func (s *Service) run(ctx context.Context, log logger.Logger, jobs []eventqueue.Job, seen dedupe.Deduper, agg *rate.Aggregator) error {
	q := eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	pool := workerpool.NewPool(s.workerCount, q, s.runner, workerpool.WithPoolLogger(log.Named("pool")))
	pool.Start(ctx)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
				log.Warn(ctx, "pool shutdown incomplete", logger.Error(err))
			}
		case <-finished:
		}
	}()

	go s.produce(ctx, log, q, jobs, seen)

	var failed int
	for rec := range pool.Results() {
		if !rec.Succeeded() {
			failed++
			log.Error(ctx, "recording skipped",
				logger.String("recording", rec.ID.String()),
				logger.String("stage", rec.FailedAt.String()),
				logger.Error(rec.Err))
			continue
		}
		agg.Add(rec.Samples)
		log.Debug(ctx, "recording done",
			logger.String("recording", rec.ID.String()),
			logger.Int("words", len(rec.Samples)),
			logger.Int("dropped", rec.Dropped))
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("process subject: %w", err)
	}
	if failed > 0 {
		log.Warn(ctx, "some recordings failed", logger.Int("failed", failed), logger.Int("total", len(jobs)))
	}
	return nil
}

// produce enqueues jobs, waiting while the queue is full, then closes it so
// the workers drain and exit. Jobs that never reach the queue are forgotten
// by seen.
func (s *Service) produce(ctx context.Context, log logger.Logger, q eventqueue.Queue, jobs []eventqueue.Job, seen dedupe.Deduper) {
	defer func() { _ = q.Close() }()

	ticker := time.NewTicker(enqueueRetry)
	defer ticker.Stop()
	for i, j := range jobs {
		for !q.Enqueue(ctx, j) {
			if q.IsClosed() {
				s.abandon(ctx, log, jobs[i:], seen)
				return
			}
			select {
			case <-ctx.Done():
				s.abandon(ctx, log, jobs[i:], seen)
				return
			case <-ticker.C:
			}
		}
	}
}

func (s *Service) abandon(ctx context.Context, log logger.Logger, jobs []eventqueue.Job, seen dedupe.Deduper) {
	for _, j := range jobs {
		seen.Unrecord(ctx, dedupe.Key(j.Record.RawPath))
	}
	log.Warn(ctx, "recordings abandoned before scheduling",
		logger.Int("abandoned", len(jobs)),
		logger.Int("scheduled", int(seen.Size())))
}

func (s *Service) finish(ctx context.Context, log logger.Logger, agg *rate.Aggregator) (model.SubjectRateResult, error) {
	res, aggErr := agg.Result()
	if err := s.store.Put(ctx, res); err != nil {
		return res, fmt.Errorf("store result: %w", err)
	}
	if aggErr != nil {
		log.Warn(ctx, "subject has no valid rate", logger.Int("recordings", agg.Files()))
		return res, aggErr
	}
	log.Info(ctx, "subject aggregated",
		logger.Float64("mean_rate", res.MeanRate),
		logger.Int("files", res.Files))
	return res, nil
}

// ProcessDir processes each subject found in dir. Without explicit subjects
// every subject present is processed. A subject without a valid rate does
// not stop the run; it is reported as absent.
func (s *Service) ProcessDir(ctx context.Context, dir string, subjects ...string) ([]model.SubjectRateResult, error) {
	if len(subjects) == 0 {
		var err error
		if subjects, err = Subjects(dir); err != nil {
			return nil, err
		}
	}

	results := make([]model.SubjectRateResult, 0, len(subjects))
	for _, subject := range subjects {
		paths, err := Discover(dir, subject)
		if err != nil {
			return results, err
		}
		res, err := s.ProcessSubject(ctx, subject, paths)
		if err != nil && !errors.Is(err, model.ErrAggregationEmpty) {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// RatesFromTranscripts aggregates a subject from existing word CSVs without
// touching audio. An unreadable CSV is logged and skipped.
func (s *Service) RatesFromTranscripts(ctx context.Context, subjectID string, csvPaths []string) (model.SubjectRateResult, error) {
	log := s.logger.With(logger.String("subject", subjectID))
	agg := rate.NewAggregator(subjectID)

	for _, p := range csvPaths {
		if err := ctx.Err(); err != nil {
			return model.SubjectRateResult{}, err
		}
		spans, err := transcribe.ReadCSVFile(p)
		if err != nil {
			log.Error(ctx, "transcript skipped", logger.String("path", p), logger.Error(err))
			continue
		}
		samples, dropped := rate.Extract(ctx, spans)
		metrics.RecordWordsDropped(dropped)
		agg.Add(samples)
	}

	return s.finish(ctx, log, agg)
}

// Publish writes the report of every stored subject to the configured sink.
func (s *Service) Publish(ctx context.Context) error {
	if s.sink == nil {
		return fmt.Errorf("%w: no sink configured", sink.ErrNotConfigured)
	}
	var buf bytes.Buffer
	if err := repository.WriteCSV(&buf, s.store.All(ctx)); err != nil {
		return err
	}
	if err := s.sink.Publish(ctx, s.reportName, buf.Bytes()); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	s.logger.Info(ctx, "report published",
		logger.String("name", s.reportName),
		logger.Int("subjects", s.store.Count(ctx)))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	return map[string]any{
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"subjects":    s.store.Count(ctx),
	}
}
