package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/pipeline"
	"github.com/okian/speechrate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeNormalizer struct{ err error }

func (f fakeNormalizer) Normalize(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return model.CanonicalPath(path), nil
}

type fakeSegmenter struct {
	output time.Duration
	err    error
}

func (f fakeSegmenter) RemoveSilence(_ context.Context, path string, _ model.Segmentation) (string, model.SegmentationResult, error) {
	if f.err != nil {
		return "", model.SegmentationResult{}, f.err
	}
	return model.DesilencedPath(path), model.SegmentationResult{Input: 2 * time.Second, Output: f.output, Chunks: 1}, nil
}

type fakeTranscriber struct {
	spans []model.WordSpan
	err   error
	cfg   model.Transcription
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, cfg model.Transcription) ([]model.WordSpan, error) {
	f.cfg = cfg
	return f.spans, f.err
}

type memTranscripts struct {
	mu    sync.Mutex
	saved map[string][]model.WordSpan
}

func (m *memTranscripts) WriteTranscript(_ context.Context, path string, spans []model.WordSpan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[path] = spans
	return nil
}

func words() []model.WordSpan {
	return []model.WordSpan{{Text: "你好", Start: 0, End: 0.5}, {Text: "嗎", Start: 0.5, End: 0.6}}
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	settings := model.DefaultSettings()

	Convey("Given a pipeline with working stages", t, func() {
		tr := &fakeTranscriber{spans: words()}
		store := &memTranscripts{saved: map[string][]model.WordSpan{}}
		p := pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second}, tr, pipeline.WithTranscriptWriter(store))
		rec := model.NewFileRecord("/data/S01_t1.webm")

		Convey("When a recording is run", func() {
			err := p.Run(ctx, rec, settings)

			Convey("Then every artifact is recorded and rates are extracted", func() {
				So(err, ShouldBeNil)
				So(rec.Stage, ShouldEqual, model.StageRatesExtracted)
				So(rec.CanonicalPath, ShouldEqual, "/data/S01_t1.wav")
				So(rec.DesilencedPath, ShouldEqual, "/data/S01_t1_ds.wav")
				So(rec.TranscriptPath, ShouldEqual, "/data/S01_t1_ds.wav.words.csv")
				So(len(rec.Samples), ShouldEqual, 2)
				So(store.saved[rec.TranscriptPath], ShouldResemble, words())
			})

			Convey("Then the transcription settings are passed verbatim", func() {
				So(tr.cfg.Language, ShouldEqual, "zh")
				So(tr.cfg.Temperatures, ShouldResemble, settings.Transcription.Temperatures)
			})
		})
	})

	Convey("Given stages that fail", t, func() {
		cases := []struct {
			name  string
			p     *pipeline.Pipeline
			stage model.Stage
			want  error
		}{
			{
				name:  "unsupported container",
				p:     pipeline.New(fakeNormalizer{err: model.ErrUnsupportedFormat}, fakeSegmenter{output: time.Second}, &fakeTranscriber{spans: words()}),
				stage: model.StageNormalized,
				want:  model.ErrUnsupportedFormat,
			},
			{
				name:  "all-silent recording",
				p:     pipeline.New(fakeNormalizer{}, fakeSegmenter{}, &fakeTranscriber{spans: words()}),
				stage: model.StageDesilenced,
				want:  model.ErrEmptyAudio,
			},
			{
				name:  "undecodable audio",
				p:     pipeline.New(fakeNormalizer{}, fakeSegmenter{err: model.ErrDecode}, &fakeTranscriber{spans: words()}),
				stage: model.StageDesilenced,
				want:  model.ErrDecode,
			},
			{
				name:  "empty transcript",
				p:     pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second}, &fakeTranscriber{}),
				stage: model.StageTranscribed,
				want:  model.ErrNoTranscript,
			},
			{
				name:  "engine failure",
				p:     pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second}, &fakeTranscriber{err: model.ErrTranscription}),
				stage: model.StageTranscribed,
				want:  model.ErrTranscription,
			},
			{
				name: "only zero-duration words",
				p: pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second},
					&fakeTranscriber{spans: []model.WordSpan{{Text: "a", Start: 1, End: 1}}}),
				stage: model.StageRatesExtracted,
				want:  model.ErrNoValidRate,
			},
		}

		for _, tc := range cases {
			Convey("When the case is "+tc.name, func() {
				rec := model.NewFileRecord("/data/S01_t1.webm")
				err := tc.p.Run(ctx, rec, settings)

				Convey("Then the record fails at the stage with the error kind", func() {
					So(errors.Is(err, tc.want), ShouldBeTrue)
					So(rec.Stage, ShouldEqual, model.StageFailed)
					So(rec.FailedAt, ShouldEqual, tc.stage)
					So(rec.Succeeded(), ShouldBeFalse)
				})
			})
		}
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		p := pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second}, &fakeTranscriber{spans: words()})
		rec := model.NewFileRecord("/data/S01_t1.webm")

		Convey("Then no stage runs", func() {
			err := p.Run(cctx, rec, settings)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(rec.FailedAt, ShouldEqual, model.StageNormalized)
		})
	})

	Convey("Given the same input and settings twice", t, func() {
		p := pipeline.New(fakeNormalizer{}, fakeSegmenter{output: time.Second}, &fakeTranscriber{spans: words()})
		a := model.NewFileRecord("/data/S01_t1.wav")
		b := model.NewFileRecord("/data/S01_t1.wav")
		So(p.Run(ctx, a, settings), ShouldBeNil)
		So(p.Run(ctx, b, settings), ShouldBeNil)

		Convey("Then the samples are identical", func() {
			So(a.Samples, ShouldResemble, b.Samples)
		})
	})
}
