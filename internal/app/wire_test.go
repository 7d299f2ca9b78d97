package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/speechrate/internal/adapters/audio"
	"github.com/okian/speechrate/internal/adapters/transcribe"
	service "github.com/okian/speechrate/internal/app"
	"github.com/okian/speechrate/internal/config"
	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// speech writes a 16 kHz recording with a 400 ms pause between two bursts.
func speech(t *testing.T, path string) {
	t.Helper()
	rec := model.AudioRecording{SampleRate: 16000, Channels: 1, BitDepth: 16}
	for _, part := range [][2]int{{300, 10000}, {400, 0}, {300, 10000}} {
		for i := 0; i < part[0]*16; i++ {
			v := part[1]
			if i%2 == 1 {
				v = -v
			}
			rec.Samples = append(rec.Samples, v)
		}
	}
	if err := audio.Encode(path, rec); err != nil {
		t.Fatal(err)
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a configuration replaying stored transcripts", t, func() {
		data := t.TempDir()
		out := t.TempDir()
		cfg := config.New(ctx)
		cfg.DataDir = data
		cfg.OutputDir = out
		cfg.ReportName = "report.csv"
		cfg.Transcriber = config.TranscriberReplay
		cfg.WorkerCount = 2

		speech(t, filepath.Join(data, "S01_t1.wav"))
		convey.So(transcribe.WriteCSVFile(filepath.Join(data, "S01_t1_ds.wav.words.csv"), []model.WordSpan{
			{Text: "你好,", Start: 0, End: 0.25},
			{Text: "嗎", Start: 0.25, End: 0.5},
		}), convey.ShouldBeNil)
		speech(t, filepath.Join(data, "S02_t1.wav"))

		svc, err := service.Build(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the data directory is processed and published", func() {
			results, err := svc.ProcessDir(ctx, cfg.DataDir)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Publish(ctx), convey.ShouldBeNil)

			convey.Convey("Then the report holds one row per subject", func() {
				convey.So(len(results), convey.ShouldEqual, 2)
				body, err := os.ReadFile(filepath.Join(out, "report.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(body), convey.ShouldEqual, "ID,LANGUAGE_READING_BEH_NULL_MeanSR\nS01,6\nS02,NaN\n")
			})

			convey.Convey("Then the artifacts sit next to the recording", func() {
				_, err := os.Stat(filepath.Join(data, "S01_t1_ds.wav"))
				convey.So(err, convey.ShouldBeNil)

				spans, err := transcribe.ReadCSVFile(filepath.Join(data, "S01_t1_ds.wav.words.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(spans[0].Text, convey.ShouldEqual, "你好")
			})
		})
	})

	convey.Convey("Given an unknown transcriber", t, func() {
		cfg := config.New(ctx)
		cfg.Transcriber = "carrier-pigeon"

		convey.Convey("Then no backend is built", func() {
			_, err := service.NewTranscriber(cfg)
			convey.So(errors.Is(err, config.ErrUnknownTranscriber), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a bucket without credentials", t, func() {
		cfg := config.New(ctx)
		cfg.S3Bucket = "reports"

		convey.Convey("Then the sink cannot be built", func() {
			_, err := service.NewSink(cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
