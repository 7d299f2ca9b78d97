package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/speechrate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have the text-reading defaults", func() {
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.MinSilenceMs, convey.ShouldEqual, 150)
			convey.So(cfg.SilenceThresholdDBFS, convey.ShouldEqual, -40)
			convey.So(cfg.Transcriber, convey.ShouldEqual, config.TranscriberCommand)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When settings are projected", func() {
			s := cfg.Settings()
			s.Transcription.Temperatures[0] = 0.7

			convey.Convey("Then they carry the values and share nothing", func() {
				convey.So(s.Segmentation.MinSilenceMs, convey.ShouldEqual, 150)
				convey.So(s.Transcription.Language, convey.ShouldEqual, "zh")
				convey.So(cfg.Temperatures[0], convey.ShouldEqual, 0.0)
			})
		})

		convey.Convey("When the openai backend has no URL", func() {
			cfg.Transcriber = config.TranscriberOpenAI

			convey.Convey("Then validation names the field", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "TranscriberURL is required")
			})
		})

		convey.Convey("When a bucket is set without credentials", func() {
			cfg.S3Bucket = "reports"

			convey.Convey("Then the credentials are required", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "S3AccessKeyID is required")
			})
		})

		convey.Convey("When a temperature is out of range", func() {
			cfg.Temperatures = []float64{0, 1.5}

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
