package silence_test

import (
	"math"
	"testing"

	model "github.com/okian/speechrate/internal/domain/model"
	"github.com/okian/speechrate/internal/domain/silence"
	. "github.com/smartystreets/goconvey/convey"
)

// 1 kHz mono keeps one frame per millisecond.
const rate = 1000

type part struct {
	ms        int
	amplitude int
}

func build(channels int, parts ...part) model.AudioRecording {
	rec := model.AudioRecording{SampleRate: rate, Channels: channels, BitDepth: 16}
	for _, p := range parts {
		for i := 0; i < p.ms*channels; i++ {
			rec.Samples = append(rec.Samples, p.amplitude)
		}
	}
	return rec
}

func segmentation() model.Segmentation {
	return model.DefaultSettings().Segmentation
}

func TestLoudness(t *testing.T) {
	Convey("Given recordings of known amplitude", t, func() {
		Convey("When the amplitude is half of full scale", func() {
			p := silence.Loudness(build(1, part{100, 16384}))

			Convey("Then loudness is about -6 dBFS", func() {
				So(p.DBFS, ShouldAlmostEqual, -6.0206, 0.001)
			})
		})

		Convey("When the recording is digital silence", func() {
			p := silence.Loudness(build(1, part{100, 0}))

			Convey("Then loudness is negative infinity", func() {
				So(math.IsInf(p.DBFS, -1), ShouldBeTrue)
			})
		})
	})
}

func TestDetectSilence(t *testing.T) {
	Convey("Given speech with a pause in the middle", t, func() {
		rec := build(1, part{300, 10000}, part{400, 0}, part{300, 10000})

		Convey("When silence is detected", func() {
			ranges := silence.DetectSilence(rec, segmentation())

			Convey("Then the pause is one merged range", func() {
				So(ranges, ShouldResemble, []silence.Range{{300, 700}})
			})
		})

		Convey("When the non-silent ranges are detected", func() {
			ranges := silence.DetectNonSilent(rec, segmentation())

			Convey("Then they are the complement in order", func() {
				So(ranges, ShouldResemble, []silence.Range{{0, 300}, {700, 1000}})
			})
		})
	})

	Convey("Given a pause shorter than the minimum silence", t, func() {
		rec := build(1, part{300, 10000}, part{100, 0}, part{300, 10000})

		Convey("Then nothing is silent", func() {
			So(silence.DetectSilence(rec, segmentation()), ShouldBeEmpty)
			So(silence.DetectNonSilent(rec, segmentation()), ShouldResemble, []silence.Range{{0, 700}})
		})
	})

	Convey("Given a recording shorter than the minimum silence", t, func() {
		rec := build(1, part{100, 0})

		Convey("Then it has no silence and is kept whole", func() {
			So(silence.DetectSilence(rec, segmentation()), ShouldBeEmpty)
			So(silence.DetectNonSilent(rec, segmentation()), ShouldResemble, []silence.Range{{0, 100}})
		})
	})

	Convey("Given audio right at the threshold", t, func() {
		// -40 dBFS of a 16-bit recording is an RMS of 327.68.
		at := build(1, part{300, 327})
		above := build(1, part{300, 328})

		Convey("Then at-or-below counts as silent", func() {
			So(silence.DetectSilence(at, segmentation()), ShouldResemble, []silence.Range{{0, 300}})
			So(silence.DetectSilence(above, segmentation()), ShouldBeEmpty)
		})
	})

	Convey("Given a coarse seek step", t, func() {
		seg := segmentation()
		seg.SeekStepMs = 40
		rec := build(1, part{200, 10000}, part{170, 0})

		Convey("Then the final window is still evaluated", func() {
			So(silence.DetectSilence(rec, seg), ShouldResemble, []silence.Range{{200, 370}})
		})
	})
}

func TestSplit(t *testing.T) {
	Convey("Given speech separated by silence", t, func() {
		rec := build(1, part{300, 10000}, part{400, 0}, part{300, 20000})

		Convey("When split without keeping silence", func() {
			chunks := silence.Split(rec, segmentation())

			Convey("Then the chunks are the speech parts in order", func() {
				So(chunks, ShouldResemble, []model.SpeechChunk{{StartFrame: 0, EndFrame: 300}, {StartFrame: 700, EndFrame: 1000}})
			})
		})

		Convey("When split keeping 50 ms of silence", func() {
			seg := segmentation()
			seg.KeepSilenceMs = 50
			chunks := silence.Split(rec, seg)

			Convey("Then each chunk is padded and clamped to the recording", func() {
				So(chunks, ShouldResemble, []model.SpeechChunk{{StartFrame: 0, EndFrame: 350}, {StartFrame: 650, EndFrame: 1000}})
			})
		})

		Convey("When the padding would overlap", func() {
			seg := segmentation()
			seg.KeepSilenceMs = 300
			chunks := silence.Split(rec, seg)

			Convey("Then the overlap is divided at the midpoint", func() {
				So(chunks, ShouldResemble, []model.SpeechChunk{{StartFrame: 0, EndFrame: 500}, {StartFrame: 500, EndFrame: 1000}})
			})
		})

		Convey("When silence is removed", func() {
			out, chunks := silence.Remove(rec, segmentation())

			Convey("Then output is shorter and chronological", func() {
				So(len(chunks), ShouldEqual, 2)
				So(out.Frames(), ShouldEqual, 600)
				So(out.DurationMs(), ShouldBeLessThanOrEqualTo, rec.DurationMs())
				So(out.Samples[0], ShouldEqual, 10000)
				So(out.Samples[299], ShouldEqual, 10000)
				So(out.Samples[300], ShouldEqual, 20000)
				So(out.SampleRate, ShouldEqual, rec.SampleRate)
			})
		})
	})

	Convey("Given a fully silent recording", t, func() {
		rec := build(1, part{500, 0})

		Convey("Then there are no chunks and the output is empty", func() {
			out, chunks := silence.Remove(rec, segmentation())
			So(chunks, ShouldBeEmpty)
			So(out.Frames(), ShouldEqual, 0)
		})
	})

	Convey("Given continuous speech", t, func() {
		rec := build(1, part{500, 10000})

		Convey("Then one chunk spans the input", func() {
			So(silence.Split(rec, segmentation()), ShouldResemble, []model.SpeechChunk{{StartFrame: 0, EndFrame: 500}})
		})
	})

	Convey("Given a stereo recording", t, func() {
		rec := build(2, part{300, 10000}, part{400, 0}, part{300, 10000})

		Convey("Then frames are cut on channel boundaries", func() {
			out, _ := silence.Remove(rec, segmentation())
			So(out.Frames(), ShouldEqual, 600)
			So(len(out.Samples), ShouldEqual, 1200)
		})
	})
}
