// Package silence finds and removes silent stretches of a decoded recording.
//
// Ranges are expressed in milliseconds. A window of MinSilenceMs is moved over
// the recording in SeekStepMs steps and is silent when its RMS amplitude is at
// or below the threshold. Silent windows that touch or overlap are merged.
package silence

import (
	"math"

	model "github.com/okian/speechrate/internal/domain/model"
)

// Range is a half-open [start, end) interval in milliseconds.
type Range = [2]int

// Loudness returns the RMS loudness of the whole recording in dBFS.
func Loudness(rec model.AudioRecording) model.LoudnessProfile {
	if len(rec.Samples) == 0 || rec.MaxAmplitude() == 0 {
		return model.LoudnessProfile{DBFS: math.Inf(-1)}
	}
	var sum float64
	for _, s := range rec.Samples {
		v := float64(s)
		sum += v * v
	}
	return model.LoudnessProfile{DBFS: ToDBFS(math.Sqrt(sum/float64(len(rec.Samples))), rec.MaxAmplitude())}
}

// ToDBFS converts an RMS amplitude to dB relative to full scale.
func ToDBFS(rms, maxAmplitude float64) float64 {
	if rms <= 0 || maxAmplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/maxAmplitude)
}

// Threshold converts a dBFS threshold to an absolute RMS amplitude.
func Threshold(dbfs, maxAmplitude float64) float64 {
	return math.Pow(10, dbfs/20) * maxAmplitude
}

// energy holds prefix sums of squared samples per frame so that the RMS of any
// window costs O(1).
type energy struct {
	prefix   []float64
	channels int
	rate     int
}

func newEnergy(rec model.AudioRecording) energy {
	frames := rec.Frames()
	e := energy{prefix: make([]float64, frames+1), channels: rec.Channels, rate: rec.SampleRate}
	for f := 0; f < frames; f++ {
		var sq float64
		for c := 0; c < rec.Channels; c++ {
			v := float64(rec.Samples[f*rec.Channels+c])
			sq += v * v
		}
		e.prefix[f+1] = e.prefix[f] + sq
	}
	return e
}

func (e energy) frame(ms int) int {
	f := ms * e.rate / 1000
	return min(f, len(e.prefix)-1)
}

// rms returns the RMS over the frames covering [startMs, endMs).
func (e energy) rms(startMs, endMs int) float64 {
	from, to := e.frame(startMs), e.frame(endMs)
	n := (to - from) * e.channels
	if n <= 0 {
		return 0
	}
	sum := e.prefix[to] - e.prefix[from]
	if sum < 0 {
		sum = 0
	}
	return math.Sqrt(sum / float64(n))
}

// DetectSilence returns the silent ranges of rec. A recording shorter than
// MinSilenceMs has no silence.
func DetectSilence(rec model.AudioRecording, seg model.Segmentation) []Range {
	length := rec.DurationMs()
	minLen := seg.MinSilenceMs
	step := max(seg.SeekStepMs, 1)
	if minLen <= 0 || length < minLen || rec.MaxAmplitude() == 0 {
		return nil
	}

	thresh := Threshold(seg.ThresholdDBFS, rec.MaxAmplitude())
	e := newEnergy(rec)

	last := length - minLen
	var starts []int
	for i := 0; i <= last; i += step {
		if e.rms(i, i+minLen) <= thresh {
			starts = append(starts, i)
		}
	}
	// The final window is always evaluated even when the step skips it.
	if last%step != 0 && e.rms(last, length) <= thresh {
		starts = append(starts, last)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Range
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+step
		gap := s > prev+minLen
		if !continuous && gap {
			ranges = append(ranges, Range{rangeStart, prev + minLen})
			rangeStart = s
		}
		prev = s
	}
	return append(ranges, Range{rangeStart, prev + minLen})
}

// DetectNonSilent returns the complement of DetectSilence. A recording without
// silence yields one range spanning it; a fully silent one yields none.
func DetectNonSilent(rec model.AudioRecording, seg model.Segmentation) []Range {
	length := rec.DurationMs()
	silent := DetectSilence(rec, seg)
	if len(silent) == 0 {
		if length == 0 {
			return nil
		}
		return []Range{{0, length}}
	}
	if silent[0][0] == 0 && silent[0][1] == length {
		return nil
	}

	var out []Range
	prevEnd := 0
	for _, r := range silent {
		if r[0] > prevEnd {
			out = append(out, Range{prevEnd, r[0]})
		}
		prevEnd = r[1]
	}
	if prevEnd < length {
		out = append(out, Range{prevEnd, length})
	}
	return out
}

// Split returns the speech chunks of rec in chronological order. Each chunk is
// padded by KeepSilenceMs on both sides; padding that would overlap the next
// chunk is split at the midpoint.
func Split(rec model.AudioRecording, seg model.Segmentation) []model.SpeechChunk {
	ranges := DetectNonSilent(rec, seg)
	if len(ranges) == 0 {
		return nil
	}
	keep := max(seg.KeepSilenceMs, 0)
	padded := make([]Range, len(ranges))
	for i, r := range ranges {
		padded[i] = Range{r[0] - keep, r[1] + keep}
	}
	for i := 0; i+1 < len(padded); i++ {
		if padded[i+1][0] < padded[i][1] {
			mid := (padded[i][1] + padded[i+1][0]) / 2
			padded[i][1] = mid
			padded[i+1][0] = mid
		}
	}

	length := rec.DurationMs()
	frames := rec.Frames()
	toFrame := func(ms int) int {
		if ms >= length {
			return frames
		}
		return min(ms*rec.SampleRate/1000, frames)
	}

	chunks := make([]model.SpeechChunk, 0, len(padded))
	for _, r := range padded {
		c := model.SpeechChunk{StartFrame: toFrame(max(r[0], 0)), EndFrame: toFrame(min(r[1], length))}
		if c.Frames() > 0 {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// Concatenate joins the chunks of rec in the given order into a new
// recording with the same format.
func Concatenate(rec model.AudioRecording, chunks []model.SpeechChunk) model.AudioRecording {
	out := model.AudioRecording{
		ID:         rec.ID,
		SampleRate: rec.SampleRate,
		Channels:   rec.Channels,
		BitDepth:   rec.BitDepth,
	}
	total := 0
	for _, c := range chunks {
		total += c.Frames()
	}
	out.Samples = make([]int, 0, total*rec.Channels)
	for _, c := range chunks {
		out.Samples = append(out.Samples, rec.Samples[c.StartFrame*rec.Channels:c.EndFrame*rec.Channels]...)
	}
	return out
}

// Remove strips silence from rec. It is Split followed by Concatenate.
func Remove(rec model.AudioRecording, seg model.Segmentation) (model.AudioRecording, []model.SpeechChunk) {
	chunks := Split(rec, seg)
	return Concatenate(rec, chunks), chunks
}
