// Package model contains domain models passed between pipeline stages.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// RecordingID identifies one recording: the subject and the trial within
// the subject's session.
type RecordingID struct {
	Subject string
	Trial   string
}

// ParseRecordingID derives the id from a file name of the form
// <subject>_<trial>.<ext>. A name without "_" is a subject-only recording.
func ParseRecordingID(path string) RecordingID {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	subject, trial, _ := strings.Cut(stem, "_")
	return RecordingID{Subject: subject, Trial: trial}
}

func (id RecordingID) String() string {
	if id.Trial == "" {
		return id.Subject
	}
	return id.Subject + "_" + id.Trial
}

// AudioRecording is a decoded PCM recording. Samples are interleaved by channel.
type AudioRecording struct {
	ID         RecordingID
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames returns the number of sample frames (one sample per channel).
func (r AudioRecording) Frames() int {
	if r.Channels <= 0 {
		return 0
	}
	return len(r.Samples) / r.Channels
}

// Duration returns the playback length.
func (r AudioRecording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(r.Frames()) * time.Second / time.Duration(r.SampleRate)
}

// DurationMs returns the length in whole milliseconds.
func (r AudioRecording) DurationMs() int {
	if r.SampleRate <= 0 {
		return 0
	}
	return r.Frames() * 1000 / r.SampleRate
}

// MaxAmplitude is the full-scale reference for dBFS, 2^(bits-1).
func (r AudioRecording) MaxAmplitude() float64 {
	if r.BitDepth <= 0 {
		return 0
	}
	return float64(int64(1) << (r.BitDepth - 1))
}

// LoudnessProfile summarizes the loudness of a recording. DBFS is -Inf for
// digital silence or an empty recording.
type LoudnessProfile struct {
	DBFS float64
}

// SpeechChunk is a half-open frame range [StartFrame, EndFrame) judged non-silent.
type SpeechChunk struct {
	StartFrame int
	EndFrame   int
}

// Frames returns the chunk length in frames.
func (c SpeechChunk) Frames() int { return c.EndFrame - c.StartFrame }
