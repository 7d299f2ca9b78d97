package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Artifact name suffixes. Outputs are deterministic so reruns overwrite.
const (
	DesilencedSuffix = "_ds.wav"
	TranscriptSuffix = ".words.csv"
)

// CanonicalPath returns the sibling .wav path of a recording.
func CanonicalPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
}

// DesilencedPath returns the path of the silence-stripped copy of a canonical recording.
func DesilencedPath(canonical string) string {
	return strings.TrimSuffix(canonical, filepath.Ext(canonical)) + DesilencedSuffix
}

// TranscriptPath returns the word-CSV path belonging to an audio file.
func TranscriptPath(audio string) string {
	return audio + TranscriptSuffix
}

// IsDerived reports whether path is an artifact produced by the pipeline
// rather than a raw recording.
func IsDerived(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, DesilencedSuffix) || strings.HasSuffix(name, TranscriptSuffix)
}

// SegmentationResult describes one silence-removal run.
type SegmentationResult struct {
	Input    time.Duration
	Output   time.Duration
	Chunks   int
	Loudness LoudnessProfile
}

// RemovedRatio returns the share of the input that was stripped.
func (r SegmentationResult) RemovedRatio() float64 {
	if r.Input <= 0 {
		return 0
	}
	return 1 - float64(r.Output)/float64(r.Input)
}
