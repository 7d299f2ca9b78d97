package model

import (
	"errors"
	"fmt"
	"slices"
)

// Segmentation controls silence removal.
type Segmentation struct {
	// MinSilenceMs is the shortest interval considered silence.
	MinSilenceMs int
	// ThresholdDBFS is the loudness at or below which audio is silent.
	ThresholdDBFS float64
	// SeekStepMs is the scan step of the silence window.
	SeekStepMs int
	// KeepSilenceMs pads each speech chunk on both sides.
	KeepSilenceMs int
}

// Transcription is handed verbatim to the transcription engine.
type Transcription struct {
	Model              string
	Language           string
	BeamSize           int
	BestOf             int
	Temperatures       []float64
	VAD                bool
	DetectDisfluencies bool
	RemovePunctuation  bool
	RemoveEmptyWords   bool
}

// Settings is the immutable configuration of one pipeline run. It is
// passed by value so runs with different settings never share state.
type Settings struct {
	Segmentation  Segmentation
	Transcription Transcription
}

// DefaultSettings returns the settings used for the text-reading task.
func DefaultSettings() Settings {
	return Settings{
		Segmentation: Segmentation{
			MinSilenceMs:  150,
			ThresholdDBFS: -40,
			SeekStepMs:    1,
			KeepSilenceMs: 0,
		},
		Transcription: Transcription{
			Model:              "base",
			Language:           "zh",
			BeamSize:           5,
			BestOf:             5,
			Temperatures:       []float64{0.0, 0.2, 0.4, 0.6, 0.8, 1.0},
			VAD:                true,
			DetectDisfluencies: true,
			RemovePunctuation:  true,
			RemoveEmptyWords:   true,
		},
	}
}

// Clone returns a deep copy; the temperature schedule is not shared.
func (s Settings) Clone() Settings {
	s.Transcription.Temperatures = slices.Clone(s.Transcription.Temperatures)
	return s
}

// Validate checks the settings for values no stage can work with.
func (s Settings) Validate() error {
	var errs []error
	seg := s.Segmentation
	if seg.MinSilenceMs <= 0 {
		errs = append(errs, fmt.Errorf("min silence must be positive, got %d ms", seg.MinSilenceMs))
	}
	if seg.ThresholdDBFS > 0 {
		errs = append(errs, fmt.Errorf("silence threshold must be <= 0 dBFS, got %g", seg.ThresholdDBFS))
	}
	if seg.SeekStepMs <= 0 {
		errs = append(errs, fmt.Errorf("seek step must be positive, got %d ms", seg.SeekStepMs))
	}
	if seg.KeepSilenceMs < 0 {
		errs = append(errs, fmt.Errorf("keep silence must not be negative, got %d ms", seg.KeepSilenceMs))
	}
	tr := s.Transcription
	if len(tr.Temperatures) == 0 {
		errs = append(errs, errors.New("temperature schedule must not be empty"))
	}
	if tr.BeamSize < 1 || tr.BestOf < 1 {
		errs = append(errs, fmt.Errorf("beam size and best-of must be >= 1, got %d/%d", tr.BeamSize, tr.BestOf))
	}
	return errors.Join(errs...)
}
