// Package audio reads and writes recordings on disk and implements the
// normalization and silence-removal stages on top of them.
package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	model "github.com/okian/speechrate/internal/domain/model"
)

// WAV format tags accepted by Decode.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// 8-bit WAV samples are unsigned around this midpoint.
const unsigned8Offset = 128

// Decode reads a PCM WAV file. Errors wrap model.ErrDecode.
func Decode(path string) (model.AudioRecording, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.AudioRecording{}, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	defer f.Close()

	rec, err := DecodeReader(f)
	if err != nil {
		return model.AudioRecording{}, fmt.Errorf("%s: %w", path, err)
	}
	rec.ID = model.ParseRecordingID(path)
	return rec, nil
}

// DecodeReader decodes PCM WAV data. A WAV with an empty data chunk decodes
// to a recording without samples.
func DecodeReader(r io.ReadSeeker) (model.AudioRecording, error) {
	d := wav.NewDecoder(r)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return model.AudioRecording{}, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return model.AudioRecording{}, fmt.Errorf("%w: wav format tag %d is not integer PCM", model.ErrDecode, d.WavAudioFormat)
	}
	if d.NumChans < 1 || d.BitDepth < 8 || d.SampleRate == 0 {
		return model.AudioRecording{}, fmt.Errorf("%w: invalid header (%d ch, %d bit, %d Hz)",
			model.ErrDecode, d.NumChans, d.BitDepth, d.SampleRate)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return model.AudioRecording{}, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}

	samples := buf.Data
	if d.BitDepth == 8 {
		for i := range samples {
			samples[i] -= unsigned8Offset
		}
	}
	// Drop a trailing partial frame.
	channels := int(d.NumChans)
	samples = samples[:len(samples)-len(samples)%channels]

	return model.AudioRecording{
		Samples:    samples,
		SampleRate: int(d.SampleRate),
		Channels:   channels,
		BitDepth:   int(d.BitDepth),
	}, nil
}

// Encode writes rec as a PCM WAV file, replacing any existing file. A
// recording without samples still produces a valid header.
func Encode(path string, rec model.AudioRecording) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return EncodeWriter(f, rec)
}

// EncodeWriter writes rec as PCM WAV to w.
func EncodeWriter(w io.WriteSeeker, rec model.AudioRecording) error {
	if rec.Channels < 1 || rec.SampleRate <= 0 {
		return fmt.Errorf("invalid format (%d ch, %d Hz)", rec.Channels, rec.SampleRate)
	}
	enc := wav.NewEncoder(w, rec.SampleRate, rec.BitDepth, rec.Channels, formatPCM)

	data := rec.Samples
	if rec.BitDepth == 8 {
		data = make([]int, len(rec.Samples))
		for i, s := range rec.Samples {
			data[i] = s + unsigned8Offset
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: rec.Channels, SampleRate: rec.SampleRate},
		Data:           data,
		SourceBitDepth: rec.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
