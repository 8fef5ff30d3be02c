// Package vad classifies voice activity in candidate audio. Input is raw
// 16 kHz mono signed 16-bit little-endian PCM; a RIFF/WAV header is tolerated
// and skipped. The detector is pure and stateless so callers can share one
// instance across concurrent interviews.
package vad

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	// SampleRate is the expected input sample rate in Hz.
	SampleRate = 16000
	// FrameDurationMs is the analysis frame length in milliseconds.
	FrameDurationMs = 30
	// FrameSamples is the number of samples per analysis frame.
	FrameSamples = SampleRate * FrameDurationMs / 1000 // 480

	frameBytes = FrameSamples * 2

	// speechRatioThreshold is the fraction of voiced frames above which the
	// clip counts as containing speech.
	speechRatioThreshold = 0.5

	// energyThreshold is the per-frame RMS floor, normalized to [0, 1].
	energyThreshold = 0.012
	// Voiced speech keeps the zero-crossing rate well below broadband noise.
	zcrUpperBound = 0.35
)

// Detector classifies voice activity frame by frame.
type Detector struct{}

// NewDetector creates a detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect reports whether the clip contains speech and the fraction of voiced
// frames. Empty or undecodable input yields (false, 0). The trailing partial
// frame is zero-padded.
func (d *Detector) Detect(pcm []byte) (bool, float64) {
	samples := decodePCM(stripWAVHeader(pcm))
	if len(samples) == 0 {
		return false, 0.0
	}

	frames := 0
	voiced := 0
	for offset := 0; offset < len(samples); offset += FrameSamples {
		end := offset + FrameSamples
		frame := make([]int16, FrameSamples)
		if end > len(samples) {
			copy(frame, samples[offset:])
		} else {
			frame = samples[offset:end]
		}

		frames++
		if isVoiced(frame) {
			voiced++
		}
	}

	if frames == 0 {
		return false, 0.0
	}

	ratio := float64(voiced) / float64(frames)
	return ratio > speechRatioThreshold, ratio
}

// isVoiced combines RMS energy with zero-crossing rate. Voiced speech is
// energetic with low crossing rates; hiss and clicks cross far more often.
func isVoiced(frame []int16) bool {
	var sumSquares float64
	crossings := 0
	for i, s := range frame {
		v := float64(s) / 32768.0
		sumSquares += v * v
		if i > 0 && (s >= 0) != (frame[i-1] >= 0) {
			crossings++
		}
	}

	rms := math.Sqrt(sumSquares / float64(len(frame)))
	zcr := float64(crossings) / float64(len(frame))

	return rms > energyThreshold && zcr < zcrUpperBound
}

func decodePCM(raw []byte) []int16 {
	if len(raw) < 2 {
		return nil
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return samples
}

// stripWAVHeader returns the payload of the first data chunk when the input
// is a RIFF/WAVE container, otherwise the input unchanged.
func stripWAVHeader(raw []byte) []byte {
	if len(raw) < 44 || !bytes.HasPrefix(raw, []byte("RIFF")) || !bytes.Equal(raw[8:12], []byte("WAVE")) {
		return raw
	}

	offset := 12
	for offset+8 <= len(raw) {
		chunkID := raw[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if bytes.Equal(chunkID, []byte("data")) {
			end := body + chunkSize
			if end > len(raw) {
				end = len(raw)
			}
			return raw[body:end]
		}
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}
	return raw
}
