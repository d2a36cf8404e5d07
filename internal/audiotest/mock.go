// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds test doubles shared by the sound pool packages:
// generated sources, PCM buffers and a recording output.
package audiotest

import (
	"io"
	"math"

	"github.com/ik5/soundpool/audio"
)

var _ audio.Source = (*MockSource)(nil)

// MockSource generates frames from a waveform function.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int // total frames to generate
	pos        int
	waveform   func(frame, channel int) float32
}

// NewMockSource returns a source of frames frames whose samples come from
// waveform.
func NewMockSource(sampleRate, channels, frames int, waveform func(frame, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }
func (m *MockSource) Close() error    { return nil }

// Reset rewinds the source.
func (m *MockSource) Reset() { m.pos = 0 }

// ReadSamples returns io.EOF together with the last frames.
func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.pos >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.pos)
	for f := range n {
		for c := range m.channels {
			dst[f*m.channels+c] = m.waveform(m.pos+f, c)
		}
	}
	m.pos += n

	if m.pos >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}

// NewPCM returns a 16-bit buffer of frames frames holding a rising ramp, so
// that every frame is distinct.
func NewPCM(sampleRate, channels, frames int) *audio.PCM {
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16(i % math.MaxInt16)
	}
	return &audio.PCM{
		Samples:     samples,
		SampleRate:  sampleRate,
		Channels:    channels,
		Format:      audio.FormatPCM16,
		ChannelMask: audio.ChannelMaskFromCount(channels),
	}
}
