// SPDX-License-Identifier: EPL-2.0

package intpcm

import (
	"errors"
	"io"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
)

// mockReader simulates the go-audio wav and aiff decoders.
type mockReader struct {
	sampleRate int
	channels   int
	samples    []int
	offset     int
	err        error
}

func (m *mockReader) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: m.sampleRate, NumChannels: m.channels}
}

func (m *mockReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{}, 22050, 2, 16, false)

	if src.SampleRate() != 22050 {
		t.Errorf("SampleRate() = %d, want 22050", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
	if src.BitDepth() != 16 {
		t.Errorf("BitDepth() = %d, want 16", src.BitDepth())
	}
	if src.BufSize() != 4096 {
		t.Errorf("BufSize() = %d, want 4096", src.BufSize())
	}
}

func TestSource_ReadSamples_Normalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		bitDepth  int
		unsigned8 bool
		in        int
		want      float32
	}{
		{"16 bit half", 16, false, 16384, 0.5},
		{"16 bit min", 16, false, -32768, -1},
		{"24 bit half", 24, false, -4194304, -0.5},
		{"8 bit signed", 8, false, 64, 0.5},
		{"8 bit unsigned midpoint", 8, true, 128, 0},
		{"8 bit unsigned low", 8, true, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := New(&mockReader{sampleRate: 8000, channels: 1, samples: []int{tt.in}}, 8000, 1, tt.bitDepth, tt.unsigned8)
			buf := make([]float32, 1)
			n, err := src.ReadSamples(buf)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != 1 {
				t.Fatalf("ReadSamples() n = %d, want 1", n)
			}
			if math.Abs(float64(buf[0]-tt.want)) > 1e-6 {
				t.Errorf("sample = %v, want %v", buf[0], tt.want)
			}
		})
	}
}

func TestSource_ReadSamples_ShortReadIsEOF(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{sampleRate: 8000, channels: 1, samples: []int{1, 2, 3}}, 8000, 1, 16, false)
	buf := make([]float32, 8)

	n, err := src.ReadSamples(buf)
	if n != 3 {
		t.Errorf("ReadSamples() n = %d, want 3", n)
	}
	if err != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF", err)
	}

	n, err = src.ReadSamples(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := New(&mockReader{err: boom}, 8000, 1, 16, false)

	_, err := src.ReadSamples(make([]float32, 4))
	if !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src := New(&mockReader{samples: []int{1}}, 8000, 1, 16, false)
	n, err := src.ReadSamples(nil)
	if n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = (%d, %v), want (0, nil)", n, err)
	}
}
