// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/internal/audiotest"
)

func drain(t *testing.T, src audio.Source, chunk int) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, chunk)
	for range 1 << 20 {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	t.Fatal("source never reached EOF")
	return nil
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(44100, 2, 10), 8000)
	if r.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", r.SampleRate())
	}
	if r.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", r.Channels())
	}
}

func TestResampler_SameRateIsExact(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 1, 100, func(i, _ int) float32 { return float32(i) / 100 })
	out := drain(t, audio.NewResampler(src, 8000), 7)

	if len(out) != 100 {
		t.Fatalf("got %d samples, want 100", len(out))
	}
	for i, v := range out {
		if want := float32(i) / 100; math.Abs(float64(v-want)) > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestResampler_FrameCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src, dst int
		channels int
		want     int
	}{
		{"upsample x2", 8000, 16000, 1, 200},
		{"downsample x2", 16000, 8000, 1, 50},
		{"stereo upsample x2", 8000, 16000, 2, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewConstantSource(tt.src, tt.channels, 100, 0.25)
			out := drain(t, audio.NewResampler(src, tt.dst), 64)

			if len(out) != tt.want {
				t.Errorf("got %d samples, want %d", len(out), tt.want)
			}
			for i, v := range out {
				if math.Abs(float64(v-0.25)) > 1e-5 {
					t.Fatalf("out[%d] = %v, want 0.25", i, v)
				}
			}
		})
	}
}

func TestResampler_SetSourceRate(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	r := audio.NewResampler(src, 8000)

	buf := make([]float32, 10)
	if n, err := r.ReadSamples(buf); n != 10 || err != nil {
		t.Fatalf("ReadSamples() = (%d, %v), want (10, nil)", n, err)
	}

	if err := r.SetSourceRate(16000); err != nil {
		t.Fatalf("SetSourceRate() error = %v", err)
	}
	rest := drain(t, r, 16)
	if len(rest) != 45 {
		t.Errorf("got %d samples after doubling the rate, want 45", len(rest))
	}

	if err := r.SetSourceRate(0); !errors.Is(err, audio.ErrInvalidRate) {
		t.Errorf("SetSourceRate(0) error = %v, want %v", err, audio.ErrInvalidRate)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(8000, 2, 10), 8000)
	if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want %v", err, audio.ErrInvalidDstSize)
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	r := audio.NewResampler(audiotest.NewSilentSource(8000, 1, 0), 16000)
	n, err := r.ReadSamples(make([]float32, 8))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}
