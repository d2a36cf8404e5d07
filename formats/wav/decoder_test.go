// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func encode(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, sampleRate, channels, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}
	return buf.Bytes()
}

func readAll(t *testing.T, data []byte) ([]float32, int, int) {
	t.Helper()

	src, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer src.Close()

	var out []float32
	buf := make([]float32, 64)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	return out, src.SampleRate(), src.Channels()
}

func TestDecoder_Stereo(t *testing.T) {
	t.Parallel()

	samples := []int16{16384, -16384, 0, 32767, -32768, 8192}
	out, rate, chans := readAll(t, encode(t, 11025, 2, samples))

	if rate != 11025 {
		t.Errorf("SampleRate() = %d, want 11025", rate)
	}
	if chans != 2 {
		t.Errorf("Channels() = %d, want 2", chans)
	}
	if len(out) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(samples))
	}
	for i, s := range samples {
		want := float32(s) / 32768
		if math.Abs(float64(out[i]-want)) > 1e-4 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want)
		}
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := encode(t, 8000, 1, []int16{1, 2, 3, 4})
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", src.SampleRate())
	}
}

func TestDecoder_Unsigned8Bit(t *testing.T) {
	t.Parallel()

	data := encode(t, 8000, 1, nil)
	// Patch the header to 8-bit and append two samples.
	binary.LittleEndian.PutUint16(data[32:34], 1)
	binary.LittleEndian.PutUint16(data[34:36], 8)
	binary.LittleEndian.PutUint32(data[28:32], 8000)
	binary.LittleEndian.PutUint32(data[40:44], 2)
	binary.LittleEndian.PutUint32(data[4:8], 36+2)
	data = append(data, 128, 0)

	out, _, _ := readAll(t, data)
	if len(out) != 2 {
		t.Fatalf("decoded %d samples, want 2", len(out))
	}
	if out[0] != 0 {
		t.Errorf("out[0] = %v, want 0", out[0])
	}
	if out[1] != -1 {
		t.Errorf("out[1] = %v, want -1", out[1])
	}
}

func TestDecoder_NotWav(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("definitely not a wav file")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("Decode() error = %v, want %v", err, ErrNotWavFile)
	}
}

func TestDecoder_NonPCM(t *testing.T) {
	t.Parallel()

	data := encode(t, 8000, 1, []int16{1})
	binary.LittleEndian.PutUint16(data[20:22], 3) // IEEE float

	_, err := Decoder{}.Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrOnlyPCMSupported) {
		t.Errorf("Decode() error = %v, want %v", err, ErrOnlyPCMSupported)
	}
}

func TestDecoder_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), true},
		{"riff avi", []byte("RIFF\x00\x00\x00\x00AVI "), false},
		{"short", []byte("RIFF"), false},
		{"ogg", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := (Decoder{}).Probe(tt.header); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteWAV16_Header(t *testing.T) {
	t.Parallel()

	data := encode(t, 44100, 2, []int16{1, -1, 2, -2})

	if len(data) != headerSize+8 {
		t.Fatalf("len = %d, want %d", len(data), headerSize+8)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 44100*4 {
		t.Errorf("byte rate = %d, want %d", got, 44100*4)
	}
	if got := binary.LittleEndian.Uint16(data[32:34]); got != 4 {
		t.Errorf("block align = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 8 {
		t.Errorf("data size = %d, want 8", got)
	}
}

func TestWriteWAV16_InvalidLayout(t *testing.T) {
	t.Parallel()

	if err := WriteWAV16(io.Discard, 8000, 0, nil); !errors.Is(err, ErrUnsupportedWavLayout) {
		t.Errorf("WriteWAV16(channels=0) error = %v, want %v", err, ErrUnsupportedWavLayout)
	}
	if err := WriteWAV16(io.Discard, 0, 1, nil); !errors.Is(err, ErrUnsupportedWavLayout) {
		t.Errorf("WriteWAV16(rate=0) error = %v, want %v", err, ErrUnsupportedWavLayout)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteWAV16_WriteError(t *testing.T) {
	t.Parallel()

	if err := WriteWAV16(failingWriter{}, 8000, 1, []int16{1}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("WriteWAV16() error = %v, want %v", err, io.ErrClosedPipe)
	}
}
