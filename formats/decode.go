// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/formats/aiff"
	"github.com/ik5/soundpool/formats/mp3"
	"github.com/ik5/soundpool/formats/vorbis"
	"github.com/ik5/soundpool/formats/wav"
	"github.com/ik5/soundpool/utils"
)

const (
	MinSampleRate = 4000
	MaxSampleRate = 192000
	MaxChannels   = 8
)

var (
	defaultRegistry     *audio.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding every decoder in this module.
func DefaultRegistry() *audio.Registry {
	defaultRegistryOnce.Do(func() {
		r := audio.NewRegistry()
		r.Register("aiff", aiff.Decoder{})
		r.Register("mp3", mp3.Decoder{})
		r.Register("ogg", vorbis.Decoder{})
		r.Register("wav", wav.Decoder{})
		defaultRegistry = r
	})
	return defaultRegistry
}

// Decode decodes length bytes of r starting at offset with the default
// registry. A length <= 0 reads to the end of r.
func Decode(r io.ReaderAt, offset, length int64) (*audio.PCM, error) {
	return DecodeWith(DefaultRegistry(), r, offset, length)
}

// DecodeWith is Decode over an explicit registry.
func DecodeWith(reg *audio.Registry, r io.ReaderAt, offset, length int64) (*audio.PCM, error) {
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	if length <= 0 {
		length = math.MaxInt64 - offset
	}
	section := io.NewSectionReader(r, offset, length)

	header := make([]byte, audio.ProbeSize)
	n, err := section.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	name, dec, ok := reg.Detect(header[:n])
	if !ok {
		return nil, audio.ErrUnknownFormat
	}

	src, err := dec.Decode(section)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	defer src.Close()

	rate, channels := src.SampleRate(), src.Channels()
	if rate < MinSampleRate || rate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d Hz", ErrSampleRateRange, rate)
	}
	if channels < 1 || channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d", ErrChannelCountRange, channels)
	}

	samples, err := ReadPCM16(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	pcm := &audio.PCM{
		Samples:     samples,
		SampleRate:  rate,
		Channels:    channels,
		Format:      audio.FormatPCM16,
		ChannelMask: audio.ChannelMaskFromCount(channels),
	}
	if pcm.Frames() == 0 {
		return nil, ErrNoFrames
	}
	return pcm, nil
}

// ReadPCM16 drains src into interleaved 16-bit samples. A trailing partial
// frame is dropped.
func ReadPCM16(src audio.Source) ([]int16, error) {
	bufSize := src.BufSize()
	if bufSize <= 0 {
		bufSize = 4096
	}
	channels := src.Channels()
	if channels > 0 && bufSize%channels != 0 {
		bufSize -= bufSize % channels
		if bufSize == 0 {
			bufSize = channels
		}
	}

	buf := make([]float32, bufSize)
	out := make([]int16, 0, bufSize)
	for {
		n, err := src.ReadSamples(buf)
		for _, v := range buf[:n] {
			out = append(out, utils.Float32ToInt16(v))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		if n == 0 {
			// Guard against sources that never report EOF.
			break
		}
	}

	if channels > 0 {
		out = out[:len(out)-len(out)%channels]
	}
	return out, nil
}
