// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"io"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/utils"
)

// staticSource reads a shared PCM buffer as an audio.Source, honouring a
// loop region.
type staticSource struct {
	pcm *audio.PCM
	pos int // frame

	loopStart int
	loopEnd   int
	loopCount int // remaining wraps, -1 forever

	wraps int // loop wraps not yet reported
}

func (s *staticSource) SampleRate() int { return s.pcm.SampleRate }
func (s *staticSource) Channels() int   { return s.pcm.Channels }
func (s *staticSource) BufSize() int    { return 1024 * s.pcm.Channels }
func (s *staticSource) Close() error    { return nil }

func (s *staticSource) looping() bool {
	return s.loopCount != 0 && s.loopEnd > s.loopStart
}

func (s *staticSource) ReadSamples(dst []float32) (int, error) {
	ch := s.pcm.Channels
	frames := len(dst) / ch
	total := s.pcm.Frames()

	n := 0
	for n < frames {
		end := total
		if s.looping() {
			end = s.loopEnd
		}
		if s.pos >= end {
			if !s.looping() {
				break
			}
			s.pos = s.loopStart
			if s.loopCount > 0 {
				s.loopCount--
			}
			s.wraps++
			continue
		}

		k := min(frames-n, end-s.pos)
		in := s.pcm.Samples[s.pos*ch : (s.pos+k)*ch]
		out := dst[n*ch : (n+k)*ch]
		for i, v := range in {
			out[i] = utils.Int16ToFloat32(v)
		}
		s.pos += k
		n += k
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n * ch, nil
}
