// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/ik5/soundpool/output/softmix"
)

// Streamer exposes a Mixer as an endless beep.Streamer.
type Streamer struct {
	m   *softmix.Mixer
	buf []float32
}

var _ beep.Streamer = (*Streamer)(nil)

func NewBeep(m *softmix.Mixer) *Streamer {
	return &Streamer{m: m}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	ch := s.m.Channels()
	need := len(samples) * ch
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]
	s.m.Read(buf)

	for i := range samples {
		if ch == 1 {
			v := float64(buf[i])
			samples[i] = [2]float64{v, v}
			continue
		}
		samples[i] = [2]float64{float64(buf[2*i]), float64(buf[2*i+1])}
	}
	return len(samples), true
}

func (s *Streamer) Err() error { return nil }

type beepDevice struct{}

func openBeep(m *softmix.Mixer, bufferSize int) (Device, error) {
	if err := speaker.Init(beep.SampleRate(m.SampleRate()), bufferSize); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(NewBeep(m))
	return beepDevice{}, nil
}

func (beepDevice) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}
