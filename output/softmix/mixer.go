// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/output"
)

// Mixer is an in-process output.Output. Every track is resampled to the
// mixer rate and summed into the buffer passed to Read, which a device
// driver calls from its audio goroutine.
type Mixer struct {
	sampleRate   int
	channels     int
	maxRateRatio int
	log          *slog.Logger

	mu      sync.Mutex
	tracks  []*track
	scratch []float32
	closed  bool
}

// New returns a mixer rendering interleaved float32 at sampleRate with the
// given channel count (1 or 2).
func New(sampleRate, channels int, opts ...Option) *Mixer {
	m := &Mixer{
		sampleRate:   sampleRate,
		channels:     max(1, min(channels, 2)),
		maxRateRatio: 8,
		log:          slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Mixer) SampleRate() int { return m.sampleRate }
func (m *Mixer) Channels() int   { return m.channels }

// Tracks returns the number of open tracks.
func (m *Mixer) Tracks() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tracks)
}

// Playing returns the number of tracks currently producing audio.
func (m *Mixer) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tracks {
		if t.state == statePlaying {
			n++
		}
	}
	return n
}

func (m *Mixer) NewTrack(cfg output.TrackConfig) (output.Track, error) {
	if cfg.PCM == nil || cfg.PCM.Frames() == 0 {
		return nil, fmt.Errorf("%w: empty buffer", output.ErrInvalidTrackConfig)
	}
	if cfg.Format != audio.FormatPCM16 || cfg.PCM.Format != audio.FormatPCM16 {
		return nil, fmt.Errorf("%w: format %v", output.ErrInvalidTrackConfig, cfg.Format)
	}
	if cfg.ChannelMask != audio.ChannelNone && cfg.ChannelMask.Count() != cfg.PCM.Channels {
		return nil, fmt.Errorf("%w: channel mask %#x for %d channels",
			output.ErrInvalidTrackConfig, uint32(cfg.ChannelMask), cfg.PCM.Channels)
	}
	if err := m.checkRate(cfg.SampleRate); err != nil {
		return nil, err
	}

	t := &track{
		m:     m,
		cfg:   cfg,
		rate:  cfg.SampleRate,
		left:  1,
		right: 1,
		src:   &staticSource{pcm: cfg.PCM},
	}
	t.rewind()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, output.ErrOutputClosed
	}
	m.tracks = append(m.tracks, t)

	m.log.Debug("track created",
		slog.String("stream_type", cfg.StreamType.String()),
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("channels", cfg.PCM.Channels),
		slog.Int("frames", cfg.PCM.Frames()),
	)
	return t, nil
}

func (m *Mixer) checkRate(hz int) error {
	if hz <= 0 || hz > m.sampleRate*m.maxRateRatio {
		return fmt.Errorf("%w: %d Hz", output.ErrSampleRate, hz)
	}
	return nil
}

func (m *Mixer) remove(t *track) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracks = slices.DeleteFunc(m.tracks, func(o *track) bool { return o == t })
	t.closed = true
}

type pendingEvent struct {
	t *track
	e output.Event
}

// Read renders len(dst)/Channels() frames into dst and returns the number
// of samples written. Silence is written when nothing plays. Track events
// are delivered after the mix, outside the mixer lock.
func (m *Mixer) Read(dst []float32) int {
	n := len(dst) - len(dst)%m.channels
	dst = dst[:n]
	clear(dst)

	var events []pendingEvent

	m.mu.Lock()
	for _, t := range m.tracks {
		if t.state != statePlaying {
			continue
		}
		ended := t.mixInto(dst)
		for ; t.src.wraps > 0; t.src.wraps-- {
			events = append(events, pendingEvent{t, output.EventLoopEnd})
		}
		if ended {
			t.state = stateStopped
			events = append(events, pendingEvent{t, output.EventBufferEnd})
		}
	}
	m.mu.Unlock()

	for i, v := range dst {
		dst[i] = max(-1, min(v, 1))
	}
	for _, ev := range events {
		ev.t.fire(ev.e)
	}
	return n
}

// Close closes every track. Tracks created afterwards fail with
// output.ErrOutputClosed.
func (m *Mixer) Close() error {
	m.mu.Lock()
	m.closed = true
	tracks := slices.Clone(m.tracks)
	m.mu.Unlock()

	for _, t := range tracks {
		if err := t.Close(); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}
