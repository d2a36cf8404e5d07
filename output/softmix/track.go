// SPDX-License-Identifier: EPL-2.0

package softmix

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/output"
)

type trackState int

const (
	stateStopped trackState = iota
	statePlaying
	statePaused
)

type loopRegion struct {
	start, end, count int
}

// track fields are guarded by m.mu, except the callback guard.
type track struct {
	m   *Mixer
	cfg output.TrackConfig

	src   *staticSource
	chain audio.Source
	rs    *audio.Resampler

	rate        int
	left, right float32
	loop        loopRegion
	state       trackState
	closed      bool

	cbMu     sync.Mutex
	cbClosed bool
}

// rewind restarts the buffer and rebuilds the resampling chain so no
// interpolation state leaks from the previous run.
func (t *track) rewind() {
	t.src.pos = 0
	t.src.wraps = 0
	t.src.loopStart, t.src.loopEnd, t.src.loopCount = t.loop.start, t.loop.end, t.loop.count

	t.rs = audio.NewResampler(t.src, t.m.sampleRate)
	_ = t.rs.SetSourceRate(t.rate) // rate was validated on entry
	t.chain = t.rs
	if ch := t.src.Channels(); ch != 1 && ch != t.m.channels {
		t.chain = audio.NewMonoMixer(t.rs)
	}
}

func (t *track) Start() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.closed {
		return
	}
	if t.state == stateStopped {
		t.rewind()
	}
	t.state = statePlaying
}

func (t *track) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	t.state = stateStopped
}

func (t *track) Pause() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.state == statePlaying {
		t.state = statePaused
	}
}

func (t *track) SetVolume(left, right float32) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	t.left, t.right = left, right
}

func (t *track) SetSampleRate(hz int) error {
	if err := t.m.checkRate(hz); err != nil {
		return err
	}

	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.closed {
		return output.ErrTrackClosed
	}
	t.rate = hz
	return t.rs.SetSourceRate(hz)
}

func (t *track) SetLoop(startFrame, endFrame, count int) error {
	if count == 0 {
		startFrame, endFrame = 0, 0
	} else if count < -1 || startFrame < 0 || endFrame <= startFrame || endFrame > t.cfg.PCM.Frames() {
		return output.ErrLoopRange
	}

	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.closed {
		return output.ErrTrackClosed
	}
	t.loop = loopRegion{start: startFrame, end: endFrame, count: count}
	t.src.loopStart, t.src.loopEnd, t.src.loopCount = startFrame, endFrame, count
	return nil
}

func (t *track) Close() error {
	t.m.remove(t)

	// Wait out a callback in flight.
	t.cbMu.Lock()
	t.cbClosed = true
	t.cbMu.Unlock()
	return nil
}

func (t *track) fire(e output.Event) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()

	if t.cbClosed || t.cfg.Callback == nil {
		return
	}
	t.cfg.Callback(e)
}

func (t *track) gain(channel int) float32 {
	switch {
	case t.m.channels == 1:
		return (t.left + t.right) / 2
	case channel == 0:
		return t.left
	default:
		return t.right
	}
}

// mixInto adds the track's next frames to dst. It reports whether the
// buffer ran out.
func (t *track) mixInto(dst []float32) bool {
	outCh := t.m.channels
	frames := len(dst) / outCh
	inCh := t.chain.Channels()
	need := frames * inCh

	if cap(t.m.scratch) < need {
		t.m.scratch = make([]float32, need)
	}
	buf := t.m.scratch[:need]

	got := 0
	ended := false
	for got < need {
		k, err := t.chain.ReadSamples(buf[got:])
		got += k
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.m.log.Warn("track read failed", slog.Any("error", err))
			}
			ended = true
			break
		}
		if k == 0 {
			ended = true
			break
		}
	}

	gains := [2]float32{t.gain(0), t.gain(1)}
	for f := range got / inCh {
		for c := range outCh {
			v := buf[f*inCh]
			if inCh == outCh {
				v = buf[f*inCh+c]
			}
			dst[f*outCh+c] += v * gains[c]
		}
	}
	return ended
}
