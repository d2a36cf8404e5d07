// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ik5/soundpool/output"
)

// ErrTrackRefused is returned by Output.NewTrack after FailNewTrack.
var ErrTrackRefused = errors.New("audiotest: track refused")

// Output is a recording output.Output. Every track call is appended to a
// shared log as "<track id> <call>", so tests can assert the order in which
// a scheduler touched different tracks.
type Output struct {
	mu        sync.Mutex
	tracks    []*Track
	log       []string
	failNew   int
	failRates bool
}

func NewOutput() *Output { return &Output{} }

// FailNewTrack makes the next n NewTrack calls fail.
func (o *Output) FailNewTrack(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.failNew = n
}

// FailSetSampleRate makes SetSampleRate fail on every track, as a fast track
// would.
func (o *Output) FailSetSampleRate(fail bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.failRates = fail
}

func (o *Output) NewTrack(cfg output.TrackConfig) (output.Track, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failNew > 0 {
		o.failNew--
		o.log = append(o.log, "new failed")
		return nil, ErrTrackRefused
	}
	t := &Track{o: o, id: len(o.tracks) + 1, cfg: cfg, rate: cfg.SampleRate, left: 1, right: 1}
	o.tracks = append(o.tracks, t)
	o.log = append(o.log, fmt.Sprintf("%d new", t.id))
	return t, nil
}

// Tracks returns every track created so far, in creation order.
func (o *Output) Tracks() []*Track {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]*Track(nil), o.tracks...)
}

// Track returns the track with the given 1-based id, or nil.
func (o *Output) Track(id int) *Track {
	o.mu.Lock()
	defer o.mu.Unlock()

	if id < 1 || id > len(o.tracks) {
		return nil
	}
	return o.tracks[id-1]
}

// Log returns a copy of the call log.
func (o *Output) Log() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.log...)
}

// Open counts the tracks that have not been closed.
func (o *Output) Open() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, t := range o.tracks {
		if !t.closed {
			n++
		}
	}
	return n
}

func (o *Output) record(t *Track, call string) {
	o.log = append(o.log, fmt.Sprintf("%d %s", t.id, call))
}

// Track is a fake output.Track. Its state is guarded by the owning
// Output's lock.
type Track struct {
	o   *Output
	id  int
	cfg output.TrackConfig

	playing bool
	paused  bool
	closed  bool

	left, right float32
	rate        int

	loopStart, loopEnd, loopCount int
}

func (t *Track) ID() int                    { return t.id }
func (t *Track) Config() output.TrackConfig { return t.cfg }

func (t *Track) Playing() bool {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.playing
}

func (t *Track) Paused() bool {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.paused
}

func (t *Track) Closed() bool {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.closed
}

func (t *Track) SampleRate() int {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.rate
}

func (t *Track) Volume() (left, right float32) {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.left, t.right
}

func (t *Track) Loop() (start, end, count int) {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	return t.loopStart, t.loopEnd, t.loopCount
}

func (t *Track) Start() {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	t.playing, t.paused = true, false
	t.o.record(t, "start")
}

func (t *Track) Stop() {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	t.playing, t.paused = false, false
	t.o.record(t, "stop")
}

func (t *Track) Pause() {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	if t.playing {
		t.playing, t.paused = false, true
	}
	t.o.record(t, "pause")
}

func (t *Track) SetVolume(left, right float32) {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	t.left, t.right = left, right
	t.o.record(t, fmt.Sprintf("volume %g %g", left, right))
}

func (t *Track) SetSampleRate(hz int) error {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	if t.o.failRates {
		t.o.record(t, "rate failed")
		return output.ErrSampleRate
	}
	t.rate = hz
	t.o.record(t, fmt.Sprintf("rate %d", hz))
	return nil
}

func (t *Track) SetLoop(startFrame, endFrame, count int) error {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	t.loopStart, t.loopEnd, t.loopCount = startFrame, endFrame, count
	t.o.record(t, fmt.Sprintf("loop %d %d %d", startFrame, endFrame, count))
	return nil
}

func (t *Track) Close() error {
	t.o.mu.Lock()
	defer t.o.mu.Unlock()

	if t.closed {
		return output.ErrTrackClosed
	}
	t.closed, t.playing = true, false
	t.o.record(t, "close")
	return nil
}

// Fire delivers ev to the track's callback on the calling goroutine, as the
// output's own thread would. Closed tracks stay silent.
func (t *Track) Fire(ev output.Event) {
	t.o.mu.Lock()
	cb, closed := t.cfg.Callback, t.closed
	t.o.mu.Unlock()

	if cb != nil && !closed {
		cb(ev)
	}
}

// Finish reports that the buffer played out.
func (t *Track) Finish() {
	t.o.mu.Lock()
	t.playing = false
	t.o.mu.Unlock()

	t.Fire(output.EventBufferEnd)
}
