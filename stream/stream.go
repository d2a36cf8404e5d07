// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/soundpool/output"
	"github.com/ik5/soundpool/sound"
)

// State is the playback state of a Stream.
type State int32

const (
	StateIdle State = iota
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// callbackRetries bounds how often a track event may bounce between the two
// streams of a pair while looking for the stream that owns the track.
const callbackRetries = 3

// Stream is one playback lane. Streams come in fixed pairs; a play request
// is written to the pair of the stream chosen by admission and starts once
// that stream has stopped and handed over its track.
//
// Every command takes the stream id it addresses and does nothing when the
// stream has since been given another id.
type Stream struct {
	m     *Manager
	pair  *Stream
	index int

	// Weakly consistent: written under mu, read without it where a stale
	// value only affects scheduling heuristics or logging. streamID is
	// stored last by play and setPlay, so a reader that sees a new id also
	// sees the fields written before it.
	streamID atomic.Int32
	soundID  atomic.Int32
	priority atomic.Int32
	stopTime atomic.Int64

	mu         sync.Mutex
	state      State
	sound      *sound.Sound
	left       float32
	right      float32
	loop       int32
	rate       float32
	autoPaused bool
	muted      bool
	track      output.Track
	toggle     int32
}

// Snapshot is a consistent copy of a stream's fields.
type Snapshot struct {
	StreamID   int32
	SoundID    int32
	State      State
	Left       float32
	Right      float32
	Priority   int32
	Loop       int32
	Rate       float32
	AutoPaused bool
	Muted      bool
	HasSound   bool
	HasTrack   bool
	StopTime   int64
}

func (s *Stream) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		StreamID:   s.streamID.Load(),
		SoundID:    s.soundID.Load(),
		State:      s.state,
		Left:       s.left,
		Right:      s.right,
		Priority:   s.priority.Load(),
		Loop:       s.loop,
		Rate:       s.rate,
		AutoPaused: s.autoPaused,
		Muted:      s.muted,
		HasSound:   s.sound != nil,
		HasTrack:   s.track != nil,
		StopTime:   s.stopTime.Load(),
	}
}

// Index returns the stream's fixed position in its Map.
func (s *Stream) Index() int { return s.index }

// Pair returns the other stream of the pair.
func (s *Stream) Pair() *Stream { return s.pair }

// StreamID is weakly consistent.
func (s *Stream) StreamID() int32 { return s.streamID.Load() }

// SoundID is weakly consistent.
func (s *Stream) SoundID() int32 { return s.soundID.Load() }

// Priority is weakly consistent.
func (s *Stream) Priority() int32 { return s.priority.Load() }

// PairPriority is weakly consistent.
func (s *Stream) PairPriority() int32 { return s.pair.Priority() }

// StopTime is weakly consistent. Zero means no stop is pending.
func (s *Stream) StopTime() int64 { return s.stopTime.Load() }

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// HasSound reports whether a play request is pending or playing.
func (s *Stream) HasSound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sound != nil
}

func (s *Stream) logger() *slog.Logger {
	return s.m.log.With(slog.Int("stream", s.index), slog.Int("stream_id", int(s.StreamID())))
}

// setPlay records a play request. The stream must be idle, or pending
// without a track.
func (s *Stream) setPlay(streamID int32, snd *sound.Sound, soundID int32, left, right float32, priority, loop int32, rate float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle && s.track != nil {
		panic(fmt.Sprintf("stream: setPlay on stream %d in state %v", s.index, s.state))
	}
	s.sound = snd
	s.soundID.Store(soundID)
	s.left, s.right = left, right
	s.priority.Store(priority)
	s.loop = loop
	s.rate = rate
	s.state = StatePlaying
	s.autoPaused = false
	s.streamID.Store(streamID)
}

// RequestStop silences the stream and schedules its stop. It returns true
// when the stream holds a track and must go through the restart queue, or
// false when it was stopped on the spot.
func (s *Stream) RequestStop(streamID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() {
		return false
	}
	if s.track != nil {
		if s.state == StatePlaying && !s.muted && (s.left != 0 || s.right != 0) {
			// a stopping stream stays silent
			s.left, s.right = 0, 0
			s.track.SetVolume(0, 0)
			s.stopTime.Store(s.m.now() + int64(s.m.grace))
		} else {
			s.stopTime.Store(s.m.now())
		}
		return true
	}
	s.stopLocked()
	return false
}

func (s *Stream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

// stopLocked keeps the track and sound id for reuse.
func (s *Stream) stopLocked() {
	if s.state == StateIdle {
		return
	}
	if s.track != nil {
		s.track.Stop()
	}
	s.sound = nil
	s.state = StateIdle
}

// detachTrack takes the track away from the stream so it can be closed
// outside the lock.
func (s *Stream) detachTrack() output.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.track
	s.track = nil
	return t
}

func (s *Stream) Pause(streamID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() || s.state != StatePlaying {
		return
	}
	s.state = StatePaused
	if s.track != nil {
		s.track.Pause()
	}
}

func (s *Stream) Resume(streamID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() || s.state != StatePaused {
		return
	}
	s.state = StatePlaying
	if s.track != nil {
		s.track.Start()
	}
	s.autoPaused = false
}

// AutoPause pauses a playing stream and remembers that it did.
func (s *Stream) AutoPause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return
	}
	s.state = StatePaused
	s.autoPaused = true
	if s.track != nil {
		s.track.Pause()
	}
}

// AutoResume resumes a stream paused by AutoPause.
func (s *Stream) AutoResume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.autoPaused {
		return
	}
	if s.state == StatePaused {
		s.state = StatePlaying
		if s.track != nil {
			s.track.Start()
		}
	}
	s.autoPaused = false
}

func (s *Stream) Mute(muting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muting
	if s.track == nil {
		return
	}
	if muting {
		s.track.SetVolume(0, 0)
	} else {
		s.track.SetVolume(s.left, s.right)
	}
}

func (s *Stream) SetVolume(streamID int32, left, right float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() {
		return
	}
	s.left, s.right = left, right
	if s.track != nil && !s.muted {
		s.track.SetVolume(left, right)
	}
}

func (s *Stream) SetPriority(streamID int32, priority int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID == s.streamID.Load() {
		s.priority.Store(priority)
	}
}

// SetLoop applies loop to the whole sound: -1 forever, 0 never, n extra
// times.
func (s *Stream) SetLoop(streamID int32, loop int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() {
		return
	}
	if s.track != nil && s.sound != nil {
		end := 0
		if div := s.sound.Channels() * s.sound.Format().BytesPerSample(); div > 0 {
			end = s.sound.SizeInBytes() / div
		}
		if err := s.track.SetLoop(0, end, int(loop)); err != nil {
			s.logger().Warn("set loop", slog.Any("error", err))
		}
	}
	s.loop = loop
}

func (s *Stream) SetRate(streamID int32, rate float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if streamID != s.streamID.Load() {
		return
	}
	s.rate = rate
	if s.track != nil && s.sound != nil {
		if err := s.track.SetSampleRate(trackRate(s.sound, rate)); err != nil {
			s.logger().Warn("set rate", slog.Float64("rate", float64(rate)), slog.Any("error", err))
		}
	}
}

func trackRate(snd *sound.Sound, rate float32) int {
	return int(math.Round(float64(snd.SampleRate()) * float64(rate)))
}

// playPairStream hands this stream's track to its pair and starts the
// pair's pending request. It returns the pair, or nil when nothing was
// pending or the pair could not start. Replaced tracks are appended to
// garbage. The source stream must be idle.
func (s *Stream) playPairStream(garbage *[]output.Track) *Stream {
	p := s.pair

	// Lock order: pair, then self.
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sound == nil {
		return nil
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		panic(fmt.Sprintf("stream: handing off stream %d in state %v", s.index, s.state))
	}
	p.track = s.track
	p.soundID.Store(s.soundID.Load())
	p.toggle = s.toggle
	p.autoPaused = s.autoPaused
	p.muted = s.muted
	s.track = nil
	s.sound = nil
	s.soundID.Store(0)
	s.mu.Unlock()

	prev := p.state
	p.playLocked(p.sound, p.streamID.Load(), p.left, p.right, p.priority.Load(), p.loop, p.rate, garbage)
	if p.state == StateIdle {
		return nil
	}
	if prev == StatePaused {
		p.state = StatePaused
		p.track.Pause()
	}
	return p
}

// playLocked starts snd on the stream, reusing the current track when it
// last played the same sound and accepts the new rate.
func (s *Stream) playLocked(snd *sound.Sound, nextID int32, left, right float32, priority, loop int32, rate float32, garbage *[]output.Track) {
	sampleRate := trackRate(snd, rate)
	frames := 0
	if loop != 0 {
		frameSize := snd.Channels() * snd.Format().BytesPerSample()
		if frameSize <= 0 {
			frameSize = 1
		}
		frames = snd.SizeInBytes() / frameSize
	}

	if s.track != nil {
		if s.soundID.Load() == snd.ID() && s.track.SetSampleRate(sampleRate) == nil {
			s.logger().Debug("reusing track", slog.Int("sound_id", int(snd.ID())))
		} else {
			*garbage = append(*garbage, s.track)
			s.track = nil
		}
	}

	if s.track == nil {
		// Events from the previous track carry the old toggle and are
		// dropped by callback.
		toggle := s.toggle ^ 1
		t, err := s.m.out.NewTrack(output.TrackConfig{
			StreamType:  s.m.streamType,
			SampleRate:  sampleRate,
			Format:      snd.Format(),
			ChannelMask: snd.ChannelMask(),
			PCM:         snd.PCM(),
			Flags:       s.m.flags,
			Callback:    func(ev output.Event) { s.callback(ev, toggle, 0) },
		})
		if err != nil {
			s.logger().Error("creating track", slog.Int("sound_id", int(snd.ID())), slog.Any("error", err))
			s.state = StateIdle
			s.soundID.Store(0)
			s.sound = nil
			return
		}
		s.toggle = toggle
		s.track = t
	}

	if s.muted {
		s.track.SetVolume(0, 0)
	} else {
		s.track.SetVolume(left, right)
	}
	if err := s.track.SetLoop(0, frames, int(loop)); err != nil {
		s.logger().Warn("set loop", slog.Any("error", err))
	}
	s.track.Start()

	s.sound = snd
	s.soundID.Store(snd.ID())
	s.priority.Store(priority)
	s.loop = loop
	s.left, s.right = left, right
	s.rate = rate
	s.state = StatePlaying
	s.stopTime.Store(0)
	s.streamID.Store(nextID)
}

// callback receives events from a track created by this stream. The track
// may since have moved to the pair, so the event follows it there a few
// times before it is dropped.
func (s *Stream) callback(ev output.Event, toggle int32, tries int) {
	var restartID int32

	s.mu.Lock()
	if s.track == nil {
		s.mu.Unlock()
		if tries < callbackRetries {
			s.pair.callback(ev, toggle, tries+1)
		} else {
			s.logger().Warn("track event for a stream without a track", slog.String("event", ev.String()))
		}
		return
	}
	if s.toggle != toggle {
		s.mu.Unlock()
		s.logger().Debug("event from a replaced track", slog.String("event", ev.String()))
		return
	}
	switch ev {
	case output.EventMoreData, output.EventUnderrun:
		s.logger().Warn("unexpected event for a static track", slog.String("event", ev.String()))
	case output.EventBufferEnd:
		if s.state != StateIdle {
			restartID = s.streamID.Load()
			s.stopTime.Store(s.m.now())
		}
	default:
		s.logger().Debug("track event", slog.String("event", ev.String()))
	}
	s.mu.Unlock()

	if restartID > 0 {
		s.m.MoveToRestartQueue(s, restartID)
	}
}
