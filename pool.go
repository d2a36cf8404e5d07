// SPDX-License-Identifier: EPL-2.0

package soundpool

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ik5/soundpool/output"
	"github.com/ik5/soundpool/sound"
	"github.com/ik5/soundpool/stream"
)

// Playback rate limits applied by Play and SetRate.
const (
	MinRate = 0.5
	MaxRate = 2.0
)

// Pool owns the loaded sounds and the streams playing them. It is safe for
// concurrent use.
type Pool struct {
	log     *slog.Logger
	sounds  *sound.Manager
	streams *stream.Manager

	// apiMu serializes commands against Release.
	apiMu    sync.Mutex
	released bool
}

// New returns a pool playing through out.
func New(cfg Config, out output.Output, opts ...Option) *Pool {
	cfg = cfg.normalize()
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	soundOpts := []sound.Option{sound.WithLogger(o.log), sound.WithDecodeFunc(o.decode)}
	streamOpts := []stream.Option{
		stream.WithLogger(o.log),
		stream.WithThreads(cfg.StreamThreads),
		stream.WithStealOldestFirst(cfg.StealOldestFirst),
		stream.WithPlayOnCallingThread(cfg.PlayOnCallingThread),
		stream.WithStrictLocking(cfg.StrictLocking),
		stream.WithStopGrace(cfg.StopGrace),
		stream.WithStreamType(cfg.StreamType),
		stream.WithTrackFlags(cfg.TrackFlags),
	}
	if o.metrics != nil {
		soundOpts = append(soundOpts, sound.WithMetrics(o.metrics))
		streamOpts = append(streamOpts, stream.WithMetrics(o.metrics))
	}
	if o.clock != nil {
		streamOpts = append(streamOpts, stream.WithClock(o.clock))
	}

	o.log.Debug("sound pool created",
		slog.Int("max_streams", cfg.MaxStreams),
		slog.Int("stream_threads", cfg.StreamThreads),
		slog.Int("decoder_threads", cfg.DecoderThreads),
		slog.Bool("strict_locking", cfg.StrictLocking),
	)
	return &Pool{
		log:     o.log,
		sounds:  sound.NewManager(cfg.DecoderThreads, soundOpts...),
		streams: stream.NewManager(cfg.MaxStreams, out, streamOpts...),
	}
}

// Load queues length bytes of f at offset for decoding and returns the new
// sound id. The pool keeps its own descriptor, so f may be closed at once.
// A length of 0 reads to the end of the file. priority is accepted for
// compatibility and ignored.
func (p *Pool) Load(f *os.File, offset, length int64, priority int) (int32, error) {
	if f == nil {
		return 0, ErrInvalidDescriptor
	}
	if offset < 0 || length < 0 {
		return 0, fmt.Errorf("%w: offset %d length %d", ErrInvalidDescriptor, offset, length)
	}
	if p.isReleased() {
		return 0, ErrReleased
	}

	dup, err := dupFile(f)
	if err != nil {
		return 0, err
	}
	id := p.sounds.Load(dup, dup, offset, length)
	p.log.Debug("sound queued", slog.Int("sound_id", int(id)), slog.String("file", f.Name()),
		slog.Int64("offset", offset), slog.Int64("length", length), slog.Int("priority", priority))
	return id, nil
}

// LoadFile loads the whole of f.
func (p *Pool) LoadFile(f *os.File) (int32, error) {
	return p.Load(f, 0, 0, 1)
}

// LoadPath opens and loads the file at path.
func (p *Pool) LoadPath(path string) (int32, error) {
	if p.isReleased() {
		return 0, ErrReleased
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", path, err)
	}
	id := p.sounds.Load(f, f, 0, 0)
	p.log.Debug("sound queued", slog.Int("sound_id", int(id)), slog.String("file", path))
	return id, nil
}

// LoadReader loads length bytes of r at offset. r stays owned by the
// caller and must remain readable until the load event arrives.
func (p *Pool) LoadReader(r io.ReaderAt, offset, length int64) (int32, error) {
	if r == nil || offset < 0 || length < 0 {
		return 0, ErrInvalidDescriptor
	}
	if p.isReleased() {
		return 0, ErrReleased
	}
	return p.sounds.Load(r, nil, offset, length), nil
}

// Unload forgets a sound. Streams already playing it finish normally.
func (p *Pool) Unload(soundID int32) bool {
	return p.sounds.Unload(soundID)
}

// SetListener sets the function receiving load events. It may be nil.
func (p *Pool) SetListener(fn func(sound.Event)) {
	p.sounds.SetListener(fn)
}

// Play starts a loaded sound and returns its stream id, or 0 if the sound
// is not ready or no stream could be taken. loop is -1 for forever, 0 for
// once or n for n repeats. rate is clamped to [MinRate, MaxRate].
func (p *Pool) Play(soundID int32, left, right float32, priority, loop int32, rate float32) int32 {
	p.apiMu.Lock()
	defer p.apiMu.Unlock()

	if p.released {
		return 0
	}
	snd := p.sounds.FindSound(soundID)
	if snd == nil || !snd.IsReady() {
		p.log.Debug("play of a sound that is not ready", slog.Int("sound_id", int(soundID)))
		return 0
	}
	return p.streams.QueueForPlay(snd, soundID, left, right, priority, loop, clampRate(rate))
}

func clampRate(rate float32) float32 {
	return min(max(rate, MinRate), MaxRate)
}

// withStream runs fn on the stream holding streamID, if any.
func (p *Pool) withStream(streamID int32, fn func(*stream.Stream)) {
	p.apiMu.Lock()
	defer p.apiMu.Unlock()

	if p.released {
		return
	}
	if s := p.streams.FindStream(streamID); s != nil {
		fn(s)
	}
}

func (p *Pool) Pause(streamID int32) {
	p.withStream(streamID, func(s *stream.Stream) { s.Pause(streamID) })
}

func (p *Pool) Resume(streamID int32) {
	p.withStream(streamID, func(s *stream.Stream) { s.Resume(streamID) })
}

// Stop fades the stream out and frees it.
func (p *Pool) Stop(streamID int32) {
	p.withStream(streamID, func(s *stream.Stream) {
		if s.RequestStop(streamID) {
			p.streams.MoveToRestartQueue(s, 0)
		}
	})
}

func (p *Pool) SetVolume(streamID int32, left, right float32) {
	p.withStream(streamID, func(s *stream.Stream) { s.SetVolume(streamID, left, right) })
}

func (p *Pool) SetPriority(streamID int32, priority int32) {
	p.withStream(streamID, func(s *stream.Stream) { s.SetPriority(streamID, priority) })
}

func (p *Pool) SetLoop(streamID int32, loop int32) {
	p.withStream(streamID, func(s *stream.Stream) { s.SetLoop(streamID, loop) })
}

func (p *Pool) SetRate(streamID int32, rate float32) {
	rate = clampRate(rate)
	p.withStream(streamID, func(s *stream.Stream) { s.SetRate(streamID, rate) })
}

// forEach runs fn on every stream.
func (p *Pool) forEach(fn func(*stream.Stream)) {
	p.apiMu.Lock()
	defer p.apiMu.Unlock()

	if !p.released {
		p.streams.ForEach(fn)
	}
}

// AutoPause pauses every playing stream, as when the application loses
// focus. AutoResume resumes exactly those streams.
func (p *Pool) AutoPause() { p.forEach((*stream.Stream).AutoPause) }

func (p *Pool) AutoResume() { p.forEach((*stream.Stream).AutoResume) }

// Mute silences every stream without changing its volume.
func (p *Pool) Mute(muting bool) {
	p.forEach(func(s *stream.Stream) { s.Mute(muting) })
}

// Queues returns the scheduler queue sizes.
func (p *Pool) Queues() stream.QueueSizes { return p.streams.Snapshot() }

// Sound returns the loaded sound for soundID, or nil.
func (p *Pool) Sound(soundID int32) *sound.Sound { return p.sounds.FindSound(soundID) }

func (p *Pool) isReleased() bool {
	p.apiMu.Lock()
	defer p.apiMu.Unlock()

	return p.released
}

// Release stops every stream, closes their tracks and frees the sounds.
// Later calls do nothing.
func (p *Pool) Release() error {
	p.apiMu.Lock()
	if p.released {
		p.apiMu.Unlock()
		return nil
	}
	p.released = true
	p.apiMu.Unlock()

	// Outside apiMu: a listener may be calling Play from a decode worker
	// that Quit waits for.
	p.streams.Quit()
	p.sounds.Quit()
	p.log.Debug("sound pool released")
	return nil
}
