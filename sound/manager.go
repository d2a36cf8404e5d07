// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ik5/soundpool/internal/observe"
)

// Manager owns the loaded sounds and feeds them to the Decoder.
type Manager struct {
	log     *slog.Logger
	metrics *observe.Metrics
	decode  DecodeFunc
	decoder *Decoder

	mu     sync.Mutex
	sounds map[int32]*Sound
	nextID int32

	// listenerMu serializes delivery with SetListener.
	listenerMu sync.Mutex
	listener   func(Event)
}

// NewManager returns a manager decoding on up to threads workers.
func NewManager(threads int, opts ...Option) *Manager {
	c := newConfig(opts)
	m := &Manager{
		log:     c.log,
		metrics: c.metrics,
		decode:  c.decode,
		sounds:  make(map[int32]*Sound),
	}
	m.decoder = NewDecoder(threads, m.decodeSound, opts...)
	return m
}

// Load registers a new sound reading length bytes of src at offset and
// queues it for decoding. It returns the new sound id at once, although it
// may block while the decode queue is full. closer, if not nil, is owned by
// the sound from now on.
func (m *Manager) Load(src io.ReaderAt, closer io.Closer, offset, length int64) int32 {
	m.mu.Lock()
	for {
		if m.nextID == math.MaxInt32 {
			m.nextID = 0
		}
		m.nextID++
		if _, taken := m.sounds[m.nextID]; !taken {
			break
		}
	}
	id := m.nextID
	m.sounds[id] = New(id, src, closer, offset, length)
	m.mu.Unlock()

	// Outside m.mu: this may block on queue space, and workers need m.mu
	// to find their sound.
	if !m.decoder.LoadSound(id) {
		m.log.Warn("decoder stopped, sound will not load", slog.Int("sound_id", int(id)))
	}
	return id
}

// Unload forgets a sound. Streams already playing it keep their reference.
func (m *Manager) Unload(soundID int32) bool {
	m.mu.Lock()
	s, ok := m.sounds[soundID]
	delete(m.sounds, soundID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := s.Close(); err != nil {
		m.log.Warn("closing unloaded sound", slog.Int("sound_id", int(soundID)), slog.Any("error", err))
	}
	return true
}

// FindSound returns the sound for soundID, or nil.
func (m *Manager) FindSound(soundID int32) *Sound {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sounds[soundID]
}

// Len returns the number of registered sounds.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sounds)
}

// SetListener replaces the event listener. Once it returns, the previous
// listener is not called again. fn may be nil.
func (m *Manager) SetListener(fn func(Event)) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()

	m.listener = fn
}

func (m *Manager) notify(e Event) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()

	if m.listener != nil {
		m.listener(e)
	}
}

// decodeSound runs on a decode worker.
func (m *Manager) decodeSound(soundID int32) {
	s := m.FindSound(soundID)
	if s == nil {
		m.log.Debug("sound unloaded before decode", slog.Int("sound_id", int(soundID)))
		m.notify(Event{Kind: EventSoundLoaded, SoundID: soundID, Status: StatusNotFound})
		return
	}

	start := time.Now()
	err := s.Decode(m.decode)
	m.metrics.RecordLoad(context.Background(), err == nil, time.Since(start))

	status := StatusOK
	if err != nil {
		status = StatusDecodeError
		m.log.Warn("sound decode failed", slog.Int("sound_id", int(soundID)), slog.Any("error", err))
	} else {
		pcm := s.PCM()
		m.log.Debug("sound loaded",
			slog.Int("sound_id", int(soundID)),
			slog.Int("sample_rate", pcm.SampleRate),
			slog.Int("channels", pcm.Channels),
			slog.Int("frames", pcm.Frames()),
			slog.Duration("took", time.Since(start)),
		)
	}
	m.notify(Event{Kind: EventSoundLoaded, SoundID: soundID, Status: status})
}

// Quit stops decoding and releases every sound.
func (m *Manager) Quit() {
	m.decoder.Quit()

	m.mu.Lock()
	sounds := m.sounds
	m.sounds = make(map[int32]*Sound)
	m.mu.Unlock()

	for id, s := range sounds {
		if err := s.Close(); err != nil {
			m.log.Warn("closing sound", slog.Int("sound_id", int(id)), slog.Any("error", err))
		}
	}
}
