// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ik5/soundpool/audio"
)

// State is the load state of a Sound.
type State int32

const (
	StateLoading State = iota
	StateReady
	StateDecodeError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDecodeError:
		return "decode_error"
	}
	return "unknown"
}

// DecodeFunc turns length bytes of r at offset into PCM.
type DecodeFunc func(r io.ReaderAt, offset, length int64) (*audio.PCM, error)

// Sound is one loaded sample. Everything but the state is written once
// before the state leaves StateLoading, so a reader that observes
// StateReady may use the PCM data without locking.
type Sound struct {
	id     int32
	offset int64
	length int64

	mu       sync.Mutex
	src      io.ReaderAt
	closer   io.Closer
	decoding bool
	released bool

	pcm   *audio.PCM
	err   error
	state atomic.Int32
}

// New returns a Sound in StateLoading reading from src. closer, when not
// nil, is closed once the source is no longer needed.
func New(id int32, src io.ReaderAt, closer io.Closer, offset, length int64) *Sound {
	return &Sound{
		id:     id,
		src:    src,
		closer: closer,
		offset: offset,
		length: length,
	}
}

func (s *Sound) ID() int32     { return s.id }
func (s *Sound) State() State  { return State(s.state.Load()) }
func (s *Sound) IsReady() bool { return s.State() == StateReady }

// Err returns the decode failure, if any.
func (s *Sound) Err() error {
	if s.State() != StateDecodeError {
		return nil
	}
	return s.err
}

// PCM returns the decoded buffer, or nil unless the sound is ready.
func (s *Sound) PCM() *audio.PCM {
	if !s.IsReady() {
		return nil
	}
	return s.pcm
}

func (s *Sound) SampleRate() int {
	if pcm := s.PCM(); pcm != nil {
		return pcm.SampleRate
	}
	return 0
}

func (s *Sound) Channels() int {
	if pcm := s.PCM(); pcm != nil {
		return pcm.Channels
	}
	return 0
}

func (s *Sound) Format() audio.Format {
	if pcm := s.PCM(); pcm != nil {
		return pcm.Format
	}
	return audio.FormatInvalid
}

func (s *Sound) ChannelMask() audio.ChannelMask {
	if pcm := s.PCM(); pcm != nil {
		return pcm.ChannelMask
	}
	return audio.ChannelNone
}

func (s *Sound) SizeInBytes() int { return s.PCM().SizeInBytes() }

// Decode runs decode over the sound's source and publishes the result. The
// source is closed afterwards. It may only succeed once.
func (s *Sound) Decode(decode DecodeFunc) error {
	s.mu.Lock()
	if s.decoding || s.State() != StateLoading {
		s.mu.Unlock()
		return ErrAlreadyDecoded
	}
	if s.released {
		s.mu.Unlock()
		s.publish(nil, ErrReleased)
		return ErrReleased
	}
	s.decoding = true
	src := s.src
	s.mu.Unlock()

	pcm, err := decode(src, s.offset, s.length)

	s.mu.Lock()
	s.decoding = false
	closeErr := s.closeSourceLocked()
	s.mu.Unlock()

	if err == nil && closeErr != nil {
		err = closeErr
		pcm = nil
	}
	s.publish(pcm, err)
	return err
}

func (s *Sound) publish(pcm *audio.PCM, err error) {
	if err != nil {
		s.err = err
		s.state.Store(int32(StateDecodeError))
		return
	}
	s.pcm = pcm
	s.state.Store(int32(StateReady))
}

func (s *Sound) closeSourceLocked() error {
	s.src = nil
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing sound source: %w", err)
	}
	return nil
}

// Close releases the source. A decode in progress keeps it until done.
func (s *Sound) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	if s.decoding {
		return nil
	}
	return s.closeSourceLocked()
}
