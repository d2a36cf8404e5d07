// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/ik5/soundpool/audio"
)

type countingCloser struct{ closed atomic.Int32 }

func (c *countingCloser) Close() error {
	c.closed.Add(1)
	return nil
}

func fixedPCM() *audio.PCM {
	return &audio.PCM{
		Samples:     make([]int16, 200),
		SampleRate:  22050,
		Channels:    2,
		Format:      audio.FormatPCM16,
		ChannelMask: audio.ChannelStereo,
	}
}

func decodeOK(io.ReaderAt, int64, int64) (*audio.PCM, error) { return fixedPCM(), nil }

var errBadData = errors.New("bad data")

func decodeFail(io.ReaderAt, int64, int64) (*audio.PCM, error) { return nil, errBadData }

func TestSound_DecodeReady(t *testing.T) {
	t.Parallel()

	c := &countingCloser{}
	s := New(3, nil, c, 0, 0)

	if s.State() != StateLoading {
		t.Fatalf("State() = %v, want %v", s.State(), StateLoading)
	}
	if s.PCM() != nil {
		t.Error("PCM() before decode should be nil")
	}

	if err := s.Decode(decodeOK); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.State() != StateReady {
		t.Errorf("State() = %v, want %v", s.State(), StateReady)
	}
	if s.SampleRate() != 22050 || s.Channels() != 2 || s.SizeInBytes() != 400 {
		t.Errorf("got rate %d channels %d size %d, want 22050 2 400", s.SampleRate(), s.Channels(), s.SizeInBytes())
	}
	if s.Format() != audio.FormatPCM16 || s.ChannelMask() != audio.ChannelStereo {
		t.Errorf("got format %v mask %v", s.Format(), s.ChannelMask())
	}
	if got := c.closed.Load(); got != 1 {
		t.Errorf("source closed %d times, want 1", got)
	}

	if err := s.Decode(decodeOK); !errors.Is(err, ErrAlreadyDecoded) {
		t.Errorf("second Decode() error = %v, want %v", err, ErrAlreadyDecoded)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if got := c.closed.Load(); got != 1 {
		t.Errorf("source closed %d times after Close, want 1", got)
	}
}

func TestSound_DecodeError(t *testing.T) {
	t.Parallel()

	s := New(1, nil, nil, 0, 0)
	if err := s.Decode(decodeFail); !errors.Is(err, errBadData) {
		t.Fatalf("Decode() error = %v, want %v", err, errBadData)
	}
	if s.State() != StateDecodeError {
		t.Errorf("State() = %v, want %v", s.State(), StateDecodeError)
	}
	if !errors.Is(s.Err(), errBadData) {
		t.Errorf("Err() = %v, want %v", s.Err(), errBadData)
	}
	if s.PCM() != nil || s.SampleRate() != 0 {
		t.Error("failed sound should expose no PCM")
	}
}

func TestSound_CloseBeforeDecode(t *testing.T) {
	t.Parallel()

	c := &countingCloser{}
	s := New(1, nil, c, 0, 0)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := c.closed.Load(); got != 1 {
		t.Errorf("source closed %d times, want 1", got)
	}
	if err := s.Decode(decodeOK); !errors.Is(err, ErrReleased) {
		t.Errorf("Decode() error = %v, want %v", err, ErrReleased)
	}
	if s.State() != StateDecodeError {
		t.Errorf("State() = %v, want %v", s.State(), StateDecodeError)
	}
}

func TestSound_CloseDuringDecode(t *testing.T) {
	t.Parallel()

	c := &countingCloser{}
	s := New(1, nil, c, 0, 0)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- s.Decode(func(io.ReaderAt, int64, int64) (*audio.PCM, error) {
			close(entered)
			<-proceed
			return fixedPCM(), nil
		})
	}()

	<-entered
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := c.closed.Load(); got != 0 {
		t.Errorf("source closed %d times mid-decode, want 0", got)
	}

	close(proceed)
	if err := <-done; err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := c.closed.Load(); got != 1 {
		t.Errorf("source closed %d times, want 1", got)
	}
	if !s.IsReady() {
		t.Errorf("State() = %v, want %v", s.State(), StateReady)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	if got := StateDecodeError.String(); got != "decode_error" {
		t.Errorf("String() = %q, want decode_error", got)
	}
	if got := EventSoundLoaded.String(); got != "sound_loaded" {
		t.Errorf("String() = %q, want sound_loaded", got)
	}
}
