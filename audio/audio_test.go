// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/ik5/soundpool/audio"
)

type fakeDecoder struct{ magic string }

func (fakeDecoder) Decode(io.Reader) (audio.Source, error) { return nil, nil }

func (d fakeDecoder) Probe(header []byte) bool {
	return bytes.HasPrefix(header, []byte(d.magic))
}

type blindDecoder struct{}

func (blindDecoder) Decode(io.Reader) (audio.Source, error) { return nil, nil }

func TestRegistry_Detect(t *testing.T) {
	t.Parallel()

	r := audio.NewRegistry()
	r.Register("b", fakeDecoder{magic: "BB"})
	r.Register("a", fakeDecoder{magic: "AA"})
	r.Register("raw", blindDecoder{})

	if got := r.Formats(); len(got) != 3 || got[0] != "a" || got[2] != "raw" {
		t.Errorf("Formats() = %v, want [a b raw]", got)
	}

	name, _, ok := r.Detect([]byte("BBxx"))
	if !ok || name != "b" {
		t.Errorf("Detect(BB) = (%q, %v), want (b, true)", name, ok)
	}

	if _, _, ok := r.Detect([]byte("??")); ok {
		t.Error("Detect(??) ok = true, want false")
	}

	if _, ok := r.Get("raw"); !ok {
		t.Error("Get(raw) ok = false, want true")
	}
}

func TestChannelMaskFromCount(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 8; n++ {
		if got := audio.ChannelMaskFromCount(n).Count(); got != n {
			t.Errorf("ChannelMaskFromCount(%d).Count() = %d, want %d", n, got, n)
		}
	}
	if got := audio.ChannelMaskFromCount(9); got != audio.ChannelNone {
		t.Errorf("ChannelMaskFromCount(9) = %v, want ChannelNone", got)
	}
}

func TestPCM_Sizes(t *testing.T) {
	t.Parallel()

	pcm := &audio.PCM{Samples: make([]int16, 12), Channels: 2, Format: audio.FormatPCM16}
	if pcm.Frames() != 6 {
		t.Errorf("Frames() = %d, want 6", pcm.Frames())
	}
	if pcm.SizeInBytes() != 24 {
		t.Errorf("SizeInBytes() = %d, want 24", pcm.SizeInBytes())
	}

	var empty *audio.PCM
	if empty.Frames() != 0 || empty.SizeInBytes() != 0 {
		t.Error("nil PCM should report zero sizes")
	}
}
