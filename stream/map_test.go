// SPDX-License-Identifier: EPL-2.0

package stream

import "testing"

func TestMap_Pairs(t *testing.T) {
	t.Parallel()

	m := newMap(4)
	if m.Len() != 8 || m.Pairs() != 4 {
		t.Fatalf("Len() = %d, Pairs() = %d, want 8, 4", m.Len(), m.Pairs())
	}
	m.ForEach(func(s *Stream) {
		p := m.PairStream(s)
		if p == s {
			t.Errorf("stream %d is its own pair", s.Index())
		}
		if m.PairStream(p) != s {
			t.Errorf("pair of pair of stream %d is stream %d", s.Index(), m.PairStream(p).Index())
		}
		if s.Pair() != p {
			t.Errorf("Pair() of stream %d = %d, want %d", s.Index(), s.Pair().Index(), p.Index())
		}
	})
}

func TestMap_FindStream(t *testing.T) {
	t.Parallel()

	m := newMap(2)
	s := &m.streams[3]

	if got := m.FindStream(0); got != nil {
		t.Errorf("FindStream(0) = stream %d, want nil", got.Index())
	}

	id := m.nextID(s)
	s.streamID.Store(id)
	if got := m.FindStream(id); got != s {
		t.Fatalf("FindStream(%d) = %v, want stream 3", id, got)
	}

	next := m.nextID(s)
	s.streamID.Store(next)
	if next == id {
		t.Fatalf("nextID() reused %d", id)
	}
	if got := m.FindStream(id); got != nil {
		t.Errorf("FindStream(%d) after re-keying = stream %d, want nil", id, got.Index())
	}
	if got := m.FindStream(next); got != s {
		t.Errorf("FindStream(%d) = %v, want stream 3", next, got)
	}
}
