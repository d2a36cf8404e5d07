// SPDX-License-Identifier: EPL-2.0

package stream

import "github.com/ik5/soundpool/internal/perfecthash"

// Map holds the streams in pairs (2k, 2k+1) and maps stream ids to streams.
type Map struct {
	streams []Stream
	ids     *perfecthash.Table[Stream]
}

func newMap(pairs int) *Map {
	m := &Map{streams: make([]Stream, 2*pairs)}
	for i := range m.streams {
		m.streams[i].index = i
		m.streams[i].pair = &m.streams[i^1]
	}
	m.ids = perfecthash.New(len(m.streams), func(s *Stream) int32 { return s.StreamID() })
	return m
}

// Len returns the number of streams, twice the number of pairs.
func (m *Map) Len() int { return len(m.streams) }

// Pairs returns the number of stream pairs.
func (m *Map) Pairs() int { return len(m.streams) / 2 }

// FindStream returns the stream currently holding streamID, or nil.
func (m *Map) FindStream(streamID int32) *Stream {
	s := m.ids.Get(streamID)
	if s == nil || s.StreamID() != streamID {
		return nil
	}
	return s
}

func (m *Map) PairStream(s *Stream) *Stream { return &m.streams[s.index^1] }

// ForEach calls fn for every stream in index order.
func (m *Map) ForEach(fn func(*Stream)) {
	for i := range m.streams {
		fn(&m.streams[i])
	}
}

// nextID mints a new stream id for s, retiring its current one. Callers
// serialize calls and publish the id on s before the next call.
func (m *Map) nextID(s *Stream) int32 {
	return m.ids.GenerateKey(s, s.StreamID())
}
