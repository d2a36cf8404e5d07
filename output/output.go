// SPDX-License-Identifier: EPL-2.0

package output

import "github.com/ik5/soundpool/audio"

// Event is reported by a Track to its Callback from the output's own
// goroutine.
type Event int

const (
	EventMoreData Event = iota
	EventUnderrun
	EventLoopEnd
	EventMarker
	EventNewPos
	EventBufferEnd
	EventNewTrack
)

func (e Event) String() string {
	switch e {
	case EventMoreData:
		return "more_data"
	case EventUnderrun:
		return "underrun"
	case EventLoopEnd:
		return "loop_end"
	case EventMarker:
		return "marker"
	case EventNewPos:
		return "new_pos"
	case EventBufferEnd:
		return "buffer_end"
	case EventNewTrack:
		return "new_track"
	}
	return "unknown"
}

// Callback receives track events. It must not call Close on the track that
// raised the event.
type Callback func(Event)

// StreamType is the routing class a track plays under.
type StreamType int

const (
	StreamMusic StreamType = iota
	StreamAlarm
	StreamNotification
	StreamRing
	StreamSystem
	StreamVoiceCall
)

func (t StreamType) String() string {
	switch t {
	case StreamMusic:
		return "music"
	case StreamAlarm:
		return "alarm"
	case StreamNotification:
		return "notification"
	case StreamRing:
		return "ring"
	case StreamSystem:
		return "system"
	case StreamVoiceCall:
		return "voice_call"
	}
	return "unknown"
}

// Flags tune how a track is created.
type Flags uint32

const (
	// FlagFast requests the low latency path when the output has one.
	FlagFast Flags = 1 << iota
)

// TrackConfig describes a static-buffer track. PCM is shared and must not
// be modified while the track exists.
type TrackConfig struct {
	StreamType  StreamType
	SampleRate  int
	Format      audio.Format
	ChannelMask audio.ChannelMask
	PCM         *audio.PCM
	Flags       Flags
	Callback    Callback
}

// Track plays one static PCM buffer.
//
// Start begins playback, from the start of the buffer unless the track is
// paused. Stop halts playback and rewinds. Loop frames are expressed in
// source frames; a count of -1 loops forever and 0 disables looping.
type Track interface {
	Start()
	Stop()
	Pause()
	SetVolume(left, right float32)
	SetSampleRate(hz int) error
	SetLoop(startFrame, endFrame, count int) error
	// Close detaches the track. No callback runs once Close has returned.
	Close() error
}

// Output creates tracks.
type Output interface {
	NewTrack(cfg TrackConfig) (Track, error)
}
