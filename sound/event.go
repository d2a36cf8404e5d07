// SPDX-License-Identifier: EPL-2.0

package sound

// EventKind identifies a notification.
type EventKind int

const (
	EventSoundLoaded EventKind = 1
)

func (k EventKind) String() string {
	if k == EventSoundLoaded {
		return "sound_loaded"
	}
	return "unknown"
}

// Status codes carried by EventSoundLoaded.
const (
	StatusOK          int32 = 0
	StatusDecodeError int32 = 1

	// StatusNotFound reports a sound unloaded before its decode started.
	StatusNotFound int32 = 2
)

// Event is delivered to the listener set with Manager.SetListener.
type Event struct {
	Kind    EventKind
	SoundID int32
	Status  int32
}
