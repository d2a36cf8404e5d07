// SPDX-License-Identifier: EPL-2.0

// Package sound loads and decodes samples in the background.
//
// Manager.Load registers a Sound in StateLoading and hands its id to the
// Decoder, whose workers decode it and move it to StateReady or
// StateDecodeError. Either way an EventSoundLoaded is delivered to the
// listener. Sounds are reference counted by the garbage collector: a Sound
// that is unloaded while a stream still plays it stays valid for that
// stream.
package sound
