// SPDX-License-Identifier: EPL-2.0

// Package output defines the audio output contract used by the sound pool.
//
// An Output creates Tracks, each bound to one fully decoded PCM buffer. The
// pool only relies on EventBufferEnd; the other events are delivered for
// logging. Implementations live in output/softmix (an in-process mixer) and
// internal/audiotest (a recording fake).
package output
