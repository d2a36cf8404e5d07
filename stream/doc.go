// SPDX-License-Identifier: EPL-2.0

// Package stream multiplexes a fixed number of playback lanes across any
// number of loaded sounds.
//
// Streams are allocated in pairs. Admission picks a stream and writes the
// request to its pair, so the caller gets a stream id at once even when
// the lane is still busy fading out a previous sound. Restart workers then
// stop the busy stream, move its output track to the pair and start it.
//
// Lock order: Manager, then the pair stream, then the source stream.
// Replaced tracks are closed after every lock is released, since closing
// waits for the track's callbacks.
package stream
