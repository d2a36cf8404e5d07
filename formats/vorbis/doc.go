// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio using
// github.com/jfreymuth/oggvorbis.
//
// Samples are returned as interleaved float32 exactly as the Vorbis decoder
// produces them. ReadSamples only ever returns whole frames, so a destination
// slice that is not a multiple of the channel count is partly left unused.
package vorbis
