// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio using
// github.com/hajimehoshi/go-mp3.
//
// The decoder always produces interleaved stereo; mono files are duplicated
// into both channels by go-mp3. Files may start with an ID3v2 tag or directly
// with a frame sync word, and Probe accepts both.
//
//	src, err := mp3.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package mp3
