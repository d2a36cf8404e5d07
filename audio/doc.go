// SPDX-License-Identifier: EPL-2.0

// Package audio holds the shared audio types used by decoders, the software
// mixer and the sound pool.
//
// # Sources
//
// A Source yields interleaved float32 samples in [-1, 1]:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Resampler converts a Source to another rate with cubic interpolation and
// can change its input rate while streaming, which is how playback rate
// changes are applied. MonoMixer folds any channel count down to mono.
//
// # Decoded buffers
//
// PCM is a fully decoded 16-bit buffer together with its rate, channel count,
// sample Format and ChannelMask. Once built it is read only.
//
// # Registry
//
// Registry maps format keys to Decoders. Decoders that also implement Prober
// can be selected from the first ProbeSize bytes of a stream with Detect.
package audio
