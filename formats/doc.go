// SPDX-License-Identifier: EPL-2.0

// Package formats turns an encoded byte range into a fully decoded PCM
// buffer.
//
// The container is identified by sniffing the first audio.ProbeSize bytes
// against every decoder in the registry, so file extensions are never
// consulted. The result is validated before it is returned: the sample rate
// must lie in [MinSampleRate, MaxSampleRate], the channel count in
// [1, MaxChannels], and at least one frame must be present.
//
//	pcm, err := formats.Decode(file, offset, length)
package formats
