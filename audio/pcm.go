// SPDX-License-Identifier: EPL-2.0

package audio

import "math/bits"

// Format identifies the sample encoding of a PCM buffer.
type Format int

const (
	FormatInvalid Format = iota
	FormatPCM8
	FormatPCM16
	FormatPCMFloat
)

// BytesPerSample returns the size of one sample of one channel.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatPCM8:
		return 1
	case FormatPCM16:
		return 2
	case FormatPCMFloat:
		return 4
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatPCM8:
		return "pcm8"
	case FormatPCM16:
		return "pcm16"
	case FormatPCMFloat:
		return "float"
	}
	return "invalid"
}

// ChannelMask is a bit set of output speaker positions.
type ChannelMask uint32

const (
	ChannelNone         ChannelMask = 0
	ChannelFrontLeft    ChannelMask = 1 << 0
	ChannelFrontRight   ChannelMask = 1 << 1
	ChannelFrontCenter  ChannelMask = 1 << 2
	ChannelLowFrequency ChannelMask = 1 << 3
	ChannelBackLeft     ChannelMask = 1 << 4
	ChannelBackRight    ChannelMask = 1 << 5
	ChannelSideLeft     ChannelMask = 1 << 6
	ChannelSideRight    ChannelMask = 1 << 7
	ChannelMono                     = ChannelFrontLeft
	ChannelStereo                   = ChannelFrontLeft | ChannelFrontRight
	ChannelQuad                     = ChannelStereo | ChannelBackLeft | ChannelBackRight
	Channel5Point1                  = ChannelQuad | ChannelFrontCenter | ChannelLowFrequency
	Channel7Point1                  = Channel5Point1 | ChannelSideLeft | ChannelSideRight
)

// ChannelMaskFromCount returns the conventional speaker layout for n
// interleaved channels, or ChannelNone when there is none.
func ChannelMaskFromCount(n int) ChannelMask {
	switch n {
	case 1:
		return ChannelMono
	case 2:
		return ChannelStereo
	case 3:
		return ChannelStereo | ChannelFrontCenter
	case 4:
		return ChannelQuad
	case 5:
		return ChannelQuad | ChannelFrontCenter
	case 6:
		return Channel5Point1
	case 7:
		return Channel5Point1 | ChannelSideLeft
	case 8:
		return Channel7Point1
	}
	return ChannelNone
}

// Count returns the number of channels in the mask.
func (m ChannelMask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// PCM is a fully decoded, interleaved 16-bit buffer. It is never modified
// after decoding and may be shared between readers.
type PCM struct {
	Samples     []int16
	SampleRate  int
	Channels    int
	Format      Format
	ChannelMask ChannelMask
}

// Frames returns the number of sample frames in the buffer.
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// SizeInBytes returns the byte length of the sample data.
func (p *PCM) SizeInBytes() int {
	if p == nil {
		return 0
	}
	return len(p.Samples) * p.Format.BytesPerSample()
}
