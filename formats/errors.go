// SPDX-License-Identifier: EPL-2.0

package formats

import "errors"

var (
	// ErrSampleRateRange indicates a decoded sample rate outside [MinSampleRate, MaxSampleRate]
	ErrSampleRateRange = errors.New("sample rate out of range")

	// ErrChannelCountRange indicates a channel count outside [1, MaxChannels]
	ErrChannelCountRange = errors.New("channel count out of range")

	// ErrNoFrames indicates the input decoded to zero frames
	ErrNoFrames = errors.New("no audio frames")
)
