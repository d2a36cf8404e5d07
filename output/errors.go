// SPDX-License-Identifier: EPL-2.0

package output

import "errors"

var (
	ErrInvalidTrackConfig = errors.New("invalid track config")
	ErrSampleRate         = errors.New("track sample rate out of range")
	ErrLoopRange          = errors.New("invalid loop range")
	ErrTrackClosed        = errors.New("track is closed")
	ErrOutputClosed       = errors.New("output is closed")
)
