// SPDX-License-Identifier: EPL-2.0

package sound

import "errors"

var (
	// ErrReleased indicates the sound was unloaded before it was decoded
	ErrReleased = errors.New("sound released")

	// ErrAlreadyDecoded indicates Decode was called on a sound that left the loading state
	ErrAlreadyDecoded = errors.New("sound already decoded")
)
