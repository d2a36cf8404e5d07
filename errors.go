// SPDX-License-Identifier: EPL-2.0

package soundpool

import "errors"

var (
	ErrReleased          = errors.New("sound pool released")
	ErrInvalidDescriptor = errors.New("invalid file descriptor")
)
