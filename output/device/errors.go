// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	ErrUnknownDriver = errors.New("unknown audio driver")
	ErrBufferSize    = errors.New("invalid buffer size")
)
