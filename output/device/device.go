// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"

	"github.com/ik5/soundpool/output/softmix"
)

// Driver names an audio backend.
type Driver string

const (
	DriverBeep Driver = "beep"
	DriverOto  Driver = "oto"
	DriverNull Driver = "null"
)

// IsValid reports whether d is a known driver.
func (d Driver) IsValid() bool {
	switch d {
	case DriverBeep, DriverOto, DriverNull:
		return true
	}
	return false
}

// Device plays a mixer until closed.
type Device interface {
	Close() error
}

// Open starts pulling m through the named driver. bufferSize is in frames.
func Open(driver Driver, m *softmix.Mixer, bufferSize int) (Device, error) {
	if bufferSize <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrBufferSize, bufferSize)
	}

	switch driver {
	case DriverBeep:
		return openBeep(m, bufferSize)
	case DriverOto:
		return openOto(m, bufferSize)
	case DriverNull:
		return NewNull(m, bufferSize, nil), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}
