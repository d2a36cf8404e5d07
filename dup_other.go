// SPDX-License-Identifier: EPL-2.0

//go:build !unix

package soundpool

import (
	"fmt"
	"os"
)

// dupFile reopens f's file by name where descriptors cannot be duplicated.
func dupFile(f *os.File) (*os.File, error) {
	g, err := os.Open(f.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	return g, nil
}
