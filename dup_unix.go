// SPDX-License-Identifier: EPL-2.0

//go:build unix

package soundpool

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dupFile returns an independent descriptor for f's file. Reads go through
// ReadAt, so the shared file offset is never used.
func dupFile(f *os.File) (*os.File, error) {
	sc, err := f.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	var (
		fd     int
		dupErr error
	)
	if err := sc.Control(func(raw uintptr) {
		fd, dupErr = unix.FcntlInt(raw, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	if dupErr != nil {
		return nil, fmt.Errorf("%w: dup %s: %w", ErrInvalidDescriptor, f.Name(), dupErr)
	}
	return os.NewFile(uintptr(fd), f.Name()), nil
}
