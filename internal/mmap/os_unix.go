//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

func osAdvise(data []byte, h Hint) error {
	advice := unix.MADV_NORMAL
	switch h {
	case Sequential:
		advice = unix.MADV_SEQUENTIAL
	case WillNeed:
		advice = unix.MADV_WILLNEED
	}
	// Hints are advisory; EINVAL for an unaligned mapping is ignored.
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
