//go:build unix

package pvm

import "golang.org/x/sys/unix"

// mapRegion reserves zeroed, lazily committed memory for a guest region.
func mapRegion(size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON,
	)
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}
