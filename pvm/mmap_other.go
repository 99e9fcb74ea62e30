//go:build !unix

package pvm

func mapRegion(size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}

	return make([]byte, size), nil
}

func unmapRegion([]byte) error {
	return nil
}
