package normalize

import (
	"fmt"
	"io"
)

// ReadAll reads r to the end without consuming a caller-owned stream: when r
// can seek, it reads from the start and restores the original offset.
func ReadAll(r io.Reader) ([]byte, error) {
	seeker, ok := r.(io.Seeker)
	if !ok {
		return io.ReadAll(r)
	}
	offset, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	data, readErr := io.ReadAll(r)
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil && readErr == nil {
		readErr = fmt.Errorf("restore input offset: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	return data, nil
}
