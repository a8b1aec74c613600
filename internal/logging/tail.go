package logging

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

// Tail returns the last n lines of the file at path, oldest first.
// A missing file yields no lines.
func Tail(fsys afero.Fs, path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := fsys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	// Ring buffer of the most recent n lines.
	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}

	if count < n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}
