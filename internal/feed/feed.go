// Package feed reads newline-delimited records for the logrelay CLI.
package feed

import (
	"bufio"
	"context"
	"io"
	"os"
)

// maxLineBytes bounds a single record; lines beyond this fail the scan.
const maxLineBytes = 1 << 20

// Open returns the record source and a display name for it. An empty path
// selects stdin.
func Open(path string) (io.ReadCloser, string, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// Lines scans r and calls fn for every non-empty line. It stops at EOF,
// when fn returns an error, or when ctx is done between lines.
func Lines(ctx context.Context, r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
