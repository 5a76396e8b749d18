package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// blockSize is how much of the file is read per step when walking backwards.
const blockSize = 8 * 1024

// Read returns at most maxLines non-empty lines from the end of the file at path, oldest
// first. A missing file yields no lines and no error. Only the tail of the file is read, so
// the cost does not grow with the size of the log.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	var (
		tail   []byte
		offset = info.Size()
	)
	for offset > 0 && completeLines(tail) < maxLines {
		n := int64(blockSize)
		if offset < n {
			n = offset
		}
		offset -= n
		block := make([]byte, n)
		if _, err := file.ReadAt(block, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		tail = append(block, tail...)
	}

	lines := strings.Split(string(tail), "\n")
	// The first line may be cut in half unless the whole file was read.
	if offset > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	out := make([]string, 0, maxLines)
	for i := len(lines) - 1; i >= 0 && len(out) < maxLines; i-- {
		if line := strings.TrimRight(lines[i], "\r"); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// completeLines counts the non-blank lines of tail that are known to be whole: everything
// after the first newline, since the text before it may be the end of an earlier line.
func completeLines(tail []byte) int {
	first := bytes.IndexByte(tail, '\n')
	if first < 0 {
		return 0
	}
	n := 0
	for _, line := range bytes.Split(tail[first+1:], []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
