// Package source reads the kernel-exposed text files that every other
// collector parses. All readers report a missing or unreadable file as
// ErrUnavailable so callers can fall back to defaults with a single
// errors.Is check, while the underlying os error stays wrapped for logging.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnavailable indicates the source could not be opened or read
// (permissions, process exited, file absent on this kernel).
var ErrUnavailable = errors.New("source: unavailable")

// maxLine bounds a single scanned line. cmdline and environ can be long,
// bufio's 64KiB default is not enough for some JVM command lines.
const maxLine = 1 << 20

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
}

// ReadAll returns the whole content of path.
func ReadAll(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", unavailable(path, err)
	}
	return string(b), nil
}

// Lines returns the content of path split into lines, without terminators.
func Lines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return out, unavailable(path, err)
	}
	return out, nil
}

// FirstLine returns the first line of path. An empty file yields "" and no error.
func FirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", unavailable(path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	if sc.Scan() {
		return sc.Text(), nil
	}
	if err := sc.Err(); err != nil {
		return "", unavailable(path, err)
	}
	return "", nil
}

// Tokens returns the whitespace-delimited tokens of the whole file.
func Tokens(path string) ([]string, error) {
	s, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	return strings.Fields(s), nil
}

// Names lists the entry names of a directory. Entries are returned in
// directory order; callers must not rely on any sorting.
func Names(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, unavailable(dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out, nil
}
