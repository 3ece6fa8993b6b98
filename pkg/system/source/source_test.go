package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLines(t *testing.T) {
	dir := t.TempDir()

	t.Run("multi_line", func(t *testing.T) {
		p := write(t, dir, "meminfo", "MemTotal: 10 kB\nMemFree: 5 kB\n")
		lines, err := Lines(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"MemTotal: 10 kB", "MemFree: 5 kB"}, lines)
	})
	t.Run("no_trailing_newline", func(t *testing.T) {
		p := write(t, dir, "uptime", "123.45 678.90")
		lines, err := Lines(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"123.45 678.90"}, lines)
	})
	t.Run("empty_file", func(t *testing.T) {
		p := write(t, dir, "empty", "")
		lines, err := Lines(p)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
	t.Run("missing_file", func(t *testing.T) {
		_, err := Lines(filepath.Join(dir, "nope"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.True(t, errors.Is(err, fs.ErrNotExist), "os error must stay wrapped")
	})
}

func TestFirstLine(t *testing.T) {
	dir := t.TempDir()

	p := write(t, dir, "version", "Linux version 5.15.0-91-generic (buildd@lcy02)\nsecond\n")
	line, err := FirstLine(p)
	require.NoError(t, err)
	assert.Equal(t, "Linux version 5.15.0-91-generic (buildd@lcy02)", line)

	line, err = FirstLine(write(t, dir, "empty", ""))
	require.NoError(t, err)
	assert.Equal(t, "", line)

	_, err = FirstLine(filepath.Join(dir, "gone"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFirstLine_LongLine(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("x", 200*1024)
	line, err := FirstLine(write(t, dir, "cmdline", long))
	require.NoError(t, err)
	assert.Len(t, line, len(long))
}

func TestTokensAndReadAll(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "uptime", "  350735.47   234388.90 \n")

	toks, err := Tokens(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"350735.47", "234388.90"}, toks)

	raw, err := ReadAll(p)
	require.NoError(t, err)
	assert.Equal(t, "  350735.47   234388.90 \n", raw)

	_, err = Tokens(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "1"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "self"), 0o755))
	write(t, dir, "stat", "cpu 1 2 3")

	names, err := Names(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "self", "stat"}, names)

	_, err = Names(filepath.Join(dir, "absent"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
