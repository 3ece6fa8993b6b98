// Package field extracts typed values from the loosely structured text that
// procfs and /etc expose. It understands two layouts:
//
//   - keyed lines: "MemTotal:  16384 kB", "processes 1234", `PRETTY_NAME="Ubuntu 22.04"`
//   - positional lines: "cpu  10 20 30 ...", "1234 (bash) S 1 ..."
//
// No accessor panics or returns an error. A missing key, a short line or a
// non-numeric token yields the zero value together with ok == false, so a
// single bad field never aborts the read of the rest of a file.
package field

import (
	"math"
	"strconv"
	"strings"
)

// lookup returns the raw text after key on the first line that starts with
// it. The key must be followed by a separator (':', '=' or whitespace) or end
// the line, so "cpu" does not match "cpu0". Matching is case-sensitive.
func lookup(lines []string, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, line := range lines {
		line = strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(line, key) {
			continue
		}
		rest := line[len(key):]
		if rest == "" {
			return "", true
		}
		switch rest[0] {
		case ':', '=':
			return strings.TrimSpace(rest[1:]), true
		case ' ', '\t':
			rest = strings.TrimSpace(rest)
			// "key : value" and "key = value"
			if len(rest) > 0 && (rest[0] == ':' || rest[0] == '=') {
				rest = strings.TrimSpace(rest[1:])
			}
			return rest, true
		}
	}
	return "", false
}

// Raw returns the text after key's separator exactly as written, quotes
// included.
func Raw(lines []string, key string) (string, bool) {
	return lookup(lines, key)
}

// Value returns the value of key with surrounding quotes removed. For
// `NAME="Debian GNU/Linux"` it returns "Debian GNU/Linux".
func Value(lines []string, key string) (string, bool) {
	rest, ok := lookup(lines, key)
	if !ok {
		return "", false
	}
	return Unquote(rest), true
}

// Word returns the first whitespace-delimited token of key's value. A quoted
// value is returned whole, since quotes group a token containing separators.
func Word(lines []string, key string) (string, bool) {
	rest, ok := lookup(lines, key)
	if !ok {
		return "", false
	}
	if isQuoted(rest) {
		return Unquote(rest), true
	}
	fs := strings.Fields(rest)
	if len(fs) == 0 {
		return "", false
	}
	return fs[0], true
}

// Int returns key's first token as a signed integer.
func Int(lines []string, key string) (int64, bool) {
	w, ok := Word(lines, key)
	if !ok {
		return 0, false
	}
	return ParseInt(w)
}

// Uint returns key's first token as an unsigned integer.
func Uint(lines []string, key string) (uint64, bool) {
	w, ok := Word(lines, key)
	if !ok {
		return 0, false
	}
	return ParseUint(w)
}

// Float returns key's first token as a float.
func Float(lines []string, key string) (float64, bool) {
	w, ok := Word(lines, key)
	if !ok {
		return 0, false
	}
	return ParseFloat(w)
}

// Rest returns the whitespace-delimited tokens that follow key.
func Rest(lines []string, key string) ([]string, bool) {
	rest, ok := lookup(lines, key)
	if !ok {
		return nil, false
	}
	return strings.Fields(rest), true
}

//
// Positional access
//

// At returns tokens[i] (0-based).
func At(tokens []string, i int) (string, bool) {
	if i < 0 || i >= len(tokens) {
		return "", false
	}
	return tokens[i], true
}

// IntAt returns tokens[i] parsed as a signed integer.
func IntAt(tokens []string, i int) (int64, bool) {
	s, ok := At(tokens, i)
	if !ok {
		return 0, false
	}
	return ParseInt(s)
}

// UintAt returns tokens[i] parsed as an unsigned integer.
func UintAt(tokens []string, i int) (uint64, bool) {
	s, ok := At(tokens, i)
	if !ok {
		return 0, false
	}
	return ParseUint(s)
}

// FloatAt returns tokens[i] parsed as a float.
func FloatAt(tokens []string, i int) (float64, bool) {
	s, ok := At(tokens, i)
	if !ok {
		return 0, false
	}
	return ParseFloat(s)
}

// Nth returns the n-th (1-based) whitespace-delimited token of line, the way
// man 5 proc numbers fields.
func Nth(line string, n int) (string, bool) {
	return At(strings.Fields(line), n-1)
}

//
// Scalars
//

// ParseInt parses s as a base-10 int64; malformed input yields (0, false).
func ParseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseUint parses s as a base-10 uint64; malformed or negative input yields (0, false).
func ParseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseFloat parses s as a float64; malformed input, NaN and Inf yield (0, false).
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

// Unquote strips one pair of matching single or double quotes. A double-quoted
// value that is also a valid Go literal has its escapes (\" \\) resolved.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if !isQuoted(s) {
		return s
	}
	if s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s[1 : len(s)-1]
}
