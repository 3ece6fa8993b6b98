// Package user resolves numeric owner ids to account names using the
// passwd database (name:password:uid:gid:gecos:home:shell).
//
// Lookup scans the file on every call. Cache loads it once and is what the
// monitor uses, since the database rarely changes during a session.
package user

import (
	"strings"
	"sync"

	"github.com/ja7ad/procmon/pkg/system/source"
)

// DefaultPath is the system identity database.
const DefaultPath = "/etc/passwd"

// Record is one passwd entry reduced to the fields the monitor needs.
type Record struct {
	Name string
	UID  string
}

// ParseRecord splits a passwd line. Colon-separated records are the norm;
// records whose separators were normalised to whitespace are accepted too.
// Comments, blank lines and records with fewer than three fields yield ok=false.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return Record{}, false
	}
	var fs []string
	if strings.Contains(line, ":") {
		fs = strings.Split(line, ":")
	} else {
		fs = strings.Fields(line)
	}
	if len(fs) < 3 {
		return Record{}, false
	}
	name, uid := strings.TrimSpace(fs[0]), strings.TrimSpace(fs[2])
	if name == "" || uid == "" {
		return Record{}, false
	}
	return Record{Name: name, UID: uid}, true
}

// Parse returns every well-formed record in file order.
func Parse(lines []string) []Record {
	out := make([]Record, 0, len(lines))
	for _, l := range lines {
		if r, ok := ParseRecord(l); ok {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the name of the first record whose uid equals uid, or ""
// when there is no match or the database cannot be read.
func Lookup(path, uid string) string {
	if uid == "" {
		return ""
	}
	lines, err := source.Lines(path)
	if err != nil {
		return ""
	}
	for _, l := range lines {
		if r, ok := ParseRecord(l); ok && r.UID == uid {
			return r.Name
		}
	}
	return ""
}

// Cache is a uid → name table loaded from a passwd file. It is safe for
// concurrent use.
type Cache struct {
	path string

	mu     sync.RWMutex
	names  map[string]string
	loaded bool
}

// NewCache returns a Cache that loads path on first use.
func NewCache(path string) *Cache {
	if path == "" {
		path = DefaultPath
	}
	return &Cache{path: path}
}

// Name resolves uid, returning "" for an unknown uid.
func (c *Cache) Name(uid string) string {
	c.mu.RLock()
	if c.loaded {
		n := c.names[uid]
		c.mu.RUnlock()
		return n
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.loadLocked()
	}
	return c.names[uid]
}

// Reload re-reads the database. An unreadable file leaves an empty table.
func (c *Cache) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
}

func (c *Cache) loadLocked() {
	names := make(map[string]string)
	if lines, err := source.Lines(c.path); err == nil {
		for _, r := range Parse(lines) {
			// first record wins, same as Lookup
			if _, dup := names[r.UID]; !dup {
				names[r.UID] = r.Name
			}
		}
	}
	c.names = names
	c.loaded = true
}
