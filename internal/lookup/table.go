// Package lookup holds the user-supplied street to district table and the
// loader that builds it from an uploaded delimited text file.
package lookup

import "sort"

// Table maps normalized street names to district labels. A Table is never
// modified after construction, so it can be shared between goroutines and
// swapped in and out of a session as a whole.
type Table struct {
	entries map[string]string
}

// Entry is one row of a Table.
type Entry struct {
	Key      string `json:"key"`
	District string `json:"district"`
}

// New builds a table from already normalized keys. The map is copied.
func New(entries map[string]string) *Table {
	copied := make(map[string]string, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Table{entries: copied}
}

// Lookup returns the district for a normalized key. A nil table knows nothing.
func (t *Table) Lookup(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	district, ok := t.entries[key]
	return district, ok
}

// Len is the number of distinct keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the rows sorted by key.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, Entry{Key: k, District: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
