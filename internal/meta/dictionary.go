// Package meta holds the metadata produced for one document: an ordered
// dictionary of field names to typed entries, serializable as JSON.
package meta

import (
	"bytes"
	"encoding/json"
)

// Dictionary maps field names to entries, remembering insertion order.
// Overwriting a field keeps its original position.
type Dictionary struct {
	keys    []string
	entries map[string]Entry
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[string]Entry)}
}

// Set assigns e to key.
func (d *Dictionary) Set(key string, e Entry) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = e
}

// Get returns the entry of key.
func (d *Dictionary) Get(key string) (Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// Has reports whether key is present.
func (d *Dictionary) Has(key string) bool {
	_, ok := d.entries[key]
	return ok
}

// Delete removes key.
func (d *Dictionary) Delete(key string) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i:i], d.keys[i+1:]...)
			break
		}
	}
}

// Append adds r to the entry list of key, creating the list if needed.
// An entry of another type under key is replaced. With dedup set, r is
// not added when an equal record is already present.
func (d *Dictionary) Append(key string, r Record, dedup bool) {
	l, _ := d.entries[key].(EntryList)
	if dedup && l.Contains(r) {
		return
	}
	d.Set(key, append(l, r))
}

// List returns the entry list of key, or nil when key is absent or holds
// another entry type.
func (d *Dictionary) List(key string) EntryList {
	l, _ := d.entries[key].(EntryList)
	return l
}

// Keys returns the field names in insertion order.
func (d *Dictionary) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of fields.
func (d *Dictionary) Len() int {
	return len(d.keys)
}

// Merge copies all fields of o into d, in o's order.
func (d *Dictionary) Merge(o *Dictionary) {
	for _, k := range o.keys {
		d.Set(k, o.entries[k])
	}
}

// MarshalJSON writes the fields as a JSON object in insertion order.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
