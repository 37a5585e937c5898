// Package strtab decodes Playdate STR containers: a flat ordered key->value
// table. The offset table is a corruption check, not a seek target (unlike
// imagetable, which slices each cell by its offset) — each record is
// self-delimiting (nul-terminated key, then a nul-terminated value), so
// Parse walks the body sequentially and cross-checks each computed record
// start against the stored offset rather than seeking by it.
package strtab

import (
	"bytes"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/pderr"
)

// Magic is the required magic at offset 0 of a standalone .pds/STR file.
var Magic = []byte("Playdate STR")

// Entry is one key/value pair, kept in on-disk order.
type Entry struct {
	Key, Value string
}

// Table is an ordered key->value map.
type Table struct {
	Entries []Entry
}

// ParseFile reads a standalone STR file: magic, flags word, optional
// compressed header, then the table body.
func ParseFile(r *binreader.Reader) (*Table, error) {
	if _, err := container.Parse(r, container.Options{Format: "STR", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes a strings body positioned just after any magic/flags/
// compressed-header preamble. Each record's key is read verbatim; the
// cursor is then aligned to a 4-byte boundary (relative to the start of the
// record area, which is always itself 4-byte aligned) before the value is
// read. No alignment follows the value — the next record's key starts
// immediately after it. This isn't written down anywhere in prose; it falls
// out of reconciling the one worked example's stored offset against its
// literal key/value bytes.
func Parse(r *binreader.Reader) (*Table, error) {
	offset := int64(r.Tell())
	numKeys, err := r.ReadU32()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "STR", "header", offset, "num_keys")
	}

	var offsets []uint32
	if numKeys > 0 {
		offsets = make([]uint32, numKeys-1)
		for i := range offsets {
			o, err := r.ReadU32()
			if err != nil {
				return nil, pderr.Wrap(err, pderr.KindShortRead, "STR", "header", int64(r.Tell()), "offset table entry")
			}
			offsets[i] = o
		}
	}

	headerEnd := r.Tell()
	entries := make([]Entry, 0, numKeys)
	for i := 0; i < int(numKeys); i++ {
		recordStart := r.Tell() - headerEnd
		if i > 0 {
			want := int(offsets[i-1])
			if recordStart != want {
				return nil, pderr.Newf(pderr.KindSizeMismatch, "STR", "body", int64(r.Tell()), "record %d starts at %d, offset table says %d", i, recordStart, want)
			}
		}

		key, err := r.ReadString()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "STR", "body", int64(r.Tell()), "key")
		}
		if err := r.Align(4); err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "STR", "body", int64(r.Tell()), "align before value")
		}
		value, err := r.ReadString()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "STR", "body", int64(r.Tell()), "value")
		}

		entries = append(entries, Entry{Key: key, Value: value})
	}

	return &Table{Entries: entries}, nil
}

// ToMap collapses the table to a plain map, discarding order; later
// duplicate keys win.
func (t *Table) ToMap() map[string]string {
	m := make(map[string]string, len(t.Entries))
	for _, e := range t.Entries {
		m[e.Key] = e.Value
	}
	return m
}

// DumpJSON renders the table as a JSON object, keys sorted for a
// deterministic diff-friendly dump.
func (t *Table) DumpJSON() ([]byte, error) {
	keys := make([]string, 0, len(t.Entries))
	seen := make(map[string]bool, len(t.Entries))
	m := t.ToMap()
	for _, e := range t.Entries {
		if !seen[e.Key] {
			seen[e.Key] = true
			keys = append(keys, e.Key)
		}
	}
	sort.Strings(keys)

	ordered := make(map[string]string, len(keys))
	for _, k := range keys {
		ordered[k] = m[k]
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ordered)
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindBadFormat, "STR", "dump-json", -1, "marshal table")
	}
	return out, nil
}

// DumpStrings renders the table in Apple .strings style: one `"k" = "v";`
// line per entry, in on-disk order.
func (t *Table) DumpStrings() string {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		fmt.Fprintf(&buf, "%q = %q;\n", e.Key, e.Value)
	}
	return buf.String()
}
