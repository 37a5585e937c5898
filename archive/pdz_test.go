package archive

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/pderr"
)

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// pdzCompressedEntry builds a compressed entry payload: a leading
// decompressed-size u32, then the zlib stream, per spec.md §4.10 step 5.
func pdzCompressedEntry(buf []byte, kind Kind, name string, decompressed []byte) []byte {
	buf = append(buf, byte(kind)|0x80)
	compressed := zlibCompress(decompressed)
	payload := append([]byte{byte(len(decompressed)), byte(len(decompressed) >> 8), byte(len(decompressed) >> 16), byte(len(decompressed) >> 24)}, compressed...)
	n := len(payload)
	buf = append(buf, byte(n), byte(n>>8), byte(n>>16))
	buf = append(buf, []byte(name)...)
	buf = append(buf, 0x00)
	for len(buf)%4 != 0 {
		buf = append(buf, 0x00)
	}
	buf = append(buf, payload...)
	return buf
}

// strBody builds a headerless STR payload matching spec.md §8 scenario 2:
// num_keys=2, offset[1]=6, records "a\0"+pad(2)+"1\0"+"b\0"+"2\0".
func strBody() []byte {
	buf := []byte{
		0x02, 0x00, 0x00, 0x00,
		0x06, 0x00, 0x00, 0x00,
	}
	buf = append(buf, 'a', 0x00, 0x00, 0x00, '1', 0x00)
	buf = append(buf, 'b', 0x00, '2', 0x00)
	return buf
}

// pdzEntry appends one uncompressed entry record: flags byte, u24 length,
// nul-terminated name, align(4), payload.
func pdzEntry(buf []byte, kind Kind, name string, payload []byte) []byte {
	buf = append(buf, byte(kind)) // uncompressed: bit7 clear
	n := len(payload)
	buf = append(buf, byte(n), byte(n>>8), byte(n>>16))
	buf = append(buf, []byte(name)...)
	buf = append(buf, 0x00)
	for len(buf)%4 != 0 {
		buf = append(buf, 0x00)
	}
	buf = append(buf, payload...)
	return buf
}

// TestParseOneEntryArchiveGetFile reproduces spec.md §8 scenario 5: a
// one-entry archive with an uncompressed STR entry named "a/b.pds". Its
// get_file lookup succeeds and matches scenario 2's map; a sibling lookup
// for a nonexistent name raises NotFound.
func TestParseOneEntryArchiveGetFile(t *testing.T) {
	buf := pdzEntry(nil, KindSTR, "a/b.pds", strBody())

	a, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	fe, err := a.GetFile("a/b.pds")
	require.NoError(t, err)
	require.Equal(t, KindSTR, fe.Kind)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, fe.Strings.ToMap())

	_, err = a.GetFile("a/c")
	require.Error(t, err)
	require.Equal(t, pderr.KindNotFound, pderr.KindOf(err))
}

// TestParsePreservesFirstSeenOrderPerDirectory pins the "PDZ ordering"
// testable property: dump_files emits entries in first-seen order per
// directory, not sorted or reversed.
func TestParsePreservesFirstSeenOrderPerDirectory(t *testing.T) {
	var buf []byte
	buf = pdzEntry(buf, KindNone, "dir/z.bin", []byte{0x01})
	buf = pdzEntry(buf, KindNone, "dir/a.bin", []byte{0x02})
	buf = pdzEntry(buf, KindNone, "dir/m.bin", []byte{0x03})

	a, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	var names []string
	a.Root.Walk(func(path string, fe *FileEntry) {
		names = append(names, path)
	})
	require.Equal(t, []string{"dir/z.bin", "dir/a.bin", "dir/m.bin"}, names)
}

// TestParseDuplicatePathOverwritesInPlace checks that a later entry at the
// same path replaces the earlier one without moving its tree position.
func TestParseDuplicatePathOverwritesInPlace(t *testing.T) {
	var buf []byte
	buf = pdzEntry(buf, KindNone, "a.bin", []byte{0x01})
	buf = pdzEntry(buf, KindNone, "b.bin", []byte{0x02})
	buf = pdzEntry(buf, KindNone, "a.bin", []byte{0xff})

	a, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	var order []string
	a.Root.Walk(func(path string, fe *FileEntry) {
		order = append(order, path)
	})
	require.Equal(t, []string{"a.bin", "b.bin"}, order)

	fe, err := a.GetFile("a.bin")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff}, fe.Raw)
}

func TestParseStopsCleanlyAtEOF(t *testing.T) {
	a, err := Parse(binreader.New(nil))
	require.NoError(t, err)
	require.Equal(t, 0, a.Stats.Entries)
}

// TestParseCompressedSTREntryInflates exercises the non-AUD compressed path:
// a leading decompressed-size word followed by a zlib stream.
func TestParseCompressedSTREntryInflates(t *testing.T) {
	buf := pdzCompressedEntry(nil, KindSTR, "lang.pds", strBody())

	a, err := Parse(binreader.New(buf))
	require.NoError(t, err)

	fe, err := a.GetFile("lang.pds")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, fe.Strings.ToMap())
	require.Equal(t, 1, a.Stats.Entries)
	require.Equal(t, 1, a.Stats.ByKind[KindSTR])
}
