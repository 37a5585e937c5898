package strtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/binreader"
)

// scenario 2 from spec.md §8: num_keys=2, offset[1]=6, records
// "a\0"+(2 pad bytes to 4-byte-align the value start)+"1\0"+"b\0"+"2\0".
func TestParseScenario2(t *testing.T) {
	buf := []byte{
		0x02, 0x00, 0x00, 0x00, // num_keys
		0x06, 0x00, 0x00, 0x00, // offset[1]
	}
	buf = append(buf, 'a', 0x00)
	buf = append(buf, 0x00, 0x00) // align value start to 4-byte boundary
	buf = append(buf, '1', 0x00)
	buf = append(buf, 'b', 0x00)
	buf = append(buf, '2', 0x00)

	table, err := Parse(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, table.ToMap())
	require.Equal(t, []Entry{{"a", "1"}, {"b", "2"}}, table.Entries)
}

func TestParseEmptyTable(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	table, err := Parse(binreader.New(buf))
	require.NoError(t, err)
	require.Empty(t, table.Entries)
}

func TestParseOffsetMismatchErrors(t *testing.T) {
	buf := []byte{
		0x02, 0x00, 0x00, 0x00,
		0xFF, 0x00, 0x00, 0x00, // bogus offset[1]
	}
	buf = append(buf, 'a', 0x00, 0x00, 0x00, '1', 0x00, 'b', 0x00, '2', 0x00)
	_, err := Parse(binreader.New(buf))
	require.Error(t, err)
}

func TestDumpJSONSortsKeys(t *testing.T) {
	table := &Table{Entries: []Entry{{"b", "2"}, {"a", "1"}}}
	out, err := table.DumpJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"a":"1","b":"2"}`, string(out))
}

func TestDumpStringsPreservesOrder(t *testing.T) {
	table := &Table{Entries: []Entry{{"b", "2"}, {"a", "1"}}}
	require.Equal(t, "\"b\" = \"2\";\n\"a\" = \"1\";\n", table.DumpStrings())
}
