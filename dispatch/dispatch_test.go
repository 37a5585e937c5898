package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/archive"
	"github.com/scratchminer/pdkit/strtab"
)

// strFile builds a standalone .pds file: magic, uncompressed flags word,
// then spec.md §8 scenario 2's body (num_keys=2, offset[1]=6).
func strFile() []byte {
	buf := append([]byte{}, strtab.Magic...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // flags: uncompressed
	buf = append(buf, 0x02, 0x00, 0x00, 0x00) // num_keys
	buf = append(buf, 0x06, 0x00, 0x00, 0x00) // offset[1]
	buf = append(buf, 'a', 0x00, 0x00, 0x00, '1', 0x00)
	buf = append(buf, 'b', 0x00, '2', 0x00)
	return buf
}

func TestParseStandaloneFileClassifiesByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lang.pds")
	require.NoError(t, os.WriteFile(path, strFile(), 0o644))

	fe, err := ParseStandaloneFile(path)
	require.NoError(t, err)
	require.Equal(t, archive.KindSTR, fe.Kind)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, fe.Strings.ToMap())
}

func TestParseStandaloneFileUnknownExtensionIsStray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	fe, err := ParseStandaloneFile(path)
	require.NoError(t, err)
	require.Equal(t, archive.KindNone, fe.Kind)
	require.Equal(t, []byte("hello"), fe.Raw)
}

func TestParseDirectoryBuildsMirrorTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "lang.pds"), strFile(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	a, err := ParseDirectory(dir)
	require.NoError(t, err)

	fe, err := a.GetFile("sub/lang.pds")
	require.NoError(t, err)
	require.Equal(t, archive.KindSTR, fe.Kind)

	fe2, err := a.GetFile("notes.txt")
	require.NoError(t, err)
	require.Equal(t, archive.KindNone, fe2.Kind)

	require.Equal(t, 2, a.Stats.Entries)
}
