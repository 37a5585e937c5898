package binreader

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveReaders(t *testing.T) {
	buf := []byte{0x01, 0xFF, 0x02, 0x00, 0x03, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00}
	r := New(buf)

	u8, err := r.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x01), u8)

	s8, err := r.ReadS8()
	require.NoError(t, err)
	require.Equal(t, int8(-1), s8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0002), u16)

	u24, err := r.ReadU24()
	require.NoError(t, err)
	require.Equal(t, uint32(0x000003), u24)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x00000004), u32)

	require.True(t, r.IsEOF())
}

func TestReadU8EOFSentinel(t *testing.T) {
	r := New([]byte{0x01})
	_, err := r.ReadU8()
	require.NoError(t, err)
	_, err = r.ReadU8()
	require.ErrorIs(t, err, ErrEOFValue)
}

func TestReadBinClampsToRemainder(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	require.Equal(t, []byte{1, 2, 3, 4}, r.ReadBin(-1))

	r2 := New([]byte{1, 2, 3})
	require.Equal(t, []byte{1, 2, 3}, r2.ReadBin(100))
	require.True(t, r2.IsEOF())
}

func TestSeekAdvanceAlign(t *testing.T) {
	r := New(make([]byte, 16))
	require.NoError(t, r.Advance(3))
	require.Equal(t, 3, r.Tell())
	require.NoError(t, r.Align(4))
	require.Equal(t, 4, r.Tell())
	require.NoError(t, r.SeekRelTo(8, 2))
	require.Equal(t, 10, r.Tell())

	require.Error(t, r.Seek(-1))
	require.Error(t, r.Seek(100))
}

func TestReadString(t *testing.T) {
	r := New([]byte("hello\x00world\x00"))
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
	s2, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "world", s2)
}

func TestReadStringUnterminated(t *testing.T) {
	r := New([]byte("nonul"))
	_, err := r.ReadString()
	require.Error(t, err)
}

func TestDecompressIsIdempotent(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write([]byte("the quick brown fox"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r := New(append([]byte{0xAA, 0xBB}, compressed.Bytes()...))
	require.NoError(t, r.Advance(2))

	require.NoError(t, r.Decompress())
	require.Equal(t, "the quick brown fox", string(r.Bytes()))
	require.Equal(t, 0, r.Tell())

	// second call is a no-op even though the cursor moved
	require.NoError(t, r.Advance(4))
	require.NoError(t, r.Decompress())
	require.Equal(t, "the quick brown fox", string(r.Bytes()))
}

func TestInflate(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, _ = zw.Write([]byte{1, 2, 3, 4})
	require.NoError(t, zw.Close())

	out, err := Inflate(compressed.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestInflateFailsOnGarbage(t *testing.T) {
	_, err := Inflate([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
}
