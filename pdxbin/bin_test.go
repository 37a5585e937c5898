package pdxbin

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/binreader"
)

func zlibBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildV2(t *testing.T, code []byte, relocs []uint32) []byte {
	t.Helper()
	var body []byte
	body = append(body, code...)
	for _, r := range relocs {
		body = append(body, byte(r), byte(r>>8), byte(r>>16), byte(r>>24))
	}
	compressed := zlibBytes(t, body)

	buf := append([]byte{}, MagicPrimary...)
	buf = append(buf, 0, 0, 0, 0) // bitflags
	buf = append(buf, make([]byte, 16)...) // md5
	codeSize := uint32(len(code))
	memSize := codeSize + 4
	eventHandler := uint32(0x20)
	relocCount := uint32(len(relocs))
	buf = appendU32(buf, codeSize)
	buf = appendU32(buf, memSize)
	buf = appendU32(buf, eventHandler)
	buf = appendU32(buf, relocCount)
	buf = append(buf, compressed...)
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func TestParseV2(t *testing.T) {
	code := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	buf := buildV2(t, code, []uint32{0x04, 0x08})

	bin, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, 2, bin.Version)
	require.False(t, bin.MatchedSecondary)
	require.Equal(t, code, bin.Code)
	require.Equal(t, []uint32{0x04, 0x08}, bin.Relocations)
	require.Equal(t, uint32(0x20), bin.EventHandler)
	require.Equal(t, uint32(len(code)+4), bin.MemSize)
}

func TestParseV2SecondaryMagic(t *testing.T) {
	buf := buildV2(t, []byte{0x01}, nil)
	copy(buf[:12], MagicSecondary)

	bin, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.True(t, bin.MatchedSecondary)
}

func TestParseLegacy(t *testing.T) {
	eventHandler := legacyBase + 0x100
	filesz := legacyBase + 8
	memsz := legacyBase + 16
	var buf []byte
	buf = appendU32(buf, eventHandler)
	buf = appendU32(buf, filesz)
	buf = appendU32(buf, memsz)
	code := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	buf = append(buf, code...)

	bin, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, 1, bin.Version)
	require.Equal(t, uint32(0x100), bin.EventHandler)
	require.Equal(t, uint32(8), bin.CodeSize)
	require.Equal(t, uint32(16), bin.MemSize)
	require.Equal(t, code, bin.Code)
}

func TestParseLegacyBelowBaseErrors(t *testing.T) {
	var buf []byte
	buf = appendU32(buf, 0x10)
	buf = appendU32(buf, 0x20)
	buf = appendU32(buf, 0x30)
	_, err := ParseFile(binreader.New(buf))
	require.Error(t, err)
}
