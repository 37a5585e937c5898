// Package wav assembles RIFF/WAVE byte streams. Emitting PNG/GIF/WAV is an
// external collaborator per spec.md §1, but the exact byte layout for WAV is
// pinned precisely enough by spec.md §6/§8 (scenario 3's literal 44-byte
// header) that it is mechanical framing rather than a generic audio codec
// concern — no example repo in the retrieval pack ships a WAV encoder, so
// this is hand-rolled on encoding/binary, the same little-endian field
// packing style binreader.Reader uses for parsing.
package wav

import (
	"bytes"
	"encoding/binary"
)

const (
	tagPCM   uint16 = 0x0001
	tagADPCM uint16 = 0x0011
)

// EncodePCM assembles a canonical 44-byte-header PCM WAV file.
func EncodePCM(sampleRate uint32, channels, bitsPerSample uint16, data []byte) []byte {
	blockAlign := channels * (bitsPerSample / 8)
	byteRate := sampleRate * uint32(blockAlign)

	const fmtChunkSize = 16
	var buf bytes.Buffer
	writeRIFFHeader(&buf, riffContentSize(fmtChunkSize, len(data)))
	writeFmtChunk(&buf, tagPCM, channels, sampleRate, byteRate, blockAlign, bitsPerSample, nil)
	writeDataChunk(&buf, data)
	return buf.Bytes()
}

// riffContentSize computes the RIFF chunk's size field: the whole file
// minus the 8-byte "RIFF"+size prefix, i.e. "WAVE" + fmt chunk (with its
// own 8-byte tag+size header) + data chunk (with its own 8-byte header).
func riffContentSize(fmtChunkSize, dataSize int) int {
	return 4 + 8 + fmtChunkSize + 8 + dataSize
}

// EncodeADPCM assembles an IMA-ADPCM WAV file (wFormatTag=0x0011),
// preserving the original block alignment and writing the caller-supplied
// samplesPerBlock as nSamplesPerBlock.
func EncodeADPCM(sampleRate uint32, channels, blockAlign, samplesPerBlock uint16, data []byte) []byte {
	byteRate := sampleRate * uint32(blockAlign) / uint32(samplesPerBlockOrOne(samplesPerBlock))
	// IMA ADPCM byte rate is approximated from blocks/sec * blockAlign;
	// samplesPerBlock acts as the block's sample-duration divisor.
	extra := make([]byte, 2)
	binary.LittleEndian.PutUint16(extra, samplesPerBlock)

	var buf bytes.Buffer
	fmtSize := 16 + 2 + len(extra)
	writeRIFFHeader(&buf, riffContentSize(fmtSize, len(data)))
	writeFmtChunk(&buf, tagADPCM, channels, sampleRate, byteRate, blockAlign, 4, extra)
	writeDataChunk(&buf, data)
	return buf.Bytes()
}

func samplesPerBlockOrOne(n uint16) uint16 {
	if n == 0 {
		return 1
	}
	return n
}

func writeRIFFHeader(buf *bytes.Buffer, contentSize int) {
	buf.WriteString("RIFF")
	writeU32(buf, uint32(contentSize))
	buf.WriteString("WAVE")
}

func writeFmtChunk(buf *bytes.Buffer, tag, channels uint16, sampleRate, byteRate uint32, blockAlign, bitsPerSample uint16, extra []byte) {
	buf.WriteString("fmt ")
	chunkSize := 16
	if extra != nil {
		chunkSize += 2 + len(extra)
	}
	writeU32(buf, uint32(chunkSize))
	writeU16(buf, tag)
	writeU16(buf, channels)
	writeU32(buf, sampleRate)
	writeU32(buf, byteRate)
	writeU16(buf, blockAlign)
	writeU16(buf, bitsPerSample)
	if extra != nil {
		writeU16(buf, uint16(len(extra)))
		buf.Write(extra)
	}
}

func writeDataChunk(buf *bytes.Buffer, data []byte) {
	buf.WriteString("data")
	writeU32(buf, uint32(len(data)))
	buf.Write(data)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
