package audio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scratchminer/pdkit/binreader"
)

// scenario 3 from spec.md §8: AUD mono 8-bit PCM.
func TestParsePCMScenario3(t *testing.T) {
	buf := []byte("Playdate AUD")
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // flags, uncompressed
	buf = append(buf,
		0x40, 0x1F, 0x00, // framerate = 8000 (u24 LE)
		0x00, // fmt = MONO_8
	)
	buf = append(buf, 0x7F, 0x80, 0x00, 0xFF)

	file, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, uint32(8000), file.FrameRate)
	require.Equal(t, 1, file.Channels)
	require.Equal(t, 8, file.BitsPerSample)
	require.Equal(t, []byte{0x7F, 0x80, 0x00, 0xFF}, file.PCM)

	w := file.ToWAV()
	require.Len(t, w, 44+4)
	require.Equal(t, []byte{0x7F, 0x80, 0x00, 0xFF}, w[44:])
}

func TestRejectsOutOfRangeFormat(t *testing.T) {
	buf := []byte("Playdate AUD")
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, 0, 0, 0, 0x06) // fmt = 6, out of range
	_, err := ParseFile(binreader.New(buf))
	require.Error(t, err)
}

// scenario 4 from spec.md §8: ADPCM mono, block_size=8.
func TestDecodeADPCMScenario4(t *testing.T) {
	buf := []byte("Playdate AUD")
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, 0x00, 0x00, 0x00, 0x04) // framerate=0, fmt=MONO_ADPCM4
	buf = append(buf, 0x08, 0x00)             // block_size = 8
	// block header: predictor=0, step_index=0, pad=0
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)
	// 4 payload bytes -> 8 nibbles, high nibble of each byte decoded first
	buf = append(buf, 0x08, 0x00, 0x00, 0x00)

	file, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, 16, file.BitsPerSample)
	require.Equal(t, uint16(8), file.SourceBlockSize)

	samples := pcmToSamples(file.PCM)
	require.Len(t, samples, 9) // 1 initial + 8 nibbles

	require.Equal(t, int16(0), samples[0]) // initial predictor

	for _, s := range samples[1:] {
		require.GreaterOrEqual(t, s, int16(minPredictor))
		require.LessOrEqual(t, s, int16(maxPredictor))
	}
}

func TestADPCMStereoInterleaving(t *testing.T) {
	buf := []byte("Playdate AUD")
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, 0, 0, 0, 0x05) // fmt = STEREO_ADPCM4
	buf = append(buf, 0x0C, 0x00)    // block_size = 12 (header 8 + 4 nibble bytes)
	// per-channel header: L(predictor=0,step=0,pad),  R(predictor=0,step=0,pad)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // 4 nibble bytes

	file, err := ParseFile(binreader.New(buf))
	require.NoError(t, err)
	require.Equal(t, 2, file.Channels)

	samples := pcmToSamples(file.PCM)
	// 2 initial (L,R) + 4 bytes * 2 samples = 10
	require.Len(t, samples, 10)
}

func TestADPCMPayloadNotMultipleOfBlockSizeErrors(t *testing.T) {
	buf := []byte("Playdate AUD")
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, 0, 0, 0, 0x04)
	buf = append(buf, 0x08, 0x00)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00, 0x00) // 5 bytes, not a multiple of 8
	_, err := ParseFile(binreader.New(buf))
	require.Error(t, err)
}

func pcmToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return out
}
