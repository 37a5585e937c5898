package audio

import (
	"encoding/binary"

	"github.com/scratchminer/pdkit/pderr"
)

// stepTable is the canonical 89-entry IMA ADPCM step size table.
var stepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// indexTable is [-1,-1,-1,-1,2,4,6,8] repeated twice: the nibble's sign bit
// (bit 3) doesn't change the step-index delta, only the predictor sign.
var indexTable = [16]int32{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

// minPredictor/maxPredictor use the symmetric clamp spec.md §9 pins for
// this codec family (not the two's-complement -32768).
const (
	minPredictor = -32767
	maxPredictor = 32767
)

type adpcmChannel struct {
	predictor int32
	stepIndex int32
}

func newADPCMChannel(predictor int16, stepIndex uint8) adpcmChannel {
	idx := int32(stepIndex)
	if idx < 0 {
		idx = 0
	}
	if idx > 88 {
		idx = 88
	}
	return adpcmChannel{predictor: int32(predictor), stepIndex: idx}
}

// decode applies one nibble, mutating channel state, and returns the new
// predictor clamped to [-32767, 32767].
func (c *adpcmChannel) decode(nibble uint8) int16 {
	step := stepTable[c.stepIndex]

	diff := step >> 3
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&1 != 0 {
		diff += step >> 2
	}

	if nibble&8 != 0 {
		c.predictor -= diff
	} else {
		c.predictor += diff
	}
	if c.predictor < minPredictor {
		c.predictor = minPredictor
	}
	if c.predictor > maxPredictor {
		c.predictor = maxPredictor
	}

	c.stepIndex += indexTable[nibble]
	if c.stepIndex < 0 {
		c.stepIndex = 0
	}
	if c.stepIndex > 88 {
		c.stepIndex = 88
	}

	return int16(c.predictor)
}

// decodeADPCM decodes a concatenation of IMA-ADPCM blocks into interleaved
// little-endian 16-bit PCM. Per block: a (predictor, step_index, pad) header
// per channel, then packed nibbles. Within a byte the high nibble is decoded
// before the low nibble, matching the device-accurate reference decoder and
// the stereo path below.
func decodeADPCM(payload []byte, blockSize, channels int) ([]byte, error) {
	headerSize := 4 * channels
	if blockSize <= headerSize {
		return nil, pderr.Newf(pderr.KindBadFormat, "AUD", "adpcm", -1, "block_size %d too small for %d channel header(s)", blockSize, channels)
	}
	if len(payload)%blockSize != 0 {
		return nil, pderr.Newf(pderr.KindSizeMismatch, "AUD", "adpcm", -1, "payload length %d is not a multiple of block_size %d", len(payload), blockSize)
	}

	var out []byte
	appendSample := func(s int16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(s))
		out = append(out, b[0], b[1])
	}

	for pos := 0; pos+blockSize <= len(payload); pos += blockSize {
		block := payload[pos : pos+blockSize]

		channelState := make([]adpcmChannel, channels)
		for c := 0; c < channels; c++ {
			predictor := int16(binary.LittleEndian.Uint16(block[c*4 : c*4+2]))
			stepIdx := block[c*4+2]
			channelState[c] = newADPCMChannel(predictor, stepIdx)
		}
		for c := 0; c < channels; c++ {
			appendSample(int16(channelState[c].predictor))
		}

		nibbles := block[headerSize:]
		if channels == 1 {
			for _, b := range nibbles {
				appendSample(channelState[0].decode(b >> 4))
				appendSample(channelState[0].decode(b & 0x0F))
			}
		} else {
			for _, b := range nibbles {
				l := channelState[0].decode(b >> 4)
				r := channelState[1].decode(b & 0x0F)
				appendSample(l)
				appendSample(r)
			}
		}
	}

	return out, nil
}
