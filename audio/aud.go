// Package audio decodes Playdate AUD containers — PCM or IMA-ADPCM — into
// WAV byte streams. It always normalizes to decoded PCM before WAV
// emission (spec.md §4.6's "implementation strategy (a)"), which keeps the
// codec's output directly assertable sample-by-sample in tests regardless
// of how a given file packed its source audio.
package audio

import (
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/container"
	"github.com/scratchminer/pdkit/pderr"
	"github.com/scratchminer/pdkit/wav"
)

// Magic is the required magic at offset 0 of a standalone .pda/AUD file.
var Magic = []byte("Playdate AUD")

// Format enumerates the on-disk sample encodings.
type Format uint8

const (
	FormatMono8       Format = 0
	FormatStereo8     Format = 1
	FormatMono16      Format = 2
	FormatStereo16    Format = 3
	FormatMonoADPCM4  Format = 4
	FormatStereoADPCM Format = 5
)

func (f Format) isADPCM() bool { return f == FormatMonoADPCM4 || f == FormatStereoADPCM }

// File is a fully decoded audio stream, always normalized to PCM.
type File struct {
	FrameRate     uint32
	Fmt           Format
	Channels      int
	BitsPerSample int
	PCM           []byte

	// ADPCM source files carry their original block size for diagnostics;
	// it plays no further role once decoded to PCM.
	SourceBlockSize uint16
}

// ParseFile reads a standalone AUD file: magic, flags word, optional
// compressed header, then the audio body.
func ParseFile(r *binreader.Reader) (*File, error) {
	if _, err := container.Parse(r, container.Options{Format: "AUD", PrimaryMagic: Magic}); err != nil {
		return nil, err
	}
	return Parse(r)
}

// Parse decodes an audio body positioned just after any magic/flags/
// compressed-header preamble.
func Parse(r *binreader.Reader) (*File, error) {
	offset := int64(r.Tell())
	frameRate, err := r.ReadU24()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "AUD", "header", offset, "framerate")
	}
	fmtByte, err := r.ReadU8()
	if err != nil {
		return nil, pderr.Wrap(err, pderr.KindShortRead, "AUD", "header", offset, "fmt")
	}
	fmtv := Format(fmtByte)
	if fmtv > FormatStereoADPCM {
		return nil, pderr.Newf(pderr.KindBadFormat, "AUD", "header", offset, "fmt %d out of range", fmtByte)
	}

	channels := 1
	if fmtByte&1 == 1 {
		channels = 2
	}

	if fmtv.isADPCM() {
		blockOffset := int64(r.Tell())
		blockSize, err := r.ReadU16()
		if err != nil {
			return nil, pderr.Wrap(err, pderr.KindShortRead, "AUD", "header", blockOffset, "block_size")
		}
		payload := r.ReadBin(-1)
		pcm, err := decodeADPCM(payload, int(blockSize), channels)
		if err != nil {
			return nil, err
		}
		return &File{
			FrameRate: frameRate, Fmt: fmtv, Channels: channels,
			BitsPerSample: 16, PCM: pcm, SourceBlockSize: blockSize,
		}, nil
	}

	sampleWidth := 1
	if fmtByte >= 2 {
		sampleWidth = 2
	}
	payload := r.ReadBin(-1)
	return &File{
		FrameRate: frameRate, Fmt: fmtv, Channels: channels,
		BitsPerSample: sampleWidth * 8, PCM: payload,
	}, nil
}

// ToWAV renders the decoded PCM as a PCM WAV byte stream.
func (f *File) ToWAV() []byte {
	return wav.EncodePCM(f.FrameRate, uint16(f.Channels), uint16(f.BitsPerSample), f.PCM)
}
