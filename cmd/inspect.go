package cmd

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scratchminer/pdkit/archive"
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/dispatch"
	"github.com/scratchminer/pdkit/pdxbin"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Parse a Playdate asset and print a structural summary, without transcoding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdz":
		r, err := binreader.FromFile(path)
		if err != nil {
			return err
		}
		a, err := archive.ParseFile(r)
		if err != nil {
			return err
		}
		log.Info().Int("entries", a.Stats.Entries).Int("bytes", a.Stats.Bytes).
			Interface("by_kind", a.Stats.ByKind).Msg("archive")
		return nil

	case ".pdx", ".bin":
		r, err := binreader.FromFile(path)
		if err != nil {
			return err
		}
		bin, err := pdxbin.ParseFile(r)
		if err != nil {
			return err
		}
		log.Info().Int("version", bin.Version).Uint32("code_size", bin.CodeSize).
			Uint32("mem_size", bin.MemSize).Uint32("event_handler", bin.EventHandler).
			Int("relocations", len(bin.Relocations)).Msg("binary")
		return nil

	default:
		fe, err := dispatch.ParseStandaloneFile(path)
		if err != nil {
			return err
		}
		logEntrySummary(fe)
		return nil
	}
}

func logEntrySummary(fe *archive.FileEntry) {
	event := log.Info().Str("kind", fe.Kind.String())
	switch fe.Kind {
	case archive.KindIMG:
		event.Int("width", fe.Image.Width).Int("height", fe.Image.Height).Bool("has_alpha", fe.Image.HasAlpha)
	case archive.KindIMT:
		event.Int("num_images", fe.ImageTable.NumImages).Bool("is_matrix", fe.ImageTable.IsMatrix)
	case archive.KindVID:
		event.Int("num_frames", fe.Video.NumFrames).Float32("framerate", fe.Video.Framerate).
			Int("width", fe.Video.Width).Int("height", fe.Video.Height)
	case archive.KindAUD:
		event.Int("channels", fe.Audio.Channels).Int("bits_per_sample", fe.Audio.BitsPerSample).
			Uint32("framerate", fe.Audio.FrameRate)
	case archive.KindSTR:
		event.Int("num_entries", len(fe.Strings.Entries))
	case archive.KindFNT:
		event.Int("num_glyphs", len(fe.Font.Codepoints())).Int("max_width", fe.Font.MaxWidth).
			Int("max_height", fe.Font.MaxHeight)
	default:
		event.Int("bytes", len(fe.Raw))
	}
	event.Msg("asset")
}
