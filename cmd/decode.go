package cmd

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scratchminer/pdkit/archive"
	"github.com/scratchminer/pdkit/dispatch"
	"github.com/scratchminer/pdkit/imageenc"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input> [output]",
	Short: "Decode a single Playdate asset to its mainstream counterpart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output := input
		if len(args) == 2 {
			output = args[1]
		} else if idx := strings.LastIndexByte(output, '.'); idx >= 0 {
			output = output[:idx]
		}

		fe, err := dispatch.ParseStandaloneFile(input)
		if err != nil {
			return err
		}

		written, err := archive.MaterializeOne(output, fe, imageenc.StdEncoder{})
		if err != nil {
			return err
		}
		for _, path := range written {
			log.Info().Str("output", path).Msg("wrote decoded asset")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
