package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/scratchminer/pdkit/archive"
	"github.com/scratchminer/pdkit/binreader"
	"github.com/scratchminer/pdkit/dispatch"
	"github.com/scratchminer/pdkit/imageenc"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <archive-or-dir> <outdir>",
	Short: "Materialize a PDZ archive or loose asset directory to a host filesystem",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, outdir := args[0], args[1]

		info, err := os.Stat(input)
		if err != nil {
			return err
		}

		var a *archive.Archive
		if info.IsDir() {
			a, err = dispatch.ParseDirectory(input)
		} else {
			var r *binreader.Reader
			r, err = binreader.FromFile(input)
			if err == nil {
				a, err = archive.ParseFile(r)
			}
		}
		if err != nil {
			return err
		}

		if err := a.Materialize(outdir, imageenc.StdEncoder{}); err != nil {
			return err
		}
		log.Info().Int("entries", a.Stats.Entries).Str("outdir", outdir).Msg("dumped archive")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
