/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/gmaffy/genbank-qc/utils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [genbank]",
	Short: "Builds stats.csv and dmx.csv for every species",
	Long: `Sketches every FASTA with mash, writes the pairwise distance matrix to
<species>/qc/dmx.csv and the per genome metrics (unknown bases, contigs,
assembly size, mean MASH distance) to <species>/qc/stats.csv.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Checking dependencies ...\n\n")
		cfg, err := readConfig()
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		if err := utils.CheckDeps(); err != nil {
			log.Fatalf("Dependency check failed: %v", err)
		}
		fmt.Printf("Dependencies OK\n\n----------------------------------------------------------\n\n")

		g, threads, err := genbankFromArgs(cmd, args, cfg)
		if err != nil {
			log.Fatalf("Error reading arguments: %v", err)
		}
		dirs, err := g.SpeciesDirs()
		if err != nil {
			log.Fatalf("Error listing species: %v", err)
		}

		errs := make([]error, len(dirs))
		eg, ctx := errgroup.WithContext(cmd.Context())
		eg.SetLimit(max(threads, 1))
		for i, dir := range dirs {
			eg.Go(func() error {
				s, closeLog, err := g.Species(dir, 1)
				if err != nil {
					errs[i] = err
					return nil
				}
				defer closeLog()
				errs[i] = s.RebuildStats(ctx)
				return nil
			})
		}
		_ = eg.Wait()
		if err := errors.Join(errs...); err != nil {
			log.Fatalf("Building stats failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
