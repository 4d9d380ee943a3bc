/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/utils"
	"github.com/spf13/cobra"
)

// qcCmd represents the qc command
var qcCmd = &cobra.Command{
	Use:   "qc [genbank]",
	Short: "Filters outlier genomes of every species",
	Long: `Filters the genomes of every species directory through four criteria in
order: unknown bases (hard cutoff), contigs, assembly size and mean MASH
distance (median absolute deviation bounds). Results are written to
<species>/qc/<max_unknowns>-<contigs>-<assembly_size>-<distance>/.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		g, threads, err := genbankFromArgs(cmd, args, cfg)
		if err != nil {
			log.Fatalf("Error reading arguments: %v", err)
		}
		tol, err := tolerancesFromFlags(cmd, cfg)
		if err != nil {
			log.Fatalf("Error reading tolerances: %v", err)
		}
		g.Tol = tol

		if g.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
			log.Fatalf("Error getting dry-run flag: %v", err)
		}
		if g.Rebuild, err = cmd.Flags().GetBool("rebuild"); err != nil {
			log.Fatalf("Error getting rebuild flag: %v", err)
		}
		if !cmd.Flags().Changed("rebuild") && cfg.Rebuild {
			g.Rebuild = true
		}

		fmt.Printf("Running with the following parameters:\nGenbank: %s\nLabel: %s\nThreads: %d\nRebuild: %v\nDry run: %v\n\n",
			g.Path, tol.Label(), threads, g.Rebuild, g.DryRun)
		if err := g.QC(cmd.Context(), threads); err != nil {
			log.Fatalf("QC failed: %v", err)
		}
	},
}

// tolerancesFromFlags starts from the defaults, applies the config file and
// then every flag set on the command line. A filter level sets the three
// deviation tolerances before the individual values are applied.
func tolerancesFromFlags(cmd *cobra.Command, cfg utils.Config) (filter.Tolerances, error) {
	tol := filter.DefaultTolerances()
	if cfg.FilterLevel != nil {
		tol = tol.WithFilterLevel(*cfg.FilterLevel)
	}
	if cfg.MaxUnknowns != nil {
		tol.MaxUnknowns = *cfg.MaxUnknowns
	}
	if cfg.Contigs != nil {
		tol.Contigs = *cfg.Contigs
	}
	if cfg.AssemblySize != nil {
		tol.AssemblySize = *cfg.AssemblySize
	}
	if cfg.Distance != nil {
		tol.Distance = *cfg.Distance
	}

	flags := cmd.Flags()
	if flags.Changed("filter-level") {
		level, err := flags.GetFloat64("filter-level")
		if err != nil {
			return tol, err
		}
		tol = tol.WithFilterLevel(level)
	}
	if flags.Changed("max_unknowns") {
		n, err := flags.GetInt("max_unknowns")
		if err != nil {
			return tol, err
		}
		tol.MaxUnknowns = n
	}
	for name, dst := range map[string]*float64{
		"c-deviations": &tol.Contigs,
		"s-deviations": &tol.AssemblySize,
		"m-deviations": &tol.Distance,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return tol, err
		}
		*dst = v
	}
	return tol, tol.Validate()
}

func addToleranceFlags(cmd *cobra.Command) {
	def := filter.DefaultTolerances()
	cmd.Flags().IntP("max_unknowns", "n", def.MaxUnknowns, "maximum number of unknown bases")
	cmd.Flags().Float64P("c-deviations", "c", def.Contigs, "deviations allowed for contigs")
	cmd.Flags().Float64P("s-deviations", "s", def.AssemblySize, "deviations allowed for assembly size")
	cmd.Flags().Float64P("m-deviations", "m", def.Distance, "deviations allowed for MASH distance")
	cmd.Flags().Float64P("filter-level", "l", def.Contigs, "deviations allowed for contigs, assembly size and MASH distance")
}

func init() {
	rootCmd.AddCommand(qcCmd)

	addToleranceFlags(qcCmd)
	qcCmd.Flags().BoolP("dry-run", "d", false, "report what would be done without writing results")
	qcCmd.Flags().Bool("rebuild", false, "rebuild missing or stale stats.csv and dmx.csv")
}
