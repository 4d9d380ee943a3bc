/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/species"
	"github.com/gmaffy/genbank-qc/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "genbankqc",
	Short: "Outlier quality control for GenBank genome assemblies",
	Long: `Quality control for a local mirror of draft genome assemblies, one
directory per species:
1.	stats: measure every FASTA and build the mash distance matrix
2.	check: compare the genomes known to stats.csv, dmx.csv, tree.nw and disk
3.	qc: reject outliers by unknown bases, contigs, assembly size and MASH distance
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "path to config file")
	rootCmd.PersistentFlags().StringSlice("subdir", nil, "only process these species directories")
	rootCmd.PersistentFlags().IntP("threads", "t", 1, "number of species processed at once")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log filter stages")
}

// readConfig returns the config file values, or an empty config when no
// file was given.
func readConfig() (utils.Config, error) {
	if cfgFile == "" {
		return utils.Config{}, nil
	}
	cfg, err := utils.ReadConfig(cfgFile)
	if err != nil {
		return cfg, err
	}
	if cfg.Mash != "" {
		if err := os.Setenv("MASH", cfg.Mash); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// genbankFromArgs resolves the mirror path from the first argument or the
// config file.
func genbankFromArgs(cmd *cobra.Command, args []string, cfg utils.Config) (species.Genbank, int, error) {
	g := species.Genbank{Path: cfg.Genbank, LogLevel: slog.LevelInfo}
	if len(args) > 0 {
		g.Path = args[0]
	}
	if g.Path == "" {
		return g, 0, errors.New("no genbank directory given")
	}

	subdirs, err := cmd.Flags().GetStringSlice("subdir")
	if err != nil {
		return g, 0, err
	}
	g.Only = subdirs

	threads, err := cmd.Flags().GetInt("threads")
	if err != nil {
		return g, 0, err
	}
	if !cmd.Flags().Changed("threads") && cfg.Threads > 0 {
		threads = cfg.Threads
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return g, 0, err
	}
	if verbose {
		g.LogLevel = slog.LevelDebug
	}
	g.Tol = filter.DefaultTolerances()
	return g, threads, nil
}
