/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gmaffy/genbank-qc/species"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [genbank]",
	Short: "Checks that the inputs of every species describe the same genomes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		g, _, err := genbankFromArgs(cmd, args, cfg)
		if err != nil {
			log.Fatalf("Error reading arguments: %v", err)
		}
		dirs, err := g.SpeciesDirs()
		if err != nil {
			log.Fatalf("Error listing species: %v", err)
		}

		stale := 0
		for _, dir := range dirs {
			res, err := species.New(dir, g.Tol).Check()
			name := filepath.Base(dir)
			if err != nil {
				fmt.Printf("%s\tERROR\t%v\n", name, err)
				stale++
				continue
			}
			if err := res.Err(); err != nil {
				fmt.Printf("%s\tSTALE\t%v\n", name, err)
				stale++
				continue
			}
			tree := "current"
			switch {
			case !res.TreeExists:
				tree = "missing"
			case !res.TreeMatchesStats:
				tree = "stale: " + res.Tree.String()
			}
			fmt.Printf("%s\tOK\ttree %s\n", name, tree)
		}
		if stale > 0 {
			log.Fatalf("%d of %d species need rebuilding", stale, len(dirs))
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
