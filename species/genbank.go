package species

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/utils"
	"golang.org/x/sync/errgroup"
)

// Genbank is a mirror directory holding one subdirectory per species.
type Genbank struct {
	Path    string
	Tol     filter.Tolerances
	Rebuild bool
	DryRun  bool
	// Only restricts the run to these species subdirectories.
	Only     []string
	LogLevel slog.Level
}

// SpeciesDirs returns the non-hidden subdirectories of the mirror, sorted.
func (g Genbank) SpeciesDirs() ([]string, error) {
	if len(g.Only) > 0 {
		dirs := make([]string, 0, len(g.Only))
		for _, name := range g.Only {
			dir := filepath.Join(g.Path, name)
			info, err := os.Stat(dir)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("%s is not a directory", dir)
			}
			dirs = append(dirs, dir)
		}
		return dirs, nil
	}

	entries, err := os.ReadDir(g.Path)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(g.Path, e.Name()))
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Species returns the job for dir with its own log file under qc/. The
// returned func closes that log.
func (g Genbank) Species(dir string, threads int) (*Species, func() error, error) {
	s := New(dir, g.Tol)
	s.Rebuild = g.Rebuild
	s.DryRun = g.DryRun
	s.Threads = threads
	s.Verbose = g.LogLevel <= slog.LevelDebug
	if err := os.MkdirAll(s.Layout().QC(), 0755); err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := utils.NewLogger(s.Layout().Log(), g.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	s.Logger = logger.With("SPECIES", s.Name)
	return s, closeLog, nil
}

// QC runs every species with at most threads running at once. A failing
// species does not stop the others; all failures are returned joined.
func (g Genbank) QC(ctx context.Context, threads int) error {
	dirs, err := g.SpeciesDirs()
	if err != nil {
		return err
	}

	perSpecies := 1
	if len(dirs) == 1 {
		perSpecies = threads
	}
	errs := make([]error, len(dirs))
	eg, ctx := errgroup.WithContext(ctx)
	if threads > 0 {
		eg.SetLimit(threads)
	}
	for i, dir := range dirs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			s, closeLog, err := g.Species(dir, perSpecies)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", filepath.Base(dir), err)
				return nil
			}
			defer closeLog()
			if _, err := s.QC(ctx); err != nil {
				errs[i] = err
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, err := range errs {
		if err != nil {
			slog.Error("QC", "PROGRAM", "GENBANK", "STATUS", utils.StatusFailed, "ERROR", err)
		}
	}
	return errors.Join(errs...)
}
