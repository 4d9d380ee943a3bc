// Package species runs the quality control of one species directory and of
// a whole mirror of species directories.
package species

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gmaffy/genbank-qc/cache"
	"github.com/gmaffy/genbank-qc/consistency"
	"github.com/gmaffy/genbank-qc/filter"
	"github.com/gmaffy/genbank-qc/genome"
	"github.com/gmaffy/genbank-qc/report"
	"github.com/gmaffy/genbank-qc/stats"
	"github.com/gmaffy/genbank-qc/utils"
)

// Species is the quality control job of one species directory.
type Species struct {
	Path string
	Name string
	Tol  filter.Tolerances
	// Rebuild lets QC regenerate missing or stale stats.csv and dmx.csv.
	Rebuild bool
	// DryRun logs what QC would do without touching the results.
	DryRun  bool
	Threads int
	Verbose bool

	Logger   *slog.Logger
	Filterer filter.Filterer
	Mash     *genome.Mash
}

// New returns a species job for dir with the name taken from its base name.
func New(dir string, tol filter.Tolerances) *Species {
	return &Species{Path: dir, Name: filepath.Base(dir), Tol: tol}
}

func (s *Species) Layout() Layout {
	return Layout{Dir: s.Path, Label: s.Tol.Label()}
}

func (s *Species) logger() *slog.Logger {
	if s.Logger == nil {
		s.Logger = slog.Default().With("SPECIES", s.Name)
	}
	return s.Logger
}

func (s *Species) mash() genome.Mash {
	if s.Mash != nil {
		return *s.Mash
	}
	return genome.Mash{SketchDir: s.Layout().Sketches(), Verbose: s.Verbose, Logger: s.logger()}
}

// Outcome summarises a QC run.
type Outcome struct {
	Label       string
	Total       int
	Passed      int
	Failed      int
	Cached      bool
	Consistency consistency.Result
}

// inputs are the loaded files of a species directory.
type inputs struct {
	fastas map[string]string
	table  *stats.Table
	matrix *stats.Matrix
	tree   []string
}

// QC filters the species and writes its results under qc/<label>.
func (s *Species) QC(ctx context.Context) (*Outcome, error) {
	logger := s.logger()
	layout := s.Layout()
	label := layout.Label
	logger.Info("QC", "PROGRAM", "QC", "LABEL", label, "STATUS", utils.StatusStarted)

	in, res, err := s.prepare(ctx, layout)
	if err != nil {
		logger.Error("QC", "PROGRAM", "QC", "LABEL", label, "STATUS", utils.StatusFailed, "ERROR", err)
		return nil, err
	}
	out := &Outcome{Label: label, Total: in.table.Len(), Consistency: res}

	if s.DryRun {
		out.Cached = cache.IsCurrent(layout.Results(), label, in.table)
		logger.Info("QC", "PROGRAM", "QC", "LABEL", label, "STATUS", utils.StatusSkipped,
			"REASON", "dry run", "GENOMES", in.table.Len(), "CACHED", out.Cached, "RESULTS", layout.Results())
		return out, nil
	}

	if err := os.MkdirAll(layout.Results(), 0755); err != nil {
		return nil, err
	}
	f := s.Filterer
	if f == nil {
		f = filter.Pipeline{Logger: logger.With("LABEL", label)}
	}
	state, cached, err := cache.RunIdempotent(f, layout.Results(), in.table, s.Tol, logger)
	if err != nil {
		logger.Error("QC", "PROGRAM", "FILTER", "LABEL", label, "STATUS", utils.StatusFailed, "ERROR", err)
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	out.Cached = cached
	out.Passed = state.Passed.Len()
	out.Failed = state.FailedCount()

	if err := s.writeResults(layout, in, res, state, cached); err != nil {
		logger.Error("QC", "PROGRAM", "REPORT", "LABEL", label, "STATUS", utils.StatusFailed, "ERROR", err)
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	logger.Info("QC", "PROGRAM", "QC", "LABEL", label, "STATUS", utils.StatusCompleted,
		"PASSED", out.Passed, "FAILED", out.Failed, "STAGES", len(state.Evaluated()), "CACHED", cached)
	return out, nil
}

// prepare loads every input and runs the consistency gate, rebuilding stats
// and the distance matrix when allowed.
func (s *Species) prepare(ctx context.Context, layout Layout) (*inputs, consistency.Result, error) {
	paths, err := genome.FindFASTAs(s.Path)
	if err != nil {
		return nil, consistency.Result{}, err
	}
	in := &inputs{fastas: make(map[string]string, len(paths))}
	for _, p := range paths {
		in.fastas[stats.CanonicalID(p)] = p
	}

	if err := s.load(in, layout); err != nil {
		if !errors.Is(err, stats.ErrNotBuilt) || !s.Rebuild || s.DryRun {
			return nil, consistency.Result{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		s.logger().Info("QC", "PROGRAM", "STATS", "STATUS", utils.StatusStarted, "REASON", err.Error())
		if err := s.rebuild(ctx, layout, paths); err != nil {
			return nil, consistency.Result{}, err
		}
		if err := s.load(in, layout); err != nil {
			return nil, consistency.Result{}, err
		}
	}

	res := s.check(in)
	if err := res.Err(); err != nil {
		if !s.Rebuild || s.DryRun {
			s.logger().Warn("QC", "PROGRAM", "CONSISTENCY", "STATUS", utils.StatusSkipped, "REASON", err.Error())
			return nil, res, fmt.Errorf("%s: %w", s.Name, err)
		}
		s.logger().Info("QC", "PROGRAM", "STATS", "STATUS", utils.StatusStarted, "REASON", err.Error())
		if err := s.rebuild(ctx, layout, paths); err != nil {
			return nil, res, err
		}
		if err := s.load(in, layout); err != nil {
			return nil, res, err
		}
		res = s.check(in)
		if err := res.Err(); err != nil {
			return nil, res, fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	if res.TreeExists && !res.TreeMatchesStats {
		s.logger().Warn("QC", "PROGRAM", "TREE", "STATUS", "STALE", "TREE_DIFF", res.Tree.String())
	}
	return in, res, nil
}

func (s *Species) load(in *inputs, layout Layout) error {
	var err error
	if in.table, err = stats.Load(layout.Stats()); err != nil {
		return err
	}
	if in.matrix, err = stats.ReadMatrix(layout.Matrix()); err != nil {
		return err
	}
	if err := in.matrix.Validate(1e-9); err != nil {
		s.logger().Warn("QC", "PROGRAM", "MASH", "STATUS", "ASYMMETRIC", "ERROR", err)
	}
	in.tree, err = consistency.ReadTreeLeaves(layout.Tree())
	if err != nil {
		if !errors.Is(err, stats.ErrNotBuilt) {
			s.logger().Warn("QC", "PROGRAM", "TREE", "STATUS", "UNREADABLE", "ERROR", err)
		}
		in.tree = nil
	}
	return nil
}

func (s *Species) check(in *inputs) consistency.Result {
	disk := make(map[string]struct{}, len(in.fastas))
	for id := range in.fastas {
		disk[id] = struct{}{}
	}
	return consistency.Check(consistency.Sources{
		Stats:  in.table.GenomeIDs(),
		Matrix: in.matrix.GenomeIDs(),
		Disk:   disk,
		Tree:   in.tree,
	})
}

// rebuild regenerates the distance matrix when it no longer covers the
// genomes on disk, then measures every FASTA and writes stats.csv.
func (s *Species) rebuild(ctx context.Context, layout Layout, paths []string) error {
	logger := s.logger()
	if err := os.MkdirAll(layout.QC(), 0755); err != nil {
		return err
	}

	dmx, err := stats.ReadMatrix(layout.Matrix())
	entries := utils.ParseLogFile(layout.Log())
	reuse := err == nil && utils.StageHasCompleted(entries, "MASH", s.Name, "") &&
		consistency.Check(consistency.Sources{
			Stats:  consistency.IDSet(idsOf(paths)),
			Matrix: dmx.GenomeIDs(),
			Disk:   consistency.IDSet(idsOf(paths)),
		}).MatrixMatchesStats
	if reuse {
		logger.Info("QC", "PROGRAM", "MASH", "STATUS", utils.StatusSkipped, "REASON", "already completed")
	} else {
		if s.Mash == nil {
			if err := utils.CheckDeps(); err != nil {
				return err
			}
		}
		if dmx, err = s.mash().Run(ctx, paths, layout.Matrix()); err != nil {
			logger.Error("QC", "PROGRAM", "MASH", "STATUS", utils.StatusFailed, "ERROR", err)
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}

	logger.Info("QC", "PROGRAM", "METRICS", "GENOMES", len(paths), "STATUS", utils.StatusStarted)
	metrics, err := genome.CollectMetrics(ctx, paths, s.Threads)
	if err != nil {
		logger.Error("QC", "PROGRAM", "METRICS", "STATUS", utils.StatusFailed, "ERROR", err)
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	table, err := stats.Build(metrics, dmx)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	if err := table.WriteCSV(layout.Stats()); err != nil {
		return err
	}
	logger.Info("QC", "PROGRAM", "METRICS", "GENOMES", table.Len(), "STATUS", utils.StatusCompleted)
	return nil
}

// RebuildStats regenerates stats.csv and dmx.csv from the FASTA files.
func (s *Species) RebuildStats(ctx context.Context) error {
	paths, err := genome.FindFASTAs(s.Path)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("%s: no genome files", s.Name)
	}
	return s.rebuild(ctx, s.Layout(), paths)
}

// Check loads the inputs of the species and compares their genome sets.
func (s *Species) Check() (consistency.Result, error) {
	paths, err := genome.FindFASTAs(s.Path)
	if err != nil {
		return consistency.Result{}, err
	}
	in := &inputs{fastas: make(map[string]string, len(paths))}
	for _, p := range paths {
		in.fastas[stats.CanonicalID(p)] = p
	}
	if err := s.load(in, s.Layout()); err != nil {
		return consistency.Result{}, err
	}
	return s.check(in), nil
}

func idsOf(paths []string) []string {
	ids := make([]string, len(paths))
	for i, p := range paths {
		ids[i] = stats.CanonicalID(p)
	}
	return ids
}

func missing(path string) bool {
	_, err := os.Stat(path)
	return err != nil
}

// writeResults persists the reports. On a cache hit only missing files are
// written again.
func (s *Species) writeResults(layout Layout, in *inputs, res consistency.Result, state *filter.State, cached bool) error {
	rep, err := report.Build(state)
	if err != nil {
		return err
	}
	if !cached || missing(layout.Failed()) {
		if err := report.WriteFailed(layout.Failed(), rep); err != nil {
			return err
		}
	}
	if !cached || missing(layout.Summary()) {
		if err := report.WriteSummary(layout.Summary(), report.Summarize(state, s.Tol)); err != nil {
			return err
		}
	}
	if !cached || missing(layout.Chart()) {
		if err := s.writeChart(layout, in.table, state); err != nil {
			return err
		}
	}
	if res.TreeExists && res.TreeMatchesStats {
		if err := report.WriteAnnotation(layout.Annotation(), report.Annotate(rep)); err != nil {
			return err
		}
	}
	return LinkPassed(layout.Passed(), in.fastas, state.Passed)
}

func (s *Species) writeChart(layout Layout, table *stats.Table, state *filter.State) error {
	tmp, err := os.CreateTemp(layout.Results(), ".report.html.tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := report.RenderChart(tmp, table, state, s.Tol); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), layout.Chart())
}

// LinkPassed replaces dir with symlinks to the FASTA file of every passed
// genome.
func LinkPassed(dir string, fastas map[string]string, passed *stats.Table) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, id := range passed.IDs() {
		src, ok := fastas[id]
		if !ok {
			return fmt.Errorf("link passed: no genome file for %s", id)
		}
		abs, err := filepath.Abs(src)
		if err != nil {
			return err
		}
		if err := os.Symlink(abs, filepath.Join(dir, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}
