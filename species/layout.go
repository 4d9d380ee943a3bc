package species

import (
	"path/filepath"

	"github.com/gmaffy/genbank-qc/cache"
	"github.com/gmaffy/genbank-qc/report"
)

const (
	QCDir      = "qc"
	StatsFile  = "stats.csv"
	MatrixFile = "dmx.csv"
	TreeFile   = "tree.nw"
	LogFile    = "genbankqc.log"
	PassedDir  = "passed"
	SketchDir  = "sketches"
)

// Layout locates the inputs and results of one species directory:
//
//	<dir>/*.fasta
//	<dir>/qc/{stats.csv,dmx.csv,tree.nw,genbankqc.log,sketches/}
//	<dir>/qc/<label>/{failed.csv,summary.txt,allowed.yaml,report.html,annotation.tsv,passed/}
type Layout struct {
	Dir   string
	Label string
}

func (l Layout) QC() string         { return filepath.Join(l.Dir, QCDir) }
func (l Layout) Stats() string      { return filepath.Join(l.QC(), StatsFile) }
func (l Layout) Matrix() string     { return filepath.Join(l.QC(), MatrixFile) }
func (l Layout) Tree() string       { return filepath.Join(l.QC(), TreeFile) }
func (l Layout) Log() string        { return filepath.Join(l.QC(), LogFile) }
func (l Layout) Sketches() string   { return filepath.Join(l.QC(), SketchDir) }
func (l Layout) Results() string    { return filepath.Join(l.QC(), l.Label) }
func (l Layout) Failed() string     { return filepath.Join(l.Results(), report.FailedFile) }
func (l Layout) Summary() string    { return filepath.Join(l.Results(), report.SummaryFile) }
func (l Layout) Record() string     { return cache.Path(l.Results()) }
func (l Layout) Chart() string      { return filepath.Join(l.Results(), report.ChartFile) }
func (l Layout) Annotation() string { return filepath.Join(l.Results(), report.AnnotationFile) }
func (l Layout) Passed() string     { return filepath.Join(l.Results(), PassedDir) }
