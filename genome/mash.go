package genome

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaffy/genbank-qc/stats"
	"github.com/gmaffy/genbank-qc/utils"
)

// Mash drives the mash binary to build a species distance matrix. Sketches
// are kept in SketchDir so later runs only sketch new genomes.
type Mash struct {
	Bin       string
	SketchDir string
	// Verbose passes the mash output through to the terminal.
	Verbose bool
	Logger  *slog.Logger
}

func (m Mash) run(cmdStr string) error {
	if m.Verbose {
		return utils.RunBashCmdVerbose(cmdStr)
	}
	return utils.RunBashCmdQuiet(cmdStr)
}

func (m Mash) bin() string {
	if m.Bin != "" {
		return m.Bin
	}
	return utils.MashBin()
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// SketchPath is where the sketch of the genome at fastaPath is stored.
func (m Mash) SketchPath(fastaPath string) string {
	return filepath.Join(m.SketchDir, stats.CanonicalID(fastaPath)+".msh")
}

// Sketch creates missing sketches for paths.
func (m Mash) Sketch(ctx context.Context, paths []string) error {
	if err := os.MkdirAll(m.SketchDir, 0755); err != nil {
		return err
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := m.SketchPath(p)
		if _, err := os.Stat(out); err == nil {
			continue
		}
		cmdStr := fmt.Sprintf("%s sketch %s -o %s", m.bin(), quote(p), quote(strings.TrimSuffix(out, ".msh")))
		if err := m.run(cmdStr); err != nil {
			return fmt.Errorf("mash sketch %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// Paste merges the sketches of paths into a single sketch file and returns
// its path.
func (m Mash) Paste(paths []string) (string, error) {
	all := filepath.Join(m.SketchDir, "all.msh")
	if err := os.Remove(all); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	sketches := make([]string, len(paths))
	for i, p := range paths {
		sketches[i] = quote(m.SketchPath(p))
	}
	cmdStr := fmt.Sprintf("%s paste %s %s", m.bin(), quote(strings.TrimSuffix(all, ".msh")), strings.Join(sketches, " "))
	if err := m.run(cmdStr); err != nil {
		return "", fmt.Errorf("mash paste: %w", err)
	}
	return all, nil
}

// Dist writes the all-vs-all distance table of the pasted sketch to out,
// with labels reduced to genome ids.
func (m Mash) Dist(pasted, out string) (*stats.Matrix, error) {
	raw := out + ".raw"
	defer os.Remove(raw)
	cmdStr := fmt.Sprintf("%s dist -t %s %s > %s", m.bin(), quote(pasted), quote(pasted), quote(raw))
	if err := m.run(cmdStr); err != nil {
		return nil, fmt.Errorf("mash dist: %w", err)
	}
	dmx, err := stats.ReadMatrix(raw)
	if err != nil {
		return nil, err
	}
	if err := dmx.WriteTSV(out); err != nil {
		return nil, err
	}
	return dmx, nil
}

// Run sketches, pastes and measures paths, leaving the matrix at out.
func (m Mash) Run(ctx context.Context, paths []string, out string) (*stats.Matrix, error) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("mash: no genomes to measure")
	}
	logger.Info("QC", "PROGRAM", "MASH", "GENOMES", len(paths), "STATUS", utils.StatusStarted)
	if err := m.Sketch(ctx, paths); err != nil {
		return nil, err
	}
	pasted, err := m.Paste(paths)
	if err != nil {
		return nil, err
	}
	dmx, err := m.Dist(pasted, out)
	if err != nil {
		return nil, err
	}
	logger.Info("QC", "PROGRAM", "MASH", "GENOMES", dmx.Len(), "STATUS", utils.StatusCompleted)
	return dmx, nil
}
