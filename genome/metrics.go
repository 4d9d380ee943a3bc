// Package genome measures FASTA assemblies and builds the mash distance
// matrix for a species directory.
package genome

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/gmaffy/genbank-qc/stats"
	"golang.org/x/sync/errgroup"
)

var fastaExts = []string{".fasta", ".fna", ".fa", ".fas"}

// IsFASTA reports whether name carries a FASTA extension, optionally gzipped.
func IsFASTA(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	for _, ext := range fastaExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// FindFASTAs returns the FASTA files directly inside dir, sorted by name.
// Hidden files are ignored.
func FindFASTAs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsFASTA(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Metrics reads the FASTA at path. Contigs is the number of records, the
// assembly size their summed length and unknowns every letter other than
// A, T, C or G.
func Metrics(path string) (stats.Metrics, error) {
	fna, err := os.Open(path)
	if err != nil {
		return stats.Metrics{}, err
	}
	defer fna.Close()

	var reader io.Reader = fna
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(fna)
		if err != nil {
			return stats.Metrics{}, fmt.Errorf("%s: %w", path, err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	m := stats.Metrics{ID: stats.CanonicalID(path)}
	sc := seqio.NewScanner(fasta.NewReader(reader, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		m.Contigs++
		m.AssemblySize += s.Len()
		for _, l := range s.Seq {
			switch l {
			case 'A', 'T', 'C', 'G':
			default:
				m.Unknowns++
			}
		}
	}
	if err := sc.Error(); err != nil {
		return stats.Metrics{}, fmt.Errorf("%s: %w", path, err)
	}
	if m.Contigs == 0 {
		return stats.Metrics{}, fmt.Errorf("%s: no sequences", path)
	}
	return m, nil
}

// CollectMetrics measures paths with at most threads files open at once.
// Results keep the order of paths.
func CollectMetrics(ctx context.Context, paths []string, threads int) ([]stats.Metrics, error) {
	out := make([]stats.Metrics, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if threads > 0 {
		g.SetLimit(threads)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := Metrics(p)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
