// Package cluster turns per-strain protein FASTA files into named mmseqs2
// clusters.
package cluster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"go.uber.org/zap"

	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
)

const (
	// Proteins of this many residues or fewer are dropped before clustering.
	minProteinLength = 30
	lineWidth        = 80
)

func isPseudogene(desc string) bool {
	return strings.Contains(desc, "PSEUDOGENE") || strings.Contains(desc, "[pseudo=true]")
}

// FilterPseudogenes concatenates every *.faa under dir (except out itself) and
// writes the records worth clustering to out. It returns kept and dropped counts.
func FilterPseudogenes(dir, out string) (int, int, error) {
	if !util.DirExists(dir) {
		return 0, 0, fmt.Errorf("%w: %s", util.ErrMissingInput, dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.faa"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(files)

	absOut, _ := filepath.Abs(out)
	inputs := files[:0]
	for _, f := range files {
		if abs, _ := filepath.Abs(f); abs != absOut {
			inputs = append(inputs, f)
		}
	}
	if len(inputs) == 0 {
		return 0, 0, fmt.Errorf("%w: no .faa files in %s", util.ErrMissingInput, dir)
	}

	a, err := util.CreateAtomic(out)
	if err != nil {
		return 0, 0, err
	}
	defer a.Close()

	w := fasta.NewWriter(a, lineWidth)
	kept, dropped := 0, 0
	for _, path := range inputs {
		k, d, err := filterFile(path, w)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", path, err)
		}
		kept += k
		dropped += d
	}

	logger.Info("Removed pseudogenes",
		zap.Int("files", len(inputs)),
		zap.Int("kept", kept),
		zap.Int("dropped", dropped))
	return kept, dropped, a.Commit()
}

func filterFile(path string, w *fasta.Writer) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	kept, dropped := 0, 0
	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alphabet.Protein)))
	for sc.Next() {
		s := sc.Seq()
		if s.Len() <= minProteinLength || isPseudogene(s.Description()) {
			dropped++
			continue
		}
		if _, err := w.Write(s); err != nil {
			return kept, dropped, err
		}
		kept++
	}
	return kept, dropped, sc.Error()
}
