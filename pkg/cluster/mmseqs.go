package cluster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
)

// Mmseqs drives the mmseqs2 binary through createdb, cluster, createseqfiledb
// and result2flat.
type Mmseqs struct {
	Bin      string // "mmseqs" or a full path
	DBDir    string // scratch databases
	MinSeqID int    // percent identity, 30-99
	Coverage int    // percent mutual coverage, 30-99
}

func fraction(pct int) string {
	return strconv.FormatFloat(float64(pct)/100, 'f', -1, 64)
}

// Commands lists the argument vectors (without the binary) that Cluster runs.
func (m *Mmseqs) Commands(input, output string) [][]string {
	db := filepath.Join(m.DBDir, "DB")
	clustered := filepath.Join(m.DBDir, "clusteredDB")
	seqDB := filepath.Join(m.DBDir, "clu_seq")

	return [][]string{
		{"createdb", input, db},
		{"cluster", db, clustered, filepath.Join(m.DBDir, "tmp"),
			"--min-seq-id", fraction(m.MinSeqID), "-c", fraction(m.Coverage), "--cov-mode", "0"},
		{"createseqfiledb", db, clustered, seqDB},
		{"result2flat", db, db, seqDB, output},
	}
}

// Cluster clusters the proteins in input and leaves the flat FASTA at output.
func (m *Mmseqs) Cluster(ctx context.Context, input, output string) error {
	if err := util.RequireFiles(input); err != nil {
		return err
	}
	for _, dir := range []string{m.DBDir, filepath.Dir(output)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	logger.Info("Clustering with mmseqs2",
		zap.Int("min_seq_id", m.MinSeqID),
		zap.Int("coverage", m.Coverage))

	for _, args := range m.Commands(input, output) {
		logger.Info("Run", zap.String("cmd", m.Bin+" "+strings.Join(args, " ")))

		cmd := exec.CommandContext(ctx, m.Bin, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("mmseqs %s: %w - %s", args[0], err, lastLines(out, 5))
		}
		logger.Debug("mmseqs output", zap.String("step", args[0]), zap.ByteString("output", out))
	}

	if !util.FileExists(output) {
		return fmt.Errorf("mmseqs finished without writing %s", output)
	}
	return nil
}

func lastLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
