// Run configuration. Every path a step touches lives here so no component
// depends on the process working directory.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

type Run struct {
	Dir string

	// NCBI dataset
	MasterTable string
	GenomeDir   string
	FnaDir      string
	Pseudogenes string

	// Inputs
	StrainList string
	ProteinDir string
	FlatFasta  string
	COGTable   string
	KEGGTable  string

	// mmseqs2
	Mmseqs        string
	MmseqsDBDir   string
	MinSeqID      int
	Coverage      int
	ClusterPrefix string

	// Outputs
	OutputDir       string
	PseudoFree      string
	HeaderInfo      string
	Summary         string
	Representatives string
	Metadata        string
	TablesDir       string
	ClusterTable    string
	HitCountTable   string
	TrimDir         string
	Report          string
	Database        string

	LogLevel zapcore.Level
	Addr     string
}

// Load reads an optional .env and the STRAINCOMP_* environment. It reports
// whether a .env file was found so the caller can log it once the logger is up.
func Load() (*Run, bool, error) {
	dotenvErr := godotenv.Load()
	cfg, err := FromEnv(os.Getenv)
	return cfg, dotenvErr == nil, err
}

// FromEnv builds a Run from a lookup function (os.Getenv in production).
func FromEnv(getenv func(string) string) (*Run, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	dir := get("STRAINCOMP_DIR", ".")
	cfg := New(dir)

	var err error
	if cfg.MinSeqID, err = percent(get("STRAINCOMP_MIN_SEQ_ID", "80")); err != nil {
		return nil, fmt.Errorf("STRAINCOMP_MIN_SEQ_ID: %w", err)
	}
	if cfg.Coverage, err = percent(get("STRAINCOMP_COVERAGE", "90")); err != nil {
		return nil, fmt.Errorf("STRAINCOMP_COVERAGE: %w", err)
	}
	if cfg.LogLevel, err = zapcore.ParseLevel(get("STRAINCOMP_LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("STRAINCOMP_LOG_LEVEL: %w", err)
	}

	cfg.ClusterPrefix = get("STRAINCOMP_CLUSTER_PREFIX", cfg.ClusterPrefix)
	cfg.Mmseqs = get("STRAINCOMP_MMSEQS", cfg.Mmseqs)
	cfg.Addr = get("STRAINCOMP_ADDR", cfg.Addr)
	cfg.Database = get("STRAINCOMP_DB", cfg.Database)
	cfg.COGTable = get("STRAINCOMP_COG_TABLE", cfg.COGTable)
	cfg.KEGGTable = get("STRAINCOMP_KEGG_TABLE", cfg.KEGGTable)
	cfg.TrimDir = get("STRAINCOMP_TRIM_DIR", cfg.TrimDir)

	return cfg, nil
}

// New lays out the default project directory under dir.
func New(dir string) *Run {
	data := filepath.Join(dir, "data")
	out := filepath.Join(data, "mmseq_output")
	tables := filepath.Join(dir, "tables")

	ncbi := filepath.Join(data, "ncbi")

	return &Run{
		Dir: dir,

		MasterTable: filepath.Join(ncbi, "master_table.tab"),
		GenomeDir:   filepath.Join(ncbi, "data"),
		FnaDir:      filepath.Join(data, "fna"),
		Pseudogenes: filepath.Join(data, "potential_pseudogenes.fna"),

		StrainList: filepath.Join(dir, "strainlist.txt"),
		ProteinDir: filepath.Join(data, "faa"),
		FlatFasta:  filepath.Join(out, "clustered_sequences.fasta"),
		COGTable:   filepath.Join(data, "COG", "COG_annotations.tab"),
		KEGGTable:  filepath.Join(data, "kegg", "cluster_to_kegg.tab"),

		Mmseqs:        "mmseqs",
		MmseqsDBDir:   filepath.Join(data, "mmseqdb"),
		MinSeqID:      80,
		Coverage:      90,
		ClusterPrefix: "CLUSTER",

		OutputDir:       out,
		PseudoFree:      filepath.Join(data, "faa", "pseudofree.faa"),
		HeaderInfo:      filepath.Join(out, "cluster_header_info.tab"),
		Summary:         filepath.Join(out, "cluster_summary_with_sequences.faa"),
		Representatives: filepath.Join(out, "cluster_representative_sequences.faa"),
		Metadata:        filepath.Join(out, "cluster_metadata.tab"),
		TablesDir:       tables,
		ClusterTable:    filepath.Join(tables, "cluster_table.tab"),
		HitCountTable:   filepath.Join(tables, "cluster_hit_count_table.tab"),
		TrimDir:         filepath.Join(dir, "trimmed"),
		Report:          filepath.Join(data, "report", "report.txt"),
		Database:        filepath.Join(dir, "db", "gene_table.db"),

		LogLevel: zapcore.InfoLevel,
		Addr:     "0.0.0.0:8080",
	}
}

func percent(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 30 || n > 99 {
		return 0, fmt.Errorf("%d outside 30-99", n)
	}
	return n, nil
}
