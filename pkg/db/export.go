// Loading assembled cluster rows into the gene-table database.

package db

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/model"
)

// Exporter writes one database inside a single transaction. Nothing is
// visible until Commit.
type Exporter struct {
	ctx context.Context
	tx  *sql.Tx

	genome  *sql.Stmt
	cluster *sql.Stmt
	match   *sql.Stmt
	gene    *sql.Stmt

	clusters int
	genes    int
}

// NewExporter recreates the schema inside the export transaction, so a
// Rollback leaves the previous database untouched.
func NewExporter(ctx context.Context, db *sql.DB) (*Exporter, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		tx.Rollback()
		return nil, err
	}

	ex := &Exporter{ctx: ctx, tx: tx}
	stmts := []struct {
		dst **sql.Stmt
		q   string
	}{
		{&ex.genome, `INSERT INTO genome_info (genome_id, genome_fullname, assembly, biosample, bioproject, level, column_order) VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&ex.cluster, `INSERT INTO gene_clusters (cluster_id, cog_id, representative_gene, expected_length, function_description, gene_names, gc_mean, gc_spread, flags, total_count, strain_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&ex.match, `INSERT INTO gene_matches (cluster_id, genome_id, contig_id, gene_id) VALUES (?, ?, ?, ?)`},
		{&ex.gene, `INSERT OR IGNORE INTO gene_info (genome_id, contig_id, gene_id, protein_id, start_location, end_location, gene_length, strand, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
	}
	for _, s := range stmts {
		stmt, err := tx.PrepareContext(ctx, s.q)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		*s.dst = stmt
	}
	return ex, nil
}

func (ex *Exporter) AddGenomes(strains []*model.Strain) error {
	for i, s := range strains {
		if _, err := ex.genome.ExecContext(ex.ctx,
			s.Prefix, s.Name, s.Assembly, s.BioSample, s.BioProject, s.Level, i); err != nil {
			return err
		}
	}
	return nil
}

// ContigID extracts the sequence accession from an NCBI CDS accession,
// "NZ_LR861808.1_cds_WP_000502119.1_1973" giving "NZ_LR861808.1".
func ContigID(accession string) string {
	if i := strings.Index(accession, "_cds_"); i >= 0 {
		return accession[:i]
	}
	return ""
}

// AddRow stores one cluster with its matched members. cogID may be empty.
func (ex *Exporter) AddRow(row *model.Row, cogID string) error {
	rec, ann := row.Cluster, row.Annotation

	var rep string
	if len(rec.Members) > 0 {
		rep = rec.Members[0].LocusTag()
	}
	var cog any
	if cogID != "" {
		cog = cogID
	}

	if _, err := ex.cluster.ExecContext(ex.ctx,
		rec.Name, cog, rep, ann.ProteinLength*3, ann.Proteins, rec.GeneNames,
		ann.GCMean, ann.GCSpread, ann.Flags, row.TotalCount(), row.StrainCount()); err != nil {
		return err
	}

	for _, hit := range row.Hits {
		for _, m := range hit.Members {
			contig := ContigID(m.Accession)
			if _, err := ex.match.ExecContext(ex.ctx, rec.Name, hit.Strain.Prefix, contig, m.LocusTag()); err != nil {
				return err
			}
			if err := ex.addGene(hit.Strain.Prefix, contig, m); err != nil {
				return err
			}
		}
	}
	ex.clusters++
	return nil
}

func (ex *Exporter) addGene(genome, contig string, m *model.Header) error {
	loc, err := m.Location()
	if err != nil {
		return err
	}
	desc, _ := m.Get("protein")

	var start, end, strand any
	if loc.Start > 0 {
		start, end, strand = loc.Start, loc.End, "+"
		if loc.Complement {
			strand = "-"
		}
	}
	res, err := ex.gene.ExecContext(ex.ctx, genome, contig, m.LocusTag(), m.ProteinID(), start, end, loc.Len(), strand, desc)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		ex.genes++
	}
	return nil
}

func (ex *Exporter) Commit() error {
	for _, s := range []*sql.Stmt{ex.genome, ex.cluster, ex.match, ex.gene} {
		s.Close()
	}
	if err := ex.tx.Commit(); err != nil {
		return err
	}
	logger.Info("Exported gene table",
		zap.Int("clusters", ex.clusters),
		zap.Int("genes", ex.genes))
	return nil
}

// Rollback abandons the export. It is a no-op after Commit.
func (ex *Exporter) Rollback() error {
	err := ex.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
