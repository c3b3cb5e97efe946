package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

var ErrClusterNotFound = errors.New("cluster not found")

type Gene struct {
	GeneID       string   `json:"gene_id"`
	ContigID     string   `json:"contig_id"`
	ProteinID    string   `json:"protein_id"`
	Start        int      `json:"start,omitempty"`
	End          int      `json:"end,omitempty"`
	Strand       string   `json:"strand,omitempty"`
	Completeness *float64 `json:"completeness"`
	Description  string   `json:"description"`
}

type Genome struct {
	GenomeID string  `json:"genome_id"`
	Fullname string  `json:"fullname"`
	Genes    []*Gene `json:"genes"`
}

type ClusterProperty struct {
	ClusterID           string `json:"cluster_id"`
	CogID               string `json:"cog_id"`
	RepresentativeGene  string `json:"rep_gene"`
	ExpectedLength      int    `json:"expected_length"`
	FunctionDescription string `json:"function_description"`
	GeneNames           string `json:"gene_names"`
	GCMean              string `json:"gc_mean"`
	GCSpread            string `json:"gc_spread"`
	Flags               string `json:"flags"`
	TotalCount          int    `json:"total_count"`
	StrainCount         int    `json:"strain_count"`
}

type Cluster struct {
	ClusterProperty ClusterProperty `json:"cluster_properties"`
	Genomes         []*Genome       `json:"genomes"`
}

// GenomeInfo is one row of genome_info.
type GenomeInfo struct {
	GenomeID   string `json:"genome_id"`
	Fullname   string `json:"fullname"`
	Assembly   string `json:"assembly"`
	BioSample  string `json:"biosample"`
	BioProject string `json:"bioproject"`
	Level      string `json:"level"`
}

const propertyColumns = `cluster_id, IFNULL(cog_id, ''), IFNULL(representative_gene, ''),
	IFNULL(expected_length, 0), IFNULL(function_description, ''), IFNULL(gene_names, ''),
	IFNULL(gc_mean, ''), IFNULL(gc_spread, ''), IFNULL(flags, ''), IFNULL(total_count, 0),
	IFNULL(strain_count, 0)`

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(s scanner, p *ClusterProperty) error {
	return s.Scan(&p.ClusterID, &p.CogID, &p.RepresentativeGene, &p.ExpectedLength,
		&p.FunctionDescription, &p.GeneNames, &p.GCMean,
		&p.GCSpread, &p.Flags, &p.TotalCount, &p.StrainCount)
}

// GetGenomes lists genomes in strain-list order.
func GetGenomes(ctx context.Context, db *sql.DB) ([]*GenomeInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT genome_id, genome_fullname, IFNULL(assembly, ''), IFNULL(biosample, ''),
		  IFNULL(bioproject, ''), IFNULL(level, '')
		FROM genome_info
		ORDER BY column_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*GenomeInfo
	for rows.Next() {
		var g GenomeInfo
		if err := rows.Scan(&g.GenomeID, &g.Fullname, &g.Assembly, &g.BioSample, &g.BioProject, &g.Level); err != nil {
			return nil, fmt.Errorf("scan genome_info: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// GetCluster returns the cluster with its member genes grouped by genome, or
// ErrClusterNotFound.
func GetCluster(ctx context.Context, db *sql.DB, clusterID string) (*Cluster, error) {
	var c Cluster
	err := scanProperty(db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM gene_clusters WHERE cluster_id == ?`, clusterID), &c.ClusterProperty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClusterNotFound, clusterID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT gm.genome_id, IFNULL(gn.genome_fullname, ''), gn.column_order, IFNULL(gm.contig_id, ''), gm.gene_id,
		  IFNULL(gi.protein_id, ''), IFNULL(gi.start_location, 0), IFNULL(gi.end_location, 0), IFNULL(gi.strand, ''),
		  100.0 * gi.gene_length / NULLIF(gc.expected_length, 0) AS completeness,
		  IFNULL(gi.description, '')
		FROM gene_matches gm
		JOIN gene_clusters gc ON gc.cluster_id = gm.cluster_id
		LEFT JOIN gene_info gi ON gm.gene_id = gi.gene_id AND gm.genome_id = gi.genome_id
		LEFT JOIN genome_info gn ON gn.genome_id = gm.genome_id
		WHERE gm.cluster_id == ?
		ORDER BY gm.rowid`, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byGenome := make(map[string]*Genome)
	order := make(map[string]int)
	for rows.Next() {
		var (
			g            Gene
			genomeID     string
			fullname     string
			columnOrder  sql.NullInt64
			completeness sql.NullFloat64
		)
		if err := rows.Scan(&genomeID, &fullname, &columnOrder, &g.ContigID, &g.GeneID,
			&g.ProteinID, &g.Start, &g.End, &g.Strand, &completeness, &g.Description); err != nil {
			return nil, fmt.Errorf("scan gene_matches: %w", err)
		}
		if completeness.Valid {
			v := completeness.Float64
			g.Completeness = &v
		}

		gn, ok := byGenome[genomeID]
		if !ok {
			gn = &Genome{GenomeID: genomeID, Fullname: fullname}
			byGenome[genomeID] = gn
			order[genomeID] = int(columnOrder.Int64)
			c.Genomes = append(c.Genomes, gn)
		}
		gn.Genes = append(gn.Genes, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(c.Genomes, func(i, j int) bool {
		return order[c.Genomes[i].GenomeID] < order[c.Genomes[j].GenomeID]
	})
	return &c, nil
}

// GetClusterID lists the clusters a gene belongs to.
func GetClusterID(ctx context.Context, db *sql.DB, genomeID, geneID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT cluster_id FROM gene_matches WHERE genome_id == ? AND gene_id == ? ORDER BY cluster_id`,
		genomeID, geneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
