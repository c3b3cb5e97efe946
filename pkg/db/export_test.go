package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yumyai/straincomp/pkg/model"
)

func buildRow(t *testing.T, strains []*model.Strain, line string) *model.Row {
	t.Helper()
	rec, err := model.ParseClusterRecord(line)
	if err != nil {
		t.Fatal(err)
	}
	ann, err := model.Aggregate(rec.Members)
	if err != nil {
		t.Fatal(err)
	}
	row := &model.Row{Cluster: rec, Annotation: ann}
	m := model.NewMatcher(rec.Members)
	for _, s := range strains {
		hit, err := m.Match(s)
		if err != nil {
			t.Fatal(err)
		}
		row.Hits = append(row.Hits, hit)
	}
	return row
}

func exportFixture(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := Open(filepath.Join(t.TempDir(), "db", "gene_table.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	strains, err := model.ParseStrainList(strings.NewReader(
		"B | Salmonella B [GCF_2.1; SAMN2; PRJNA2; Contig]\nA | Salmonella A [GCF_1.1; SAMN1; PRJNA1; Complete]\n"))
	if err != nil {
		t.Fatal(err)
	}

	ex, err := NewExporter(ctx, conn)
	if err != nil {
		t.Fatal(err)
	}
	defer ex.Rollback()

	if err := ex.AddGenomes(strains); err != nil {
		t.Fatal(err)
	}
	rows := []string{
		"CLUSTER_000001\tdnaA\tinitiator\t2\t" +
			">NZ_CP1.1_cds_WP_1.1_12 [gene=dnaA] [locus_tag=A_0001] [protein=initiator] [protein_id=WP_1.1] [location=1..300] [pctGC=50.0]\t" +
			">NZ_CP2.1_cds_WP_1.1_3 [gene=dnaA] [locus_tag=B_0001] [protein=initiator] [protein_id=WP_1.1] [location=complement(10..309)] [pctGC=52.0]",
		"CLUSTER_000002\tnone\thypothetical protein\t1\t" +
			">NZ_CP1.1_cds_WP_9.1_40 [locus_tag=A_0040] [protein=hypothetical protein] [protein_id=WP_9.1] [location=<1..90] [pctGC=40.0]",
	}
	for i, line := range rows {
		cog := ""
		if i == 0 {
			cog = "COG0593"
		}
		if err := ex.AddRow(buildRow(t, strains, line), cog); err != nil {
			t.Fatal(err)
		}
	}
	if err := ex.Commit(); err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestGetGenomes(t *testing.T) {
	conn := exportFixture(t)

	genomes, err := GetGenomes(context.Background(), conn)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, g := range genomes {
		ids = append(ids, g.GenomeID)
	}
	if diff := cmp.Diff([]string{"B", "A"}, ids); diff != "" {
		t.Fatalf("genome order (-want +got):\n%s", diff)
	}
	if genomes[1].Fullname != "Salmonella A" || genomes[1].Level != "Complete" {
		t.Errorf("unexpected genome %+v", genomes[1])
	}
}

func TestGetCluster(t *testing.T) {
	conn := exportFixture(t)

	c, err := GetCluster(context.Background(), conn, "CLUSTER_000001")
	if err != nil {
		t.Fatal(err)
	}
	p := c.ClusterProperty
	if p.CogID != "COG0593" || p.ExpectedLength != 300 || p.TotalCount != 2 || p.StrainCount != 2 || p.GCMean != "51.0" {
		t.Fatalf("unexpected properties %+v", p)
	}
	if len(c.Genomes) != 2 || c.Genomes[0].GenomeID != "B" {
		t.Fatalf("genomes not in strain order: %+v", c.Genomes)
	}
	gene := c.Genomes[1].Genes[0]
	if gene.GeneID != "A_0001" || gene.ContigID != "NZ_CP1.1" || gene.Start != 1 || gene.End != 300 || gene.Strand != "+" {
		t.Errorf("unexpected gene %+v", gene)
	}
	if s := c.Genomes[0].Genes[0].Strand; s != "-" {
		t.Errorf("complement member strand = %q", s)
	}
	if gene.Completeness == nil || *gene.Completeness != 100 {
		t.Errorf("completeness = %v", gene.Completeness)
	}
}

func TestGetClusterTruncatedMember(t *testing.T) {
	conn := exportFixture(t)

	c, err := GetCluster(context.Background(), conn, "CLUSTER_000002")
	if err != nil {
		t.Fatal(err)
	}
	if c.ClusterProperty.CogID != "" || c.ClusterProperty.Flags != "truncated: 1 of 1" {
		t.Fatalf("unexpected properties %+v", c.ClusterProperty)
	}
	if g := c.Genomes[0].Genes[0]; g.Completeness != nil || g.Start != 0 || g.Strand != "" {
		t.Errorf("truncated gene should have no completeness or coordinates: %+v", g)
	}
}

func TestExporterRollbackKeepsCommittedData(t *testing.T) {
	conn := exportFixture(t)
	ctx := context.Background()

	ex, err := NewExporter(ctx, conn)
	if err != nil {
		t.Fatal(err)
	}
	if err := ex.Rollback(); err != nil {
		t.Fatal(err)
	}

	c, err := GetCluster(ctx, conn, "CLUSTER_000001")
	if err != nil {
		t.Fatalf("committed cluster lost after rollback: %v", err)
	}
	if c.ClusterProperty.CogID != "COG0593" || len(c.Genomes) != 2 {
		t.Fatalf("unexpected cluster after rollback %+v", c.ClusterProperty)
	}
	genomes, err := GetGenomes(ctx, conn)
	if err != nil || len(genomes) != 2 {
		t.Fatalf("genomes after rollback: %v (%v)", genomes, err)
	}
}

func TestGetClusterNotFound(t *testing.T) {
	conn := exportFixture(t)

	_, err := GetCluster(context.Background(), conn, "CLUSTER_999999")
	if !errors.Is(err, ErrClusterNotFound) {
		t.Fatalf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestGetClusterID(t *testing.T) {
	conn := exportFixture(t)

	ids, err := GetClusterID(context.Background(), conn, "A", "A_0040")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"CLUSTER_000002"}, ids); diff != "" {
		t.Fatal(diff)
	}

	ids, err = GetClusterID(context.Background(), conn, "B", "A_0040")
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no clusters, got %v (%v)", ids, err)
	}
}

func TestContigID(t *testing.T) {
	if got := ContigID("NZ_LR861808.1_cds_WP_000502119.1_1973"); got != "NZ_LR861808.1" {
		t.Errorf("got %q", got)
	}
	if got := ContigID("plain"); got != "" {
		t.Errorf("got %q", got)
	}
}
