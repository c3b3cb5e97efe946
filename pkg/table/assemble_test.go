package table

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/pkg/model"
)

func header(locus, location string, gc float64) string {
	return fmt.Sprintf("acc_%s [gene=dnaA] [locus_tag=%s] [protein=chromosomal replication initiator] [protein_id=WP_%s] [location=%s] [pctGC=%.1f] [gbkey=CDS]",
		locus, locus, locus, location, gc)
}

func record(name string, headers ...string) string {
	return name + "\tdnaA\tchromosomal replication initiator\t" + fmt.Sprint(len(headers)) + "\t" + strings.Join(headers, "\t")
}

const strainList = "A | Salmonella enterica A1 [GCF_1.1; SAMN1; PRJNA1; Complete]\n" +
	"B | Salmonella enterica B2 [GCF_2.1; SAMN2; PRJNA2; Contig]\n"

func assemble(t *testing.T, records ...string) (string, string) {
	t.Helper()
	strains, err := model.ParseStrainList(strings.NewReader(strainList))
	if err != nil {
		t.Fatal(err)
	}

	var full, count bytes.Buffer
	if _, err := Assemble(strings.NewReader(strings.Join(records, "\n")+"\n"), strains, NewWriter(&full, &count)); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return full.String(), count.String()
}

func TestAssembleWorkedExample(t *testing.T) {
	m1 := header("A_0001", "1..300", 50.0)
	m2 := header("A_0002", "1..300", 52.0)
	m3 := header("B_0001", "1..300", 51.0)

	full, count := assemble(t, record("CLUSTER_000001", m1, m3, m2))

	fullLines := strings.Split(strings.TrimSuffix(full, "\n"), "\n")
	if len(fullLines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(fullLines))
	}
	wantHeader := "CLUSTER\tNCBI gene names\tNCBI annotations\tGCpct\tGC spread\tprotein length\tflags\ttotal count\tstrain count\t" +
		"A | Salmonella enterica A1 [GCF_1.1; SAMN1; PRJNA1; Complete]\tB | Salmonella enterica B2 [GCF_2.1; SAMN2; PRJNA2; Contig]"
	if fullLines[0] != wantHeader {
		t.Fatalf("header mismatch:\n%s", cmp.Diff(wantHeader, fullLines[0]))
	}

	got := strings.Split(fullLines[1], "\t")
	want := []string{
		"CLUSTER_000001", "dnaA", "chromosomal replication initiator", "51.0", "2.0", "100", "", "3", "2",
		"[2]|A_0001|WP_A_0001|acc_A_0001, A_0002|WP_A_0002|acc_A_0002",
		"[1]|B_0001|WP_B_0001|acc_B_0001",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	countLines := strings.Split(strings.TrimSuffix(count, "\n"), "\n")
	if diff := cmp.Diff([]string{"CLUSTER_000001 - chromosomal replication initiator", "3", "2", "2", "1"}, strings.Split(countLines[1], "\t")); diff != "" {
		t.Fatalf("count row mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleNoMatchingStrain(t *testing.T) {
	full, count := assemble(t, record("CLUSTER_000001", header("Z_0001", "1..300", 40.0)))

	row := strings.Split(strings.Split(full, "\n")[1], "\t")
	if row[7] != "0" || row[8] != "0" || row[9] != "*" || row[10] != "*" {
		t.Fatalf("unexpected row %q", row)
	}
	crow := strings.Split(strings.Split(count, "\n")[1], "\t")
	if diff := cmp.Diff([]string{"0", "0", "0", "0"}, crow[1:]); diff != "" {
		t.Fatalf("count row mismatch:\n%s", diff)
	}
}

func TestAssembleKeepsInputOrder(t *testing.T) {
	full, _ := assemble(t,
		record("CLUSTER_000001", header("A_1", "1..30", 50), header("B_1", "1..30", 50), header("B_2", "1..30", 50)),
		record("CLUSTER_000002", header("Z_1", "1..30", 50)),
		record("CLUSTER_000003", header("A_2", "1..30", 50)),
	)

	var names []string
	for _, line := range strings.Split(strings.TrimSuffix(full, "\n"), "\n")[1:] {
		names = append(names, strings.SplitN(line, "\t", 2)[0])
	}
	if diff := cmp.Diff([]string{"CLUSTER_000001", "CLUSTER_000002", "CLUSTER_000003"}, names); diff != "" {
		t.Fatalf("order changed:\n%s", diff)
	}
}

func TestAssembleConservation(t *testing.T) {
	var headers []string
	for i := 0; i < 25; i++ {
		p := "A"
		if i%3 == 0 {
			p = "B"
		}
		headers = append(headers, header(fmt.Sprintf("%s_%04d", p, i), "1..300", 50))
	}
	_, count := assemble(t, record("CLUSTER_000001", headers...))

	row := strings.Split(strings.Split(count, "\n")[1], "\t")
	var a, b int
	fmt.Sscan(row[3], &a)
	fmt.Sscan(row[4], &b)
	if row[1] != "25" || a+b != 25 {
		t.Fatalf("counts do not add up: %q", row)
	}
}

func TestAssembleMalformedHeader(t *testing.T) {
	strains, _ := model.ParseStrainList(strings.NewReader(strainList))
	in := record("CLUSTER_000001", "acc_A_1 [locus_tag=A_1] [protein=x] [location=1..30]") + "\n"

	var full, count bytes.Buffer
	_, err := Assemble(strings.NewReader(in), strains, NewWriter(&full, &count))

	var perr *model.HeaderParseError
	if !errors.As(err, &perr) || perr.Key != "pctGC" {
		t.Fatalf("expected HeaderParseError, got %v", err)
	}
}

func TestAssembleAmbiguousPrefix(t *testing.T) {
	strains, _ := model.ParseStrainList(strings.NewReader("A | one\nA_B | two\n"))
	in := record("CLUSTER_000001", header("A_B_1", "1..30", 50)) + "\n"

	var full, count bytes.Buffer
	_, err := Assemble(strings.NewReader(in), strains, NewWriter(&full, &count))

	var aerr *model.AmbiguousPrefixError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AmbiguousPrefixError, got %v", err)
	}
}

func writeInputs(t *testing.T, dir string) Paths {
	t.Helper()
	p := Paths{
		StrainList:    filepath.Join(dir, "strainlist.txt"),
		HeaderInfo:    filepath.Join(dir, "data", "mmseq_output", "cluster_header_info.tab"),
		ClusterTable:  filepath.Join(dir, "tables", "cluster_table.tab"),
		HitCountTable: filepath.Join(dir, "tables", "cluster_hit_count_table.tab"),
	}
	os.MkdirAll(filepath.Dir(p.HeaderInfo), 0o755)
	os.WriteFile(p.StrainList, []byte(strainList), 0o644)
	os.WriteFile(p.HeaderInfo, []byte(strings.Join([]string{
		record("CLUSTER_000001", header("A_1", "1..300", 50), header("B_1", "<1..300", 48)),
		record("CLUSTER_000002", header("B_2", "join(1..20,22..300)", 55)),
	}, "\n")+"\n"), 0o644)
	return p
}

func TestMakeTablesIdempotent(t *testing.T) {
	p := writeInputs(t, t.TempDir())

	if n, err := MakeTables(p); err != nil || n != 2 {
		t.Fatalf("first run: %d rows, %v", n, err)
	}
	first, _ := os.ReadFile(p.ClusterTable)
	firstCount, _ := os.ReadFile(p.HitCountTable)

	if _, err := MakeTables(p); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(p.ClusterTable)
	secondCount, _ := os.ReadFile(p.HitCountTable)

	if !bytes.Equal(first, second) || !bytes.Equal(firstCount, secondCount) {
		t.Fatalf("outputs differ between runs")
	}
	if !strings.Contains(string(first), "frameshifts: 1 of 1") {
		t.Fatalf("expected frameshift flag in:\n%s", first)
	}
}

func TestMakeTablesMissingInput(t *testing.T) {
	dir := t.TempDir()
	p := writeInputs(t, dir)
	os.Remove(p.StrainList)

	_, err := MakeTables(p)
	if !errors.Is(err, util.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestMakeTablesFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	p := writeInputs(t, dir)
	os.WriteFile(p.HeaderInfo, []byte(record("CLUSTER_000001", "acc [locus_tag=A_1]")+"\n"), 0o644)

	if _, err := MakeTables(p); err == nil {
		t.Fatalf("expected error")
	}
	if util.FileExists(p.ClusterTable) || util.FileExists(p.HitCountTable) {
		t.Fatalf("partial tables left behind")
	}
}
