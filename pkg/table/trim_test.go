package table

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yumyai/straincomp/pkg/model"
)

func mustTable(t *testing.T, rows ...string) *Table {
	t.Helper()
	tbl, err := ParseTable(strings.NewReader(strings.Join(rows, "\n") + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestTrim(t *testing.T) {
	front := strings.Join(ClusterTableHeader, "\t")
	full := mustTable(t,
		front+"\tA | a\tB | b\tC | c",
		"CL_1\tg\tp\t50.0\t0.00\t10\t\t3\t2\t[2]|x, y\t*\t[1]|z",
		"CL_2\tg\tp\t50.0\t0.00\t10\t\t1\t1\t*\t*\t[1]|w",
	)
	count := mustTable(t,
		"CLUSTER\ttotal count\tstrain count\tA | a\tB | b\tC | c",
		"CL_1 - p\t3\t2\t2\t0\t1",
		"CL_2 - p\t1\t1\t0\t0\t1",
	)
	strains, err := model.ParseStrainList(strings.NewReader("B | b\nA | a\n"))
	if err != nil {
		t.Fatal(err)
	}

	gotFull, gotCount, err := Trim(full, count, strains)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}

	if diff := cmp.Diff([]string{"CLUSTER", "total count", "strain count", "B | b", "A | a"}, gotCount.Header); diff != "" {
		t.Errorf("count header:\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"CL_1 - p", "2", "1", "0", "2"}}, gotCount.Rows); diff != "" {
		t.Errorf("count rows:\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"CL_1", "g", "p", "50.0", "0.00", "10", "", "2", "1", "*", "[2]|x, y"}}, gotFull.Rows); diff != "" {
		t.Errorf("full rows:\n%s", diff)
	}
}

func TestTrimUnknownStrain(t *testing.T) {
	full := mustTable(t, strings.Join(ClusterTableHeader, "\t")+"\tA | a")
	count := mustTable(t, "CLUSTER\ttotal count\tstrain count\tA | a")
	strains, _ := model.ParseStrainList(strings.NewReader("Q | q\n"))

	if _, _, err := Trim(full, count, strains); err == nil {
		t.Fatalf("expected error for a strain missing from the tables")
	}
}

func TestTrimMisalignedRows(t *testing.T) {
	full := mustTable(t, strings.Join(ClusterTableHeader, "\t")+"\tA | a",
		"CL_1\tg\tp\t50.0\t0.00\t10\t\t1\t1\t[1]|x")
	count := mustTable(t, "CLUSTER\ttotal count\tstrain count\tA | a",
		"CL_2 - p\t1\t1\t1")
	strains, _ := model.ParseStrainList(strings.NewReader("A | a\n"))

	if _, _, err := Trim(full, count, strains); err == nil {
		t.Fatalf("expected error for misaligned tables")
	}
}
