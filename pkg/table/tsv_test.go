package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTableRoundTripKeepsQuotes(t *testing.T) {
	in := "CLUSTER\tNCBI annotations\tA | a\n" +
		"CLUSTER_000001\t\"putative\" transporter\tA_0001|WP_1.1|x\n" +
		"CLUSTER_000002\t5' nucleotidase \"SurE\t*\n"

	tbl, err := ParseTable(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Rows[0][1]; got != `"putative" transporter` {
		t.Fatalf("quoted cell parsed as %q", got)
	}

	path := filepath.Join(t.TempDir(), "tables", "cluster_table.tab")
	if err := tbl.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, string(b)); diff != "" {
		t.Fatalf("round trip changed the table (-want +got):\n%s", diff)
	}
}

func TestParseTableEmpty(t *testing.T) {
	if _, err := ParseTable(strings.NewReader("\n\n")); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
