package model

import (
	"errors"
	"testing"
)

func TestAggregateSingleMember(t *testing.T) {
	a, err := Aggregate([]*Header{member("A_1", 45.9, "complement(2043708..2044166)")})
	if err != nil {
		t.Fatal(err)
	}
	if a.GCMean != "45.9" || a.GCSpread != "0.00" {
		t.Fatalf("GC = %s spread %s", a.GCMean, a.GCSpread)
	}
	if a.ProteinLength != 153 {
		t.Fatalf("protein length = %d", a.ProteinLength)
	}
	if a.Flags != "" || a.Proteins != "hypothetical protein" {
		t.Fatalf("unexpected annotation %+v", a)
	}
}

func TestAggregateGCSpread(t *testing.T) {
	a, err := Aggregate([]*Header{
		member("A_1", 45.9, "1..300"),
		member("B_1", 44.1, "1..300"),
		member("C_1", 50.0, "1..300"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.GCMean != "46.67" {
		t.Fatalf("mean = %s", a.GCMean)
	}
	if a.GCSpread != "5.9" {
		t.Fatalf("spread = %s", a.GCSpread)
	}
}

func TestAggregateEmpty(t *testing.T) {
	a, err := Aggregate(nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.GCMean != "???" || a.GCSpread != "0.00" || a.ProteinLength != 0 || a.Flags != "" {
		t.Fatalf("unexpected empty annotation %+v", a)
	}
}

func TestAggregateProteinLengthFromLastMember(t *testing.T) {
	a, err := Aggregate([]*Header{
		member("A_1", 50, "1..300"),
		member("B_1", 50, "<1..200"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.ProteinLength != 0 {
		t.Fatalf("truncated last member should leave length 0, got %d", a.ProteinLength)
	}

	a, err = Aggregate([]*Header{
		member("B_1", 50, "<1..200"),
		member("A_1", 50, "1..300"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.ProteinLength != 100 {
		t.Fatalf("length = %d, want 100", a.ProteinLength)
	}
}

func TestAggregateFlags(t *testing.T) {
	cases := []struct {
		locations []string
		want      string
	}{
		{[]string{"1..300", "1..300"}, ""},
		{[]string{"<1..300", "1..>300"}, "truncated: 2 of 2"},
		{[]string{"join(1..20,22..300)", "join(1..20,22..300)"}, "frameshifts: 2 of 2"},
		{[]string{"<1..300", "join(1..20,22..300)", "1..300"}, "1 trunc; 1 frmshft out of 3"},
		{[]string{"<1..300", "1..300"}, "1 trunc; 0 frmshft out of 2"},
	}

	for _, c := range cases {
		var members []*Header
		for _, loc := range c.locations {
			members = append(members, member("A_1", 50, loc))
		}
		a, err := Aggregate(members)
		if err != nil {
			t.Fatal(err)
		}
		if a.Flags != c.want {
			t.Errorf("%v: flags = %q, want %q", c.locations, a.Flags, c.want)
		}
	}
}

func TestAggregateDeduplicatesProteins(t *testing.T) {
	members := []*Header{
		ParseHeader("a [locus_tag=A_1] [protein=DNA gyrase subunit A] [location=1..9] [pctGC=50]"),
		ParseHeader("b [locus_tag=B_1] [protein=topoisomerase] [location=1..9] [pctGC=50]"),
		ParseHeader("c [locus_tag=C_1] [protein=DNA gyrase subunit A] [location=1..9] [pctGC=50]"),
	}
	a, err := Aggregate(members)
	if err != nil {
		t.Fatal(err)
	}
	if a.Proteins != "DNA gyrase subunit A, topoisomerase" {
		t.Fatalf("proteins = %q", a.Proteins)
	}
}

func TestAggregateFailsFast(t *testing.T) {
	members := []*Header{
		member("A_1", 50, "1..300"),
		ParseHeader("broken [locus_tag=B_1] [protein=x] [pctGC=50]"),
	}
	_, err := Aggregate(members)

	var perr *HeaderParseError
	if !errors.As(err, &perr) || perr.Key != "location" {
		t.Fatalf("expected HeaderParseError for location, got %v", err)
	}
}

func TestFormatSig4(t *testing.T) {
	cases := map[float64]string{
		45.9:       "45.9",
		50.123456:  "50.12",
		50:         "50.0",
		0:          "0.0",
		1000:       "1000.0",
		10000:      "1e+04",
		1.7999999:  "1.8",
		0.00001234: "1.234e-05",
	}
	for v, want := range cases {
		if got := FormatSig4(v); got != want {
			t.Errorf("FormatSig4(%v) = %q, want %q", v, got, want)
		}
	}
}

func TestGeneNames(t *testing.T) {
	members := []*Header{
		ParseHeader("a [gene=tnpA_2]"),
		ParseHeader("b [gene=none]"),
		ParseHeader("c [gene=tnpA]"),
		ParseHeader("d [gene=tnpB]"),
	}
	if got := GeneNames(members); got != "tnpA, tnpB" {
		t.Fatalf("gene names = %q", got)
	}
	if got := GeneNames([]*Header{ParseHeader("a [locus_tag=A_1]")}); got != "none" {
		t.Fatalf("gene names = %q", got)
	}
	if got := ProteinNames(members[:1]); got != "" {
		t.Fatalf("protein names = %q", got)
	}
}
