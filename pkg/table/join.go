package table

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jgbaldwinbrown/csvh"

	"github.com/yumyai/straincomp/internal/util"
)

// Lookup is a cluster -> annotation columns table produced by an external
// classifier (deepnog COG assignments, kofamscan KEGG hits).
type Lookup struct {
	Header []string
	Values map[string][]string
	Width  int
}

// ClusterKey reduces "CLUSTER_000001_NZ_LR861808.1_cds_..." to "CLUSTER_000001".
func ClusterKey(s string) string {
	parts := strings.SplitN(s, "_", 3)
	if len(parts) < 2 {
		return s
	}
	return parts[0] + "_" + parts[1]
}

// ParseLookup reads a lookup table. skip columns after the key are dropped
// (the FASTA header column of the COG table, for one). A row keyed "CLUSTER"
// is taken as the header; lines starting with '#' are ignored.
func ParseLookup(r io.Reader, skip int) (*Lookup, error) {
	lk := &Lookup{Values: make(map[string][]string)}

	cr := csvh.CsvIn(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	for l, e := cr.Read(); e != io.EOF; l, e = cr.Read() {
		if e != nil {
			return nil, e
		}
		if len(l) <= 1+skip {
			continue
		}
		// records are reused between reads
		key, cols := l[0], append([]string(nil), l[1+skip:]...)
		if len(cols) > lk.Width {
			lk.Width = len(cols)
		}
		if key == "CLUSTER" {
			lk.Header = cols
			continue
		}
		key = ClusterKey(key)
		if _, ok := lk.Values[key]; !ok {
			lk.Values[key] = cols
		}
	}
	return lk, nil
}

func LoadLookup(path string, skip int) (*Lookup, error) {
	if err := util.RequireFiles(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lk, err := ParseLookup(f, skip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lk, nil
}

// Join inserts the lookup columns into t before column at. header names the
// inserted columns when the lookup has none; missing fills rows of clusters
// the lookup does not know, padded with "*".
func Join(t *Table, lk *Lookup, at int, header, missing []string) (*Table, error) {
	if at < 1 || at > len(t.Header) {
		return nil, fmt.Errorf("insert position %d outside 1..%d", at, len(t.Header))
	}
	width := max(lk.Width, len(header), len(missing))
	if len(lk.Header) > 0 {
		header = lk.Header
	}

	out := &Table{Header: insert(t.Header, at, pad(header, width))}
	for _, row := range t.Rows {
		cols, ok := lk.Values[ClusterKey(cell(row, 0))]
		if !ok {
			cols = missing
		}
		out.Rows = append(out.Rows, insert(row, at, pad(cols, width)))
	}
	return out, nil
}

func insert(row []string, at int, cols []string) []string {
	out := make([]string, 0, len(row)+len(cols))
	out = append(out, row[:min(at, len(row))]...)
	out = append(out, cols...)
	if at < len(row) {
		out = append(out, row[at:]...)
	}
	return out
}

func pad(cols []string, width int) []string {
	out := make([]string, width)
	for i := range out {
		if i < len(cols) && cols[i] != "" {
			out[i] = cols[i]
		} else {
			out[i] = "*"
		}
	}
	return out
}

var (
	KEGGHeader  = []string{"KO_number", "KEGG_definition"}
	KEGGMissing = []string{"*", "none"}
)

// JoinKEGG adds KO number and definition after the annotation columns.
func JoinKEGG(t *Table, lk *Lookup) (*Table, error) {
	return Join(t, lk, 3, KEGGHeader, KEGGMissing)
}

// JoinCOG adds the COG assignment columns after the annotation columns.
func JoinCOG(t *Table, lk *Lookup) (*Table, error) {
	return Join(t, lk, 3, []string{"COG_id"}, nil)
}
