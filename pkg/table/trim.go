package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yumyai/straincomp/pkg/model"
)

// Trim restricts both tables to the given strains (in the given order),
// recomputes total and strain counts from the hit counts and drops clusters
// left without any hit.
func Trim(full, count *Table, strains []*model.Strain) (*Table, *Table, error) {
	if len(full.Rows) != len(count.Rows) {
		return nil, nil, fmt.Errorf("cluster table has %d rows, hit-count table %d", len(full.Rows), len(count.Rows))
	}

	fullCols, err := selectColumns(full, ClusterTableHeader, strains)
	if err != nil {
		return nil, nil, fmt.Errorf("cluster table: %w", err)
	}
	countCols, err := selectColumns(count, HitCountHeader, strains)
	if err != nil {
		return nil, nil, fmt.Errorf("hit-count table: %w", err)
	}

	fixedFull, fixedCount := len(ClusterTableHeader), len(HitCountHeader)
	outFull := &Table{Header: pick(full.Header, fullCols)}
	outCount := &Table{Header: pick(count.Header, countCols)}

	for i, crow := range count.Rows {
		frow := full.Rows[i]
		name := cell(frow, fullCols[0])
		if cname := cell(crow, countCols[0]); cname != name && !strings.HasPrefix(cname, name+" - ") {
			return nil, nil, fmt.Errorf("row %d: cluster %q does not line up with %q", i+1, name, cname)
		}

		total, present := 0, 0
		for _, c := range countCols[fixedCount:] {
			n, err := strconv.Atoi(cell(crow, c))
			if err != nil {
				return nil, nil, fmt.Errorf("row %d (%s): %w", i+1, name, err)
			}
			total += n
			if n != 0 {
				present++
			}
		}
		if total == 0 {
			continue
		}

		nc := pick(crow, countCols)
		nc[1], nc[2] = strconv.Itoa(total), strconv.Itoa(present)
		outCount.Rows = append(outCount.Rows, nc)

		nf := pick(frow, fullCols)
		nf[fixedFull-2], nf[fixedFull-1] = strconv.Itoa(total), strconv.Itoa(present)
		outFull.Rows = append(outFull.Rows, nf)
	}
	return outFull, outCount, nil
}

func selectColumns(t *Table, fixed []string, strains []*model.Strain) ([]int, error) {
	cols := make([]int, 0, len(fixed)+len(strains))
	for _, name := range fixed {
		i := t.Column(name)
		if i < 0 {
			return nil, fmt.Errorf("no %q column", name)
		}
		cols = append(cols, i)
	}
	for _, s := range strains {
		i := t.Column(s.Line)
		if i < 0 {
			return nil, fmt.Errorf("no column for strain %q", s.Prefix)
		}
		cols = append(cols, i)
	}
	return cols, nil
}

func pick(row []string, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = cell(row, c)
	}
	return out
}
