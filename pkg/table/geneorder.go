package table

import (
	"fmt"
	"sort"
	"strings"
)

// positionKey turns a short member form "locus|protein|NZ_CP001.1_cds_WP_1.1_1973"
// into "01973:NZ_CP001.1_cds_WP_1.1_1973" style keys that sort by feature index.
func positionKey(member string) string {
	acc := member
	if i := strings.LastIndex(member, "|"); i >= 0 {
		acc = member[i+1:]
	}
	parts := strings.Split(acc, "_")
	idx := parts[len(parts)-1]
	if len(idx) < 5 {
		idx = strings.Repeat("0", 5-len(idx)) + idx
	}
	return idx + ":" + strings.Join(parts, "_")
}

// GeneOrderCell rewrites a "[n]|a, b" hit cell as sorted position keys.
// Other cells are returned unchanged.
func GeneOrderCell(c string) (string, error) {
	if !strings.HasPrefix(c, "[") {
		return c, nil
	}
	_, list, ok := strings.Cut(c, "]|")
	if !ok {
		return "", fmt.Errorf("malformed hit cell %q", c)
	}

	members := strings.Split(strings.TrimSpace(list), ", ")
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = positionKey(m)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", "), nil
}

// GeneOrder rewrites every strain column (after "strain count") of a cluster
// table into gene-order keys.
func GeneOrder(t *Table) (*Table, error) {
	first := t.Column("strain count") + 1
	if first == 0 {
		return nil, fmt.Errorf("no %q column", "strain count")
	}

	out := &Table{Header: t.Header}
	for _, row := range t.Rows {
		nr := append([]string(nil), row...)
		for i := first; i < len(nr); i++ {
			v, err := GeneOrderCell(nr[i])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cell(row, 0), err)
			}
			nr[i] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}
