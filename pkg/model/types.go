package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ClusterRecord is one line of cluster_header_info.tab:
//
//	CLUSTER_000001 <tab> genes <tab> proteins <tab> member count <tab> header <tab> header ...
type ClusterRecord struct {
	Name         string
	GeneNames    string
	ProteinNames string
	MemberCount  int
	Members      []*Header
}

func ParseClusterRecord(line string) (*ClusterRecord, error) {
	terms := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(terms) < 4 {
		return nil, fmt.Errorf("cluster record %q: expected at least 4 fields, got %d", firstField(line), len(terms))
	}

	count, err := strconv.Atoi(strings.TrimSpace(terms[3]))
	if err != nil {
		return nil, fmt.Errorf("cluster record %q: member count: %w", terms[0], err)
	}

	rec := &ClusterRecord{
		Name:         terms[0],
		GeneNames:    terms[1],
		ProteinNames: terms[2],
		MemberCount:  count,
		Members:      make([]*Header, 0, len(terms)-4),
	}
	for _, t := range terms[4:] {
		if t == "" {
			continue
		}
		rec.Members = append(rec.Members, ParseHeader(t))
	}
	return rec, nil
}

// String renders the record back into its tab-separated line (no newline).
func (c *ClusterRecord) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('\t')
	b.WriteString(c.GeneNames)
	b.WriteByte('\t')
	b.WriteString(c.ProteinNames)
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(c.MemberCount))
	for _, m := range c.Members {
		b.WriteByte('\t')
		b.WriteString(m.Text)
	}
	return b.String()
}

// Row is one assembled line of the cluster tables.
type Row struct {
	Cluster    *ClusterRecord
	Annotation *Annotation
	Hits       []Hit
}

func (r *Row) TotalCount() int {
	n := 0
	for _, h := range r.Hits {
		n += h.Count()
	}
	return n
}

func (r *Row) StrainCount() int {
	n := 0
	for _, h := range r.Hits {
		if h.Count() > 0 {
			n++
		}
	}
	return n
}

func firstField(line string) string {
	f, _, _ := strings.Cut(line, "\t")
	return f
}
