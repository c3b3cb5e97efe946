package model

import "strings"

// GeneNames collects the distinct gene symbols of a cluster, "tnpA_2" counting
// as "tnpA". "none" is dropped when real names exist and is the result when
// nothing is named.
func GeneNames(members []*Header) string {
	genes := newOrderedSet()
	for _, m := range members {
		if g, ok := m.Get("gene"); ok {
			name, _, _ := strings.Cut(g, "_")
			genes.add(name)
		}
	}
	if genes.len() > 1 {
		genes.discard(noneValue)
	}
	if genes.len() == 0 {
		return noneValue
	}
	return strings.Join(genes.items, ", ")
}

// ProteinNames collects the distinct protein= annotations in first-seen order.
func ProteinNames(members []*Header) string {
	proteins := newOrderedSet()
	for _, m := range members {
		if p, ok := m.Get("protein"); ok {
			proteins.add(p)
		}
	}
	return strings.Join(proteins.items, ", ")
}
