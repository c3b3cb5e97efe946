package model

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Annotation is the per-cluster summary written in front of the strain columns.
type Annotation struct {
	GCMean        string
	GCSpread      string
	ProteinLength int
	Flags         string
	Proteins      string
}

// Aggregate summarises all members of a cluster. It stops at the first
// malformed member.
//
// ProteinLength comes from the last member only, and is 0 when that member is
// truncated or joined.
func Aggregate(members []*Header) (*Annotation, error) {
	var (
		gc        = make([]float64, 0, len(members))
		proteins  = newOrderedSet()
		truncated int
		joined    int
		length    int
	)

	for _, m := range members {
		v, err := m.GC()
		if err != nil {
			return nil, err
		}
		gc = append(gc, v)

		loc, err := m.Location()
		if err != nil {
			return nil, err
		}

		p, err := m.Require("protein")
		if err != nil {
			return nil, err
		}
		proteins.add(p)

		length = 0
		switch {
		case loc.Truncated:
			truncated++
		case loc.Join:
			joined++
		default:
			length = loc.Len() / 3
		}
	}

	a := &Annotation{
		GCMean:        "???",
		GCSpread:      "0.00",
		ProteinLength: length,
		Flags:         flags(truncated, joined, len(members)),
		Proteins:      strings.Join(proteins.items, ", "),
	}
	if len(gc) > 0 {
		a.GCMean = FormatSig4(stat.Mean(gc, nil))
	}
	if len(gc) >= 2 {
		a.GCSpread = FormatSig4(math.Abs(floats.Max(gc) - floats.Min(gc)))
	}
	return a, nil
}

func flags(truncated, joined, n int) string {
	if truncated == 0 && joined == 0 {
		return ""
	}
	switch {
	case truncated == n:
		return "truncated: " + strconv.Itoa(truncated) + " of " + strconv.Itoa(n)
	case joined == n:
		return "frameshifts: " + strconv.Itoa(joined) + " of " + strconv.Itoa(n)
	default:
		return strconv.Itoa(truncated) + " trunc; " + strconv.Itoa(joined) + " frmshft out of " + strconv.Itoa(n)
	}
}

// FormatSig4 renders v with 4 significant digits the way the downstream
// spreadsheets expect: "45.9", "50.12", "100.0", "1e+04".
func FormatSig4(v float64) string {
	s := strconv.FormatFloat(v, 'g', 4, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// orderedSet keeps first-seen order so output stays byte-identical across runs.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) discard(v string) {
	if !s.seen[v] {
		return
	}
	delete(s.seen, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

func (s *orderedSet) len() int { return len(s.items) }
