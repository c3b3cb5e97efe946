package model

import (
	"errors"
	"strconv"
	"strings"
)

const noneValue = "none"

// Header is one member's FASTA definition line broken into its accession and
// its [key=value] tags, e.g.
//
//	NZ_LR861808.1_cds_WP_000502119.1_1973 [gene=tnpA] [locus_tag=JMT79_RS10105] [protein=...] [location=complement(2043708..2044166)] [pctGC=45.9] [gbkey=CDS]
type Header struct {
	Text      string
	Accession string
	tags      map[string]string
}

// ParseHeader never fails: missing tags surface through Require.
func ParseHeader(text string) *Header {
	text = strings.TrimRight(text, "\r\n")
	parts := strings.Split(text, " [")

	h := &Header{
		Text:      text,
		Accession: strings.TrimPrefix(parts[0], ">"),
		tags:      make(map[string]string, len(parts)),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSuffix(part, "]"), "=")
		if !ok {
			continue
		}
		if _, seen := h.tags[key]; seen {
			continue
		}
		h.tags[key] = value
	}
	return h
}

func (h *Header) Get(key string) (string, bool) {
	v, ok := h.tags[key]
	return v, ok
}

// Require returns the tag value or a *HeaderParseError naming the key.
func (h *Header) Require(key string) (string, error) {
	v, ok := h.tags[key]
	if !ok {
		return "", &HeaderParseError{Key: key, Header: h.Text}
	}
	return v, nil
}

func (h *Header) LocusTag() string {
	if v, ok := h.tags["locus_tag"]; ok {
		return v
	}
	return noneValue
}

func (h *Header) ProteinID() string {
	if v, ok := h.tags["protein_id"]; ok {
		return v
	}
	return noneValue
}

// Short is the locus_tag|protein_id|accession form used in table cells.
func (h *Header) Short() string {
	return h.LocusTag() + "|" + h.ProteinID() + "|" + h.Accession
}

func (h *Header) GC() (float64, error) {
	raw, err := h.Require("pctGC")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &HeaderParseError{Key: "pctGC", Header: h.Text, Err: err}
	}
	return v, nil
}

func (h *Header) Location() (Location, error) {
	raw, err := h.Require("location")
	if err != nil {
		return Location{}, err
	}
	loc, err := ParseLocation(raw)
	if err != nil {
		return Location{}, &HeaderParseError{Key: "location", Header: h.Text, Err: err}
	}
	return loc, nil
}

// Location is an NCBI feature location such as "complement(10..300)",
// "<1..300" or "join(1..20,22..300)".
type Location struct {
	Start      int
	End        int
	Complement bool
	Truncated  bool
	Join       bool
}

var errBadSpan = errors.New("expected start..end")

// ParseLocation only resolves Start/End for plain spans; truncated and joined
// locations keep their flags and zero coordinates.
func ParseLocation(raw string) (Location, error) {
	var loc Location

	span := raw
	if strings.HasPrefix(span, "complement(") {
		loc.Complement = true
		span = strings.TrimPrefix(span, "complement(")
	}
	span = strings.ReplaceAll(span, ")", "")

	switch {
	case strings.ContainsAny(span, "<>"):
		loc.Truncated = true
		return loc, nil
	case strings.Contains(span, "join"):
		loc.Join = true
		return loc, nil
	}

	from, to, ok := strings.Cut(span, "..")
	if !ok {
		return loc, errBadSpan
	}
	var err error
	if loc.Start, err = strconv.Atoi(from); err != nil {
		return loc, err
	}
	if loc.End, err = strconv.Atoi(to); err != nil {
		return loc, err
	}
	return loc, nil
}

// Len is the nucleotide span, 0 for truncated or joined locations.
func (l Location) Len() int {
	if l.Truncated || l.Join {
		return 0
	}
	return l.End - l.Start + 1
}
