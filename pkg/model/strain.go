package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Strain is one line of the strain list:
//
//	JMT79 | Salmonella enterica Typhimurium SL1344 [GCF_000210855.2; SAMEA1705935; PRJNA86; Complete]
type Strain struct {
	Prefix      string // locus-tag prefix
	Line        string // full line, used as the table column header
	Name        string // species and strain
	Assembly    string
	BioSample   string
	BioProject  string
	Level       string
	Description string
}

func parseStrainLine(line string) (*Strain, error) {
	prefix, desc, _ := strings.Cut(line, " | ")
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("strain line %q has no locus prefix", line)
	}

	s := &Strain{
		Prefix:      prefix,
		Line:        line,
		Description: desc,
		Name:        strings.TrimSpace(desc),
	}

	if name, meta, ok := strings.Cut(desc, " ["); ok {
		s.Name = strings.TrimSpace(name)
		fields := strings.Split(strings.TrimSuffix(meta, "]"), "; ")
		for i, f := range fields {
			switch i {
			case 0:
				s.Assembly = f
			case 1:
				s.BioSample = f
			case 2:
				s.BioProject = f
			case 3:
				s.Level = f
			}
		}
	}
	return s, nil
}

// ParseStrainList keeps file order, which is also the column order of every
// table built from it. Blank lines are skipped; a repeated prefix is an
// *AmbiguousPrefixError.
func ParseStrainList(r io.Reader) ([]*Strain, error) {
	var strains []*Strain
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := parseStrainLine(line)
		if err != nil {
			return nil, err
		}
		if seen[s.Prefix] {
			return nil, &AmbiguousPrefixError{Prefixes: []string{s.Prefix}}
		}
		seen[s.Prefix] = true
		strains = append(strains, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return strains, nil
}

func ReadStrainList(path string) ([]*Strain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	strains, err := ParseStrainList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return strains, nil
}

// LocusPrefix returns the strain prefix of a locus tag: the text before the
// first underscore (JMT79_RS10105), or the leading non-digits (STM1234).
func LocusPrefix(locusTag string) string {
	if before, _, ok := strings.Cut(locusTag, "_"); ok {
		return before
	}
	i := strings.IndexAny(locusTag, "0123456789")
	if i < 0 {
		return locusTag
	}
	return locusTag[:i]
}
