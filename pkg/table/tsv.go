package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yumyai/straincomp/internal/util"
)

// Table is a whole tab-separated file held in memory, header first.
// Cells never contain tabs and quote characters are ordinary text (protein
// names such as "putative" transporter), so lines are split verbatim.
type Table struct {
	Header []string
	Rows   [][]string
}

func ParseTable(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if t.Header == nil {
			t.Header = fields
			continue
		}
		t.Rows = append(t.Rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t.Header == nil {
		return nil, fmt.Errorf("empty table")
	}
	return t, nil
}

func ReadTable(path string) (*Table, error) {
	if err := util.RequireFiles(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Column returns the index of the named header column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, fields := range append([][]string{t.Header}, t.Rows...) {
		k, err := io.WriteString(w, strings.Join(fields, "\t")+"\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteFile replaces path atomically.
func (t *Table) WriteFile(path string) error {
	a, err := util.CreateAtomic(path)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := t.WriteTo(a); err != nil {
		return err
	}
	return a.Commit()
}

// cell returns row[i] or "" for short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
