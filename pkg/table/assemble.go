// Building the strain x cluster tables from cluster_header_info.tab.

package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/model"
	"go.uber.org/zap"
)

var (
	ClusterTableHeader = []string{
		"CLUSTER", "NCBI gene names", "NCBI annotations", "GCpct", "GC spread",
		"protein length", "flags", "total count", "strain count",
	}
	HitCountHeader = []string{"CLUSTER", "total count", "strain count"}
)

// BuildRow matches every member of rec to the strains, in strain order, and
// summarises the cluster.
func BuildRow(rec *model.ClusterRecord, strains []*model.Strain) (*model.Row, error) {
	ann, err := model.Aggregate(rec.Members)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Name, err)
	}

	row := &model.Row{
		Cluster:    rec,
		Annotation: ann,
		Hits:       make([]model.Hit, 0, len(strains)),
	}

	m := model.NewMatcher(rec.Members)
	for _, s := range strains {
		hit, err := m.Match(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Name, err)
		}
		row.Hits = append(row.Hits, hit)
	}

	if left := m.Unclaimed(); len(left) > 0 {
		prefixes := make([]string, 0, len(left))
		for _, h := range left {
			prefixes = append(prefixes, model.LocusPrefix(h.LocusTag()))
		}
		logger.Warn("Members without a listed strain",
			zap.String("cluster", rec.Name),
			zap.Int("count", len(left)),
			zap.Strings("locus_prefixes", prefixes))
	}
	if total := row.TotalCount(); total != rec.MemberCount && len(m.Unclaimed()) == 0 {
		logger.Warn("Member count disagrees with header info",
			zap.String("cluster", rec.Name),
			zap.Int("declared", rec.MemberCount),
			zap.Int("matched", total))
	}

	return row, nil
}

// Writer emits the detailed table and the hit-count table side by side.
type Writer struct {
	full  io.Writer
	count io.Writer
}

func NewWriter(full, count io.Writer) *Writer {
	return &Writer{full: full, count: count}
}

func (w *Writer) WriteHeader(strains []*model.Strain) error {
	lines := make([]string, len(strains))
	for i, s := range strains {
		lines[i] = s.Line
	}

	if _, err := io.WriteString(w.full, joinRow(ClusterTableHeader, lines)); err != nil {
		return err
	}
	_, err := io.WriteString(w.count, joinRow(HitCountHeader, lines))
	return err
}

func (w *Writer) WriteRow(r *model.Row) error {
	rec, ann := r.Cluster, r.Annotation
	total := strconv.Itoa(r.TotalCount())
	strainCount := strconv.Itoa(r.StrainCount())

	cells := make([]string, len(r.Hits))
	counts := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		cells[i] = h.Cell()
		counts[i] = strconv.Itoa(h.Count())
	}

	front := []string{
		rec.Name, rec.GeneNames, ann.Proteins, ann.GCMean, ann.GCSpread,
		strconv.Itoa(ann.ProteinLength), ann.Flags, total, strainCount,
	}
	if _, err := io.WriteString(w.full, joinRow(front, cells)); err != nil {
		return err
	}

	countFront := []string{rec.Name + " - " + rec.ProteinNames, total, strainCount}
	_, err := io.WriteString(w.count, joinRow(countFront, counts))
	return err
}

func joinRow(front, rest []string) string {
	var b strings.Builder
	b.WriteString(strings.Join(front, "\t"))
	for _, s := range rest {
		b.WriteByte('\t')
		b.WriteString(s)
	}
	b.WriteByte('\n')
	return b.String()
}

// ReadClusterRecords streams cluster_header_info.tab, one record per call of fn.
func ReadClusterRecords(r io.Reader, fn func(*model.ClusterRecord) error) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				rec, perr := model.ParseClusterRecord(line)
				if perr != nil {
					return fmt.Errorf("line %d: %w", lineNo, perr)
				}
				if ferr := fn(rec); ferr != nil {
					return ferr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Assemble streams records from r and writes both tables. It returns the
// number of rows written.
func Assemble(r io.Reader, strains []*model.Strain, w *Writer) (int, error) {
	if err := w.WriteHeader(strains); err != nil {
		return 0, err
	}
	n := 0
	err := ReadClusterRecords(r, func(rec *model.ClusterRecord) error {
		row, err := BuildRow(rec, strains)
		if err != nil {
			return err
		}
		n++
		return w.WriteRow(row)
	})
	return n, err
}

// Paths names the files one table build reads and writes.
type Paths struct {
	StrainList    string
	HeaderInfo    string
	ClusterTable  string
	HitCountTable string
}

// MakeTables is the file-level entry point: both outputs appear only when the
// whole build succeeded.
func MakeTables(p Paths) (int, error) {
	if err := util.RequireFiles(p.StrainList, p.HeaderInfo); err != nil {
		return 0, err
	}

	strains, err := model.ReadStrainList(p.StrainList)
	if err != nil {
		return 0, err
	}
	logger.Info("Clustering strains", zap.Int("strains", len(strains)))

	in, err := os.Open(p.HeaderInfo)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	full, err := util.CreateAtomic(p.ClusterTable)
	if err != nil {
		return 0, err
	}
	defer full.Close()

	count, err := util.CreateAtomic(p.HitCountTable)
	if err != nil {
		return 0, err
	}
	defer count.Close()

	n, err := Assemble(in, strains, NewWriter(full, count))
	if err != nil {
		return n, fmt.Errorf("%s: %w", p.HeaderInfo, err)
	}

	if err := util.CommitAll(full, count); err != nil {
		return n, err
	}
	return n, nil
}
