package cluster

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"go.uber.org/zap"

	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/model"
)

// Member is one clustered protein. Header is the definition line without '>'.
type Member struct {
	Header string
	Seq    string
}

// ReadFlatClusters parses result2flat output. Each cluster opens with the
// representative's bare header line (no sequence) and continues with
// header/sequence records. Clusters come back largest first; equal sizes keep
// file order.
func ReadFlatClusters(r io.Reader) ([][]Member, error) {
	var (
		clusters [][]Member
		current  []Member
	)

	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		if s.Len() == 0 {
			if len(current) > 0 {
				clusters = append(clusters, current)
			}
			current = nil
			continue
		}

		header := s.Name()
		if d := s.Description(); d != "" {
			header += " " + d
		}
		current = append(current, Member{Header: header, Seq: s.Seq.String()})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i]) > len(clusters[j])
	})
	return clusters, nil
}

func ReadFlatClustersFile(path string) ([][]Member, error) {
	if err := util.RequireFiles(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clusters, err := ReadFlatClusters(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clusters, nil
}

// Name is the cluster name for the i-th cluster (1-based), e.g. CLUSTER_000042.
func Name(prefix string, i int) string {
	return fmt.Sprintf("%s_%06d", prefix, i)
}

func formatSeq(seq string) string {
	var b strings.Builder
	for len(seq) > lineWidth {
		b.WriteString(seq[:lineWidth])
		b.WriteByte('\n')
		seq = seq[lineWidth:]
	}
	b.WriteString(seq)
	return b.String()
}

// Outputs are the files WriteNamedClusters produces.
type Outputs struct {
	Summary         string
	Representatives string
	HeaderInfo      string
	Metadata        string
}

const metadataHeader = "LOCUS_ID\tCLUSTER_ID\tPROTEIN_ID\tACCESSION\tNCBI_ANNOTATION\n"

// namedWriter holds the four outputs of one naming run.
type namedWriter struct {
	summary, repr, info, meta io.Writer
}

func (w *namedWriter) header(n int, prefix string) error {
	_, err := fmt.Fprintf(w.summary, "#Number of clusters: %d\n#Cluster prefix: %s_\n", n, prefix)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w.meta, metadataHeader)
	return err
}

func (w *namedWriter) cluster(name string, members []Member) error {
	headers := make([]*model.Header, len(members))
	records := make([]string, len(members))
	for i, m := range members {
		headers[i] = model.ParseHeader(m.Header)
		records[i] = ">" + m.Header + "\n" + formatSeq(m.Seq)
	}

	if _, err := fmt.Fprintf(w.summary, "#%s [members= %d]\n%s\n", name, len(members), strings.Join(records, "\n")); err != nil {
		return err
	}

	rep := members[0]
	if _, err := fmt.Fprintf(w.repr, ">%s_%s\n%s\n", name, rep.Header, formatSeq(rep.Seq)); err != nil {
		return err
	}

	info := []string{name, model.GeneNames(headers), model.ProteinNames(headers), strconv.Itoa(len(members))}
	for _, m := range members {
		info = append(info, ">"+m.Header)
	}
	if _, err := io.WriteString(w.info, strings.Join(info, "\t")+"\n"); err != nil {
		return err
	}

	for _, h := range headers {
		protein, ok := h.Get("protein")
		if !ok {
			protein = "none"
		}
		row := []string{h.LocusTag(), name, h.ProteinID(), "lcl|" + h.Accession, protein}
		if _, err := io.WriteString(w.meta, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteNamedClusters names clusters in order and writes the summary FASTA,
// the representative FASTA, cluster_header_info.tab and cluster_metadata.tab.
// Nothing is replaced unless every output is written.
func WriteNamedClusters(clusters [][]Member, prefix string, out Outputs) error {
	paths := []string{out.Summary, out.Representatives, out.HeaderInfo, out.Metadata}
	files := make([]*util.AtomicFile, 0, len(paths))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, p := range paths {
		f, err := util.CreateAtomic(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	w := &namedWriter{summary: files[0], repr: files[1], info: files[2], meta: files[3]}
	if err := w.header(len(clusters), prefix); err != nil {
		return err
	}
	for i, members := range clusters {
		if err := w.cluster(Name(prefix, i+1), members); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err := f.Commit(); err != nil {
			return err
		}
	}
	logger.Info("Named clusters", zap.Int("clusters", len(clusters)), zap.String("prefix", prefix))
	return nil
}
