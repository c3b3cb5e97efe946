package cluster

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jgbaldwinbrown/csvh"
	"go.uber.org/zap"

	"github.com/yumyai/straincomp/internal/util"
	"github.com/yumyai/straincomp/logger"
	"github.com/yumyai/straincomp/pkg/model"
)

const pseudogeneBanner = "#The following CDS may be pseudogenes or cut off at the end of a contig:\n\n"

// ProcessPaths locates an unpacked NCBI dataset and the per-strain files
// derived from it.
type ProcessPaths struct {
	MasterTable string // data/ncbi/master_table.tab
	GenomeDir   string // data/ncbi/data, one GCF_* directory per assembly
	FnaDir      string
	FaaDir      string
	Pseudogenes string
	StrainList  string
}

type Processed struct {
	Strains     int
	CDS         int
	Pseudogenes int
}

// Process rewrites every assembly's cds_from_genomic FASTA under the strain's
// locus prefix: nucleotides with a pctGC tag in FnaDir, translated proteins
// in FaaDir. CDS whose length is not a multiple of three are listed in
// Pseudogenes, and StrainList gets one line per assembly.
func Process(p ProcessPaths) (*Processed, error) {
	if err := util.RequireFiles(p.MasterTable, p.GenomeDir); err != nil {
		return nil, err
	}
	assemblies, err := readMasterTable(p.MasterTable)
	if err != nil {
		return nil, err
	}
	inputs, err := filepath.Glob(filepath.Join(p.GenomeDir, "*", "*.fna"))
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no .fna files under %s", util.ErrMissingInput, p.GenomeDir)
	}
	sort.Strings(inputs)

	strains, err := util.CreateAtomic(p.StrainList)
	if err != nil {
		return nil, err
	}
	defer strains.Close()
	pseudo, err := util.CreateAtomic(p.Pseudogenes)
	if err != nil {
		return nil, err
	}
	defer pseudo.Close()
	all, err := util.CreateAtomic(filepath.Join(p.FnaDir, "all.fna"))
	if err != nil {
		return nil, err
	}
	defer all.Close()

	if _, err := pseudo.WriteString(pseudogeneBanner); err != nil {
		return nil, err
	}

	res := &Processed{}
	for _, path := range inputs {
		info, ok := assemblies[assemblyIndex(path)]
		if !ok {
			return nil, fmt.Errorf("%s: assembly not in %s", path, p.MasterTable)
		}
		prefix, n, bad, err := processGenome(path, p, all, pseudo)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, err := fmt.Fprintf(strains, "%s | %s\n", prefix, info); err != nil {
			return nil, err
		}
		logger.Debug("Processed genome", zap.String("prefix", prefix), zap.Int("cds", n))
		res.Strains++
		res.CDS += n
		res.Pseudogenes += bad
	}

	if err := util.CommitAll(all, pseudo, strains); err != nil {
		return nil, err
	}
	logger.Info("Processed NCBI genomes",
		zap.Int("strains", res.Strains),
		zap.Int("cds", res.CDS),
		zap.Int("potential_pseudogenes", res.Pseudogenes))
	return res, nil
}

// processGenome names the outputs after the locus prefix of the first CDS.
func processGenome(path string, p ProcessPaths, all, pseudo io.Writer) (string, int, int, error) {
	records, err := readNucleotides(path)
	if err != nil {
		return "", 0, 0, err
	}
	if len(records) == 0 {
		return "", 0, 0, fmt.Errorf("no sequences")
	}
	tag, ok := model.ParseHeader(records[0].ID + " " + records[0].Desc).Get("locus_tag")
	if !ok {
		return "", 0, 0, fmt.Errorf("first record has no locus_tag")
	}
	prefix := model.LocusPrefix(tag)

	fna, err := util.CreateAtomic(filepath.Join(p.FnaDir, prefix+".fna"))
	if err != nil {
		return "", 0, 0, err
	}
	defer fna.Close()
	faa, err := util.CreateAtomic(filepath.Join(p.FaaDir, prefix+".faa"))
	if err != nil {
		return "", 0, 0, err
	}
	defer faa.Close()

	nw := fasta.NewWriter(io.MultiWriter(fna, all), lineWidth)
	pw := fasta.NewWriter(faa, lineWidth)
	bad := 0
	for _, s := range records {
		s.Desc = withGC(s.Desc, pctGC(s.Seq))
		if _, err := nw.Write(s); err != nil {
			return "", 0, 0, err
		}
		if len(s.Seq)%3 != 0 {
			bad++
			if _, err := fmt.Fprintf(pseudo, "%s %s\n", s.ID, s.Desc); err != nil {
				return "", 0, 0, err
			}
		}
		prot := linear.NewSeq(strings.TrimPrefix(s.ID, "lcl|"), Translate(s.Seq), alphabet.Protein)
		prot.Desc = s.Desc
		if _, err := pw.Write(prot); err != nil {
			return "", 0, 0, err
		}
	}
	if err := util.CommitAll(fna, faa); err != nil {
		return "", 0, 0, err
	}
	return prefix, len(records), bad, nil
}

func readNucleotides(path string) ([]*linear.Seq, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []*linear.Seq
	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		out = append(out, sc.Seq().(*linear.Seq))
	}
	return out, sc.Error()
}

// readMasterTable maps assembly index (the digits of GCF_000006945.2) to the
// strain description written after the prefix in strainlist.txt:
//
//	Salmonella enterica LT2 [GCF_000006945.2; SAMN02604315; PRJNA57799; Complete]
func readMasterTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	cr := csvh.CsvIn(f)
	cr.FieldsPerRecord = -1
	header := true
	for l, e := cr.Read(); e != io.EOF; l, e = cr.Read() {
		if e != nil {
			return nil, fmt.Errorf("%s: %w", path, e)
		}
		if header {
			header = false
			continue
		}
		if len(l) < 6 {
			return nil, fmt.Errorf("%s: want 6 columns, got %d in %q", path, len(l), strings.Join(l, "\t"))
		}
		status := strings.TrimSpace(l[5])
		if status == "Complete Genome" {
			status = "Complete"
		}
		id := strings.TrimSpace(l[0])
		out[assemblyNumber(id)] = fmt.Sprintf("%s %s [%s; %s; %s; %s]",
			strings.TrimSpace(l[1]), strings.TrimSpace(l[2]), id, strings.TrimSpace(l[4]), strings.TrimSpace(l[3]), status)
	}
	return out, nil
}

// assemblyNumber drops the GCF_/GCA_ prefix and the version.
func assemblyNumber(accession string) string {
	if _, rest, ok := strings.Cut(accession, "_"); ok {
		accession = rest
	}
	n, _, _ := strings.Cut(accession, ".")
	return n
}

// assemblyIndex reads the assembly number from the directory holding path.
func assemblyIndex(path string) string {
	return assemblyNumber(filepath.Base(filepath.Dir(path)))
}

// pctGC is the G+C percentage over unambiguous bases (S counts as G/C, W as
// A/T), cut to four characters the way the downstream tables expect: 45.9,
// 52.3, 100.
func pctGC(s alphabet.Letters) string {
	var gc, n int
	for _, l := range s {
		switch l {
		case 'G', 'C', 'S', 'g', 'c', 's':
			gc++
			n++
		case 'A', 'T', 'W', 'a', 't', 'w':
			n++
		}
	}
	if n == 0 {
		return "0.0"
	}
	v := strconv.FormatFloat(100*float64(gc)/float64(n), 'f', -1, 64)
	if !strings.Contains(v, ".") {
		v += ".0"
	}
	if len(v) > 4 {
		v = v[:4]
	}
	return strings.TrimSuffix(v, ".")
}

// withGC inserts the pctGC tag before [gbkey=...], or appends it.
func withGC(desc, gc string) string {
	tag := "[pctGC=" + gc + "]"
	if i := strings.Index(desc, "[gbkey"); i >= 0 {
		return desc[:i] + tag + " " + desc[i:]
	}
	if desc == "" {
		return tag
	}
	return desc + " " + tag
}

var codons = map[string]alphabet.Letter{
	"TTT": 'F', "TTC": 'F',
	"TTA": 'L', "TTG": 'L', "CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I',
	"ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S', "AGT": 'S', "AGC": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y',
	"CAT": 'H', "CAC": 'H',
	"CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N',
	"AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D',
	"GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C',
	"TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
	"TAA": '*', "TAG": '*', "TGA": '*',
}

// Translate reads whole codons with the standard code and drops a final stop.
// Codons with ambiguous bases become X; a trailing partial codon is ignored.
func Translate(s alphabet.Letters) alphabet.Letters {
	out := make(alphabet.Letters, 0, len(s)/3)
	for i := 0; i+3 <= len(s); i += 3 {
		aa, ok := codons[strings.ToUpper(string(alphabet.LettersToBytes(s[i:i+3])))]
		if !ok {
			aa = 'X'
		}
		out = append(out, aa)
	}
	if n := len(out); n > 0 && out[n-1] == '*' {
		out = out[:n-1]
	}
	return out
}
