package phase

import (
	"fmt"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"os"
	"strconv"
	"strings"
)

// FromPhaseSet reads a phase-set table of tab separated
// chrom, 1-based pos, reference-phase allele, alternate-phase allele lines.
// Lines starting with '#' are ignored.
func FromPhaseSet(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	file := fileio.EasyOpen(path)
	defer func() {
		exception.PanicOnErr(file.Close())
	}()
	var loci []Locus
	var l Locus
	var line string
	var done bool
	var err error
	var lineNum int
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		lineNum++
		l, err = parseLocus(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNum, err)
		}
		loci = append(loci, l)
	}
	idx, err := NewIndex(loci)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

func parseLocus(line string) (Locus, error) {
	var err error
	var l Locus
	col := strings.Split(line, "\t")
	if len(col) != 4 {
		return l, fmt.Errorf("expected 4 columns, found %d: %q", len(col), line)
	}
	l.Chrom = col[0]
	l.Pos, err = strconv.Atoi(col[1])
	if err != nil {
		return l, err
	}
	if len(col[2]) != 1 || len(col[3]) != 1 {
		return l, fmt.Errorf("alleles must be single bases: %q", line)
	}
	if l.Ref, err = dna.ByteToBase(col[2][0]); err != nil {
		return l, fmt.Errorf("reference-phase allele %q: %w", col[2], err)
	}
	if l.Alt, err = dna.ByteToBase(col[3][0]); err != nil {
		return l, fmt.Errorf("alternate-phase allele %q: %w", col[3], err)
	}
	l.Ref, l.Alt = dna.ToUpper(l.Ref), dna.ToUpper(l.Alt)
	return l, nil
}

// WritePhaseSet writes idx in the format read by FromPhaseSet.
func WritePhaseSet(path string, idx *Index) {
	var err error
	out := fileio.EasyCreate(path)
	for _, chrom := range idx.Chroms() {
		for _, l := range idx.Loci(chrom) {
			_, err = fmt.Fprintf(out, "%s\t%d\t%c\t%c\n", l.Chrom, l.Pos, dna.BaseToRune(l.Ref), dna.BaseToRune(l.Alt))
			exception.PanicOnErr(err)
		}
	}
	err = out.Close()
	exception.PanicOnErr(err)
}
