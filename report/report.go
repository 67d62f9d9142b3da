// Package report summarizes a diphic run: per-chromosome counts, allelic
// balance of the accessibility signal, and digests of the written outputs.
package report

import (
	"fmt"
	"github.com/dasnellings/diphic/access"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/contact"
	"github.com/dasnellings/diphic/homolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"io"
	"math"
	"sort"
)

// Chrom holds what the tasks of one chromosome counted.
type Chrom struct {
	Name     string
	Classify classify.Stats
	Contacts contact.Stats
	Access   access.Stats
	RawRef   int // raw insertions on the reference-phase homolog
	RawAlt   int
	CorrRef  int // corrected insertions on the reference-phase homolog
	CorrAlt  int
}

// AddEvents accumulates per-homolog totals from tagged events.
func (c *Chrom) AddEvents(events []access.Event) {
	for _, e := range events {
		_, l, _ := homolog.Split(e.Chrom)
		switch l {
		case homolog.Reference:
			c.RawRef += e.Raw
			c.CorrRef += e.Corrected
		case homolog.Alternate:
			c.RawAlt += e.Raw
			c.CorrAlt += e.Corrected
		}
	}
}

// Digest is the xxhash of one output file.
type Digest struct {
	File string
	Sum  uint64
}

// Summary is the report of a whole run.
type Summary struct {
	Chroms  []Chrom
	Shared  classify.Stats // names of a read table that carry no chromosome
	Digests []Digest
}

// Total sums the chromosomes into one row named "total".
func (s Summary) Total() Chrom {
	ans := Chrom{Name: "total", Access: access.Stats{Junctions: make(map[int]access.JunctionCount)}}
	ans.Classify.Reference = s.Shared.Reference
	ans.Classify.Alternate = s.Shared.Alternate
	ans.Classify.Conflicted = s.Shared.Conflicted
	for _, c := range s.Chroms {
		ans.Classify.Alignments += c.Classify.Alignments
		ans.Classify.WithEvidence += c.Classify.WithEvidence
		ans.Classify.Observations += c.Classify.Observations
		ans.Classify.Reference += c.Classify.Reference
		ans.Classify.Alternate += c.Classify.Alternate
		ans.Classify.Conflicted += c.Classify.Conflicted
		ans.Contacts.Alignments += c.Contacts.Alignments
		ans.Contacts.Assigned += c.Contacts.Assigned
		ans.Contacts.Names += c.Contacts.Names
		ans.Contacts.Records += c.Contacts.Records
		ans.Contacts.Cardinality += c.Contacts.Cardinality
		ans.Access.Alignments += c.Access.Alignments
		ans.Access.Classified += c.Access.Classified
		ans.Access.Raw += c.Access.Raw
		ans.Access.Corrected += c.Access.Corrected
		for jt, jc := range c.Access.Junctions {
			curr := ans.Access.Junctions[jt]
			curr.Reference += jc.Reference
			curr.Alternate += jc.Alternate
			ans.Access.Junctions[jt] = curr
		}
		ans.RawRef += c.RawRef
		ans.RawAlt += c.RawAlt
		ans.CorrRef += c.CorrRef
		ans.CorrAlt += c.CorrAlt
	}
	return ans
}

// RefFraction returns ref / (ref + alt), or NaN with no counts.
func RefFraction(ref, alt int) float64 {
	if ref+alt == 0 {
		return math.NaN()
	}
	return float64(ref) / float64(ref+alt)
}

// BinomialP returns the two-sided p-value of observing ref of ref + alt
// counts on one homolog when both homologs are equally likely.
func BinomialP(ref, alt int) float64 {
	n := ref + alt
	if n == 0 {
		return 1
	}
	k := ref
	if alt < k {
		k = alt
	}
	b := distuv.Binomial{N: float64(n), P: 0.5}
	return math.Min(1, 2*b.CDF(float64(k)))
}

// FractionSpread returns the mean and standard deviation across chromosomes
// of the corrected reference fraction, skipping chromosomes without signal.
func (s Summary) FractionSpread() (mean, std float64) {
	var fractions []float64
	for _, c := range s.Chroms {
		if f := RefFraction(c.CorrRef, c.CorrAlt); !math.IsNaN(f) {
			fractions = append(fractions, f)
		}
	}
	if len(fractions) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(fractions) == 1 {
		return fractions[0], 0
	}
	return stat.MeanStdDev(fractions, nil)
}

const header = "chrom\talignments\twith_evidence\tconflicted\tref_names\talt_names\tcontacts\tcardinality_dropped\traw_ref\traw_alt\tcorrected_ref\tcorrected_alt\tref_fraction_raw\tref_fraction_corrected\tbalance_p\n"

func writeRow(w io.Writer, c Chrom) error {
	_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4g\n",
		c.Name, c.Classify.Alignments, c.Classify.WithEvidence, c.Classify.Conflicted,
		c.Classify.Reference, c.Classify.Alternate, c.Contacts.Records, c.Contacts.Cardinality,
		c.RawRef, c.RawAlt, c.CorrRef, c.CorrAlt,
		RefFraction(c.RawRef, c.RawAlt), RefFraction(c.CorrRef, c.CorrAlt), BinomialP(c.CorrRef, c.CorrAlt))
	return err
}

// Write writes the summary table: one row per chromosome, a total row, the
// names shared by every chromosome when a read table gave any, the
// junction-type breakdown, and the output digests.
func Write(w io.Writer, s Summary) error {
	var err error
	if _, err = io.WriteString(w, header); err != nil {
		return err
	}
	for _, c := range s.Chroms {
		if err = writeRow(w, c); err != nil {
			return err
		}
	}
	total := s.Total()
	if err = writeRow(w, total); err != nil {
		return err
	}
	if s.Shared != (classify.Stats{}) {
		_, err = fmt.Fprintf(w, "#shared_names\t%d\t%d\t%d\n", s.Shared.Reference, s.Shared.Alternate, s.Shared.Conflicted)
		if err != nil {
			return err
		}
	}
	mean, std := s.FractionSpread()
	if _, err = fmt.Fprintf(w, "#ref_fraction_corrected_mean\t%.4f\tsd\t%.4f\n", mean, std); err != nil {
		return err
	}
	for _, jt := range JunctionTypes(total.Access.Junctions) {
		jc := total.Access.Junctions[jt]
		if _, err = fmt.Fprintf(w, "#junction\t%d\t%d\t%d\n", jt, jc.Reference, jc.Alternate); err != nil {
			return err
		}
	}
	for _, d := range s.Digests {
		if _, err = fmt.Fprintf(w, "#xxhash64\t%s\t%016x\n", d.File, d.Sum); err != nil {
			return err
		}
	}
	return nil
}

// JunctionTypes returns the keys of counts, sorted.
func JunctionTypes(counts map[int]access.JunctionCount) []int {
	ans := make([]int, 0, len(counts))
	for jt := range counts {
		ans = append(ans, jt)
	}
	sort.Ints(ans)
	return ans
}
