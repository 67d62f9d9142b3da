// Package phase holds the phased heterozygous loci used to attribute reads to
// homologs.
package phase

import (
	"errors"
	"fmt"
	"github.com/dasnellings/diphic/homolog"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/interval"
	"sort"
)

// ErrEmpty is returned when phasing input yields no usable locus.
var ErrEmpty = errors.New("no phased loci found")

// Locus is a phased heterozygous SNV. Pos is 1-based. Ref is the allele on the
// reference-phase homolog and Alt the allele on the alternate-phase homolog;
// neither needs to match the reference genome.
type Locus struct {
	Chrom string
	Pos   int
	Ref   dna.Base
	Alt   dna.Base
}

func (l Locus) GetChrom() string {
	return l.Chrom
}

func (l Locus) GetChromStart() int {
	return l.Pos - 1
}

func (l Locus) GetChromEnd() int {
	return l.Pos
}

// Label returns the homolog supported by observing b at this locus.
func (l Locus) Label(b dna.Base) homolog.Label {
	b = dna.ToUpper(b)
	switch b {
	case l.Ref:
		return homolog.Reference
	case l.Alt:
		return homolog.Alternate
	default:
		return homolog.Unresolved
	}
}

func (l Locus) String() string {
	return fmt.Sprintf("%s:%d %c|%c", l.Chrom, l.Pos, dna.BaseToRune(l.Ref), dna.BaseToRune(l.Alt))
}

// Index is an immutable set of loci grouped by chromosome. It is safe for
// concurrent reads.
type Index struct {
	loci map[string][]Locus
	tree map[string]*interval.IntervalNode
}

// NewIndex builds an Index. Repeating a locus with the same allele pair is
// tolerated; repeating it with a different pair, or giving a locus whose two
// alleles are equal, is an error.
func NewIndex(loci []Locus) (*Index, error) {
	seen := make(map[Locus]bool, len(loci))
	pos := make(map[string]map[int]Locus)
	idx := &Index{loci: make(map[string][]Locus)}
	var intervals []interval.Interval
	for _, l := range loci {
		l.Ref, l.Alt = dna.ToUpper(l.Ref), dna.ToUpper(l.Alt)
		if l.Pos < 1 {
			return nil, fmt.Errorf("locus %s has a non-positive position", l)
		}
		if l.Ref == l.Alt || !isNucleotide(l.Ref) || !isNucleotide(l.Alt) {
			return nil, fmt.Errorf("locus %s is not a heterozygous SNV", l)
		}
		if seen[l] {
			continue
		}
		if pos[l.Chrom] == nil {
			pos[l.Chrom] = make(map[int]Locus)
		}
		if prev, found := pos[l.Chrom][l.Pos]; found {
			return nil, fmt.Errorf("conflicting phase for %s:%d: %s and %s", l.Chrom, l.Pos, prev, l)
		}
		seen[l] = true
		pos[l.Chrom][l.Pos] = l
		idx.loci[l.Chrom] = append(idx.loci[l.Chrom], l)
		intervals = append(intervals, l)
	}
	if len(intervals) == 0 {
		return nil, ErrEmpty
	}
	for chrom := range idx.loci {
		curr := idx.loci[chrom]
		sort.Slice(curr, func(i, j int) bool { return curr[i].Pos < curr[j].Pos })
	}
	idx.tree = interval.BuildTree(intervals)
	return idx, nil
}

func isNucleotide(b dna.Base) bool {
	switch b {
	case dna.A, dna.C, dna.G, dna.T:
		return true
	}
	return false
}

// Len returns the total number of loci.
func (idx *Index) Len() int {
	var ans int
	for _, l := range idx.loci {
		ans += len(l)
	}
	return ans
}

// Chroms returns the chromosomes carrying at least one locus, sorted.
func (idx *Index) Chroms() []string {
	ans := make([]string, 0, len(idx.loci))
	for chrom := range idx.loci {
		ans = append(ans, chrom)
	}
	sort.Strings(ans)
	return ans
}

// Loci returns the loci of chrom in position order. The slice must not be
// modified.
func (idx *Index) Loci(chrom string) []Locus {
	return idx.loci[chrom]
}

// Overlapping returns the loci covered by q in position order.
func (idx *Index) Overlapping(q interval.Interval) []Locus {
	if _, found := idx.tree[q.GetChrom()]; !found {
		return nil
	}
	hits := interval.Query(idx.tree, q, "any")
	if len(hits) == 0 {
		return nil
	}
	ans := make([]Locus, len(hits))
	for i := range hits {
		ans[i] = hits[i].(Locus)
	}
	sort.Slice(ans, func(i, j int) bool { return ans[i].Pos < ans[j].Pos })
	return ans
}
