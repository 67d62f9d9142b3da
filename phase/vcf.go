package phase

import (
	"fmt"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/vcf"
	"os"
)

// FromVcf builds an Index from the phased heterozygous SNVs of sample. An
// empty sample name selects the only sample of a single-sample file.
func FromVcf(path, sample string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	records, header := vcf.GoReadToChan(path)
	sampleIdx, err := sampleIndex(header, sample)
	if err != nil {
		for range records {
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	idx, err := NewIndex(LociFromVcf(records, sampleIdx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}

func sampleIndex(header vcf.Header, sample string) (int, error) {
	if sample == "" {
		if len(header.Samples) != 1 {
			return 0, fmt.Errorf("a sample name is required for a file with %d samples", len(header.Samples))
		}
		for _, i := range header.Samples {
			return i, nil
		}
	}
	i, found := header.Samples[sample]
	if !found {
		return 0, fmt.Errorf("sample %s not found in header", sample)
	}
	return i, nil
}

// LociFromVcf collects the loci of sample sampleIdx from records, draining
// the channel. For a phased genotype a|b the reference-phase allele is a and
// the alternate-phase allele is b. Unphased, homozygous, missing, and non-SNV
// genotypes are skipped.
func LociFromVcf(records <-chan vcf.Vcf, sampleIdx int) []Locus {
	var ans []Locus
	var l Locus
	var ok bool
	for v := range records {
		if sampleIdx >= len(v.Samples) {
			continue
		}
		l, ok = locusFromGenotype(v, v.Samples[sampleIdx])
		if ok {
			ans = append(ans, l)
		}
	}
	return ans
}

func locusFromGenotype(v vcf.Vcf, s vcf.Sample) (Locus, bool) {
	if len(s.Alleles) != 2 || !isPhased(s) {
		return Locus{}, false
	}
	a, b := s.Alleles[0], s.Alleles[1]
	if a < 0 || b < 0 || a == b {
		return Locus{}, false
	}
	first, ok := alleleBase(v, a)
	if !ok {
		return Locus{}, false
	}
	second, ok := alleleBase(v, b)
	if !ok {
		return Locus{}, false
	}
	return Locus{Chrom: v.Chr, Pos: v.Pos, Ref: first, Alt: second}, true
}

// isPhased reports whether every allele after the first is joined by '|'.
func isPhased(s vcf.Sample) bool {
	if len(s.Phase) < 2 {
		return false
	}
	for _, p := range s.Phase[1:] {
		if !p {
			return false
		}
	}
	return true
}

// alleleBase returns the single nucleotide of allele index i, 0 being REF.
func alleleBase(v vcf.Vcf, i int16) (dna.Base, bool) {
	var seq string
	switch {
	case i == 0:
		seq = v.Ref
	case int(i) <= len(v.Alt):
		seq = v.Alt[i-1]
	default:
		return dna.N, false
	}
	if len(seq) != 1 {
		return dna.N, false
	}
	b, err := dna.ByteToBase(seq[0])
	if err != nil {
		return dna.N, false
	}
	b = dna.ToUpper(b)
	return b, isNucleotide(b)
}
