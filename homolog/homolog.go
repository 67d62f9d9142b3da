// Package homolog names the two parental copies of a chromosome and
// implements the "-r"/"-a" chromosome suffix convention shared by every
// output of diphic.
package homolog

import (
	"fmt"
	"log"
	"strings"
)

// Label identifies which homolog a read was attributed to.
type Label uint8

const (
	Unresolved Label = iota
	Reference        // reference-phase homolog, first allele of a phased genotype
	Alternate        // alternate-phase homolog, second allele of a phased genotype
)

// Suffixes appended to a chromosome name to tag it with a homolog.
const (
	ReferenceSuffix = "-r"
	AlternateSuffix = "-a"
	suffixLen       = 2
)

// String returns the one letter code used in assignment tables.
func (l Label) String() string {
	switch l {
	case Reference:
		return "r"
	case Alternate:
		return "a"
	default:
		return "unresolved"
	}
}

// Suffix returns the chromosome suffix for l, or "" for Unresolved.
func (l Label) Suffix() string {
	switch l {
	case Reference:
		return ReferenceSuffix
	case Alternate:
		return AlternateSuffix
	default:
		return ""
	}
}

// ParseLabel accepts the codes written by Label.String, the bare or dashed
// suffixes, long names, and tagged chromosome names such as "chr1-a".
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(s) {
	case "r", "-r", "ref", "reference":
		return Reference, nil
	case "a", "-a", "alt", "alternate":
		return Alternate, nil
	}
	if _, l, ok := Split(s); ok {
		return l, nil
	}
	return Unresolved, fmt.Errorf("unrecognized homolog label %q", s)
}

// Tag appends the suffix of l to chrom. Tagging with Unresolved is a
// programming error since unresolved reads never reach an output.
func Tag(chrom string, l Label) string {
	if l == Unresolved {
		log.Panicf("ERROR: cannot tag %s with an unresolved homolog", chrom)
	}
	return chrom + l.Suffix()
}

// Split separates a tagged chromosome name into its untagged name and label.
func Split(tagged string) (chrom string, l Label, ok bool) {
	if len(tagged) <= suffixLen {
		return tagged, Unresolved, false
	}
	switch tagged[len(tagged)-suffixLen:] {
	case ReferenceSuffix:
		return Strip(tagged), Reference, true
	case AlternateSuffix:
		return Strip(tagged), Alternate, true
	}
	return tagged, Unresolved, false
}

// IsTagged reports whether name ends in exactly one of the homolog suffixes.
func IsTagged(name string) bool {
	_, _, ok := Split(name)
	return ok
}

// Strip trims the last two characters of a tagged name.
func Strip(tagged string) string {
	if len(tagged) < suffixLen {
		return tagged
	}
	return tagged[:len(tagged)-suffixLen]
}
