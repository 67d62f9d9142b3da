// Package contact turns classified read pairs into homolog-tagged contact
// records in the Juicer short format.
package contact

import (
	"fmt"
	"github.com/dasnellings/diphic/homolog"
	psort "github.com/exascience/pargo/sort"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Record is one contact between the insertion points of two mates. Strands
// are 0 for forward and 16 for reverse. Chrom1 and Chrom2 are tagged names
// until the record is placed with a homolog.Layout.
type Record struct {
	Name    string
	Strand1 int
	Chrom1  string
	Pos1    int
	Strand2 int
	Chrom2  string
	Pos2    int
}

// String returns the Juicer short format line without a newline:
// str1 chr1 pos1 frag1 str2 chr2 pos2 frag2, with fragments 0 and 1.
func (r Record) String() string {
	return fmt.Sprintf("%d\t%s\t%d\t0\t%d\t%s\t%d\t1", r.Strand1, r.Chrom1, r.Pos1, r.Strand2, r.Chrom2, r.Pos2)
}

// Place maps both ends of r through lay.
func (r Record) Place(lay homolog.Layout) (Record, error) {
	var err error
	r.Chrom1, r.Pos1, err = lay.Place(r.Chrom1, r.Pos1)
	if err != nil {
		return r, err
	}
	r.Chrom2, r.Pos2, err = lay.Place(r.Chrom2, r.Pos2)
	return r, err
}

// Less orders records by chrom 1, chrom 2, pos 1, pos 2, and read name.
func Less(a, b Record) bool {
	switch {
	case a.Chrom1 != b.Chrom1:
		return a.Chrom1 < b.Chrom1
	case a.Chrom2 != b.Chrom2:
		return a.Chrom2 < b.Chrom2
	case a.Pos1 != b.Pos1:
		return a.Pos1 < b.Pos1
	case a.Pos2 != b.Pos2:
		return a.Pos2 < b.Pos2
	default:
		return a.Name < b.Name
	}
}

// Sort sorts records in place.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool { return Less(records[i], records[j]) })
}

type stableRecordSorter []Record

func (s stableRecordSorter) SequentialSort(i, j int) {
	Sort(s[i:j])
}

func (s stableRecordSorter) NewTemp() psort.StableSorter {
	return stableRecordSorter(make([]Record, len(s)))
}

func (s stableRecordSorter) Len() int {
	return len(s)
}

func (s stableRecordSorter) Less(i, j int) bool {
	return Less(s[i], s[j])
}

func (s stableRecordSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableRecordSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSort sorts records with a parallel stable sort.
func ParallelSort(records []Record) {
	psort.StableSort(stableRecordSorter(records))
}

// Write writes one Juicer short format line per record.
func Write(w io.Writer, records []Record) error {
	var err error
	for i := range records {
		_, err = fmt.Fprintln(w, records[i].String())
		if err != nil {
			return err
		}
	}
	return nil
}

// Encode writes r as a spill line: the read name followed by the short format.
func Encode(w io.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "%s\t%s\n", r.Name, r.String())
	return err
}

// Decode parses a line written by Encode.
func Decode(line string) (Record, error) {
	var r Record
	var err error
	col := strings.Split(line, "\t")
	if len(col) != 9 {
		return r, fmt.Errorf("malformed contact line: %q", line)
	}
	r.Name = col[0]
	r.Chrom1, r.Chrom2 = col[2], col[6]
	ints := []*int{&r.Strand1, &r.Pos1, &r.Strand2, &r.Pos2}
	for i, c := range []string{col[1], col[3], col[5], col[7]} {
		*ints[i], err = strconv.Atoi(c)
		if err != nil {
			return r, fmt.Errorf("malformed contact line: %q: %w", line, err)
		}
	}
	return r, nil
}
