// Package chromsizes reads and writes chromosome size listings and derives
// the homolog-aware listing matching diphic outputs.
package chromsizes

import (
	"fmt"
	"github.com/dasnellings/diphic/homolog"
	"github.com/vertgenlab/gonomics/chromInfo"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"os"
	"strconv"
	"strings"
)

// Sizes is an ordered list of chromosome sizes.
type Sizes struct {
	chroms  []chromInfo.ChromInfo // in file order
	nameMap map[string]int        // maps chr name to index in chroms
}

// String method for Sizes enables easy writing with the fmt package.
func (s Sizes) String() string {
	answer := new(strings.Builder)
	for i := range s.chroms {
		answer.WriteString(fmt.Sprintf("%s\t%d\n", s.chroms[i].Name, s.chroms[i].Size))
	}
	return answer.String()
}

// Len returns the number of chromosomes.
func (s Sizes) Len() int {
	return len(s.chroms)
}

// Size returns the size of chr.
func (s Sizes) Size(chr string) (int, bool) {
	i, found := s.nameMap[chr]
	if !found {
		return 0, false
	}
	return s.chroms[i].Size, true
}

// Names returns the chromosome names in order.
func (s Sizes) Names() []string {
	ans := make([]string, len(s.chroms))
	for i := range s.chroms {
		ans[i] = s.chroms[i].Name
	}
	return ans
}

// Map returns a name to size map.
func (s Sizes) Map() map[string]int {
	ans := make(map[string]int, len(s.chroms))
	for i := range s.chroms {
		ans[s.chroms[i].Name] = s.chroms[i].Size
	}
	return ans
}

func newSizes(chroms []chromInfo.ChromInfo) (Sizes, error) {
	ans := Sizes{chroms: chroms, nameMap: make(map[string]int, len(chroms))}
	for i := range chroms {
		if chroms[i].Size <= 0 {
			return Sizes{}, fmt.Errorf("chromosome %s has non-positive size %d", chroms[i].Name, chroms[i].Size)
		}
		if _, dup := ans.nameMap[chroms[i].Name]; dup {
			return Sizes{}, fmt.Errorf("chromosome %s listed twice", chroms[i].Name)
		}
		ans.nameMap[chroms[i].Name] = i
	}
	return ans, nil
}

// FromHeader builds Sizes from the reference list of an alignment header.
func FromHeader(chroms []chromInfo.ChromInfo) (Sizes, error) {
	curr := make([]chromInfo.ChromInfo, len(chroms))
	copy(curr, chroms)
	return newSizes(curr)
}

// Read reads a tab separated listing whose first two columns are name and
// size. Further columns are ignored so that fasta indices can be read too.
func Read(filename string) (Sizes, error) {
	if _, err := os.Stat(filename); err != nil {
		return Sizes{}, err
	}
	file := fileio.EasyOpen(filename)
	var chroms []chromInfo.ChromInfo
	var curr chromInfo.ChromInfo
	var line string
	var col []string
	var done bool
	var err error
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		col = strings.Split(line, "\t")
		if len(col) < 2 {
			err = fmt.Errorf("malformed chromosome sizes file: %s\nerror on line:\n%s", filename, line)
			break
		}
		curr.Name = col[0]
		curr.Size, err = strconv.Atoi(col[1])
		if err != nil {
			err = fmt.Errorf("malformed chromosome sizes file: %s: %w", filename, err)
			break
		}
		chroms = append(chroms, curr)
	}
	exception.PanicOnErr(file.Close())
	if err != nil {
		return Sizes{}, err
	}
	if len(chroms) == 0 {
		return Sizes{}, fmt.Errorf("no chromosomes found in %s", filename)
	}
	return newSizes(chroms)
}

// Restrict keeps the chromosomes present in names, in the order of s.
func (s Sizes) Restrict(names []string) Sizes {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var chroms []chromInfo.ChromInfo
	for i := range s.chroms {
		if keep[s.chroms[i].Name] {
			chroms = append(chroms, s.chroms[i])
		}
	}
	ans, _ := newSizes(chroms)
	return ans
}

// Diploid returns the listing matching the outputs. Separate homologs give
// each chromosome twice, reference-phase then alternate-phase, under tagged
// names. Merged homologs give each chromosome once, untagged, at twice its
// size.
func (s Sizes) Diploid(merge bool) Sizes {
	var chroms []chromInfo.ChromInfo
	var curr chromInfo.ChromInfo
	for i := range s.chroms {
		if merge {
			curr.Name, curr.Size = s.chroms[i].Name, 2*s.chroms[i].Size
			chroms = append(chroms, curr)
			continue
		}
		for _, l := range []homolog.Label{homolog.Reference, homolog.Alternate} {
			curr.Name, curr.Size = homolog.Tag(s.chroms[i].Name, l), s.chroms[i].Size
			chroms = append(chroms, curr)
		}
	}
	ans, _ := newSizes(chroms)
	return ans
}

// Write writes s to filename as a two column listing.
func Write(filename string, s Sizes) {
	out := fileio.EasyCreate(filename)
	_, err := fmt.Fprint(out, s.String())
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}
