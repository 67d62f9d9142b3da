// Package classify attributes reads to homologs from the bases they carry at
// phased loci and keeps the resulting read name to homolog assignments.
package classify

import (
	"fmt"
	"github.com/dasnellings/diphic/homolog"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"golang.org/x/exp/maps"
	"io"
	"os"
	"sort"
	"strings"
)

// Table maps read names to homologs. The first observation of a name sets its
// label, a repeated observation of the same label changes nothing, and an
// observation of the other label removes the name for good: once conflicted a
// name is never assigned again. The final contents therefore do not depend on
// the order of observations.
//
// A Table is not safe for concurrent writes; each chromosome task owns one.
type Table struct {
	labels     map[string]homolog.Label
	conflicted map[string]struct{}
}

func NewTable() *Table {
	return &Table{
		labels:     make(map[string]homolog.Label),
		conflicted: make(map[string]struct{}),
	}
}

// Observe applies one piece of evidence. Unresolved evidence is ignored.
func (t *Table) Observe(name string, l homolog.Label) {
	if l == homolog.Unresolved {
		return
	}
	if _, bad := t.conflicted[name]; bad {
		return
	}
	prev, found := t.labels[name]
	switch {
	case !found:
		t.labels[name] = l
	case prev != l:
		delete(t.labels, name)
		t.conflicted[name] = struct{}{}
	}
}

// Lookup returns the label of name, Unresolved when absent.
func (t *Table) Lookup(name string) homolog.Label {
	if t == nil {
		return homolog.Unresolved
	}
	return t.labels[name]
}

// Len returns the number of assigned names.
func (t *Table) Len() int {
	return len(t.labels)
}

// Conflicts returns the number of names removed after disagreeing evidence.
func (t *Table) Conflicts() int {
	return len(t.conflicted)
}

// Names returns the assigned names, sorted.
func (t *Table) Names() []string {
	ans := maps.Keys(t.labels)
	sort.Strings(ans)
	return ans
}

// Counts returns the number of names assigned to each homolog.
func (t *Table) Counts() (ref, alt int) {
	for _, l := range t.labels {
		if l == homolog.Reference {
			ref++
		} else {
			alt++
		}
	}
	return
}

// Write writes one "name chrom label" line per assigned name in name order.
func (t *Table) Write(w io.Writer, chrom string) error {
	var err error
	for _, name := range t.Names() {
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", name, chrom, t.labels[name])
		if err != nil {
			return err
		}
	}
	return nil
}

// Tables holds assignments read back from a file. Lines naming a chromosome
// go to that chromosome's table and the rest to a table shared by every
// chromosome.
type Tables struct {
	byChrom map[string]*Table
	shared  *Table
}

// For returns the table to use for chrom.
func (ts *Tables) For(chrom string) *Table {
	if t, found := ts.byChrom[chrom]; found {
		return t
	}
	return ts.shared
}

// Owns reports whether chrom has a table of its own.
func (ts *Tables) Owns(chrom string) bool {
	_, found := ts.byChrom[chrom]
	return found
}

// SharedStats counts the names of the table shared by every chromosome.
func (ts *Tables) SharedStats() Stats {
	var ans Stats
	ans.Reference, ans.Alternate = ts.shared.Counts()
	ans.Conflicted = ts.shared.Conflicts()
	return ans
}

// Len returns the number of assigned names over all tables.
func (ts *Tables) Len() int {
	ans := ts.shared.Len()
	for _, t := range ts.byChrom {
		ans += t.Len()
	}
	return ans
}

// ReadTables reads an assignment file. Accepted lines are
// "name label", "name chrom label", and "name tagged-chrom" where the
// homolog is taken from the suffix of the tagged chromosome. Names repeated
// with different labels are dropped as in Observe.
func ReadTables(path string) (*Tables, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	file := fileio.EasyOpen(path)
	defer func() {
		exception.PanicOnErr(file.Close())
	}()
	ans := &Tables{byChrom: make(map[string]*Table), shared: NewTable()}
	var line, chrom string
	var col []string
	var l homolog.Label
	var done bool
	var err error
	var lineNum int
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		lineNum++
		col = strings.Split(line, "\t")
		chrom = ""
		switch len(col) {
		case 2:
			l, err = homolog.ParseLabel(col[1])
			if c, _, ok := homolog.Split(col[1]); ok {
				chrom = c
			}
		case 3:
			chrom = col[1]
			l, err = homolog.ParseLabel(col[2])
		default:
			err = fmt.Errorf("expected 2 or 3 columns, found %d", len(col))
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNum, err)
		}
		ans.table(chrom).Observe(col[0], l)
	}
	if ans.Len() == 0 {
		return nil, fmt.Errorf("%s: no read assignments found", path)
	}
	return ans, nil
}

func (ts *Tables) table(chrom string) *Table {
	if chrom == "" {
		return ts.shared
	}
	t, found := ts.byChrom[chrom]
	if !found {
		t = NewTable()
		ts.byChrom[chrom] = t
	}
	return t
}
