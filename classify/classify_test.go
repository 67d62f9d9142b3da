package classify

import (
	"bytes"
	"context"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/homolog"
	"github.com/dasnellings/diphic/phase"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"os"
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T) *phase.Index {
	idx, err := phase.NewIndex([]phase.Locus{
		{Chrom: "chr1", Pos: 1000, Ref: dna.A, Alt: dna.G},
		{Chrom: "chr1", Pos: 1005, Ref: dna.C, Alt: dna.T},
	})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

// read places seq at pos with a plain match CIGAR.
func read(name string, pos int, seq string) align.Read {
	return align.Read{
		Name:  name,
		Chrom: "chr1",
		Pos:   pos,
		Cigar: []cigar.Cigar{{RunLength: len(seq), Op: 'M'}},
		Seq:   dna.StringToBases(seq),
	}
}

func TestTableConflictRule(t *testing.T) {
	table := NewTable()
	table.Observe("q1", homolog.Reference)
	table.Observe("q1", homolog.Reference)
	table.Observe("q2", homolog.Alternate)
	table.Observe("q3", homolog.Unresolved)
	if table.Lookup("q1") != homolog.Reference || table.Lookup("q2") != homolog.Alternate {
		t.Error("problem recording agreeing evidence")
	}
	if table.Lookup("q3") != homolog.Unresolved || table.Len() != 2 {
		t.Error("unresolved evidence should not enter the table")
	}

	table.Observe("q1", homolog.Alternate)
	if table.Lookup("q1") != homolog.Unresolved || table.Conflicts() != 1 {
		t.Error("disagreeing evidence should delete the entry")
	}
	table.Observe("q1", homolog.Reference)
	if table.Lookup("q1") != homolog.Unresolved {
		t.Error("a conflicted name should not be assigned again")
	}
}

func TestTableOrderIndependent(t *testing.T) {
	r, a := homolog.Reference, homolog.Alternate
	orders := [][]homolog.Label{{r, a, r}, {r, r, a}, {a, r, r}}
	for _, order := range orders {
		table := NewTable()
		for _, l := range order {
			table.Observe("q", l)
		}
		if table.Len() != 0 {
			t.Error("order changed the outcome", order)
		}
	}
}

func TestClassifyScenario(t *testing.T) {
	idx := testIndex(t)
	src := align.Memory{
		read("ref", 995, "GGGGGAGGGG"),   // A at 1000
		read("alt", 995, "GGGGGGGGGG"),   // G at 1000
		read("other", 995, "GGGGGTGGGG"), // T at 1000
		read("far", 2000, "ACGT"),        // no overlap
		read("pair", 998, "CCACC"),       // A at 1000, mate below
		read("pair", 1003, "CCTCC"),      // T at 1005, alternate
		read("both", 1000, "ACCCCC"),     // A at 1000 and C at 1005
		read("unmapped", 995, "GGGGGAGGGG"),
	}
	src[7].Flag = 0x4

	table, stats, err := Classify(context.Background(), src, idx, "chr1")
	if err != nil {
		t.Fatal(err)
	}
	if table.Lookup("ref") != homolog.Reference {
		t.Error("A at chr1:1000 should be reference")
	}
	if table.Lookup("alt") != homolog.Alternate {
		t.Error("G at chr1:1000 should be alternate")
	}
	if table.Lookup("both") != homolog.Reference {
		t.Error("agreeing loci should be reference")
	}
	for _, name := range []string{"other", "far", "pair", "unmapped"} {
		if table.Lookup(name) != homolog.Unresolved {
			t.Errorf("%s should be absent from the table", name)
		}
	}
	if stats.Alignments != 7 || stats.WithEvidence != 5 || stats.Conflicted != 1 {
		t.Error("problem with stats", stats)
	}
	if stats.Reference != 2 || stats.Alternate != 1 {
		t.Error("problem with label counts", stats)
	}
}

func TestClassifyDeletion(t *testing.T) {
	idx := testIndex(t)
	src := align.Memory{
		{Name: "del", Chrom: "chr1", Pos: 998, Cigar: cigar.FromString("2M3D2M"), Seq: dna.StringToBases("AAGG")},
	}
	table, stats, err := Classify(context.Background(), src, idx, "chr1")
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 0 || stats.WithEvidence != 0 {
		t.Error("a locus in a deletion should carry no evidence")
	}
}

func TestTablesRoundTrip(t *testing.T) {
	table := NewTable()
	table.Observe("q2", homolog.Alternate)
	table.Observe("q1", homolog.Reference)
	var buf bytes.Buffer
	if err := table.Write(&buf, "chr1"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "q1\tchr1\tr\nq2\tchr1\ta\n" {
		t.Error("problem writing table", buf.String())
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "assignments.tsv")
	content := buf.String() + "q3\tchr2-a\nq4\tr\nq4\ta\nq5\ta\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	tables, err := ReadTables(path)
	if err != nil {
		t.Fatal(err)
	}
	if tables.For("chr1").Lookup("q2") != homolog.Alternate || tables.For("chr2").Lookup("q3") != homolog.Alternate {
		t.Error("problem reading per-chromosome tables")
	}
	if tables.For("chr3").Lookup("q4") != homolog.Unresolved || tables.Len() != 4 {
		t.Error("conflicting lines should be dropped", tables.Len())
	}
	if !tables.Owns("chr1") || !tables.Owns("chr2") || tables.Owns("chr3") {
		t.Error("problem with Owns")
	}
	if s := tables.SharedStats(); s.Alternate != 1 || s.Reference != 0 || s.Conflicted != 1 {
		t.Error("problem with SharedStats", s)
	}

	bad := filepath.Join(dir, "bad.tsv")
	if err = os.WriteFile(bad, []byte("q1\tchr1\tx\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = ReadTables(bad); err == nil {
		t.Error("expected an error for an unknown label")
	}
}
