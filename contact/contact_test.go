package contact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/homolog"
	"math/rand"
	"strings"
	"testing"
)

func mateRead(name string, pos, ip int, flag uint16) align.Read {
	return align.Read{Name: name, Chrom: "chr1", Pos: pos, Flag: flag, InsertionPoint: align.Some(ip)}
}

func testTable() *classify.Table {
	table := classify.NewTable()
	table.Observe("q1", homolog.Reference)
	table.Observe("q2", homolog.Alternate)
	table.Observe("q3", homolog.Reference)
	table.Observe("q5", homolog.Alternate)
	return table
}

func TestBuild(t *testing.T) {
	src := align.Memory{
		mateRead("q2", 50, 48, 0x80|0x10),
		mateRead("q1", 100, 98, 0x40),
		mateRead("q2", 300, 305, 0x40),
		mateRead("q1", 900, 905, 0x80|0x10),
		mateRead("q3", 120, 118, 0x40),
		mateRead("q3", 130, 128, 0x80),
		mateRead("q3", 140, 138, 0x800),
		mateRead("q4", 150, 148, 0x40),
		mateRead("q4", 160, 158, 0x80),
		mateRead("q5", 170, 168, 0x40),
	}
	records, stats, err := Build(context.Background(), src, testTable(), "chr1", align.DefaultTags)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || stats.Records != 2 || stats.Cardinality != 2 {
		t.Fatal("expected two contacts", records, stats)
	}

	q1 := Record{Name: "q1", Strand1: 0, Chrom1: "chr1-r", Pos1: 98, Strand2: 16, Chrom2: "chr1-r", Pos2: 905}
	q2 := Record{Name: "q2", Strand1: 0, Chrom1: "chr1-a", Pos1: 305, Strand2: 16, Chrom2: "chr1-a", Pos2: 48}
	if records[0] != q2 || records[1] != q1 {
		t.Error("problem building records", records)
	}
	if q1.String() != "0\tchr1-r\t98\t0\t16\tchr1-r\t905\t1" {
		t.Error("problem with short format", q1.String())
	}

	perChrom := make(map[string]int)
	for _, r := range records {
		if !homolog.IsTagged(r.Chrom1) || !homolog.IsTagged(r.Chrom2) || homolog.Strip(r.Chrom1) != "chr1" {
			t.Error("untagged chromosome in record", r)
		}
		perChrom[r.Chrom1]++
	}
	if perChrom["chr1-r"] != 1 || perChrom["chr1-a"] != 1 {
		t.Error("contact counts do not match eligible names", perChrom)
	}
}

func TestBuildMissingInsertionPoint(t *testing.T) {
	src := align.Memory{
		mateRead("q1", 100, 98, 0x40),
		{Name: "q1", Chrom: "chr1", Pos: 900, Flag: 0x80},
	}
	_, _, err := Build(context.Background(), src, testTable(), "chr1", align.DefaultTags)
	if !errors.Is(err, align.ErrMissingTag) {
		t.Error("expected a missing tag error", err)
	}
}

func TestBuildMissingTagOnDroppedName(t *testing.T) {
	src := align.Memory{
		{Name: "q4", Chrom: "chr1", Pos: 100, Flag: 0x40},
		{Name: "q4", Chrom: "chr1", Pos: 900, Flag: 0x80},
	}
	records, _, err := Build(context.Background(), src, testTable(), "chr1", align.DefaultTags)
	if err != nil || len(records) != 0 {
		t.Error("unassigned names should not need tags", records, err)
	}
}

func TestPlace(t *testing.T) {
	r := Record{Chrom1: "chr1-a", Pos1: 10, Chrom2: "chr1-a", Pos2: 20}
	placed, err := r.Place(homolog.Layout{Merge: true, Sizes: map[string]int{"chr1": 100}})
	if err != nil || placed.Chrom1 != "chr1" || placed.Pos1 != 110 || placed.Pos2 != 120 {
		t.Error("problem placing record", placed, err)
	}
	same, err := r.Place(homolog.Layout{})
	if err != nil || same != r {
		t.Error("separate layout should not change the record", same, err)
	}
}

func TestParallelSort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	records := make([]Record, 5000)
	for i := range records {
		records[i] = Record{
			Name:   fmt.Sprintf("q%d", i),
			Chrom1: fmt.Sprintf("chr%d-r", rng.Intn(3)),
			Chrom2: fmt.Sprintf("chr%d-r", rng.Intn(3)),
			Pos1:   rng.Intn(100),
			Pos2:   rng.Intn(100),
		}
	}
	expected := append([]Record(nil), records...)
	Sort(expected)
	ParallelSort(records)
	for i := range records {
		if records[i] != expected[i] {
			t.Fatal("parallel sort differs from sequential sort at", i)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	r := Record{Name: "q1", Strand1: 16, Chrom1: "chr2-a", Pos1: 7, Strand2: 0, Chrom2: "chr2-a", Pos2: 70}
	var buf bytes.Buffer
	if err := Encode(&buf, r); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(strings.TrimSuffix(buf.String(), "\n"))
	if err != nil || got != r {
		t.Error("problem decoding spill line", got, err)
	}
	if _, err = Decode("q1\t0\tchr1"); err == nil {
		t.Error("expected an error for a short line")
	}

	buf.Reset()
	if err = Write(&buf, []Record{r}); err != nil || buf.String() != r.String()+"\n" {
		t.Error("problem writing records", buf.String(), err)
	}
}
