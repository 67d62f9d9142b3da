package access

import (
	"bytes"
	"context"
	"errors"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/homolog"
	"strings"
	"testing"
)

func tagged(name string, ip, jt int) align.Read {
	return align.Read{Name: name, Chrom: "chr1", Pos: ip, InsertionPoint: align.Some(ip), JunctionType: align.Some(jt)}
}

func TestPlatformJunctions(t *testing.T) {
	illumina, err := PlatformJunctions("illumina")
	if err != nil {
		t.Fatal(err)
	}
	for jt, expected := range map[int]bool{0: false, 1: false, 2: true, 3: true, 4: true, 5: true, 6: false, -1: false} {
		if illumina.Admits(jt) != expected {
			t.Errorf("problem admitting junction %d on ILLUMINA", jt)
		}
	}
	bgi, err := PlatformJunctions("MGISEQ")
	if err != nil || !bgi.Admits(0) || !bgi.Admits(1) || bgi.Admits(2) {
		t.Error("problem with MGISEQ junctions", bgi, err)
	}
	if _, err = PlatformJunctions("NANOPORE"); err == nil {
		t.Error("expected an error for an unknown platform")
	}
	for _, p := range Platforms() {
		s, _ := PlatformJunctions(p)
		if !s.Closed() {
			t.Errorf("junction set of %s is not closed under Partner", p)
		}
	}
	if NewJunctionSet(2).Closed() {
		t.Error("{2} should not be closed")
	}
	if illumina.String() != "{2,3,4,5}" {
		t.Error("problem with String", illumina.String())
	}
}

func TestPartner(t *testing.T) {
	for jt, p := range map[int]int{0: 1, 1: 0, 2: 3, 3: 2, 4: 5, 5: 4} {
		if Partner(jt) != p || Partner(Partner(jt)) != jt {
			t.Errorf("problem with partner of %d", jt)
		}
	}
}

func TestAggregate(t *testing.T) {
	table := classify.NewTable()
	table.Observe("q1", homolog.Reference)
	table.Observe("q2", homolog.Reference)
	table.Observe("q3", homolog.Alternate)
	src := align.Memory{
		tagged("q1", 100, 0),
		tagged("q2", 100, 2),
		tagged("q3", 100, 3),
		tagged("q4", 100, 3),
		tagged("q1", 250, 4),
	}
	illumina, _ := PlatformJunctions("ILLUMINA")
	events, stats, err := Aggregate(context.Background(), src, table, "chr1", illumina, align.DefaultTags)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Event{
		{Chrom: "chr1-a", Pos: 100, Raw: 1, Corrected: 1},
		{Chrom: "chr1-r", Pos: 100, Raw: 2, Corrected: 1},
		{Chrom: "chr1-r", Pos: 250, Raw: 1, Corrected: 1},
	}
	if len(events) != len(expected) {
		t.Fatal("problem with event count", events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Error("problem with event", i, events[i])
		}
		if events[i].Raw < events[i].Corrected {
			t.Error("corrected count exceeds raw count", events[i])
		}
	}
	if stats.Classified != 4 || stats.Raw != 4 || stats.Corrected != 3 {
		t.Error("problem with stats", stats)
	}
	if stats.Junctions[3].Alternate != 1 || stats.Junctions[0].Reference != 1 {
		t.Error("problem with junction counts", stats.Junctions)
	}
}

func TestAggregateJunctionZeroIllumina(t *testing.T) {
	table := classify.NewTable()
	table.Observe("q1", homolog.Reference)
	illumina, _ := PlatformJunctions("ILLUMINA")
	events, _, err := Aggregate(context.Background(), align.Memory{tagged("q1", 500, 0)}, table, "chr1", illumina, align.DefaultTags)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Raw != 1 || events[0].Corrected != 0 {
		t.Error("junction 0 should count as raw only on ILLUMINA", events)
	}
	var buf bytes.Buffer
	WriteBedGraph(&buf, events, Corrected)
	if buf.Len() != 0 {
		t.Error("zero corrected counts should not be written", buf.String())
	}
	WriteBedGraph(&buf, events, Raw)
	if buf.String() != "chr1-r\t499\t500\t1\n" {
		t.Error("problem writing bedGraph", buf.String())
	}
}

func TestAggregateMissingJunction(t *testing.T) {
	table := classify.NewTable()
	table.Observe("q1", homolog.Reference)
	src := align.Memory{{Name: "q1", Chrom: "chr1", Pos: 10, InsertionPoint: align.Some(10)}}
	illumina, _ := PlatformJunctions("ILLUMINA")
	if _, _, err := Aggregate(context.Background(), src, table, "chr1", illumina, align.DefaultTags); !errors.Is(err, align.ErrMissingTag) {
		t.Error("expected a missing tag error", err)
	}
}

func TestSpillAndPlace(t *testing.T) {
	e := Event{Chrom: "chr2-a", Pos: 7, Raw: 3, Corrected: 2}
	var buf bytes.Buffer
	if err := Encode(&buf, e); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(strings.TrimSuffix(buf.String(), "\n"))
	if err != nil || got != e {
		t.Error("problem decoding spill line", got, err)
	}
	placed, err := e.Place(homolog.Layout{Merge: true, Sizes: map[string]int{"chr2": 50}})
	if err != nil || placed.Chrom != "chr2" || placed.Pos != 57 {
		t.Error("problem placing event", placed, err)
	}

	events := []Event{{Chrom: "chr2", Pos: 5}, {Chrom: "chr1", Pos: 9}, {Chrom: "chr1", Pos: 2}}
	ParallelSort(events)
	if events[0].Pos != 2 || events[1].Pos != 9 || events[2].Chrom != "chr2" {
		t.Error("problem sorting events", events)
	}
}
