package align

import (
	"context"
	"errors"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/sam"
	"testing"
)

func TestIntTag(t *testing.T) {
	extra := "NM:i:0\tXI:i:1204\tXJ:i:3\tXI:i:99\tRG:Z:lib1"
	ip, err := IntTag(extra, "XI")
	if err != nil || !ip.Valid || ip.Value != 1204 {
		t.Error("problem with first matching tag", ip, err)
	}
	jt, err := IntTag(extra, "XJ")
	if err != nil || jt.Value != 3 {
		t.Error("problem reading junction type", jt, err)
	}
	missing, err := IntTag(extra, "XX")
	if err != nil || missing.Valid {
		t.Error("absent tag should be invalid without error", missing, err)
	}
	if _, err = IntTag("XI:Z:abc", "XI"); err == nil {
		t.Error("expected an error for a non-numeric tag")
	}
	if _, err = IntTag("XI:f:1.5", "XI"); err == nil {
		t.Error("expected an error for a float tag")
	}
	z, err := IntTag("XI:Z:17", "XI")
	if err != nil || z.Value != 17 {
		t.Error("problem with numeric string tag", z, err)
	}
	if _, err = missing.Require("XX"); !errors.Is(err, ErrMissingTag) {
		t.Error("Require should wrap ErrMissingTag", err)
	}
}

func TestTagNamesValidate(t *testing.T) {
	if DefaultTags.Validate() != nil {
		t.Error("default tags should be valid")
	}
	if (TagNames{InsertionPoint: "XI", JunctionType: "XI"}).Validate() == nil {
		t.Error("expected an error for identical tags")
	}
	if (TagNames{InsertionPoint: "XIP", JunctionType: "XJ"}).Validate() == nil {
		t.Error("expected an error for a long tag")
	}
}

func TestBaseAt(t *testing.T) {
	r := Read{
		Pos:   100,
		Cigar: cigar.FromString("2S3M2D2M1I2M"),
		Seq:   dna.StringToBases("NNACGTTCAG"),
	}
	// ref 100..102 -> ACG, 103..104 deleted, 105..106 -> TT, insertion C, 107..108 -> AG
	expected := map[int]string{100: "A", 101: "C", 102: "G", 105: "T", 106: "T", 107: "A", 108: "G"}
	for pos, base := range expected {
		b, ok := r.BaseAt(pos)
		if !ok || b != dna.StringToBase(base) {
			t.Errorf("problem with base at %d: %v %v", pos, b, ok)
		}
	}
	for _, pos := range []int{99, 103, 104, 109} {
		if _, ok := r.BaseAt(pos); ok {
			t.Errorf("position %d should carry no base", pos)
		}
	}
	if r.End() != 108 {
		t.Error("problem with End", r.End())
	}
}

func TestFromSam(t *testing.T) {
	s := sam.Sam{
		QName: "q1",
		Flag:  0x40 | 0x10,
		RName: "chr1",
		Pos:   10,
		MapQ:  60,
		Cigar: cigar.FromString("4M"),
		RNext: "=",
		PNext: 500,
		Seq:   dna.StringToBases("ACGT"),
		Extra: "XI:i:13\tXJ:i:2",
	}
	r, err := FromSam(s, DefaultTags)
	if err != nil {
		t.Error(err)
	}
	if r.MateChrom != "chr1" || r.MatePos != 500 || !r.IsFirst() || r.Strand() != 16 {
		t.Error("problem converting flags and mate", r)
	}
	if r.InsertionPoint != Some(13) || r.JunctionType != Some(2) {
		t.Error("problem converting tags", r.InsertionPoint, r.JunctionType)
	}
	s.Extra = "XI:f:1.0"
	if _, err = FromSam(s, DefaultTags); err == nil {
		t.Error("expected an error for a malformed tag")
	}
}

func TestMemoryScan(t *testing.T) {
	m := Memory{
		{Name: "a", Chrom: "chr1"},
		{Name: "b", Chrom: "chr2"},
		{Name: "c", Chrom: "chr1"},
	}
	var names []string
	err := m.Scan(context.Background(), "chr1", func(r Read) error {
		names = append(names, r.Name)
		return nil
	})
	if err != nil || len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Error("problem scanning memory source", names, err)
	}

	stop := errors.New("stop")
	err = m.Scan(context.Background(), "chr1", func(r Read) error { return stop })
	if !errors.Is(err, stop) {
		t.Error("callback error not returned", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err = m.Scan(ctx, "chr1", func(r Read) error { return nil }); err == nil {
		t.Error("cancelled scan should fail")
	}
}

func TestDrainStopsProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan scanned, bufferSize)
	go func() {
		defer close(in)
		for i := 0; ; i++ {
			select {
			case in <- scanned{read: Read{Pos: i}}:
			case <-ctx.Done():
				return
			}
		}
	}()
	var seen int
	err := drain(ctx, cancel, in, func(r Read) error {
		seen++
		if seen == 5 {
			return errors.New("enough")
		}
		return nil
	})
	if err == nil || seen != 5 {
		t.Error("problem stopping early", seen, err)
	}
}
