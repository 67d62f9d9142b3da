// Package align holds the alignment records consumed by the classifier and the
// two aggregators, together with the sources that stream them per chromosome.
package align

import (
	"errors"
	"fmt"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/sam"
)

// SAM flag bits used by diphic.
const (
	flagUnmapped      uint16 = 0x4
	flagReverse       uint16 = 0x10
	flagFirst         uint16 = 0x40
	flagSecondary     uint16 = 0x100
	flagSupplementary uint16 = 0x800
)

// ErrMissingTag is returned by OptionalInt.Require for an absent tag.
var ErrMissingTag = errors.New("required alignment tag missing")

// OptionalInt is an integer auxiliary tag value that may be absent.
type OptionalInt struct {
	Value int
	Valid bool
}

// Some returns a present OptionalInt.
func Some(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// Require returns the value, or ErrMissingTag naming the tag if it is absent.
func (o OptionalInt) Require(tag string) (int, error) {
	if !o.Valid {
		return 0, fmt.Errorf("%w: %s", ErrMissingTag, tag)
	}
	return o.Value, nil
}

// Read is one alignment record on the chromosome being processed. Pos and
// MatePos are 1-based.
type Read struct {
	Name           string
	Flag           uint16
	Chrom          string
	Pos            int
	MapQ           uint8
	Cigar          []cigar.Cigar
	Seq            []dna.Base
	MateChrom      string
	MatePos        int
	InsertionPoint OptionalInt
	JunctionType   OptionalInt
}

func (r Read) IsUnmapped() bool      { return r.Flag&flagUnmapped != 0 }
func (r Read) IsReverse() bool       { return r.Flag&flagReverse != 0 }
func (r Read) IsFirst() bool         { return r.Flag&flagFirst != 0 }
func (r Read) IsSecondary() bool     { return r.Flag&flagSecondary != 0 }
func (r Read) IsSupplementary() bool { return r.Flag&flagSupplementary != 0 }

// Strand returns the strand code used in contact records: 0 forward, 16 reverse.
func (r Read) Strand() int {
	if r.IsReverse() {
		return 16
	}
	return 0
}

// GetChrom, GetChromStart, and GetChromEnd satisfy interval.Interval with
// 0-based half-open coordinates.
func (r Read) GetChrom() string {
	return r.Chrom
}

func (r Read) GetChromStart() int {
	return r.Pos - 1
}

func (r Read) GetChromEnd() int {
	return r.End()
}

// End returns the 1-based position of the last reference base covered by the
// alignment. An alignment without CIGAR operations covers its own position.
func (r Read) End() int {
	var refLen int
	for _, c := range r.Cigar {
		switch c.Op {
		case 'M', '=', 'X', 'D', 'N':
			refLen += c.RunLength
		}
	}
	if refLen == 0 {
		return r.Pos
	}
	return r.Pos + refLen - 1
}

// BaseAt returns the read base aligned to the 1-based reference position pos.
// Positions falling in a deletion, a skip, or outside the alignment, as well
// as reads without a stored sequence, carry no base.
func (r Read) BaseAt(pos int) (dna.Base, bool) {
	if pos < r.Pos || len(r.Seq) == 0 {
		return dna.N, false
	}
	refPos, queryPos := r.Pos, 0
	for _, c := range r.Cigar {
		switch c.Op {
		case 'M', '=', 'X':
			if pos < refPos+c.RunLength {
				idx := queryPos + pos - refPos
				if idx >= len(r.Seq) {
					return dna.N, false
				}
				return r.Seq[idx], true
			}
			refPos += c.RunLength
			queryPos += c.RunLength
		case 'I', 'S':
			queryPos += c.RunLength
		case 'D', 'N':
			if pos < refPos+c.RunLength {
				return dna.N, false
			}
			refPos += c.RunLength
		}
	}
	return dna.N, false
}

// FromSam converts a gonomics record read from SAM text, whose auxiliary
// fields are held in s.Extra. An empty Extra leaves both tags absent.
func FromSam(s sam.Sam, tags TagNames) (Read, error) {
	var err error
	r := Read{
		Name:      s.QName,
		Flag:      s.Flag,
		Chrom:     s.RName,
		Pos:       int(s.Pos),
		MapQ:      s.MapQ,
		Cigar:     s.Cigar,
		Seq:       s.Seq,
		MateChrom: s.RNext,
		MatePos:   int(s.PNext),
	}
	if r.MateChrom == "=" {
		r.MateChrom = r.Chrom
	}
	r.InsertionPoint, err = IntTag(s.Extra, tags.InsertionPoint)
	if err != nil {
		return r, fmt.Errorf("read %s: %w", s.QName, err)
	}
	r.JunctionType, err = IntTag(s.Extra, tags.JunctionType)
	if err != nil {
		return r, fmt.Errorf("read %s: %w", s.QName, err)
	}
	return r, nil
}
