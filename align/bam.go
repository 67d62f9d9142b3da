package align

import (
	"errors"
	"fmt"
	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	htssam "github.com/biogo/hts/sam"
	"github.com/vertgenlab/gonomics/cigar"
	"github.com/vertgenlab/gonomics/dna"
	"io"
	"os"
)

// bamTags holds the aux tags looked up on every BAM record.
type bamTags struct {
	names TagNames
	ip    htssam.Tag
	jt    htssam.Tag
}

func newBamTags(tags TagNames) bamTags {
	return bamTags{names: tags, ip: htssam.NewTag(tags.InsertionPoint), jt: htssam.NewTag(tags.JunctionType)}
}

// auxInt reads tag from the aux fields of rec. The field is rendered in its
// SAM text form so that BAM and SAM inputs share IntTag.
func auxInt(rec *htssam.Record, tag htssam.Tag, name string) (OptionalInt, error) {
	aux := rec.AuxFields.Get(tag)
	if aux == nil {
		return OptionalInt{}, nil
	}
	return IntTag(aux.String(), name)
}

func refName(ref *htssam.Reference) string {
	if ref == nil {
		return "*"
	}
	return ref.Name()
}

// fromBamRecord converts a decoded BAM record. A record without aux fields
// gives a Read whose tags are both absent.
func fromBamRecord(rec *htssam.Record, tags bamTags) (Read, error) {
	var err error
	r := Read{
		Name:      rec.Name,
		Flag:      uint16(rec.Flags),
		Chrom:     refName(rec.Ref),
		Pos:       rec.Pos + 1,
		MapQ:      rec.MapQ,
		MateChrom: refName(rec.MateRef),
		MatePos:   rec.MatePos + 1,
	}
	if len(rec.Cigar) > 0 {
		r.Cigar = cigar.FromString(rec.Cigar.String())
	}
	if rec.Seq.Length > 0 {
		r.Seq = expandSeq(rec.Seq.Expand())
	}
	r.InsertionPoint, err = auxInt(rec, tags.ip, tags.names.InsertionPoint)
	if err != nil {
		return r, fmt.Errorf("read %s: %w", rec.Name, err)
	}
	r.JunctionType, err = auxInt(rec, tags.jt, tags.names.JunctionType)
	if err != nil {
		return r, fmt.Errorf("read %s: %w", rec.Name, err)
	}
	return r, nil
}

// expandSeq maps BAM sequence letters to bases. Ambiguity codes become N.
func expandSeq(seq []byte) []dna.Base {
	ans := make([]dna.Base, len(seq))
	for i := range seq {
		switch seq[i] {
		case 'A':
			ans[i] = dna.A
		case 'C':
			ans[i] = dna.C
		case 'G':
			ans[i] = dna.G
		case 'T':
			ans[i] = dna.T
		default:
			ans[i] = dna.N
		}
	}
	return ans
}

// openBam opens path and its BAM reader. The caller closes both.
func openBam(path string) (*os.File, *bam.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, br, nil
}

// chunksFor returns the index chunks covering the whole of ref. A reference
// without records has none.
func chunksFor(idx *bam.Index, ref *htssam.Reference) ([]bgzf.Chunk, error) {
	chunks, err := idx.Chunks(ref, 0, ref.Len())
	if errors.Is(err, index.ErrNoReference) || errors.Is(err, index.ErrInvalid) {
		return nil, nil
	}
	return chunks, err
}

// WriteIndex writes path + ".bai" for a coordinate-sorted BAM.
func WriteIndex(path string) error {
	f, br, err := openBam(path)
	if err != nil {
		return err
	}
	defer f.Close()
	defer br.Close()

	var idx bam.Index
	var rec *htssam.Record
	for {
		rec, err = br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err = idx.Add(rec, br.LastChunk()); err != nil {
			return fmt.Errorf("%s: read %s: %w", path, rec.Name, err)
		}
	}

	out, err := os.Create(path + ".bai")
	if err != nil {
		return err
	}
	if err = bam.WriteIndex(out, &idx); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
