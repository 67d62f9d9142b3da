package align

import (
	"context"
	"errors"
	"fmt"
	"github.com/biogo/hts/bam"
	htssam "github.com/biogo/hts/sam"
	"github.com/vertgenlab/gonomics/chromInfo"
	"github.com/vertgenlab/gonomics/sam"
	"io"
	"os"
	"strings"
)

// bufferSize matches the channel depth used by every streaming stage.
const bufferSize = 1000

// ErrNoIndex is returned when an indexed source has no .bai beside it.
var ErrNoIndex = errors.New("bam index not found")

// Source streams the alignments of one chromosome. Scan calls fn once per
// alignment, in file order, and stops at the first error returned by fn or
// when ctx is cancelled. Every alignment of the chromosome is reported,
// secondary and supplementary ones included. Sources are read-only and safe
// for concurrent Scans of different chromosomes.
type Source interface {
	Scan(ctx context.Context, chrom string, fn func(Read) error) error
}

type scanned struct {
	read Read
	err  error
}

// drain hands every scanned read to fn. On an early return the producer is
// left to observe the cancelled context and exit.
func drain(ctx context.Context, cancel context.CancelFunc, in <-chan scanned, fn func(Read) error) error {
	defer func() {
		cancel()
		for range in {
		}
	}()
	for s := range in {
		if s.err != nil {
			return s.err
		}
		if err := fn(s.read); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// send hands one result to the consumer. It reports false when the producer
// should stop.
func send(ctx context.Context, ans chan<- scanned, s scanned) bool {
	select {
	case ans <- s:
		return s.err == nil
	case <-ctx.Done():
		return false
	}
}

// Memory is a Source over reads already held in memory, used by tests and by
// small inputs.
type Memory []Read

func (m Memory) Scan(ctx context.Context, chrom string, fn func(Read) error) error {
	var err error
	for i := range m {
		if i%bufferSize == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if m[i].Chrom != chrom {
			continue
		}
		if err = fn(m[i]); err != nil {
			return err
		}
	}
	return nil
}

// IndexedBam is a Source over a coordinate-sorted BAM with an index beside it.
// Each Scan opens its own reader and visits only the index chunks of the
// requested chromosome.
type IndexedBam struct {
	Path   string
	Tags   TagNames
	Chroms []chromInfo.ChromInfo
	refs   map[string]*htssam.Reference
	idx    *bam.Index
	tags   bamTags
}

// NewIndexedBam checks for path + ".bai", reads it, and records the header
// chromosomes.
func NewIndexedBam(path string, tags TagNames) (*IndexedBam, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	baiFile, err := os.Open(path + ".bai")
	if err != nil {
		return nil, fmt.Errorf("%w: %s.bai", ErrNoIndex, path)
	}
	defer baiFile.Close()
	idx, err := bam.ReadIndex(baiFile)
	if err != nil {
		return nil, fmt.Errorf("%s.bai: %w", path, err)
	}

	f, br, err := openBam(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer br.Close()
	ans := &IndexedBam{
		Path: path,
		Tags: tags,
		refs: make(map[string]*htssam.Reference),
		idx:  idx,
		tags: newBamTags(tags),
	}
	for _, ref := range br.Header().Refs() {
		ans.Chroms = append(ans.Chroms, chromInfo.ChromInfo{Name: ref.Name(), Size: ref.Len()})
		ans.refs[ref.Name()] = ref
	}
	return ans, nil
}

func (b *IndexedBam) Scan(ctx context.Context, chrom string, fn func(Read) error) error {
	ref, found := b.refs[chrom]
	if !found {
		return fmt.Errorf("chromosome %s not present in header of %s", chrom, b.Path)
	}
	ctx, cancel := context.WithCancel(ctx)
	return drain(ctx, cancel, b.goIterate(ctx, ref), fn)
}

// goIterate decodes the records filed under ref in the index.
func (b *IndexedBam) goIterate(ctx context.Context, ref *htssam.Reference) <-chan scanned {
	ans := make(chan scanned, bufferSize)
	go func() {
		defer close(ans)
		chunks, err := chunksFor(b.idx, ref)
		if err != nil || len(chunks) == 0 {
			if err != nil {
				send(ctx, ans, scanned{err: fmt.Errorf("%s: %w", b.Path, err)})
			}
			return
		}
		f, br, err := openBam(b.Path)
		if err != nil {
			send(ctx, ans, scanned{err: err})
			return
		}
		defer f.Close()
		defer br.Close()
		it, err := bam.NewIterator(br, chunks)
		if err != nil {
			send(ctx, ans, scanned{err: fmt.Errorf("%s: %w", b.Path, err)})
			return
		}
		defer it.Close()

		var r Read
		var rec *htssam.Record
		for it.Next() {
			rec = it.Record()
			if rec.Ref == nil || rec.Ref.Name() != ref.Name() {
				continue
			}
			r, err = fromBamRecord(rec, b.tags)
			if !send(ctx, ans, scanned{read: r, err: err}) {
				return
			}
		}
		if err = it.Error(); err != nil {
			send(ctx, ans, scanned{err: fmt.Errorf("%s: %w", b.Path, err)})
		}
	}()
	return ans
}

// Stream is a Source over any SAM or BAM file, sorted or not. Every Scan reads
// the whole file and keeps the records of the requested chromosome.
type Stream struct {
	Path string
	Tags TagNames
}

func (s Stream) Scan(ctx context.Context, chrom string, fn func(Read) error) error {
	ctx, cancel := context.WithCancel(ctx)
	if strings.HasSuffix(s.Path, ".bam") {
		return drain(ctx, cancel, s.goBamFilter(ctx, chrom), fn)
	}
	return drain(ctx, cancel, s.goSamFilter(ctx, chrom), fn)
}

func (s Stream) goSamFilter(ctx context.Context, chrom string) <-chan scanned {
	ans := make(chan scanned, bufferSize)
	go func() {
		defer close(ans)
		var err error
		var r Read
		reads, _ := sam.GoReadToChan(s.Path)
		defer func() {
			for range reads {
			}
		}()
		for rec := range reads {
			if rec.RName != chrom {
				continue
			}
			r, err = FromSam(rec, s.Tags)
			if !send(ctx, ans, scanned{read: r, err: err}) {
				return
			}
		}
	}()
	return ans
}

func (s Stream) goBamFilter(ctx context.Context, chrom string) <-chan scanned {
	ans := make(chan scanned, bufferSize)
	go func() {
		defer close(ans)
		f, br, err := openBam(s.Path)
		if err != nil {
			send(ctx, ans, scanned{err: err})
			return
		}
		defer f.Close()
		defer br.Close()
		tags := newBamTags(s.Tags)
		var r Read
		var rec *htssam.Record
		for {
			rec, err = br.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				send(ctx, ans, scanned{err: fmt.Errorf("%s: %w", s.Path, err)})
				return
			}
			if refName(rec.Ref) != chrom {
				continue
			}
			r, err = fromBamRecord(rec, tags)
			if !send(ctx, ans, scanned{read: r, err: err}) {
				return
			}
		}
	}()
	return ans
}

// Open picks an IndexedBam when path is a BAM with an index and a Stream
// otherwise.
func Open(path string, tags TagNames) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".bam") {
		if _, err := os.Stat(path + ".bai"); err == nil {
			return NewIndexedBam(path, tags)
		}
	}
	return Stream{Path: path, Tags: tags}, nil
}
