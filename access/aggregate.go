package access

import (
	"context"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/homolog"
	"sort"
)

// Event holds the counts at one insertion point of one homolog. Chrom is a
// tagged name until the event is placed with a homolog.Layout.
type Event struct {
	Chrom     string
	Pos       int
	Raw       int
	Corrected int
}

// JunctionCount holds the classified alignments of one junction type.
type JunctionCount struct {
	Reference int
	Alternate int
}

// Stats counts what one accessibility pass saw.
type Stats struct {
	Alignments int // mapped alignments scanned
	Classified int // alignments whose name has a homolog
	Raw        int // sum of raw counts
	Corrected  int // sum of corrected counts
	Junctions  map[int]JunctionCount
}

type key struct {
	label homolog.Label
	pos   int
}

// Aggregate counts the insertion points of the classified alignments of
// chrom. Every classified alignment adds one to the raw count of its tagged
// chromosome and insertion point; it adds one to the corrected count too when
// admitted holds the partner of its junction type. Classified alignments
// missing either tag fail the pass. Events are returned sorted by tagged
// chromosome then position.
func Aggregate(ctx context.Context, src align.Source, table *classify.Table, chrom string, admitted JunctionSet, tags align.TagNames) ([]Event, Stats, error) {
	stats := Stats{Junctions: make(map[int]JunctionCount)}
	counts := make(map[key]*Event)
	err := src.Scan(ctx, chrom, func(r align.Read) error {
		if r.IsUnmapped() {
			return nil
		}
		stats.Alignments++
		l := table.Lookup(r.Name)
		if l == homolog.Unresolved {
			return nil
		}
		ip, err := r.InsertionPoint.Require(tags.InsertionPoint)
		if err != nil {
			return fmt.Errorf("read %s: %w", r.Name, err)
		}
		jt, err := r.JunctionType.Require(tags.JunctionType)
		if err != nil {
			return fmt.Errorf("read %s: %w", r.Name, err)
		}
		stats.Classified++
		k := key{label: l, pos: ip}
		e := counts[k]
		if e == nil {
			e = &Event{Chrom: homolog.Tag(chrom, l), Pos: ip}
			counts[k] = e
		}
		e.Raw++
		stats.Raw++
		if admitted.Admits(Partner(jt)) {
			e.Corrected++
			stats.Corrected++
		}
		jc := stats.Junctions[jt]
		if l == homolog.Reference {
			jc.Reference++
		} else {
			jc.Alternate++
		}
		stats.Junctions[jt] = jc
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	ans := make([]Event, 0, len(counts))
	for _, e := range counts {
		ans = append(ans, *e)
	}
	Sort(ans)
	return ans, stats, nil
}

// Place maps the chromosome and position of e through lay.
func (e Event) Place(lay homolog.Layout) (Event, error) {
	var err error
	e.Chrom, e.Pos, err = lay.Place(e.Chrom, e.Pos)
	return e, err
}

// Less orders events by chromosome then position.
func Less(a, b Event) bool {
	if a.Chrom != b.Chrom {
		return a.Chrom < b.Chrom
	}
	return a.Pos < b.Pos
}

// Sort sorts events in place.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return Less(events[i], events[j]) })
}
