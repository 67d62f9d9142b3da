package contact

import (
	"context"
	"fmt"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/classify"
	"github.com/dasnellings/diphic/homolog"
	"sort"
)

// Stats counts what one contact pass saw.
type Stats struct {
	Alignments  int // mapped alignments scanned
	Assigned    int // alignments whose name has a homolog
	Names       int // distinct assigned names
	Records     int // names emitted as contacts
	Cardinality int // assigned names dropped for not having exactly two alignments
}

type mate struct {
	first  bool
	strand int
	ip     align.OptionalInt
}

type group struct {
	label homolog.Label
	mates []mate
	order int
}

// Build scans chrom and emits one record per read name that has exactly two
// mapped alignments and an assignment in table. Alignments are read on a
// separate goroutine and grouped by name as they arrive. Mate 0 is the
// first-in-pair alignment; when the flags do not tell the mates apart the
// encounter order is used. Records carry tagged chromosomes and are sorted.
func Build(ctx context.Context, src align.Source, table *classify.Table, chrom string, tags align.TagNames) ([]Record, Stats, error) {
	var stats Stats
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reads, errc := goScan(ctx, src, chrom)

	groups := make(map[string]*group)
	var g *group
	var l homolog.Label
	for r := range reads {
		stats.Alignments++
		l = table.Lookup(r.Name)
		if l == homolog.Unresolved {
			continue
		}
		stats.Assigned++
		g = groups[r.Name]
		if g == nil {
			g = &group{label: l, order: len(groups)}
			groups[r.Name] = g
		}
		if len(g.mates) <= 2 {
			g.mates = append(g.mates, mate{first: r.IsFirst(), strand: r.Strand(), ip: r.InsertionPoint})
		}
	}
	if err := <-errc; err != nil {
		return nil, stats, err
	}
	stats.Names = len(groups)

	names := make([]string, 0, len(groups))
	for name, g := range groups {
		if len(g.mates) != 2 {
			stats.Cardinality++
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return groups[names[i]].order < groups[names[j]].order })

	ans := make([]Record, 0, len(names))
	for _, name := range names {
		rec, err := pairRecord(name, groups[name], chrom, tags)
		if err != nil {
			return nil, stats, err
		}
		ans = append(ans, rec)
	}
	stats.Records = len(ans)
	Sort(ans)
	return ans, stats, nil
}

func pairRecord(name string, g *group, chrom string, tags align.TagNames) (Record, error) {
	a, b := g.mates[0], g.mates[1]
	if b.first && !a.first {
		a, b = b, a
	}
	ip1, err := a.ip.Require(tags.InsertionPoint)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", name, err)
	}
	ip2, err := b.ip.Require(tags.InsertionPoint)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", name, err)
	}
	tagged := homolog.Tag(chrom, g.label)
	return Record{
		Name:    name,
		Strand1: a.strand,
		Chrom1:  tagged,
		Pos1:    ip1,
		Strand2: b.strand,
		Chrom2:  tagged,
		Pos2:    ip2,
	}, nil
}

// goScan streams the mapped alignments of chrom through a bounded channel.
// The error channel receives exactly one value once the scan ends.
func goScan(ctx context.Context, src align.Source, chrom string) (<-chan align.Read, <-chan error) {
	ans := make(chan align.Read, 1000)
	errc := make(chan error, 1)
	go func() {
		defer close(ans)
		errc <- src.Scan(ctx, chrom, func(r align.Read) error {
			if r.IsUnmapped() {
				return nil
			}
			select {
			case ans <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return ans, errc
}
