package classify

import (
	"context"
	"github.com/dasnellings/diphic/align"
	"github.com/dasnellings/diphic/homolog"
	"github.com/dasnellings/diphic/phase"
)

// Stats counts what one classification pass saw.
type Stats struct {
	Alignments   int // mapped alignments scanned
	WithEvidence int // alignments carrying at least one informative base
	Observations int // informative bases applied to the table
	Reference    int // names assigned to the reference-phase homolog
	Alternate    int // names assigned to the alternate-phase homolog
	Conflicted   int // names removed after disagreeing evidence
}

// Evidence returns one label per phased locus overlapped by r for which r
// carries either phased allele. Loci in deletions or skips, and bases
// matching neither allele, give no evidence.
func Evidence(r align.Read, idx *phase.Index) []homolog.Label {
	var ans []homolog.Label
	for _, l := range idx.Overlapping(r) {
		b, ok := r.BaseAt(l.Pos)
		if !ok {
			continue
		}
		if label := l.Label(b); label != homolog.Unresolved {
			ans = append(ans, label)
		}
	}
	return ans
}

// Classify scans the alignments of chrom and builds its assignment table.
// Both mates of a pair share a name, so evidence from either mate counts
// toward the same entry.
func Classify(ctx context.Context, src align.Source, idx *phase.Index, chrom string) (*Table, Stats, error) {
	var stats Stats
	table := NewTable()
	if len(idx.Loci(chrom)) == 0 {
		return table, stats, nil
	}
	err := src.Scan(ctx, chrom, func(r align.Read) error {
		if r.IsUnmapped() {
			return nil
		}
		stats.Alignments++
		evidence := Evidence(r, idx)
		if len(evidence) == 0 {
			return nil
		}
		stats.WithEvidence++
		stats.Observations += len(evidence)
		for _, l := range evidence {
			table.Observe(r.Name, l)
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	stats.Reference, stats.Alternate = table.Counts()
	stats.Conflicted = table.Conflicts()
	return table, stats, nil
}
