package homolog

import "fmt"

// Layout decides how tagged coordinates are written out. With Merge unset the
// homologs are kept apart under their tagged names. With Merge set both
// homologs share the untagged name and alternate-phase coordinates are
// shifted by the chromosome length, so that the two copies are laid end to
// end in a single diploid coordinate space.
type Layout struct {
	Merge bool
	Sizes map[string]int
}

// Place converts a tagged chromosome and a coordinate into the output name
// and coordinate for this layout.
func (lay Layout) Place(tagged string, pos int) (string, int, error) {
	if !lay.Merge {
		return tagged, pos, nil
	}
	chrom, l, ok := Split(tagged)
	if !ok {
		return "", 0, fmt.Errorf("chromosome %s carries no homolog suffix", tagged)
	}
	if l == Reference {
		return chrom, pos, nil
	}
	size, found := lay.Sizes[chrom]
	if !found {
		return "", 0, fmt.Errorf("no size known for chromosome %s", chrom)
	}
	return chrom, pos + size, nil
}
