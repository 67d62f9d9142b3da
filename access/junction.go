// Package access counts fragment insertion points per homolog, raw and
// corrected for the junction-type bias of the sequencing platform.
package access

import (
	"fmt"
	"github.com/willf/bitset"
	"sort"
	"strings"
)

// maxJunction bounds the junction types a JunctionSet can admit.
const maxJunction = 64

// platformJunctions lists the admitted junction types per platform.
var platformJunctions = map[string][]uint{
	"ILLUMINA": {2, 3, 4, 5},
	"BGISEQ":   {0, 1},
	"MGISEQ":   {0, 1},
	"MGI":      {0, 1},
	"BGI":      {0, 1},
}

// Platforms returns the recognized platform names, sorted.
func Platforms() []string {
	ans := make([]string, 0, len(platformJunctions))
	for p := range platformJunctions {
		ans = append(ans, p)
	}
	sort.Strings(ans)
	return ans
}

// JunctionSet is a set of admitted junction types.
type JunctionSet struct {
	bits *bitset.BitSet
}

// NewJunctionSet admits the given junction types.
func NewJunctionSet(types ...uint) JunctionSet {
	s := JunctionSet{bits: bitset.New(maxJunction)}
	for _, jt := range types {
		s.bits.Set(jt)
	}
	return s
}

// PlatformJunctions returns the admitted set for a platform name, case
// insensitive.
func PlatformJunctions(platform string) (JunctionSet, error) {
	types, found := platformJunctions[strings.ToUpper(platform)]
	if !found {
		return JunctionSet{}, fmt.Errorf("unrecognized platform %q, expected one of %s", platform, strings.Join(Platforms(), ", "))
	}
	return NewJunctionSet(types...), nil
}

// Admits reports whether jt is in the set.
func (s JunctionSet) Admits(jt int) bool {
	if jt < 0 || s.bits == nil {
		return false
	}
	return s.bits.Test(uint(jt))
}

// Closed reports whether the set contains the partner of each of its members.
func (s JunctionSet) Closed() bool {
	for jt, ok := s.bits.NextSet(0); ok; jt, ok = s.bits.NextSet(jt + 1) {
		if !s.bits.Test(uint(Partner(int(jt)))) {
			return false
		}
	}
	return true
}

func (s JunctionSet) String() string {
	var parts []string
	for jt, ok := s.bits.NextSet(0); ok; jt, ok = s.bits.NextSet(jt + 1) {
		parts = append(parts, fmt.Sprint(jt))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Partner returns the junction type of the mate ligation junction, which
// differs from jt in its lowest bit.
func Partner(jt int) int {
	return jt ^ 1
}
