package access

import (
	"fmt"
	psort "github.com/exascience/pargo/sort"
	"github.com/vertgenlab/gonomics/bed"
	"io"
	"strconv"
	"strings"
)

// Signal selects which counter of an Event is written.
type Signal int

const (
	Raw Signal = iota
	Corrected
)

func (s Signal) String() string {
	if s == Corrected {
		return "corrected"
	}
	return "raw"
}

func (s Signal) count(e Event) int {
	if s == Corrected {
		return e.Corrected
	}
	return e.Raw
}

// WriteBedGraph writes one single-base interval per event with a non-zero
// count of the chosen signal. Events must already be sorted.
func WriteBedGraph(w io.Writer, events []Event, s Signal) {
	var c int
	for i := range events {
		c = s.count(events[i])
		if c == 0 {
			continue
		}
		bed.WriteBed(w, bed.Bed{
			Chrom:             events[i].Chrom,
			ChromStart:        events[i].Pos - 1,
			ChromEnd:          events[i].Pos,
			Name:              strconv.Itoa(c),
			FieldsInitialized: 4,
		})
	}
}

type stableEventSorter []Event

func (s stableEventSorter) SequentialSort(i, j int) {
	Sort(s[i:j])
}

func (s stableEventSorter) NewTemp() psort.StableSorter {
	return stableEventSorter(make([]Event, len(s)))
}

func (s stableEventSorter) Len() int {
	return len(s)
}

func (s stableEventSorter) Less(i, j int) bool {
	return Less(s[i], s[j])
}

func (s stableEventSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableEventSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSort sorts events with a parallel stable sort.
func ParallelSort(events []Event) {
	psort.StableSort(stableEventSorter(events))
}

// Encode writes e as a spill line.
func Encode(w io.Writer, e Event) error {
	_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", e.Chrom, e.Pos, e.Raw, e.Corrected)
	return err
}

// Decode parses a line written by Encode.
func Decode(line string) (Event, error) {
	var e Event
	var err error
	col := strings.Split(line, "\t")
	if len(col) != 4 {
		return e, fmt.Errorf("malformed accessibility line: %q", line)
	}
	e.Chrom = col[0]
	ints := []*int{&e.Pos, &e.Raw, &e.Corrected}
	for i, c := range col[1:] {
		*ints[i], err = strconv.Atoi(c)
		if err != nil {
			return e, fmt.Errorf("malformed accessibility line: %q: %w", line, err)
		}
	}
	return e, nil
}
