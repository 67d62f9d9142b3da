package align

import (
	"fmt"
	"strconv"
	"strings"
)

// TagNames are the two-letter auxiliary tags carrying the insertion point and
// the junction type of an alignment.
type TagNames struct {
	InsertionPoint string
	JunctionType   string
}

// DefaultTags are the tags written by the upstream pairing step.
var DefaultTags = TagNames{InsertionPoint: "XI", JunctionType: "XJ"}

// Validate checks that both tags are two characters long and distinct.
func (t TagNames) Validate() error {
	if len(t.InsertionPoint) != 2 || len(t.JunctionType) != 2 {
		return fmt.Errorf("alignment tags must be two characters: %q %q", t.InsertionPoint, t.JunctionType)
	}
	if t.InsertionPoint == t.JunctionType {
		return fmt.Errorf("insertion point and junction type tags must differ: %q", t.InsertionPoint)
	}
	return nil
}

// IntTag scans the tab separated auxiliary fields in extra for tag and returns
// its integer value. Only the first occurrence of the tag is considered.
// Integer typed fields (i, c, C, s, S, I) and string fields holding a
// decimal number are accepted; any other type is an error.
func IntTag(extra, tag string) (OptionalInt, error) {
	var field string
	for len(extra) > 0 {
		if idx := strings.IndexByte(extra, '\t'); idx >= 0 {
			field, extra = extra[:idx], extra[idx+1:]
		} else {
			field, extra = extra, ""
		}
		if len(field) < 5 || field[:2] != tag || field[2] != ':' || field[4] != ':' {
			continue
		}
		switch field[3] {
		case 'i', 'c', 'C', 's', 'S', 'I', 'Z':
			v, err := strconv.Atoi(field[5:])
			if err != nil {
				return OptionalInt{}, fmt.Errorf("malformed %s tag %q: %w", tag, field, err)
			}
			return Some(v), nil
		default:
			return OptionalInt{}, fmt.Errorf("tag %s has non-integer type %c", tag, field[3])
		}
	}
	return OptionalInt{}, nil
}
