package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for unusable chunk size / overlap values.
var ErrInvalidArgument = errors.New("invalid argument")

// Range is a half-open [Start, End) interval over the turn sequence.
type Range struct {
	ID    int // 1-based
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// Stem is the file name stem shared by a chunk's text and record files.
func (r Range) Stem() string { return Stem(r.ID) }

func Stem(id int) string { return fmt.Sprintf("ch_%04d", id) }

// Validate checks chunking parameters without doing any work.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be > 0, got %d", ErrInvalidArgument, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be >= 0 and < chunk size (%d), got %d", ErrInvalidArgument, size, overlap)
	}
	return nil
}

// Indices partitions total turns into consecutive ranges of at most size
// turns. Each non-final range shares its last overlap turns with the next
// one; the final range always ends at total.
func Indices(total, size, overlap int) ([]Range, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	var ranges []Range
	start, id := 0, 1
	for start < total {
		end := min(start+size, total)
		ranges = append(ranges, Range{ID: id, Start: start, End: end})
		id++
		if end == total {
			break
		}
		start = max(end-overlap, 0)
	}
	return ranges, nil
}
