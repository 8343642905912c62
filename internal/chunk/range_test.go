package chunk

import (
	"errors"
	"testing"
)

func TestIndices_TilesWithoutOverlap(t *testing.T) {
	for _, total := range []int{1, 9, 10, 11, 25, 100} {
		ranges, err := Indices(total, 10, 0)
		if err != nil {
			t.Fatalf("total=%d: %v", total, err)
		}
		next := 0
		for i, r := range ranges {
			if r.ID != i+1 {
				t.Errorf("total=%d: range %d has id %d", total, i, r.ID)
			}
			if r.Start != next {
				t.Errorf("total=%d: range %d starts at %d, want %d", total, i, r.Start, next)
			}
			if r.Len() <= 0 || r.Len() > 10 {
				t.Errorf("total=%d: range %d has length %d", total, i, r.Len())
			}
			next = r.End
		}
		if next != total {
			t.Errorf("total=%d: last end = %d", total, next)
		}
	}
}

func TestIndices_Overlap(t *testing.T) {
	ranges, err := Indices(10, 4, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Range{
		{ID: 1, Start: 0, End: 4},
		{ID: 2, Start: 3, End: 7},
		{ID: 3, Start: 6, End: 10},
	}
	if len(ranges) != len(want) {
		t.Fatalf("expected %d ranges, got %d: %+v", len(want), len(ranges), ranges)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, ranges[i], want[i])
		}
	}
}

func TestIndices_OverlapRepeatsBoundary(t *testing.T) {
	ranges, err := Indices(23, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i+1 < len(ranges); i++ {
		if ranges[i+1].Start != ranges[i].End-2 {
			t.Errorf("range %d -> %d: start %d, prev end %d", i, i+1, ranges[i+1].Start, ranges[i].End)
		}
	}
	if last := ranges[len(ranges)-1]; last.End != 23 {
		t.Errorf("last end = %d", last.End)
	}
}

func TestIndices_Empty(t *testing.T) {
	ranges, err := Indices(0, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 0 {
		t.Errorf("expected no ranges, got %d", len(ranges))
	}
}

func TestIndices_InvalidArguments(t *testing.T) {
	tests := []struct {
		size, overlap int
	}{
		{0, 0},
		{-1, 0},
		{5, 5},
		{5, 7},
		{5, -1},
	}
	for _, tt := range tests {
		_, err := Indices(10, tt.size, tt.overlap)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("size=%d overlap=%d: expected ErrInvalidArgument, got %v", tt.size, tt.overlap, err)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem(7); got != "ch_0007" {
		t.Errorf("Stem(7) = %q", got)
	}
	if got := (Range{ID: 12345}).Stem(); got != "ch_12345" {
		t.Errorf("Stem(12345) = %q", got)
	}
}
