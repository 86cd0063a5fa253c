package window

import (
	"errors"
	"fmt"
)

// ErrInvalidRunSize is returned when a run length is not positive
var ErrInvalidRunSize = errors.New("run size must be positive")

// Run is an inclusive [Start, End] pair of positions into the searched slice
type Run struct {
	Start int
	End   int
}

// Len returns the number of positions covered by the run
func (r Run) Len() int {
	return r.End - r.Start + 1
}

// FindConsec finds every group of exactly size consecutive values in data
// (each value = previous + 1). Longer groups are split into all overlapping
// sub-groups of length size.
//
// Groups of exactly size come first in input order, followed by the splits
// of each longer group in input order.
func FindConsec[T ~int](data []T, size int) ([]Run, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRunSize, size)
	}

	var exact, long []Run
	start := 0
	for i := 1; i <= len(data); i++ {
		if i < len(data) && data[i] == data[i-1]+1 {
			continue
		}
		n := i - start
		switch {
		case n == size:
			exact = append(exact, Run{Start: start, End: i - 1})
		case n > size:
			long = append(long, Run{Start: start, End: i - 1})
		}
		start = i
	}

	runs := make([]Run, 0, len(exact))
	runs = append(runs, exact...)
	for _, r := range long {
		for j := r.Start; j+size-1 <= r.End; j++ {
			runs = append(runs, Run{Start: j, End: j + size - 1})
		}
	}
	return runs, nil
}
