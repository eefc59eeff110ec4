package pixel

import (
	"errors"
)

// ErrInvalidSlice is returned for a zero slice step.
var ErrInvalidSlice = errors.New("slice step cannot be zero")

// SliceIndices returns the indices selected by start:stop:step over a
// sequence of length n. Negative bounds count from the end and out-of-range
// bounds are clamped; stop is exclusive and step may be negative.
func SliceIndices(start, stop, step, n int) ([]int, error) {
	if step == 0 {
		return nil, ErrInvalidSlice
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	start = clampBound(start, n, lower, upper)
	stop = clampBound(stop, n, lower, upper)

	var indices []int
	if step > 0 {
		for i := start; i < stop; i += step {
			indices = append(indices, i)
		}
	} else {
		for i := start; i > stop; i += step {
			indices = append(indices, i)
		}
	}

	return indices, nil
}

func clampBound(v, n, lower, upper int) int {
	if v < 0 {
		v += n
		if v < lower {
			v = lower
		}
		return v
	}
	if v > upper {
		v = upper
	}
	return v
}
