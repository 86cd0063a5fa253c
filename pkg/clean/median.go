package clean

import "sort"

// MedianFilter applies a median filter of the given width to x.
// Samples outside x count as zero. Even widths are widened by one.
func MedianFilter(x []float64, width int) []float64 {
	if width < 1 {
		width = 1
	}
	if width%2 == 0 {
		width++
	}
	half := width / 2

	at := func(j int) float64 {
		if j < 0 || j >= len(x) {
			return 0
		}
		return x[j]
	}

	// the ring buffer holds the window in arrival order, sorted holds it by value
	rb := NewRingBuffer(width)
	sorted := make([]float64, 0, width)
	push := func(v float64) {
		if old, ok := rb.Push(v); ok {
			i := sort.SearchFloat64s(sorted, old)
			sorted = append(sorted[:i], sorted[i+1:]...)
		}
		i := sort.SearchFloat64s(sorted, v)
		sorted = append(sorted, 0)
		copy(sorted[i+1:], sorted[i:])
		sorted[i] = v
	}

	for j := -half; j < half; j++ {
		push(at(j))
	}

	out := make([]float64, len(x))
	for i := range x {
		push(at(i + half))
		out[i] = sorted[half]
	}
	return out
}
