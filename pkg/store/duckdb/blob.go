package duckdb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeFloats packs values as little-endian float64
func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// decodeFloats is the inverse of encodeFloats
func decodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(buf))
	}
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return values, nil
}

// interleave builds the row-major (sample, channel) layout of a window
func interleave(ch1, ch2 []float64) []float64 {
	out := make([]float64, 0, 2*len(ch1))
	for i := range ch1 {
		out = append(out, ch1[i], ch2[i])
	}
	return out
}

// deinterleave splits a row-major two-column layout into its channels
func deinterleave(values []float64) (ch1, ch2 []float64, err error) {
	if len(values)%2 != 0 {
		return nil, nil, fmt.Errorf("signal has %d values, expected pairs", len(values))
	}
	n := len(values) / 2
	ch1 = make([]float64, n)
	ch2 = make([]float64, n)
	for i := 0; i < n; i++ {
		ch1[i] = values[2*i]
		ch2[i] = values[2*i+1]
	}
	return ch1, ch2, nil
}
