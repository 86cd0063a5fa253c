package feature

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClipZScore returns the z-scores of values clipped to ±clipStd and
// scaled to [-1, 1]. A constant input maps to zeros.
func ClipZScore(values []float64, clipStd float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		std = 1
	}

	result := make([]float64, len(values))
	for i, v := range values {
		z := (v - mean) / std
		if z > clipStd {
			z = clipStd
		}
		if z < -clipStd {
			z = -clipStd
		}
		result[i] = z / clipStd
	}

	return result
}

// MinMaxNormalize scales values to [0, 1] range
func MinMaxNormalize(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lo, hi := floats.Min(values), floats.Max(values)
	rangeVal := hi - lo
	if rangeVal == 0 {
		rangeVal = 1
	}

	result := make([]float64, len(values))
	copy(result, values)
	floats.AddConst(-lo, result)
	floats.Scale(1/rangeVal, result)
	return result
}

// downsample reduces the number of samples using bucket averages
func downsample(values []float64, targetLen int) []float64 {
	if len(values) <= targetLen {
		return values
	}

	result := make([]float64, targetLen)
	ratio := float64(len(values)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(values) {
			end = len(values)
		}
		if end > start {
			result[i] = floats.Sum(values[start:end]) / float64(end-start)
		}
	}

	return result
}
