package clean

import (
	"fmt"
	"math"
	"slices"

	"github.com/jfcg/butter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/ecgprep/pkg/model"
)

// baselineWidths returns the two median filter widths for a sampling rate:
// 200ms removes QRS complexes and P waves, 600ms removes T waves
func baselineWidths(fs float64) (int, int) {
	odd := func(seconds float64) int {
		w := int(math.Round(seconds*fs)) + 1
		if w%2 == 0 {
			w++
		}
		return w
	}
	return odd(0.2), odd(0.6)
}

// RemoveBaseline subtracts baseline wander from every channel
func RemoveBaseline(rec *model.Record) {
	w1, w2 := baselineWidths(rec.Fs)
	for _, k := range model.ChannelKeys {
		values := rec.Signal[k].Values
		baseline := MedianFilter(MedianFilter(values, w1), w2)
		floats.Sub(values, baseline)
	}
}

// Scale converts every channel to zero mean and unit variance.
// A constant channel is only centered.
func Scale(rec *model.Record) {
	for _, k := range model.ChannelKeys {
		values := rec.Signal[k].Values
		if len(values) == 0 {
			continue
		}
		mean, std := stat.PopMeanStdDev(values, nil)
		floats.AddConst(-mean, values)
		if std > 0 {
			floats.Scale(1/std, values)
		}
	}
}

// Denoise applies a first order Butterworth band pass between lowHz and
// highHz to every channel, forward and backward so the phase is preserved
func Denoise(rec *model.Record, lowHz, highHz float64) error {
	if rec.Fs <= 0 {
		return fmt.Errorf("record %s: invalid sampling rate %v", rec.Name, rec.Fs)
	}
	for _, k := range model.ChannelKeys {
		values := rec.Signal[k].Values
		if err := bandPass(values, rec.Fs, lowHz, highHz); err != nil {
			return fmt.Errorf("record %s %s: %w", rec.Name, k, err)
		}
		slices.Reverse(values)
		if err := bandPass(values, rec.Fs, lowHz, highHz); err != nil {
			return fmt.Errorf("record %s %s: %w", rec.Name, k, err)
		}
		slices.Reverse(values)
	}
	return nil
}

// bandPass filters values in place with fresh filter state
func bandPass(values []float64, fs, lowHz, highHz float64) error {
	wcBase := 2.0 * math.Pi / fs

	high := butter.NewHighPass1(lowHz * wcBase)
	if high == nil {
		return fmt.Errorf("invalid high-pass filter (wc=%f, expect .0001 < wc < 3.1415)", lowHz*wcBase)
	}
	low := butter.NewLowPass1(highHz * wcBase)
	if low == nil {
		return fmt.Errorf("invalid low-pass filter (wc=%f, expect .0001 < wc < 3.1415)", highHz*wcBase)
	}

	for i, v := range values {
		values[i] = low.Next(high.Next(v))
	}
	return nil
}
