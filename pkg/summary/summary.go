package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/ecgprep/pkg/model"
)

// Split holds window statistics for one side of a train/test split
type Split struct {
	Name       string
	Records    int
	Windows    int
	Normal     int
	Arrhythmic int
	Empty      int // windows with zero samples

	LengthMean float64
	LengthP10  float64
	LengthP50  float64
	LengthP90  float64
}

// Calculate summarizes the windows attached to records
func Calculate(name string, records []*model.Record) Split {
	s := Split{Name: name, Records: len(records)}

	var lengths []float64
	for _, rec := range records {
		for _, w := range rec.Windows {
			s.Windows++
			if w.IsArrhythmic() {
				s.Arrhythmic++
			} else {
				s.Normal++
			}
			if w.Length == 0 {
				s.Empty++
			}
			lengths = append(lengths, float64(w.Length))
		}
	}

	if len(lengths) == 0 {
		return s
	}

	sort.Float64s(lengths)
	s.LengthMean = stat.Mean(lengths, nil)
	s.LengthP10 = percentile(lengths, 10)
	s.LengthP50 = percentile(lengths, 50)
	s.LengthP90 = percentile(lengths, 90)
	return s
}

// Balance returns the arrhythmic share of the windows
func (s Split) Balance() float64 {
	if s.Windows == 0 {
		return 0
	}
	return float64(s.Arrhythmic) / float64(s.Windows)
}

// String returns a formatted string representation
func (s Split) String() string {
	return fmt.Sprintf(
		"%s: %d records | %d windows (%d normal, %d arrhythmic, %d empty) | length mean %.1f p10 %.0f p50 %.0f p90 %.0f",
		s.Name, s.Records, s.Windows, s.Normal, s.Arrhythmic, s.Empty,
		s.LengthMean, s.LengthP10, s.LengthP50, s.LengthP90,
	)
}

// percentile calculates the p-th percentile (p in 0-100)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Linear interpolation method
	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}
