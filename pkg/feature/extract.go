package feature

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/ecgprep/pkg/model"
)

// DataVersion of the feature layout written by this package
const DataVersion = 1

// Extractor extracts features from window pairs
type Extractor struct {
	DataVersion int
	VectorDim   int     // Target dimension for ShapeVector (96 or 128)
	ClipStd     float64 // Standard deviations for clipping (default 3.0)
}

// NewExtractor creates a new feature extractor
func NewExtractor(dataVersion, vectorDim int) *Extractor {
	return &Extractor{
		DataVersion: dataVersion,
		VectorDim:   vectorDim,
		ClipStd:     3.0,
	}
}

// Extract computes the FeatureRow and ShapeVector of a window.
// Empty windows yield no features.
func (e *Extractor) Extract(w *model.WindowPair) (*model.FeatureRow, model.ShapeVector, error) {
	if w.Length == 0 {
		return nil, nil, nil
	}
	if e.VectorDim <= 0 || e.VectorDim%2 != 0 {
		return nil, nil, fmt.Errorf("vector dimension must be positive and even, got %d", e.VectorDim)
	}

	ch1 := w.Column(model.Ch1)
	ch2 := w.Column(model.Ch2)

	featureRow := &model.FeatureRow{
		WindowID:    w.ID,
		Label:       w.Label,
		Length:      w.Length,
		Ch1:         channelStats(ch1),
		Ch2:         channelStats(ch2),
		DataVersion: e.DataVersion,
	}

	return featureRow, e.buildShapeVector(ch1, ch2), nil
}

// buildShapeVector lays out the clipped z-scores of ch1 then ch2,
// each averaged down to half the vector. Short windows are zero padded.
func (e *Extractor) buildShapeVector(ch1, ch2 []float64) model.ShapeVector {
	half := e.VectorDim / 2
	vector := model.NewShapeVector(e.VectorDim)

	for c, values := range [][]float64{ch1, ch2} {
		scaled := downsample(ClipZScore(values, e.ClipStd), half)
		for i, v := range scaled {
			vector[c*half+i] = float32(v)
		}
	}

	return vector
}

func channelStats(values []float64) model.ChannelStats {
	mean, std := stat.PopMeanStdDev(values, nil)
	return model.ChannelStats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
}
