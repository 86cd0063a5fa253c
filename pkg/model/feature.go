package model

// ChannelStats summarizes one channel of a window
type ChannelStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// PeakToPeak returns the amplitude range of the channel
func (s ChannelStats) PeakToPeak() float64 {
	return s.Max - s.Min
}

// FeatureRow contains structured features extracted from a window pair
// These features are used for filtering and statistical analysis
type FeatureRow struct {
	WindowID    string       `json:"window_id"`
	Label       string       `json:"label"`
	Length      int          `json:"length"` // samples in the window
	Ch1         ChannelStats `json:"ch1"`
	Ch2         ChannelStats `json:"ch2"`
	DataVersion int          `json:"data_version"` // schema version for compatibility
}

// ShapeVector is a fixed-length float32 vector for similarity search
// The first half holds ch1, the second half ch2
type ShapeVector []float32

// VectorDim constants for common embedding dimensions
const (
	VectorDim96  = 96
	VectorDim128 = 128
)

// NewShapeVector creates a new ShapeVector with the specified dimension
func NewShapeVector(dim int) ShapeVector {
	return make(ShapeVector, dim)
}

// Dim returns the dimension of the shape vector
func (sv ShapeVector) Dim() int {
	return len(sv)
}

// Copy creates a deep copy of the shape vector
func (sv ShapeVector) Copy() ShapeVector {
	result := make(ShapeVector, len(sv))
	copy(result, sv)
	return result
}

// ToFloat64 converts the shape vector to float64 slice
func (sv ShapeVector) ToFloat64() []float64 {
	result := make([]float64, len(sv))
	for i, v := range sv {
		result[i] = float64(v)
	}
	return result
}

// FromFloat64 creates a ShapeVector from float64 slice
func FromFloat64(data []float64) ShapeVector {
	result := make(ShapeVector, len(data))
	for i, v := range data {
		result[i] = float32(v)
	}
	return result
}
