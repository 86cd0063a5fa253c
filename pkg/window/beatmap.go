package window

import "github.com/tunogya/ecgprep/pkg/model"

// BeatMap translates beat positions into sample positions for one record.
// It is the only place where the two coordinate spaces meet.
type BeatMap struct {
	samples []model.SamplePos
}

// NewBeatMap builds a map from the ordered sample positions of all beats
func NewBeatMap(samples []model.SamplePos) BeatMap {
	return BeatMap{samples: samples}
}

// Len returns the number of beats
func (m BeatMap) Len() int {
	return len(m.samples)
}

// Sample returns the sample position of beat b
func (m BeatMap) Sample(b model.BeatPos) model.SamplePos {
	return m.samples[b]
}

// Positions returns the beat positions whose sample is in subset, in order
func (m BeatMap) Positions(subset []model.SamplePos) []model.BeatPos {
	member := make(map[model.SamplePos]struct{}, len(subset))
	for _, s := range subset {
		member[s] = struct{}{}
	}

	var positions []model.BeatPos
	for i, s := range m.samples {
		if _, ok := member[s]; ok {
			positions = append(positions, model.BeatPos(i))
		}
	}
	return positions
}

// Span is an inclusive range of beat positions
type Span struct {
	Left  model.BeatPos
	Right model.BeatPos
}

// Samples converts the span into a half-open sample range [ai[Left], ai[Right])
func (m BeatMap) Samples(s Span) (start, end model.SamplePos) {
	return m.Sample(s.Left), m.Sample(s.Right)
}

// beatSet is a bitmap over beat positions
type beatSet []bool

func newBeatSet(n int) beatSet {
	return make(beatSet, n)
}

func (s beatSet) add(b model.BeatPos) {
	s[b] = true
}

func (s beatSet) has(b model.BeatPos) bool {
	return s[b]
}
