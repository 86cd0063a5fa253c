package window

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tunogya/ecgprep/pkg/model"
)

// ErrInvalidWindow is returned for window sizes that cannot be extracted
var ErrInvalidWindow = errors.New("invalid window size")

// Config holds the window sizes for pair extraction, in beats
type Config struct {
	FeatureNBeats  int      // F: beats fed to the model (>= 1)
	LeadNBeats     int      // L: gap between feature and forecast window (>= 0)
	ForecastNBeats int      // C: beats whose outcome is predicted (>= 1)
	ExcludeOnly    []string // beat symbols that are NOT arrhythmic
}

// DefaultConfig returns the window sizes used by the preparation entry point
func DefaultConfig() Config {
	return Config{
		FeatureNBeats:  10,
		LeadNBeats:     5,
		ForecastNBeats: 5,
		ExcludeOnly:    []string{"N"},
	}
}

// Validate checks that all window sizes are in range
func (c Config) Validate() error {
	if c.FeatureNBeats < 1 || c.LeadNBeats < 0 || c.ForecastNBeats < 1 {
		return fmt.Errorf("%w: feature=%d lead=%d forecast=%d (need feature>=1, lead>=0, forecast>=1)",
			ErrInvalidWindow, c.FeatureNBeats, c.LeadNBeats, c.ForecastNBeats)
	}
	return nil
}

// Extractor cuts balanced normal/arrhythmic window pairs out of records
type Extractor struct {
	cfg   Config
	runID string
	rng   *rand.Rand
}

// NewExtractor creates an extractor drawing its samples from rng.
// runID is folded into every window ID so separate runs never collide.
func NewExtractor(cfg Config, runID string, rng *rand.Rand) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ExcludeOnly == nil {
		cfg.ExcludeOnly = []string{"N"}
	}
	return &Extractor{cfg: cfg, runID: runID, rng: rng}, nil
}

// Config returns the extractor configuration
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract returns the window pairs of one record: every arrhythmic window
// first, then the normal windows, with equal counts of each.
//
// For each bad beat b in the valid offset range, C forecast windows
// [b-pos, b+C-pos-1] are placed so that each contains b; the feature window
// is the F beats ending L beats before the forecast window. Normal forecast
// windows are runs of C consecutive beats that are not a used forecast
// endpoint.
func (e *Extractor) Extract(rec *model.Record) ([]model.WindowPair, error) {
	all := NewBeatMap(rec.BeatIndices(nil, nil))
	if err := checkBounds(rec, all); err != nil {
		return nil, err
	}

	f, l, c := e.cfg.FeatureNBeats, e.cfg.LeadNBeats, e.cfg.ForecastNBeats
	offL := model.BeatPos(f + l + c - 1)
	offR := model.BeatPos(all.Len() - c + 1)

	used := newBeatSet(all.Len())
	var arrhythmic []model.WindowPair
	for _, b := range all.Positions(rec.BeatIndices(nil, e.cfg.ExcludeOnly)) {
		if b < offL || b >= offR {
			continue
		}
		for pos := 0; pos < c; pos++ {
			forecast := Span{
				Left:  b - model.BeatPos(pos),
				Right: b + model.BeatPos(c-pos-1),
			}
			used.add(forecast.Left)
			used.add(forecast.Right)
			arrhythmic = append(arrhythmic, e.cut(rec, all, model.LabelArrhythmic, forecast))
		}
	}

	var pool []model.BeatPos
	for p := offL; p < offR; p++ {
		if !used.has(p) {
			pool = append(pool, p)
		}
	}
	runs, err := FindConsec(pool, c)
	if err != nil {
		return nil, err
	}

	if len(arrhythmic) > len(runs) {
		arrhythmic = sample(e.rng, arrhythmic, len(runs))
	} else {
		runs = sample(e.rng, runs, len(arrhythmic))
	}

	windows := make([]model.WindowPair, 0, len(arrhythmic)+len(runs))
	windows = append(windows, arrhythmic...)
	for _, r := range runs {
		forecast := Span{Left: pool[r.Start], Right: pool[r.End]}
		windows = append(windows, e.cut(rec, all, model.LabelNormal, forecast))
	}

	for i := range windows {
		w := &windows[i]
		w.ID = model.GenerateWindowID(e.runID, rec.Name, w.Label, w.Start, w.End, i)
	}
	return windows, nil
}

// FeatureSpan returns the feature window that precedes a forecast window
// starting at w1L: [w1L-L-F, w1L-L-1]
func (e *Extractor) FeatureSpan(w1L model.BeatPos) Span {
	f, l := model.BeatPos(e.cfg.FeatureNBeats), model.BeatPos(e.cfg.LeadNBeats)
	return Span{Left: w1L - l - f, Right: w1L - l - 1}
}

// cut slices both channels over the feature window of forecast
func (e *Extractor) cut(rec *model.Record, all BeatMap, label string, forecast Span) model.WindowPair {
	start, end := all.Samples(e.FeatureSpan(forecast.Left))
	ch1 := rec.Signal[model.Ch1].Values[start:end]
	ch2 := rec.Signal[model.Ch2].Values[start:end]
	return model.NewWindowPair(label, ch1, ch2, start, end)
}

// checkBounds makes sure every beat can be used as a slice bound:
// inside the signal and strictly after the previous beat
func checkBounds(rec *model.Record, all BeatMap) error {
	for _, k := range model.ChannelKeys {
		if n := len(rec.Signal[k].Values); n < rec.Length {
			return fmt.Errorf("record %s: %s has %d samples, expected %d", rec.Name, k, n, rec.Length)
		}
	}
	for b := 0; b < all.Len(); b++ {
		s := all.Sample(model.BeatPos(b))
		if s < 0 || int(s) > rec.Length {
			return fmt.Errorf("record %s: beat %d at sample %d is outside [0, %d]", rec.Name, b, s, rec.Length)
		}
		if b > 0 && s <= all.Sample(model.BeatPos(b-1)) {
			return fmt.Errorf("record %s: beat %d at sample %d is not after sample %d",
				rec.Name, b, s, all.Sample(model.BeatPos(b-1)))
		}
	}
	return nil
}

// sample draws k items uniformly without replacement, in draw order
func sample[T any](rng *rand.Rand, items []T, k int) []T {
	if k <= 0 {
		return nil
	}
	perm := make([]int, len(items))
	for i := range perm {
		perm[i] = i
	}
	out := make([]T, k)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(perm)-i)
		perm[i], perm[j] = perm[j], perm[i]
		out[i] = items[perm[i]]
	}
	return out
}
