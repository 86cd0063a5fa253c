package prepare

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/tunogya/ecgprep/pkg/data"
	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/window"
)

// Split names
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

// NonArrhythmicSymbols mark beats that never make a record usable
var NonArrhythmicSymbols = []string{"N", "?"}

// Config holds the preparation run parameters
type Config struct {
	Window   window.Config
	TestFrac float64
	Seed     uint64
}

// DefaultConfig returns the parameters of the default preparation run
func DefaultConfig() Config {
	return Config{
		Window:   window.DefaultConfig(),
		TestFrac: 0.2,
		Seed:     1,
	}
}

// ValidateWindows checks the window sizes before any record is touched
func ValidateWindows(featureNBeats, leadNBeats, forecastNBeats int) error {
	cfg := window.Config{
		FeatureNBeats:  featureNBeats,
		LeadNBeats:     leadNBeats,
		ForecastNBeats: forecastNBeats,
	}
	return cfg.Validate()
}

// Dataset is the result of one preparation run
type Dataset struct {
	RunID   string
	Train   []*model.Record
	Test    []*model.Record
	Skipped []string // records without arrhythmic beats
}

// Rows flattens the windows of both splits for storage
func (d *Dataset) Rows() []model.WindowRow {
	var rows []model.WindowRow
	for _, split := range []struct {
		name    string
		records []*model.Record
	}{{SplitTrain, d.Train}, {SplitTest, d.Test}} {
		for _, rec := range split.records {
			for i := range rec.Windows {
				rows = append(rows, rec.Windows[i].Row(d.RunID, rec.Name, split.name))
			}
		}
	}
	return rows
}

// Pipeline turns cleaned records into a split set of window pairs
type Pipeline struct {
	cfg      Config
	provider data.RecordProvider
}

// NewPipeline creates a pipeline reading records from provider
func NewPipeline(cfg Config, provider data.RecordProvider) *Pipeline {
	return &Pipeline{cfg: cfg, provider: provider}
}

// Run loads the records, extracts windows for each record with arrhythmic
// beats and splits the survivors into train and test sets. Records are
// modified in place: their Windows field is replaced.
func (p *Pipeline) Run(ctx context.Context) (*Dataset, error) {
	w := p.cfg.Window
	if err := ValidateWindows(w.FeatureNBeats, w.LeadNBeats, w.ForecastNBeats); err != nil {
		return nil, err
	}
	if !(p.cfg.TestFrac >= 0 && p.cfg.TestFrac < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTestFrac, p.cfg.TestFrac)
	}

	ds := &Dataset{RunID: uuid.NewString()}
	rng := rand.New(rand.NewPCG(p.cfg.Seed, p.cfg.Seed))
	extractor, err := window.NewExtractor(w, ds.RunID, rng)
	if err != nil {
		return nil, err
	}

	records, err := p.provider.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	kept := make([]*model.Record, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		if len(rec.BeatIndices(nil, NonArrhythmicSymbols)) == 0 {
			ds.Skipped = append(ds.Skipped, rec.Name)
			continue
		}

		windows, err := extractor.Extract(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to extract windows from %s: %w", rec.Name, err)
		}
		rec.Windows = windows
		kept = append(kept, rec)
	}

	ds.Train, ds.Test, err = SplitTrainTest(kept, p.cfg.TestFrac, rng)
	if err != nil {
		return nil, err
	}
	return ds, nil
}
