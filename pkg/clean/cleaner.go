package clean

import (
	"errors"
	"fmt"
	"time"

	"github.com/tunogya/ecgprep/pkg/model"
)

// Config holds record cleaning parameters
type Config struct {
	CanonicalLead string // lead that must end up in ch1

	// Band-pass denoising (off in production runs)
	Denoise       bool
	DenoiseLowHz  float64
	DenoiseHighHz float64
}

// DefaultConfig returns the configuration used to build the training set
func DefaultConfig() Config {
	return Config{
		CanonicalLead: "MLII",
		Denoise:       false,
		DenoiseLowHz:  0.05,
		DenoiseHighHz: 100,
	}
}

// Stats describes what happened to one record
type Stats struct {
	Record         string        `json:"record"`
	Swapped        bool          `json:"swapped"`
	Denoised       bool          `json:"denoised"`
	BaselineWidths [2]int        `json:"baseline_widths"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
}

// ErrNoCanonicalLead is returned when neither channel carries the canonical lead
var ErrNoCanonicalLead = errors.New("canonical lead not found")

// Clean normalizes channel order and cleans the signal of rec in place
func Clean(rec *model.Record, cfg Config) (Stats, error) {
	start := time.Now()
	stats := Stats{Record: rec.Name}

	if err := rec.Validate(); err != nil {
		return stats, err
	}

	swapped, ok := CheckChannels(rec, cfg.CanonicalLead)
	if !ok {
		return stats, fmt.Errorf("record %s (%s, %s): %w %q", rec.Name,
			rec.Signal[model.Ch1].Name, rec.Signal[model.Ch2].Name, ErrNoCanonicalLead, cfg.CanonicalLead)
	}
	stats.Swapped = swapped

	if cfg.Denoise {
		if err := Denoise(rec, cfg.DenoiseLowHz, cfg.DenoiseHighHz); err != nil {
			return stats, fmt.Errorf("failed to denoise: %w", err)
		}
		stats.Denoised = true
	}

	w1, w2 := baselineWidths(rec.Fs)
	stats.BaselineWidths = [2]int{w1, w2}
	RemoveBaseline(rec)
	Scale(rec)

	stats.ProcessingTime = time.Since(start)
	return stats, nil
}

// CheckChannels swaps channels so that ch1 carries the canonical lead.
// It reports whether a swap happened and whether the lead was found at all.
func CheckChannels(rec *model.Record, canonical string) (swapped, ok bool) {
	if rec.Signal[model.Ch1].Name == canonical {
		return false, true
	}
	if rec.Signal[model.Ch2].Name == canonical {
		rec.SwapChannels()
		return true, true
	}
	return false, false
}
