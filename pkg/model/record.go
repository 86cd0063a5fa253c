package model

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned when a channel name is neither ch1 nor ch2
var ErrUnknownChannel = errors.New("unknown channel")

// ChannelKey indexes the two signal channels of a record
type ChannelKey int

const (
	Ch1 ChannelKey = iota
	Ch2
)

// ChannelKeys lists the valid channel keys in order
var ChannelKeys = []ChannelKey{Ch1, Ch2}

// String returns the canonical channel name ("ch1" or "ch2")
func (k ChannelKey) String() string {
	switch k {
	case Ch1:
		return "ch1"
	case Ch2:
		return "ch2"
	default:
		return fmt.Sprintf("ChannelKey(%d)", int(k))
	}
}

// ParseChannelKey converts "ch1"/"ch2" into a ChannelKey
func ParseChannelKey(name string) (ChannelKey, error) {
	for _, k := range ChannelKeys {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w %q: try %v", ErrUnknownChannel, name, ChannelKeys)
}

// Channel holds one lead of a recording
type Channel struct {
	Name   string    `json:"name"`  // lead name, e.g. "MLII"
	Units  string    `json:"units"` // physical unit, e.g. "mV"
	Values []float64 `json:"values"`
}

// Annotation marks one beat at a sample position
type Annotation struct {
	Sample SamplePos `json:"sample"`
	Symbol string    `json:"symbol"`
	Chan   int       `json:"chan"` // 0 or 1, follows channel swaps
}

// BeatSymbols are the standard beat annotation symbols
var BeatSymbols = []string{
	"N", "L", "R", "B", "A", "a", "J", "S", "V", "r",
	"F", "e", "j", "n", "E", "/", "f", "Q", "?",
}

// Record is one two-channel ECG recording with its beat annotations
type Record struct {
	Name        string       `json:"name"`
	Fs          float64      `json:"fs"`     // sampling rate in Hz
	Length      int          `json:"length"` // samples per channel
	Signal      [2]Channel   `json:"signal"`
	Annotations []Annotation `json:"annotations"`

	// Windows is filled by the preparation stage
	Windows []WindowPair `json:"-"`
}

// Channel returns the channel stored under key
func (r *Record) Channel(key ChannelKey) *Channel {
	return &r.Signal[key]
}

// BeatIndices returns the sample positions of beats whose symbol is in
// includeOnly but not in excludeOnly. A nil includeOnly means all BeatSymbols.
func (r *Record) BeatIndices(includeOnly, excludeOnly []string) []SamplePos {
	if includeOnly == nil {
		includeOnly = BeatSymbols
	}

	excluded := make(map[string]struct{}, len(excludeOnly))
	for _, s := range excludeOnly {
		excluded[s] = struct{}{}
	}
	included := make(map[string]struct{}, len(includeOnly))
	for _, s := range includeOnly {
		if _, ok := excluded[s]; !ok {
			included[s] = struct{}{}
		}
	}

	indices := make([]SamplePos, 0, len(r.Annotations))
	for _, a := range r.Annotations {
		if _, ok := included[a.Symbol]; ok {
			indices = append(indices, a.Sample)
		}
	}
	return indices
}

// SwapChannels exchanges ch1 and ch2 and flips every annotation channel bit
func (r *Record) SwapChannels() {
	r.Signal[Ch1], r.Signal[Ch2] = r.Signal[Ch2], r.Signal[Ch1]
	for i := range r.Annotations {
		r.Annotations[i].Chan = 1 - r.Annotations[i].Chan
	}
}

// FlipPolarity negates every sample of the named channel
func (r *Record) FlipPolarity(channel string) error {
	key, err := ParseChannelKey(channel)
	if err != nil {
		return err
	}
	values := r.Signal[key].Values
	for i := range values {
		values[i] = -values[i]
	}
	return nil
}

// Validate checks channel lengths and annotation ordering
func (r *Record) Validate() error {
	for _, k := range ChannelKeys {
		if n := len(r.Signal[k].Values); n != r.Length {
			return fmt.Errorf("record %s: %s has %d samples, expected %d", r.Name, k, n, r.Length)
		}
	}
	for i := 1; i < len(r.Annotations); i++ {
		if r.Annotations[i].Sample <= r.Annotations[i-1].Sample {
			return fmt.Errorf("record %s: annotation %d at sample %d is not after sample %d",
				r.Name, i, r.Annotations[i].Sample, r.Annotations[i-1].Sample)
		}
	}
	return nil
}
