package model

// BeatPos counts beats 0..k-1 in annotation order
type BeatPos int

// SamplePos counts raw signal samples at the record's sampling rate
type SamplePos int
