package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Window labels
const (
	LabelNormal     = "normal"
	LabelArrhythmic = "arrhythmic"
)

// WindowPair is one labeled training example: a two-column signal slice
// (ch1, ch2) cut from a record
type WindowPair struct {
	ID     string
	Label  string
	Signal *mat.Dense // rows = samples, cols = channels; empty when Length == 0
	Length int       // always the row count of Signal
	Start  SamplePos // first sample (inclusive)
	End    SamplePos // last sample (exclusive)
}

// GenerateWindowID creates a deterministic window ID
// Format: hash(run|record|label|start|end|seq)
// seq disambiguates identical slices emitted more than once for a record
func GenerateWindowID(runID, recordName, label string, start, end SamplePos, seq int) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%d", runID, recordName, label, start, end, seq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// NewWindowPair stacks two equally long channel slices into a WindowPair
func NewWindowPair(label string, ch1, ch2 []float64, start, end SamplePos) WindowPair {
	n := len(ch1)
	signal := &mat.Dense{}
	if n > 0 {
		signal = mat.NewDense(n, 2, nil)
		signal.SetCol(0, ch1)
		signal.SetCol(1, ch2)
	}
	return WindowPair{
		Label:  label,
		Signal: signal,
		Length: n,
		Start:  start,
		End:    end,
	}
}

// Column returns a copy of one channel of the window
func (w *WindowPair) Column(key ChannelKey) []float64 {
	if w.Length == 0 {
		return []float64{}
	}
	return mat.Col(nil, int(key), w.Signal)
}

// IsArrhythmic reports whether the window is labeled arrhythmic
func (w *WindowPair) IsArrhythmic() bool {
	return w.Label == LabelArrhythmic
}

// WindowRow is the flat form of a WindowPair used for storage and messaging
type WindowRow struct {
	WindowID   string    `json:"window_id"`
	RunID      string    `json:"run_id"`
	RecordName string    `json:"record_name"`
	Split      string    `json:"split"`
	Label      string    `json:"label"`
	Length     int       `json:"length"`
	Start      SamplePos `json:"start"`
	End        SamplePos `json:"end"`
	Ch1        []float64 `json:"ch1"`
	Ch2        []float64 `json:"ch2"`
}

// Row flattens the window for the given run, record and split
func (w *WindowPair) Row(runID, recordName, split string) WindowRow {
	return WindowRow{
		WindowID:   w.ID,
		RunID:      runID,
		RecordName: recordName,
		Split:      split,
		Label:      w.Label,
		Length:     w.Length,
		Start:      w.Start,
		End:        w.End,
		Ch1:        w.Column(Ch1),
		Ch2:        w.Column(Ch2),
	}
}

// WindowPair rebuilds the matrix form of a stored row
func (r *WindowRow) WindowPair() (WindowPair, error) {
	if len(r.Ch1) != len(r.Ch2) || len(r.Ch1) != r.Length {
		return WindowPair{}, fmt.Errorf("window %s: channel lengths %d/%d do not match length %d",
			r.WindowID, len(r.Ch1), len(r.Ch2), r.Length)
	}
	wp := NewWindowPair(r.Label, r.Ch1, r.Ch2, r.Start, r.End)
	wp.ID = r.WindowID
	return wp, nil
}
