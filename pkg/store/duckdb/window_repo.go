package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/ecgprep/pkg/model"
)

// WindowRepo handles window pair persistence
type WindowRepo struct {
	client *Client
}

// NewWindowRepo creates a new window repository
func NewWindowRepo(client *Client) *WindowRepo {
	return &WindowRepo{client: client}
}

// LabelCount is the number of windows of one label in one split
type LabelCount struct {
	Split string
	Label string
	Count int64
}

const insertWindow = `
	INSERT INTO window_pairs (window_id, run_id, record_name, split, label, length, start_sample, end_sample, signal)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (window_id) DO NOTHING
`

// InsertBatch inserts multiple windows in a transaction.
// Window IDs are unique per run, so a conflict is a redelivered batch
// and the stored row is left untouched.
func (r *WindowRepo) InsertBatch(ctx context.Context, windows []model.WindowRow) error {
	return batchInsert(ctx, r.client, insertWindow, windows, func(_ *sql.Tx, stmt *sql.Stmt, w model.WindowRow) error {
		if len(w.Ch1) != len(w.Ch2) {
			return fmt.Errorf("window %s: channel lengths %d/%d differ", w.WindowID, len(w.Ch1), len(w.Ch2))
		}
		_, err := stmt.ExecContext(ctx,
			w.WindowID, w.RunID, w.RecordName, w.Split, w.Label, w.Length,
			int64(w.Start), int64(w.End), encodeFloats(interleave(w.Ch1, w.Ch2)),
		)
		if err != nil {
			return fmt.Errorf("failed to insert window: %w", err)
		}
		return nil
	})
}

// Exists checks if a window exists by ID
func (r *WindowRepo) Exists(ctx context.Context, windowID string) (bool, error) {
	var count int
	err := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM window_pairs WHERE window_id = ?", windowID).Scan(&count)
	return count > 0, err
}

// GetByID retrieves a window by ID
func (r *WindowRepo) GetByID(ctx context.Context, windowID string) (*model.WindowRow, error) {
	rows, err := r.query(ctx, "WHERE window_id = ?", windowID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("window %s not found", windowID)
	}
	return &rows[0], nil
}

// GetByRun retrieves the windows of one split of a run.
// An empty split selects every window of the run.
func (r *WindowRepo) GetByRun(ctx context.Context, runID, split string) ([]model.WindowRow, error) {
	if split == "" {
		return r.query(ctx, "WHERE run_id = ? ORDER BY record_name, window_id", runID)
	}
	return r.query(ctx, "WHERE run_id = ? AND split = ? ORDER BY record_name, window_id", runID, split)
}

// CountByLabel returns window counts per split and label for a run
func (r *WindowRepo) CountByLabel(ctx context.Context, runID string) ([]LabelCount, error) {
	rows, err := r.client.Query(ctx, `
		SELECT split, label, COUNT(*)
		FROM window_pairs
		WHERE run_id = ?
		GROUP BY split, label
		ORDER BY split, label
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count windows: %w", err)
	}
	defer rows.Close()

	var counts []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Split, &c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *WindowRepo) query(ctx context.Context, where string, args ...any) ([]model.WindowRow, error) {
	rows, err := r.client.Query(ctx, `
		SELECT window_id, run_id, record_name, split, label, length, start_sample, end_sample, signal
		FROM window_pairs
	`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []model.WindowRow
	for rows.Next() {
		var w model.WindowRow
		var start, end int64
		var blob []byte

		err := rows.Scan(&w.WindowID, &w.RunID, &w.RecordName, &w.Split, &w.Label, &w.Length, &start, &end, &blob)
		if err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}

		values, err := decodeFloats(blob)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", w.WindowID, err)
		}
		if w.Ch1, w.Ch2, err = deinterleave(values); err != nil {
			return nil, fmt.Errorf("window %s: %w", w.WindowID, err)
		}
		w.Start, w.End = model.SamplePos(start), model.SamplePos(end)
		windows = append(windows, w)
	}

	return windows, rows.Err()
}
