package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/ecgprep/pkg/model"
)

// FeatureRepo handles window feature data persistence
type FeatureRepo struct {
	client *Client
}

// NewFeatureRepo creates a new feature repository
func NewFeatureRepo(client *Client) *FeatureRepo {
	return &FeatureRepo{client: client}
}

const featureColumns = `window_id, label, length,
	ch1_mean, ch1_std, ch1_min, ch1_max,
	ch2_mean, ch2_std, ch2_min, ch2_max, data_version`

const upsertFeature = `
	INSERT INTO window_features (` + featureColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (window_id) DO UPDATE SET
		label = EXCLUDED.label,
		length = EXCLUDED.length,
		ch1_mean = EXCLUDED.ch1_mean,
		ch1_std = EXCLUDED.ch1_std,
		ch1_min = EXCLUDED.ch1_min,
		ch1_max = EXCLUDED.ch1_max,
		ch2_mean = EXCLUDED.ch2_mean,
		ch2_std = EXCLUDED.ch2_std,
		ch2_min = EXCLUDED.ch2_min,
		ch2_max = EXCLUDED.ch2_max,
		data_version = EXCLUDED.data_version
`

// InsertBatch inserts multiple feature rows in a transaction
func (r *FeatureRepo) InsertBatch(ctx context.Context, features []*model.FeatureRow) error {
	return batchInsert(ctx, r.client, upsertFeature, features, func(_ *sql.Tx, stmt *sql.Stmt, f *model.FeatureRow) error {
		_, err := stmt.ExecContext(ctx,
			f.WindowID, f.Label, f.Length,
			f.Ch1.Mean, f.Ch1.Std, f.Ch1.Min, f.Ch1.Max,
			f.Ch2.Mean, f.Ch2.Std, f.Ch2.Min, f.Ch2.Max,
			f.DataVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to insert feature: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a feature row by window ID
func (r *FeatureRepo) GetByID(ctx context.Context, windowID string) (*model.FeatureRow, error) {
	features, err := r.query(ctx, "WHERE window_id = ?", windowID)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("features of window %s not found", windowID)
	}
	return features[0], nil
}

// GetByLabel retrieves up to limit feature rows of one label
func (r *FeatureRepo) GetByLabel(ctx context.Context, label string, limit int) ([]*model.FeatureRow, error) {
	return r.query(ctx, "WHERE label = ? ORDER BY window_id LIMIT ?", label, limit)
}

func (r *FeatureRepo) query(ctx context.Context, where string, args ...any) ([]*model.FeatureRow, error) {
	rows, err := r.client.Query(ctx, "SELECT "+featureColumns+" FROM window_features "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var features []*model.FeatureRow
	for rows.Next() {
		var f model.FeatureRow
		err := rows.Scan(
			&f.WindowID, &f.Label, &f.Length,
			&f.Ch1.Mean, &f.Ch1.Std, &f.Ch1.Min, &f.Ch1.Max,
			&f.Ch2.Mean, &f.Ch2.Std, &f.Ch2.Min, &f.Ch2.Max,
			&f.DataVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, &f)
	}

	return features, rows.Err()
}
