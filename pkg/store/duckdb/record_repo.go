package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/ecgprep/pkg/model"
)

// RecordRepo handles record and annotation persistence.
// It also serves stored records to the preparation pipeline.
type RecordRepo struct {
	client *Client
}

// NewRecordRepo creates a new record repository
func NewRecordRepo(client *Client) *RecordRepo {
	return &RecordRepo{client: client}
}

const upsertRecord = `
	INSERT INTO records (name, fs, length, ch1_name, ch1_units, ch2_name, ch2_units, ch1, ch2)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET
		fs = EXCLUDED.fs,
		length = EXCLUDED.length,
		ch1_name = EXCLUDED.ch1_name,
		ch1_units = EXCLUDED.ch1_units,
		ch2_name = EXCLUDED.ch2_name,
		ch2_units = EXCLUDED.ch2_units,
		ch1 = EXCLUDED.ch1,
		ch2 = EXCLUDED.ch2
`

const upsertAnnotation = `
	INSERT INTO annotations (record_name, seq, sample_pos, symbol, chan)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (record_name, seq) DO UPDATE SET
		sample_pos = EXCLUDED.sample_pos,
		symbol = EXCLUDED.symbol,
		chan = EXCLUDED.chan
`

// Insert stores a single record, replacing its annotations
func (r *RecordRepo) Insert(ctx context.Context, rec *model.Record) error {
	return r.InsertBatch(ctx, []*model.Record{rec})
}

// InsertBatch stores multiple records in a transaction
func (r *RecordRepo) InsertBatch(ctx context.Context, records []*model.Record) error {
	return batchInsert(ctx, r.client, upsertRecord, records, func(tx *sql.Tx, stmt *sql.Stmt, rec *model.Record) error {
		ch1, ch2 := rec.Signal[model.Ch1], rec.Signal[model.Ch2]
		_, err := stmt.ExecContext(ctx,
			rec.Name, rec.Fs, rec.Length,
			ch1.Name, ch1.Units, ch2.Name, ch2.Units,
			encodeFloats(ch1.Values), encodeFloats(ch2.Values),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.Name, err)
		}
		return saveAnnotations(ctx, tx, rec)
	})
}

// saveAnnotations overwrites the annotations of rec by seq and trims the
// stale tail. Deleting and re-inserting a key in one transaction violates
// the primary key in DuckDB.
func saveAnnotations(ctx context.Context, tx *sql.Tx, rec *model.Record) error {
	for i, a := range rec.Annotations {
		if _, err := tx.ExecContext(ctx, upsertAnnotation, rec.Name, i, int64(a.Sample), a.Symbol, a.Chan); err != nil {
			return fmt.Errorf("failed to insert annotation %d of %s: %w", i, rec.Name, err)
		}
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM annotations WHERE record_name = ? AND seq >= ?", rec.Name, len(rec.Annotations))
	if err != nil {
		return fmt.Errorf("failed to trim annotations of %s: %w", rec.Name, err)
	}
	return nil
}

// GetByName retrieves a record with its annotations
func (r *RecordRepo) GetByName(ctx context.Context, name string) (*model.Record, error) {
	row := r.client.QueryRow(ctx, `
		SELECT name, fs, length, ch1_name, ch1_units, ch2_name, ch2_units, ch1, ch2
		FROM records
		WHERE name = ?
	`, name)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", name, err)
	}
	if err := r.loadAnnotations(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Names returns the stored record names in order
func (r *RecordRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.client.Query(ctx, "SELECT name FROM records ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan record name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadRecords returns every stored record ordered by name
func (r *RecordRepo) LoadRecords(ctx context.Context) ([]*model.Record, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*model.Record, 0, len(names))
	for _, name := range names {
		rec, err := r.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the total number of stored records
func (r *RecordRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func (r *RecordRepo) loadAnnotations(ctx context.Context, rec *model.Record) error {
	rows, err := r.client.Query(ctx, `
		SELECT sample_pos, symbol, chan
		FROM annotations
		WHERE record_name = ?
		ORDER BY seq ASC
	`, rec.Name)
	if err != nil {
		return fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Annotation
		var sample int64
		if err := rows.Scan(&sample, &a.Symbol, &a.Chan); err != nil {
			return fmt.Errorf("failed to scan annotation: %w", err)
		}
		a.Sample = model.SamplePos(sample)
		rec.Annotations = append(rec.Annotations, a)
	}
	return rows.Err()
}

func scanRecord(row *sql.Row) (*model.Record, error) {
	var rec model.Record
	var ch1Units, ch2Units sql.NullString
	var ch1, ch2 []byte

	err := row.Scan(
		&rec.Name, &rec.Fs, &rec.Length,
		&rec.Signal[model.Ch1].Name, &ch1Units,
		&rec.Signal[model.Ch2].Name, &ch2Units,
		&ch1, &ch2,
	)
	if err != nil {
		return nil, err
	}

	rec.Signal[model.Ch1].Units = ch1Units.String
	rec.Signal[model.Ch2].Units = ch2Units.String
	if rec.Signal[model.Ch1].Values, err = decodeFloats(ch1); err != nil {
		return nil, err
	}
	if rec.Signal[model.Ch2].Values, err = decodeFloats(ch2); err != nil {
		return nil, err
	}
	return &rec, nil
}
