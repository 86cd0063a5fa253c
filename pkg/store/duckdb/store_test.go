package duckdb

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/tunogya/ecgprep/pkg/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(InMemory)
	if err != nil {
		t.Fatalf("failed to open duckdb: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFloatBlobRoundTrip(t *testing.T) {
	values := []float64{0, -1.5, math.Pi, math.Inf(1), 1e-300}
	got, err := decodeFloats(encodeFloats(values))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, values) {
		t.Errorf("got %v, want %v", got, values)
	}

	if _, err := decodeFloats([]byte{1, 2, 3}); err == nil {
		t.Errorf("expected error for truncated blob")
	}
}

func TestInterleave(t *testing.T) {
	flat := interleave([]float64{1, 2, 3}, []float64{-1, -2, -3})
	if !reflect.DeepEqual(flat, []float64{1, -1, 2, -2, 3, -3}) {
		t.Fatalf("interleave = %v", flat)
	}
	ch1, ch2, err := deinterleave(flat)
	if err != nil || !reflect.DeepEqual(ch1, []float64{1, 2, 3}) || !reflect.DeepEqual(ch2, []float64{-1, -2, -3}) {
		t.Errorf("deinterleave = %v, %v, %v", ch1, ch2, err)
	}
	if _, _, err := deinterleave([]float64{1}); err == nil {
		t.Errorf("expected error for odd value count")
	}
}

func TestRecordRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepo(newTestClient(t))

	rec := &model.Record{
		Name:   "100",
		Fs:     360,
		Length: 3,
		Signal: [2]model.Channel{
			{Name: "MLII", Units: "mV", Values: []float64{0.1, 0.2, 0.3}},
			{Name: "V5", Units: "mV", Values: []float64{-0.1, -0.2, -0.3}},
		},
		Annotations: []model.Annotation{{Sample: 0, Symbol: "N"}, {Sample: 2, Symbol: "V", Chan: 1}},
	}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// re-inserting replaces annotations instead of duplicating them
	rec.Annotations = []model.Annotation{{Sample: 1, Symbol: "A"}}
	if err := repo.InsertBatch(ctx, []*model.Record{rec}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := repo.GetByName(ctx, "100")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("stored record differs:\n got %+v\nwant %+v", got, rec)
	}

	if n, err := repo.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}
	records, err := repo.LoadRecords(ctx)
	if err != nil || len(records) != 1 {
		t.Errorf("LoadRecords = %d, %v", len(records), err)
	}
	if _, err := repo.GetByName(ctx, "missing"); err == nil {
		t.Errorf("expected error for missing record")
	}
}

func TestWindowRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewWindowRepo(newTestClient(t))

	rows := []model.WindowRow{
		{WindowID: "a", RunID: "run", RecordName: "100", Split: "train", Label: model.LabelArrhythmic,
			Length: 2, Start: 10, End: 12, Ch1: []float64{1, 2}, Ch2: []float64{3, 4}},
		{WindowID: "b", RunID: "run", RecordName: "100", Split: "train", Label: model.LabelNormal,
			Length: 0, Start: 20, End: 20, Ch1: []float64{}, Ch2: []float64{}},
		{WindowID: "c", RunID: "run", RecordName: "101", Split: "test", Label: model.LabelNormal,
			Length: 1, Start: 5, End: 6, Ch1: []float64{7}, Ch2: []float64{8}},
	}
	if err := repo.InsertBatch(ctx, rows); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if err := repo.InsertBatch(ctx, rows[:1]); err != nil {
		t.Fatalf("duplicate insert should be ignored: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !reflect.DeepEqual(*got, rows[0]) {
		t.Errorf("got %+v, want %+v", *got, rows[0])
	}

	train, err := repo.GetByRun(ctx, "run", "train")
	if err != nil || len(train) != 2 {
		t.Fatalf("GetByRun(train) = %d, %v", len(train), err)
	}
	if all, _ := repo.GetByRun(ctx, "run", ""); len(all) != 3 {
		t.Errorf("GetByRun(all) = %d windows, want 3", len(all))
	}

	counts, err := repo.CountByLabel(ctx, "run")
	if err != nil {
		t.Fatalf("CountByLabel failed: %v", err)
	}
	want := []LabelCount{
		{Split: "test", Label: model.LabelNormal, Count: 1},
		{Split: "train", Label: model.LabelArrhythmic, Count: 1},
		{Split: "train", Label: model.LabelNormal, Count: 1},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("CountByLabel = %+v, want %+v", counts, want)
	}

	if ok, _ := repo.Exists(ctx, "zzz"); ok {
		t.Errorf("unexpected window zzz")
	}
}

func TestWindowRepoKeepsRunsApart(t *testing.T) {
	ctx := context.Background()
	repo := NewWindowRepo(newTestClient(t))

	// identical windows produced by two runs over the same record
	for _, runID := range []string{"run-1", "run-2"} {
		var rows []model.WindowRow
		for i, label := range []string{model.LabelArrhythmic, model.LabelNormal} {
			rows = append(rows, model.WindowRow{
				WindowID: model.GenerateWindowID(runID, "100", label, 10, 12, i),
				RunID:    runID, RecordName: "100", Split: "train", Label: label,
				Length: 2, Start: 10, End: 12, Ch1: []float64{1, 2}, Ch2: []float64{3, 4},
			})
		}
		if err := repo.InsertBatch(ctx, rows); err != nil {
			t.Fatalf("InsertBatch(%s) failed: %v", runID, err)
		}
	}

	for _, runID := range []string{"run-1", "run-2"} {
		windows, err := repo.GetByRun(ctx, runID, "")
		if err != nil {
			t.Fatalf("GetByRun(%s) failed: %v", runID, err)
		}
		if len(windows) != 2 {
			t.Errorf("run %s stored %d windows, want 2", runID, len(windows))
		}
	}
}

func TestFeatureRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewFeatureRepo(newTestClient(t))

	f := &model.FeatureRow{
		WindowID:    "a",
		Label:       model.LabelArrhythmic,
		Length:      90,
		Ch1:         model.ChannelStats{Mean: 0.1, Std: 1, Min: -2, Max: 3},
		Ch2:         model.ChannelStats{Mean: -0.1, Std: 0.5, Min: -1, Max: 1},
		DataVersion: 1,
	}
	if err := repo.InsertBatch(ctx, []*model.FeatureRow{f}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !reflect.DeepEqual(got, f) {
		t.Errorf("got %+v, want %+v", got, f)
	}

	byLabel, err := repo.GetByLabel(ctx, model.LabelNormal, 10)
	if err != nil || len(byLabel) != 0 {
		t.Errorf("GetByLabel(normal) = %d, %v", len(byLabel), err)
	}
}
