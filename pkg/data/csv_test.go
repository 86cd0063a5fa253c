package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tunogya/ecgprep/pkg/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestCSVProviderLoadRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "101.csv", "sample,MLII (mV),V1\n0,0.1,-0.1\n1,0.2,-0.2\n2,0.3,-0.3\n3,0.4,-0.4\n")
	writeFile(t, dir, "101.atr.csv", "sample,symbol,chan\n1,N,0\n3,V,1\n")
	writeFile(t, dir, "100.csv", "sample,V5,MLII\n0,1,2\n1,3,4\n")
	writeFile(t, dir, "100.atr.csv", "sample,symbol\n0,+\n")
	writeFile(t, dir, "notes.txt", "ignored")

	p := NewCSVProvider(dir, 360)
	records, err := p.LoadRecords(context.Background())
	if err != nil {
		t.Fatalf("LoadRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Name != "100" || records[1].Name != "101" {
		t.Errorf("records out of order: %s, %s", records[0].Name, records[1].Name)
	}

	rec := records[1]
	if rec.Fs != 360 || rec.Length != 4 {
		t.Errorf("Fs=%v Length=%d, want 360 and 4", rec.Fs, rec.Length)
	}
	if rec.Signal[model.Ch1].Name != "MLII" || rec.Signal[model.Ch1].Units != "mV" {
		t.Errorf("ch1 = %+v", rec.Signal[model.Ch1])
	}
	if rec.Signal[model.Ch2].Name != "V1" || rec.Signal[model.Ch2].Units != DefaultUnits {
		t.Errorf("ch2 = %+v", rec.Signal[model.Ch2])
	}
	if got := rec.Signal[model.Ch2].Values[3]; got != -0.4 {
		t.Errorf("ch2[3] = %v, want -0.4", got)
	}
	if len(rec.Annotations) != 2 || rec.Annotations[1].Symbol != "V" || rec.Annotations[1].Chan != 1 {
		t.Errorf("annotations = %+v", rec.Annotations)
	}

	// chan column is optional
	if records[0].Annotations[0].Chan != 0 {
		t.Errorf("missing chan column should default to 0")
	}
}

func TestCSVProviderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "200.csv", "sample,MLII,V1\n0,1,2\n")
	p := NewCSVProvider(dir, 360)

	if _, err := p.LoadRecord("200"); err == nil {
		t.Errorf("expected error for missing annotation file")
	}

	writeFile(t, dir, "200.atr.csv", "sample,symbol\n5,N\n3,V\n")
	if _, err := p.LoadRecord("200"); err == nil {
		t.Errorf("expected validation error for out-of-order annotations")
	}

	writeFile(t, dir, "200.atr.csv", "sample,symbol\nx,N\n")
	if _, err := p.LoadRecord("200"); err == nil {
		t.Errorf("expected error for a non-numeric sample")
	}

	writeFile(t, dir, "201.csv", "sample,MLII\n0,1\n")
	writeFile(t, dir, "201.atr.csv", "sample,symbol\n")
	if _, err := p.LoadRecord("201"); err == nil {
		t.Errorf("expected error for a single-lead header")
	}

	if _, err := NewCSVProvider(filepath.Join(dir, "missing"), 360).LoadRecords(context.Background()); err == nil {
		t.Errorf("expected error for missing directory")
	}
}

func TestParseLead(t *testing.T) {
	tests := []struct {
		col, name, units string
	}{
		{"MLII (mV)", "MLII", "mV"},
		{"V5(uV)", "V5", "uV"},
		{" V1 ", "V1", DefaultUnits},
	}
	for _, tt := range tests {
		name, units := parseLead(tt.col)
		if name != tt.name || units != tt.units {
			t.Errorf("parseLead(%q) = %q, %q; want %q, %q", tt.col, name, units, tt.name, tt.units)
		}
	}
}

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider(nil)
	p.AddRecords(&model.Record{Name: "a"}, &model.Record{Name: "b"})

	records, err := p.LoadRecords(context.Background())
	if err != nil || len(records) != 2 {
		t.Fatalf("LoadRecords = %d, %v", len(records), err)
	}
	if _, err := p.GetByName("b"); err != nil {
		t.Errorf("GetByName(b): %v", err)
	}
	if _, err := p.GetByName("c"); err == nil {
		t.Errorf("expected error for unknown record")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.LoadRecords(ctx); err == nil {
		t.Errorf("expected error for cancelled context")
	}
}
