package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tunogya/ecgprep/pkg/model"
)

// Annotation files sit next to signal files: <name>.csv and <name>.atr.csv
const annotationSuffix = ".atr.csv"

// DefaultUnits is assumed when a lead header carries no unit
const DefaultUnits = "mV"

// CSVProvider implements RecordProvider for a directory of exported records.
//
// Signal files have a header "sample,<lead1>,<lead2>" where a lead may carry
// its unit as "MLII (mV)". Annotation files have a header "sample,symbol,chan".
type CSVProvider struct {
	dir string
	fs  float64
}

// NewCSVProvider creates a new CSV-based record provider sampled at fs Hz
func NewCSVProvider(dir string, fs float64) *CSVProvider {
	return &CSVProvider{
		dir: dir,
		fs:  fs,
	}
}

// RecordNames lists the records available in the directory, sorted
func (p *CSVProvider) RecordNames() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, annotationSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadRecords loads every record in the directory
func (p *CSVProvider) LoadRecords(ctx context.Context) ([]*model.Record, error) {
	names, err := p.RecordNames()
	if err != nil {
		return nil, err
	}

	records := make([]*model.Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := p.LoadRecord(name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadRecord loads the signal and annotations of one record
func (p *CSVProvider) LoadRecord(name string) (*model.Record, error) {
	rec := &model.Record{Name: name, Fs: p.fs}

	if err := p.readSignal(filepath.Join(p.dir, name+".csv"), rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", name, err)
	}
	if err := p.readAnnotations(filepath.Join(p.dir, name+annotationSuffix), rec); err != nil {
		return nil, fmt.Errorf("record %s: %w", name, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// readSignal parses the two-lead signal file
func (p *CSVProvider) readSignal(path string, rec *model.Record) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open signal file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read signal header: %w", err)
	}
	if len(header) != 3 {
		return fmt.Errorf("signal header has %d columns, expected sample and two leads", len(header))
	}
	for i, k := range model.ChannelKeys {
		name, units := parseLead(header[i+1])
		rec.Signal[k].Name = name
		rec.Signal[k].Units = units
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read signal row %d: %w", line, err)
		}
		for i, k := range model.ChannelKeys {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return fmt.Errorf("invalid %s value on row %d: %w", k, line, err)
			}
			rec.Signal[k].Values = append(rec.Signal[k].Values, v)
		}
	}

	rec.Length = len(rec.Signal[model.Ch1].Values)
	return nil
}

// readAnnotations parses the beat annotation file
func (p *CSVProvider) readAnnotations(path string, rec *model.Record) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read annotation header: %w", err)
	}
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.ToLower(col)] = i
	}
	sampleCol, ok := colMap["sample"]
	if !ok {
		return fmt.Errorf("annotation header is missing the sample column")
	}
	symbolCol, ok := colMap["symbol"]
	if !ok {
		return fmt.Errorf("annotation header is missing the symbol column")
	}
	chanCol, hasChan := colMap["chan"]

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read annotation row %d: %w", line, err)
		}
		if sampleCol >= len(row) || symbolCol >= len(row) {
			return fmt.Errorf("annotation row %d is too short", line)
		}

		sample, err := strconv.Atoi(row[sampleCol])
		if err != nil {
			return fmt.Errorf("invalid sample on annotation row %d: %w", line, err)
		}
		a := model.Annotation{Sample: model.SamplePos(sample), Symbol: row[symbolCol]}
		if hasChan && chanCol < len(row) {
			if a.Chan, err = strconv.Atoi(row[chanCol]); err != nil {
				return fmt.Errorf("invalid chan on annotation row %d: %w", line, err)
			}
		}
		rec.Annotations = append(rec.Annotations, a)
	}
	return nil
}

// parseLead splits "MLII (mV)" into name and unit
func parseLead(col string) (name, units string) {
	col = strings.TrimSpace(col)
	if i := strings.Index(col, "("); i > 0 && strings.HasSuffix(col, ")") {
		return strings.TrimSpace(col[:i]), strings.TrimSpace(col[i+1 : len(col)-1])
	}
	return col, DefaultUnits
}
