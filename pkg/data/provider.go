package data

import (
	"context"
	"fmt"

	"github.com/tunogya/ecgprep/pkg/model"
)

// RecordProvider defines the interface for loading ECG records
type RecordProvider interface {
	// LoadRecords returns every available record in a stable order
	LoadRecords(ctx context.Context) ([]*model.Record, error)
}

// MemoryProvider implements RecordProvider with in-memory storage
type MemoryProvider struct {
	records []*model.Record
}

// NewMemoryProvider creates a new in-memory record provider
func NewMemoryProvider(records []*model.Record) *MemoryProvider {
	return &MemoryProvider{
		records: records,
	}
}

// AddRecords adds records to the provider
func (p *MemoryProvider) AddRecords(records ...*model.Record) {
	p.records = append(p.records, records...)
}

// LoadRecords returns the stored records
func (p *MemoryProvider) LoadRecords(ctx context.Context) ([]*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]*model.Record, len(p.records))
	copy(result, p.records)
	return result, nil
}

// GetByName returns the record with the given name
func (p *MemoryProvider) GetByName(name string) (*model.Record, error) {
	for _, r := range p.records {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("record %s not found", name)
}
