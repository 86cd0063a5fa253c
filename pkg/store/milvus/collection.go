package milvus

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// DefaultCollectionName is the default collection name for ECG windows
const DefaultCollectionName = "ecg_windows"

const (
	fieldWindowID    = "window_id"
	fieldEmbedding   = "embedding"
	fieldRecordName  = "record_name"
	fieldLabel       = "label"
	fieldSplit       = "split"
	fieldLength      = "length"
	fieldDataVersion = "data_version"
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // Vector dimension (96 or 128)
	Shards    int
}

// DefaultCollectionConfig returns default collection configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: 96,
		Shards:    2,
	}
}

// CreateCollection creates the window collection if it does not exist
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	varchar := func(name string, maxLen int) *entity.Field {
		return &entity.Field{
			Name:       name,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": fmt.Sprintf("%d", maxLen)},
		}
	}

	id := varchar(fieldWindowID, 64)
	id.PrimaryKey = true

	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "ECG window pair embeddings for similarity search",
		Fields: []*entity.Field{
			id,
			{
				Name:       fieldEmbedding,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", cfg.Dimension)},
			},
			varchar(fieldRecordName, 32),
			varchar(fieldLabel, 16),
			varchar(fieldSplit, 8),
			{Name: fieldLength, DataType: entity.FieldTypeInt32},
			{Name: fieldDataVersion, DataType: entity.FieldTypeInt32},
		},
	}

	if err := c.conn.CreateCollection(ctx, schema, int32(cfg.Shards)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// WindowData holds data for inserting a window into Milvus
type WindowData struct {
	WindowID    string
	Embedding   []float32
	RecordName  string
	Label       string
	Split       string
	Length      int32
	DataVersion int32
}

// InsertBatch inserts multiple window embeddings
func (c *Client) InsertBatch(ctx context.Context, collectionName string, dataList []*WindowData) error {
	if len(dataList) == 0 {
		return nil
	}

	windowIDs := make([]string, len(dataList))
	embeddings := make([][]float32, len(dataList))
	records := make([]string, len(dataList))
	labels := make([]string, len(dataList))
	splits := make([]string, len(dataList))
	lengths := make([]int32, len(dataList))
	dataVersions := make([]int32, len(dataList))

	dim := len(dataList[0].Embedding)
	for i, d := range dataList {
		if len(d.Embedding) != dim {
			return fmt.Errorf("window %s: embedding has dim %d, expected %d", d.WindowID, len(d.Embedding), dim)
		}
		windowIDs[i] = d.WindowID
		embeddings[i] = d.Embedding
		records[i] = d.RecordName
		labels[i] = d.Label
		splits[i] = d.Split
		lengths[i] = d.Length
		dataVersions[i] = d.DataVersion
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldWindowID, windowIDs),
		entity.NewColumnFloatVector(fieldEmbedding, dim, embeddings),
		entity.NewColumnVarChar(fieldRecordName, records),
		entity.NewColumnVarChar(fieldLabel, labels),
		entity.NewColumnVarChar(fieldSplit, splits),
		entity.NewColumnInt32(fieldLength, lengths),
		entity.NewColumnInt32(fieldDataVersion, dataVersions),
	}

	if _, err := c.conn.Insert(ctx, collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

// SearchResult represents a single search result
type SearchResult struct {
	WindowID    string
	Score       float32
	RecordName  string
	Label       string
	Split       string
	Length      int32
	DataVersion int32
}

// Filter narrows a similarity search. Empty fields do not filter.
type Filter struct {
	Split         string
	Label         string
	ExcludeRecord string
}

// Expr renders the filter as a Milvus boolean expression
func (f Filter) Expr() string {
	var terms []string
	if f.Split != "" {
		terms = append(terms, fmt.Sprintf("%s == %q", fieldSplit, f.Split))
	}
	if f.Label != "" {
		terms = append(terms, fmt.Sprintf("%s == %q", fieldLabel, f.Label))
	}
	if f.ExcludeRecord != "" {
		terms = append(terms, fmt.Sprintf("%s != %q", fieldRecordName, f.ExcludeRecord))
	}
	return strings.Join(terms, " && ")
}

// Search performs a TopK similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding []float32, filter Filter, topK int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(16) // nprobe
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := []string{fieldWindowID, fieldRecordName, fieldLabel, fieldSplit, fieldLength, fieldDataVersion}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil, // partitions
		filter.Expr(),
		outputFields,
		vectors,
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	searchResults := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		result := SearchResult{
			Score: results[0].Scores[i],
		}

		for _, field := range results[0].Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case fieldWindowID:
					result.WindowID = val
				case fieldRecordName:
					result.RecordName = val
				case fieldLabel:
					result.Label = val
				case fieldSplit:
					result.Split = val
				}
			case *entity.ColumnInt32:
				val, _ := col.ValueByIdx(i)
				switch col.Name() {
				case fieldLength:
					result.Length = val
				case fieldDataVersion:
					result.DataVersion = val
				}
			}
		}

		searchResults = append(searchResults, result)
	}

	return searchResults, nil
}
