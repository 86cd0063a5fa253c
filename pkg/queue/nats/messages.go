package nats

import (
	"encoding/json"
	"fmt"

	"github.com/tunogya/ecgprep/pkg/model"
)

// Subject constants
const (
	SubjectWindowWrite    = "ecgprep.windows.write"
	SubjectEmbeddingWrite = "ecgprep.embeddings.write"
)

// Subjects lists every subject carried by the stream
var Subjects = []string{SubjectWindowWrite, SubjectEmbeddingWrite}

// WindowBatchMsg carries the windows of one record for one run
type WindowBatchMsg struct {
	RunID      string              `json:"run_id"`
	RecordName string              `json:"record_name"`
	Split      string              `json:"split"`
	Windows    []model.WindowRow   `json:"windows"`
	Features   []*model.FeatureRow `json:"features,omitempty"`
}

// EmbeddingMsg represents a Milvus vector write request
type EmbeddingMsg struct {
	WindowID    string    `json:"window_id"`
	Embedding   []float32 `json:"embedding"`
	RecordName  string    `json:"record_name"`
	Label       string    `json:"label"`
	Split       string    `json:"split"`
	Length      int32     `json:"length"`
	DataVersion int32     `json:"data_version"`
}

// EmbeddingBatchMsg represents a batch of vector write requests
type EmbeddingBatchMsg struct {
	Embeddings []EmbeddingMsg `json:"embeddings"`
}

// Encode serializes a message to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeWindowBatch deserializes a WindowBatchMsg from JSON bytes.
// Every row must belong to the run, record and split of the batch.
func DecodeWindowBatch(data []byte) (*WindowBatchMsg, error) {
	var msg WindowBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	for _, w := range msg.Windows {
		if w.RunID != msg.RunID || w.RecordName != msg.RecordName || w.Split != msg.Split {
			return nil, fmt.Errorf("window %s does not belong to batch %s/%s/%s",
				w.WindowID, msg.RunID, msg.RecordName, msg.Split)
		}
	}
	return &msg, nil
}

// DecodeEmbeddingBatch deserializes an EmbeddingBatchMsg from JSON bytes
func DecodeEmbeddingBatch(data []byte) (*EmbeddingBatchMsg, error) {
	var msg EmbeddingBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
