package rerank

import (
	"math"
	"testing"

	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/store/milvus"
)

func results() []milvus.SearchResult {
	return []milvus.SearchResult{
		{WindowID: "a", Score: 0.95, RecordName: "100", Label: model.LabelNormal},
		{WindowID: "b", Score: 0.90, RecordName: "208", Label: model.LabelArrhythmic},
		{WindowID: "c", Score: 0.60, RecordName: "209", Label: model.LabelArrhythmic},
	}
}

func TestRerankPenalizesSameRecord(t *testing.T) {
	r := NewReranker(DefaultConfig())
	ranked := r.Rerank(results(), "100")

	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	if ranked[0].WindowID != "b" || ranked[2].WindowID != "a" {
		t.Errorf("order = %s %s %s, want b c a", ranked[0].WindowID, ranked[1].WindowID, ranked[2].WindowID)
	}
	if ranked[2].RecordWeight != 0.5 || math.Abs(ranked[2].FinalScore-0.475) > 1e-6 {
		t.Errorf("same-record result = %+v", ranked[2])
	}

	// without a query record nothing is penalized
	if got := r.Rerank(results(), ""); got[0].WindowID != "a" {
		t.Errorf("expected a first, got %s", got[0].WindowID)
	}
}

func TestTopNAndMinScore(t *testing.T) {
	r := NewReranker(Config{SameRecordWeight: 1, MinScore: 0.7})
	ranked := r.TopN(results(), "", 5)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results above 0.7, got %d", len(ranked))
	}
	if got := r.TopN(results(), "", 1); len(got) != 1 || got[0].WindowID != "a" {
		t.Errorf("TopN(1) = %+v", got)
	}
}

func TestVote(t *testing.T) {
	r := NewReranker(DefaultConfig())
	label, conf := Vote(r.Rerank(results(), "100"))
	if label != model.LabelArrhythmic {
		t.Errorf("label = %s, want arrhythmic", label)
	}
	want := 1.5 / 1.975
	if math.Abs(conf-want) > 1e-6 {
		t.Errorf("confidence = %v, want %v", conf, want)
	}

	if label, conf := Vote(nil); label != "" || conf != 0 {
		t.Errorf("Vote(nil) = %q, %v", label, conf)
	}
}
