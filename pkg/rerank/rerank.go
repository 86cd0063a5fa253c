package rerank

import (
	"sort"

	"github.com/tunogya/ecgprep/pkg/store/milvus"
)

// Config holds configuration for neighbor reranking
type Config struct {
	// SameRecordWeight scales neighbors cut from the query's own record.
	// Windows of one patient look alike, so these matches say little.
	SameRecordWeight float64
	// MinScore drops neighbors whose final score falls below it
	MinScore float64
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		SameRecordWeight: 0.5,
		MinScore:         0,
	}
}

// RankedResult extends SearchResult with reranked score
type RankedResult struct {
	milvus.SearchResult
	OriginalScore float32
	RecordWeight  float64
	FinalScore    float64
}

// Reranker reorders similarity search results
type Reranker struct {
	config Config
}

// NewReranker creates a new reranker with the given configuration
func NewReranker(config Config) *Reranker {
	return &Reranker{config: config}
}

// Rerank reweights results for a query cut from queryRecord
func (r *Reranker) Rerank(results []milvus.SearchResult, queryRecord string) []RankedResult {
	ranked := make([]RankedResult, 0, len(results))

	for _, result := range results {
		weight := 1.0
		if queryRecord != "" && result.RecordName == queryRecord {
			weight = r.config.SameRecordWeight
		}

		final := float64(result.Score) * weight
		if final < r.config.MinScore {
			continue
		}
		ranked = append(ranked, RankedResult{
			SearchResult:  result,
			OriginalScore: result.Score,
			RecordWeight:  weight,
			FinalScore:    final,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked
}

// TopN returns the top N results after reranking
func (r *Reranker) TopN(results []milvus.SearchResult, queryRecord string, n int) []RankedResult {
	ranked := r.Rerank(results, queryRecord)
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// Vote returns the label with the largest summed final score and that
// label's share of the total. It returns "" for no results.
func Vote(results []RankedResult) (label string, confidence float64) {
	scores := make(map[string]float64)
	var total float64
	for _, r := range results {
		scores[r.Label] += r.FinalScore
		total += r.FinalScore
	}

	best := -1.0
	for l, s := range scores {
		if s > best || (s == best && l < label) {
			label, best = l, s
		}
	}
	if total <= 0 {
		return label, 0
	}
	return label, best / total
}
