package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tunogya/ecgprep/pkg/feature"
	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/rerank"
	"github.com/tunogya/ecgprep/pkg/store/duckdb"
	"github.com/tunogya/ecgprep/pkg/store/milvus"
)

// Config holds search configuration
type Config struct {
	WindowID string
	Split    string

	DuckDBPath string
	MilvusAddr string
	VectorDim  int
	TopK       int
	TopN       int
}

func main() {
	cfg := parseFlags()

	ctx := context.Background()

	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	row, err := duckdb.NewWindowRepo(duckClient).GetByID(ctx, cfg.WindowID)
	if err != nil {
		log.Fatalf("Failed to fetch window: %v", err)
	}
	query, err := row.WindowPair()
	if err != nil {
		log.Fatalf("Failed to rebuild window: %v", err)
	}
	log.Printf("Query window: %s (%s, record %s, samples %d-%d)",
		query.ID, query.Label, row.RecordName, query.Start, query.End)

	extractor := feature.NewExtractor(feature.DataVersion, cfg.VectorDim)
	_, embedding, err := extractor.Extract(&query)
	if err != nil {
		log.Fatalf("Failed to extract features: %v", err)
	}
	if embedding == nil {
		log.Fatalf("Window %s is empty, nothing to search for", query.ID)
	}

	log.Println("Connecting to Milvus...")
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.LoadCollection(ctx, milvus.DefaultCollectionName); err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	log.Printf("Searching for %d most similar %s windows...", cfg.TopK, cfg.Split)
	results, err := milvusClient.Search(ctx, milvus.DefaultCollectionName, embedding, milvus.Filter{Split: cfg.Split}, cfg.TopK)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	reranker := rerank.NewReranker(rerank.DefaultConfig())
	ranked := reranker.TopN(results, row.RecordName, cfg.TopN+1)

	fmt.Printf("%-5s %-32s %-8s %-11s %-8s %-8s\n", "Rank", "WindowID", "Record", "Label", "Score", "Final")
	fmt.Println("--------------------------------------------------------------------------------")

	var neighbors []rerank.RankedResult
	for _, r := range ranked {
		// the query itself is stored too
		if r.WindowID == query.ID || len(neighbors) == cfg.TopN {
			continue
		}
		neighbors = append(neighbors, r)
		fmt.Printf("%-5d %-32s %-8s %-11s %-.4f   %-.4f\n",
			len(neighbors), r.WindowID, r.RecordName, r.Label, r.OriginalScore, r.FinalScore)
	}

	label, confidence := rerank.Vote(neighbors)
	fmt.Printf("\nVote: %s (%.0f%%), stored label %s\n", label, confidence*100, query.Label)
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.WindowID, "window", "", "ID of a stored window to query with")
	flag.StringVar(&cfg.Split, "split", "train", "Split to search in (empty for all)")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "ecgprep.duckdb", "DuckDB path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "localhost:19530", "Milvus address")
	flag.IntVar(&cfg.VectorDim, "dim", model.VectorDim96, "Vector dimension")
	flag.IntVar(&cfg.TopK, "topk", 50, "Neighbors fetched from Milvus")
	flag.IntVar(&cfg.TopN, "topn", 10, "Neighbors kept after reranking")

	flag.Parse()

	if cfg.WindowID == "" {
		fmt.Println("Usage: search -window <id> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
