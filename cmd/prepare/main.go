package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tunogya/ecgprep/pkg/feature"
	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/prepare"
	"github.com/tunogya/ecgprep/pkg/queue/nats"
	"github.com/tunogya/ecgprep/pkg/store/duckdb"
	"github.com/tunogya/ecgprep/pkg/store/milvus"
	"github.com/tunogya/ecgprep/pkg/summary"
)

// Config holds preparation configuration
type Config struct {
	// Window configuration
	FeatureNBeats  int
	LeadNBeats     int
	ForecastNBeats int
	ExcludeOnly    string
	TestFrac       float64
	Seed           uint64

	// Storage
	DuckDBPath string
	MilvusAddr string // empty disables embeddings
	NATSUrl    string // empty writes directly to the stores
	VectorDim  int

	// Processing
	BatchSize int
}

func main() {
	cfg := parseFlags()

	if err := cfg.validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting preparation: F=%d, L=%d, C=%d, test=%.2f, seed=%d",
		cfg.FeatureNBeats, cfg.LeadNBeats, cfg.ForecastNBeats, cfg.TestFrac, cfg.Seed)

	ctx := context.Background()

	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	recordRepo := duckdb.NewRecordRepo(duckClient)
	windowRepo := duckdb.NewWindowRepo(duckClient)
	featureRepo := duckdb.NewFeatureRepo(duckClient)

	pcfg := prepare.DefaultConfig()
	pcfg.Window.FeatureNBeats = cfg.FeatureNBeats
	pcfg.Window.LeadNBeats = cfg.LeadNBeats
	pcfg.Window.ForecastNBeats = cfg.ForecastNBeats
	pcfg.Window.ExcludeOnly = splitSymbols(cfg.ExcludeOnly)
	pcfg.TestFrac = cfg.TestFrac
	pcfg.Seed = cfg.Seed

	ds, err := prepare.NewPipeline(pcfg, recordRepo).Run(ctx)
	if err != nil {
		log.Fatalf("Preparation failed: %v", err)
	}
	log.Printf("Run %s: %d train / %d test records, %d skipped without arrhythmic beats",
		ds.RunID, len(ds.Train), len(ds.Test), len(ds.Skipped))

	for _, s := range []summary.Split{
		summary.Calculate(prepare.SplitTrain, ds.Train),
		summary.Calculate(prepare.SplitTest, ds.Test),
	} {
		log.Println(s)
	}

	// Extract features for every non-empty window
	extractor := feature.NewExtractor(feature.DataVersion, cfg.VectorDim)
	batches, embeddings := buildBatches(ds, extractor)

	if cfg.NATSUrl != "" {
		publish(ctx, cfg, batches, embeddings)
		return
	}

	log.Println("Storing windows in DuckDB...")
	var rows int64
	for _, b := range batches {
		if err := windowRepo.InsertBatch(ctx, b.Windows); err != nil {
			log.Fatalf("Failed to insert windows: %v", err)
		}
		if err := featureRepo.InsertBatch(ctx, b.Features); err != nil {
			log.Fatalf("Failed to insert features: %v", err)
		}
		rows += int64(len(b.Windows))
	}

	if cfg.MilvusAddr != "" {
		storeEmbeddings(ctx, cfg, embeddings)
	}

	counts, err := windowRepo.CountByLabel(ctx, ds.RunID)
	if err != nil {
		log.Fatalf("Failed to count windows: %v", err)
	}
	for _, c := range counts {
		log.Printf("  %-5s %-10s %s", c.Split, c.Label, humanize.Comma(c.Count))
	}

	log.Println("Preparation completed successfully!")
	log.Printf("Summary: %d records → %s windows → %s vectors",
		len(ds.Train)+len(ds.Test), humanize.Comma(rows), humanize.Comma(int64(len(embeddings))))
}

// buildBatches groups the run into one message per record
func buildBatches(ds *prepare.Dataset, extractor *feature.Extractor) ([]*nats.WindowBatchMsg, []nats.EmbeddingMsg) {
	var batches []*nats.WindowBatchMsg
	var embeddings []nats.EmbeddingMsg

	for _, split := range []struct {
		name    string
		records []*model.Record
	}{{prepare.SplitTrain, ds.Train}, {prepare.SplitTest, ds.Test}} {
		for _, rec := range split.records {
			batch := &nats.WindowBatchMsg{RunID: ds.RunID, RecordName: rec.Name, Split: split.name}
			for i := range rec.Windows {
				w := &rec.Windows[i]
				batch.Windows = append(batch.Windows, w.Row(ds.RunID, rec.Name, split.name))

				row, vector, err := extractor.Extract(w)
				if err != nil {
					log.Printf("Warning: failed to extract features for window %s: %v", w.ID, err)
					continue
				}
				if row == nil {
					continue
				}
				batch.Features = append(batch.Features, row)
				embeddings = append(embeddings, nats.EmbeddingMsg{
					WindowID:    w.ID,
					Embedding:   vector,
					RecordName:  rec.Name,
					Label:       w.Label,
					Split:       split.name,
					Length:      int32(w.Length),
					DataVersion: int32(row.DataVersion),
				})
			}
			batches = append(batches, batch)
		}
	}

	return batches, embeddings
}

func publish(ctx context.Context, cfg Config, batches []*nats.WindowBatchMsg, embeddings []nats.EmbeddingMsg) {
	log.Println("Connecting to NATS...")
	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATSUrl
	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	if err := natsClient.CreateStream(ctx); err != nil {
		log.Fatalf("Failed to create stream: %v", err)
	}

	for _, b := range batches {
		if err := natsClient.PublishWindowBatch(ctx, b); err != nil {
			log.Fatalf("Failed to publish windows of %s: %v", b.RecordName, err)
		}
	}
	if cfg.MilvusAddr != "" {
		for i := 0; i < len(embeddings); i += cfg.BatchSize {
			end := min(i+cfg.BatchSize, len(embeddings))
			if err := natsClient.PublishEmbeddings(ctx, &nats.EmbeddingBatchMsg{Embeddings: embeddings[i:end]}); err != nil {
				log.Fatalf("Failed to publish embeddings: %v", err)
			}
		}
	}

	log.Printf("Published %d window batches to %s", len(batches), nats.SubjectWindowWrite)
}

func storeEmbeddings(ctx context.Context, cfg Config, embeddings []nats.EmbeddingMsg) {
	log.Println("Connecting to Milvus...")
	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	collectionCfg := milvus.DefaultCollectionConfig()
	collectionCfg.Dimension = cfg.VectorDim
	if err := milvusClient.EnsureCollection(ctx, collectionCfg); err != nil {
		log.Fatalf("Failed to prepare Milvus collection: %v", err)
	}

	log.Println("Storing vectors in Milvus...")
	for i := 0; i < len(embeddings); i += cfg.BatchSize {
		end := min(i+cfg.BatchSize, len(embeddings))
		if err := milvusClient.InsertBatch(ctx, collectionCfg.Name, toWindowData(embeddings[i:end])); err != nil {
			log.Fatalf("Failed to insert vectors: %v", err)
		}
	}

	if err := milvusClient.Flush(ctx, collectionCfg.Name); err != nil {
		log.Printf("Warning: failed to flush Milvus: %v", err)
	}
}

func toWindowData(embeddings []nats.EmbeddingMsg) []*milvus.WindowData {
	out := make([]*milvus.WindowData, len(embeddings))
	for i, e := range embeddings {
		out[i] = &milvus.WindowData{
			WindowID:    e.WindowID,
			Embedding:   e.Embedding,
			RecordName:  e.RecordName,
			Label:       e.Label,
			Split:       e.Split,
			Length:      e.Length,
			DataVersion: e.DataVersion,
		}
	}
	return out
}

// validate rejects flag values the pipeline cannot run with
func (c Config) validate() error {
	if err := prepare.ValidateWindows(c.FeatureNBeats, c.LeadNBeats, c.ForecastNBeats); err != nil {
		return err
	}
	if len(splitSymbols(c.ExcludeOnly)) == 0 {
		return errors.New("-exclude must name at least one beat symbol")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("-batch must be at least 1, got %d", c.BatchSize)
	}
	if c.VectorDim < 2 || c.VectorDim%2 != 0 {
		return fmt.Errorf("-dim must be a positive even number, got %d", c.VectorDim)
	}
	return nil
}

// splitSymbols parses a comma-separated symbol list, dropping empty fields
func splitSymbols(list string) []string {
	var symbols []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func parseFlags() Config {
	def := prepare.DefaultConfig()
	cfg := Config{}

	flag.IntVar(&cfg.FeatureNBeats, "feature", def.Window.FeatureNBeats, "Feature window length in beats")
	flag.IntVar(&cfg.LeadNBeats, "lead", def.Window.LeadNBeats, "Lead time between feature and forecast window in beats")
	flag.IntVar(&cfg.ForecastNBeats, "forecast", def.Window.ForecastNBeats, "Forecast window length in beats")
	flag.StringVar(&cfg.ExcludeOnly, "exclude", strings.Join(def.Window.ExcludeOnly, ","), "Comma-separated beat symbols that are not arrhythmic")
	flag.Float64Var(&cfg.TestFrac, "test-frac", def.TestFrac, "Fraction of records held out for testing")
	flag.Uint64Var(&cfg.Seed, "seed", def.Seed, "Random seed")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "ecgprep.duckdb", "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "", "Milvus server address (empty to skip embeddings)")
	flag.StringVar(&cfg.NATSUrl, "nats", "", "NATS server URL (empty to write directly)")
	flag.IntVar(&cfg.VectorDim, "dim", model.VectorDim96, "Vector dimension")
	flag.IntVar(&cfg.BatchSize, "batch", 1000, "Batch size for vector inserts")

	flag.Parse()
	return cfg
}
