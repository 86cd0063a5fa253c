package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunogya/ecgprep/pkg/model"
	"github.com/tunogya/ecgprep/pkg/queue/nats"
	"github.com/tunogya/ecgprep/pkg/store/duckdb"
	"github.com/tunogya/ecgprep/pkg/store/milvus"
)

// Config holds writer worker configuration
type Config struct {
	NATSUrl    string
	DuckDBPath string
	MilvusAddr string // empty disables the embedding consumer
	VectorDim  int
}

func main() {
	cfg := parseFlags()

	log.Println("Starting Writer Worker...")
	log.Printf("NATS: %s, DuckDB: %s", cfg.NATSUrl, cfg.DuckDBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Connecting to DuckDB...")
	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	windowRepo := duckdb.NewWindowRepo(duckClient)
	featureRepo := duckdb.NewFeatureRepo(duckClient)

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
	log.Println("NATS stream ready")

	windowConsumer, err := natsClient.ConsumeWindowBatches(ctx, "window-writer", func(ctx context.Context, batch *nats.WindowBatchMsg) error {
		if err := windowRepo.InsertBatch(ctx, batch.Windows); err != nil {
			log.Printf("Failed to insert windows of %s: %v", batch.RecordName, err)
			return err
		}
		if err := featureRepo.InsertBatch(ctx, batch.Features); err != nil {
			log.Printf("Failed to insert features of %s: %v", batch.RecordName, err)
			return err
		}

		log.Printf("Inserted %d %s windows of record %s (run %s)",
			len(batch.Windows), batch.Split, batch.RecordName, batch.RunID)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to window writes: %v", err)
	}
	defer windowConsumer.Stop()

	if cfg.MilvusAddr != "" {
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

		embeddingConsumer, err := natsClient.ConsumeEmbeddings(ctx, "embedding-writer", func(ctx context.Context, batch *nats.EmbeddingBatchMsg) error {
			data := make([]*milvus.WindowData, len(batch.Embeddings))
			for i, e := range batch.Embeddings {
				data[i] = &milvus.WindowData{
					WindowID:    e.WindowID,
					Embedding:   e.Embedding,
					RecordName:  e.RecordName,
					Label:       e.Label,
					Split:       e.Split,
					Length:      e.Length,
					DataVersion: e.DataVersion,
				}
			}
			if err := milvusClient.InsertBatch(ctx, collectionCfg.Name, data); err != nil {
				log.Printf("Failed to insert vectors: %v", err)
				return err
			}

			log.Printf("Inserted %d vectors", len(data))
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to subscribe to embedding writes: %v", err)
		}
		defer embeddingConsumer.Stop()
	}

	log.Println("Writer Worker started, waiting for messages...")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down Writer Worker...")
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.NATSUrl, "nats", "nats://localhost:4222", "NATS server URL")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "ecgprep.duckdb", "DuckDB file path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "", "Milvus server address (empty to ignore embeddings)")
	flag.IntVar(&cfg.VectorDim, "dim", model.VectorDim96, "Vector dimension")

	flag.Parse()

	if cfg.DuckDBPath == "" {
		fmt.Println("Usage: writer [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return cfg
}
