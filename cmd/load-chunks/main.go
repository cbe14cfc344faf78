package main

import (
	"context"
	"log"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/repository"
	"github.com/vedu111/gorechitee/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Copies the precomputed chunks of every configured corpus into reference_chunks
// so the pgvector semantic backend can search them
func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	connString := cfg.DatabaseURL
	if connString == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	var tableExists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'reference_chunks')").Scan(&tableExists)
	if err != nil {
		log.Fatalf("Failed to check table existence: %v", err)
	}
	if !tableExists {
		log.Fatal("reference_chunks table does not exist. Please run: go run ./cmd/migrate")
	}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	corpora := repository.NewCorpusRepository(store)
	chunks := repository.NewChunkRepository(pool)

	for _, name := range cfg.CorpusNames() {
		corpus, err := corpora.Load(ctx, name)
		if err != nil {
			log.Fatalf("Failed to load corpus %s: %v", name, err)
		}

		if err := chunks.ReplaceCorpus(ctx, name, corpus.Chunks); err != nil {
			log.Fatalf("Failed to store chunks for %s: %v", name, err)
		}
		log.Printf("✓ Stored %d chunks for %s", len(corpus.Chunks), name)
	}

	log.Println("✅ Chunk load complete!")
}
