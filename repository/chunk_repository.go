package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vedu111/gorechitee/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRepository searches reference chunks stored in Postgres with pgvector
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SearchSimilar returns the chunks of a corpus closest to embedding by cosine distance.
// Rows with a zero-norm embedding are excluded since their distance is undefined.
func (r *ChunkRepository) SearchSimilar(
	ctx context.Context,
	corpus string,
	embedding []float32,
	limit int,
) ([]models.ScoredChunk, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	query := `
		SELECT
			chunk_text,
			1 - (embedding <=> $1::vector) AS similarity
		FROM reference_chunks
		WHERE
			corpus = $2
			AND vector_norm(embedding) > 0
		ORDER BY
			embedding <=> $1::vector
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), corpus, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.ScoredChunk
	for rows.Next() {
		var chunk models.ScoredChunk
		if err := rows.Scan(&chunk.Content, &chunk.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan reference chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference chunks: %w", err)
	}

	return chunks, nil
}

// CountByCorpus returns how many chunks are stored for a corpus
func (r *ChunkRepository) CountByCorpus(ctx context.Context, corpus string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reference_chunks WHERE corpus = $1`, corpus).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reference chunks: %w", err)
	}
	return count, nil
}

// ReplaceCorpus swaps every stored chunk of a corpus for the given ones in a single transaction
func (r *ChunkRepository) ReplaceCorpus(ctx context.Context, corpus string, chunks []models.SemanticChunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM reference_chunks WHERE corpus = $1`, corpus); err != nil {
		return fmt.Errorf("failed to clear %s chunks: %w", corpus, err)
	}

	query := `
		INSERT INTO reference_chunks (id, corpus, chunk_index, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)`

	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %d of %s has no embedding", i, corpus)
		}
		_, err := tx.Exec(ctx, query, uuid.New(), corpus, i, chunk.Content, formatVector(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
