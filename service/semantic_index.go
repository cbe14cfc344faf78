package service

import (
	"context"
	"math"

	"github.com/vedu111/gorechitee/models"
)

// SemanticIndex ranks reference chunks of a corpus against a query vector
type SemanticIndex interface {
	Search(ctx context.Context, corpus *models.ReferenceCorpus, query []float32, k int) ([]models.ScoredChunk, error)
}

// MemoryIndex ranks the chunks held in the corpus itself
type MemoryIndex struct{}

// Search scores every chunk by cosine similarity
func (MemoryIndex) Search(_ context.Context, corpus *models.ReferenceCorpus, query []float32, k int) ([]models.ScoredChunk, error) {
	return RankChunks(query, corpus.Chunks, k), nil
}

// chunkSearcher is satisfied by repository.ChunkRepository
type chunkSearcher interface {
	SearchSimilar(ctx context.Context, corpus string, embedding []float32, limit int) ([]models.ScoredChunk, error)
}

// PgvectorIndex delegates ranking to Postgres
type PgvectorIndex struct {
	chunks chunkSearcher
}

// NewPgvectorIndex creates an index over a chunk repository
func NewPgvectorIndex(chunks chunkSearcher) *PgvectorIndex {
	return &PgvectorIndex{chunks: chunks}
}

// Search queries the chunks stored under the corpus name.
// A zero-magnitude query matches nothing.
func (p *PgvectorIndex) Search(ctx context.Context, corpus *models.ReferenceCorpus, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	var norm float64
	for _, v := range query {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return nil, nil
	}

	chunks, err := p.chunks.SearchSimilar(ctx, corpus.Jurisdiction, query, k)
	if err != nil {
		return nil, err
	}

	ranked := chunks[:0]
	for _, c := range chunks {
		if !math.IsNaN(c.Similarity) {
			ranked = append(ranked, c)
		}
	}
	return ranked, nil
}
