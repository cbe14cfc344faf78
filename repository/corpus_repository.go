package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/vedu111/gorechitee/models"
	"github.com/vedu111/gorechitee/storage"
)

const (
	embeddingsDatabaseFile = "embeddings-database.json"
	itemMappingFile        = "item-to-hs-mapping.json"
)

// embeddingsDatabase mirrors the on-disk layout of a jurisdiction's reference file
type embeddingsDatabase struct {
	Chunks      []models.SemanticChunk    `json:"chunks"`
	HSCodesData map[string]models.HSEntry `json:"hsCodesData"`
}

// CorpusRepository loads reference corpora from storage
type CorpusRepository struct {
	store storage.Storage
}

// NewCorpusRepository creates a new corpus repository
func NewCorpusRepository(store storage.Storage) *CorpusRepository {
	return &CorpusRepository{store: store}
}

// Load reads one corpus directory. The embeddings database is required;
// the item-name mapping is optional and treated as empty when absent.
func (r *CorpusRepository) Load(ctx context.Context, corpus string) (*models.ReferenceCorpus, error) {
	var db embeddingsDatabase
	if err := r.readJSON(ctx, path.Join(corpus, embeddingsDatabaseFile), &db); err != nil {
		return nil, fmt.Errorf("failed to load %s corpus: %w", corpus, err)
	}

	items := make(map[string]string)
	err := r.readJSON(ctx, path.Join(corpus, itemMappingFile), &items)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load %s item mapping: %w", corpus, err)
	}

	for i, chunk := range db.Chunks {
		if len(chunk.Embedding) == 0 {
			return nil, fmt.Errorf("%s corpus: chunk %d has no embedding", corpus, i)
		}
	}

	return models.NewReferenceCorpus(corpus, items, db.HSCodesData, db.Chunks), nil
}

// LoadAll reads every named corpus, keyed by name
func (r *CorpusRepository) LoadAll(ctx context.Context, corpora []string) (map[string]*models.ReferenceCorpus, error) {
	loaded := make(map[string]*models.ReferenceCorpus, len(corpora))
	for _, name := range corpora {
		corpus, err := r.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		loaded[name] = corpus
	}
	return loaded, nil
}

func (r *CorpusRepository) readJSON(ctx context.Context, storagePath string, v any) error {
	rc, err := r.store.Download(ctx, storagePath)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", storagePath, err)
	}
	return nil
}
