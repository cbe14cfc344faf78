package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedu111/gorechitee/models"
)

func TestCodeResolverMatch(t *testing.T) {
	resolver := NewCodeResolver()
	corpus := indiaCorpus()

	tests := []struct {
		name        string
		description string
		knownCode   string
		wantCode    string
		wantStage   models.ResolutionStage
		wantNote    string
	}{
		{
			name:        "provided code is used verbatim",
			description: "anything",
			knownCode:   " 999999 ",
			wantCode:    "999999",
			wantStage:   models.StageProvided,
		},
		{
			name:        "exact item name",
			description: "  T-SHIRT ",
			wantCode:    "61091000",
			wantStage:   models.StageItemName,
		},
		{
			name:        "description contains a long item key",
			description: "cotton t-shirt",
			wantCode:    "61091000",
			wantStage:   models.StageItemNamePartial,
			wantNote:    partialMatchNote,
		},
		{
			name:        "item key contains description",
			description: "laptop",
			wantCode:    "84713010",
			wantStage:   models.StageItemNamePartial,
			wantNote:    partialMatchNote,
		},
		{
			name:        "exact hs description",
			description: "Micro Motors",
			wantCode:    "85011011",
			wantStage:   models.StageHSDescription,
		},
		{
			name:        "partial hs description",
			description: "motors",
			wantCode:    "85011011",
			wantStage:   models.StageHSDescriptionPartial,
			wantNote:    partialMatchNote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := resolver.Match(corpus, tt.description, tt.knownCode)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Equal(t, tt.wantStage, res.Stage)
			assert.Equal(t, tt.wantNote, res.Note)
		})
	}
}

func TestCodeResolverShortKeysAreNotContained(t *testing.T) {
	resolver := NewCodeResolver()

	_, ok := resolver.MatchItemName(indiaCorpus(), "pencil case")
	assert.False(t, ok)
}

func TestCodeResolverFirstMatchIsLexical(t *testing.T) {
	resolver := NewCodeResolver()

	for range 10 {
		res, ok := resolver.MatchItemName(indiaCorpus(), "shirt")
		require.True(t, ok)
		assert.Equal(t, "61099090", res.Code, "blue t-shirt sorts before t-shirt")
	}
}

func TestCodeResolverEmptyDescription(t *testing.T) {
	resolver := NewCodeResolver()

	_, ok := resolver.Match(indiaCorpus(), "   ", "")
	assert.False(t, ok)
}

func TestCodeResolverResolveUnmatchedUsesGenerator(t *testing.T) {
	provider := &stubProvider{text: "Pencil cases are not listed.", embedding: []float32{1, 0, 0}}
	resolver := NewCodeResolver(ResolverWithProvider(provider))

	res := resolver.Resolve(context.Background(), indiaSchedule(), "Pencil Case", "")
	assert.False(t, res.Resolved())
	assert.Equal(t, models.StageUnresolved, res.Stage)
	assert.Equal(t, "pencil case", res.Query)
	assert.Equal(t, "Pencil cases are not listed.", res.Reason)
	assert.Contains(t, res.Evidence, "Arms and ammunition require a licence.")
	assert.NotContains(t, res.Evidence, "Blank chunk.")

	prompts := provider.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"pencil case" not found in export compliance regulations`)
	assert.Contains(t, prompts[0], "Arms and ammunition require a licence.")
}

func TestCodeResolverResolveFallsBackToTemplate(t *testing.T) {
	provider := &stubProvider{
		err:      ErrProviderUnavailable,
		embedErr: errors.New("embedding quota exceeded"),
	}
	resolver := NewCodeResolver(ResolverWithProvider(provider))

	res := resolver.Resolve(context.Background(), indiaSchedule(), "pencil case", "")
	assert.Empty(t, res.Evidence)
	assert.Equal(t,
		`No matching HS code found for description "pencil case". Unable to determine a specific reason due to an AI processing error.`,
		res.Reason)
}

func TestCodeResolverWithoutProvider(t *testing.T) {
	resolver := NewCodeResolver()

	res := resolver.Resolve(context.Background(), indiaSchedule(), "pencil case", "")
	assert.Empty(t, res.Evidence)
	assert.Contains(t, res.Reason, "No matching HS code found")
}

type stubSearcher struct {
	chunks []models.ScoredChunk
	err    error
	calls  int
}

func (s *stubSearcher) SearchSimilar(_ context.Context, _ string, _ []float32, _ int) ([]models.ScoredChunk, error) {
	s.calls++
	return s.chunks, s.err
}

func TestPgvectorIndexSearch(t *testing.T) {
	searcher := &stubSearcher{chunks: []models.ScoredChunk{
		{SemanticChunk: models.SemanticChunk{Content: "db chunk"}, Similarity: 0.9},
	}}
	index := NewPgvectorIndex(searcher)

	got, err := index.Search(context.Background(), usaCorpus(), []float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, searcher.calls)

	got, err = index.Search(context.Background(), usaCorpus(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "db chunk", got[0].Content)
}

func TestResolverUsesRemoteIndexForChunklessCorpus(t *testing.T) {
	searcher := &stubSearcher{chunks: []models.ScoredChunk{
		{SemanticChunk: models.SemanticChunk{Content: "stored excerpt"}, Similarity: 0.8},
	}}
	provider := &stubProvider{text: "reason"}
	resolver := NewCodeResolver(ResolverWithProvider(provider), ResolverWithIndex(NewPgvectorIndex(searcher)))

	res := resolver.Resolve(context.Background(), usaSchedule(), "garden gnome", "")
	assert.Equal(t, "stored excerpt", res.Evidence)
	assert.Equal(t, 1, searcher.calls)
}
