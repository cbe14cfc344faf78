package models

import (
	"sort"
	"strings"
)

// HSEntry is the policy attached to a single HS code in a jurisdiction's tariff schedule
type HSEntry struct {
	Policy      string `json:"policy"`
	Description string `json:"description"`
}

// SemanticChunk is a piece of regulatory text with its precomputed embedding
type SemanticChunk struct {
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// ScoredChunk is a semantic chunk ranked against a query
type ScoredChunk struct {
	SemanticChunk
	Similarity float64 `json:"similarity"`
}

// ReferenceCorpus holds the read-only reference data of one jurisdiction.
// It is built once at startup and shared between goroutines without locking.
type ReferenceCorpus struct {
	Jurisdiction string
	ItemNames    map[string]string  // normalized item name -> HS code
	HSCodes      map[string]HSEntry // HS code -> policy entry
	Chunks       []SemanticChunk

	itemKeys []string
	codeKeys []string
}

// NewReferenceCorpus builds a corpus and fixes the iteration order of its indexes.
// Item names are normalized on the way in; later duplicates overwrite earlier ones.
func NewReferenceCorpus(
	jurisdiction string,
	itemNames map[string]string,
	hsCodes map[string]HSEntry,
	chunks []SemanticChunk,
) *ReferenceCorpus {
	c := &ReferenceCorpus{
		Jurisdiction: jurisdiction,
		ItemNames:    make(map[string]string, len(itemNames)),
		HSCodes:      make(map[string]HSEntry, len(hsCodes)),
		Chunks:       chunks,
	}

	for name, code := range itemNames {
		c.ItemNames[NormalizeText(name)] = code
	}
	for code, entry := range hsCodes {
		c.HSCodes[strings.TrimSpace(code)] = entry
	}

	c.itemKeys = sortedKeys(c.ItemNames)
	c.codeKeys = sortedKeys(c.HSCodes)
	return c
}

// ItemNameKeys returns the item index keys in lexical order
func (c *ReferenceCorpus) ItemNameKeys() []string {
	return c.itemKeys
}

// HSCodeKeys returns the HS code index keys in lexical order
func (c *ReferenceCorpus) HSCodeKeys() []string {
	return c.codeKeys
}

// IsEmpty reports whether the corpus has no structured data at all
func (c *ReferenceCorpus) IsEmpty() bool {
	return len(c.ItemNames) == 0 && len(c.HSCodes) == 0
}

// NormalizeText lowercases and trims a description for index lookups
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
