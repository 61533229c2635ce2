// internal/store/similarity/store.go

// Package similarity is the content-addressed semantic index over project
// descriptions and business-rule text.
package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Hit is a single search result. Metadata is whatever was stored alongside
// the text at upsert time.
type Hit struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// MetadataString returns a string metadata field, or "" when absent.
func (h Hit) MetadataString(key string) string {
	if h.Metadata == nil {
		return ""
	}
	s, _ := h.Metadata[key].(string)
	return s
}

// Store is the contract the retrieval adapters need from a similarity index.
type Store interface {
	// Search returns up to k hits ranked by similarity to text. Every filter
	// entry must match the hit's metadata exactly.
	Search(ctx context.Context, text string, k int, filter map[string]string) ([]Hit, error)
	// Upsert indexes text with metadata and returns its document id. The same
	// text always maps to the same id.
	Upsert(ctx context.Context, text string, metadata map[string]interface{}) (string, error)
}

// DocumentID is the content address of text.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
