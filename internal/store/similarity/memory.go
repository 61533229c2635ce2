// internal/store/similarity/memory.go
package similarity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store ranking by token overlap. It backs the
// pipeline tests and local dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Hit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Hit)}
}

func (m *MemoryStore) Upsert(_ context.Context, text string, metadata map[string]interface{}) (string, error) {
	id := DocumentID(text)
	md := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	m.mu.Lock()
	m.docs[id] = Hit{ID: id, Content: text, Metadata: md}
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Search(_ context.Context, text string, k int, filter map[string]string) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}
	query := tokenSet(text)

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.docs))
	for _, doc := range m.docs {
		if !matchesFilter(doc.Metadata, filter) {
			continue
		}
		hit := doc
		hit.Score = overlap(query, tokenSet(doc.Content))
		hits = append(hits, hit)
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func matchesFilter(metadata map[string]interface{}, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		set[tok] = struct{}{}
	}
	return set
}

// overlap is the Jaccard index of two token sets.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
