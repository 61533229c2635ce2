// internal/store/similarity/elasticsearch.go
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
)

// ElasticsearchStore keeps one index per corpus. With an embedder it ranks by
// kNN over dense vectors, otherwise by BM25 over the raw text.
type ElasticsearchStore struct {
	client   *elasticsearch.Client
	index    string
	embedder llm.Embedder
	dims     int
	logger   logger.Logger
}

// NewElasticsearchStore binds a store to index. embedder may be nil.
func NewElasticsearchStore(client *elasticsearch.Client, index string, embedder llm.Embedder, dims int, log logger.Logger) *ElasticsearchStore {
	if embedder == nil {
		dims = 0
	}
	return &ElasticsearchStore{
		client:   client,
		index:    index,
		embedder: embedder,
		dims:     dims,
		logger:   log.WithFields(map[string]interface{}{"index": index}),
	}
}

func (s *ElasticsearchStore) Index() string {
	return s.index
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (s *ElasticsearchStore) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchFailedError(s.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return apperrors.NewSearchFailedError(s.index, fmt.Errorf("index exists check: %s", res.Status()))
	}

	body, err := json.Marshal(indexMapping(s.dims))
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewSearchFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewSearchFailedError(s.index, fmt.Errorf("create index: %s", res.String()))
	}

	s.logger.Info("Created similarity index", map[string]interface{}{"dims": s.dims})
	return nil
}

func (s *ElasticsearchStore) Upsert(ctx context.Context, text string, metadata map[string]interface{}) (string, error) {
	id := DocumentID(text)

	doc := map[string]interface{}{
		fieldContent:  text,
		fieldMetadata: metadata,
	}
	if doc[fieldMetadata] == nil {
		doc[fieldMetadata] = map[string]interface{}{}
	}
	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{text})
		if err != nil {
			return "", apperrors.NewStoreWriteError(s.index, err)
		}
		doc[fieldEmbedding] = vecs[0]
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return "", apperrors.NewStoreWriteError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", apperrors.NewStoreWriteError(s.index, fmt.Errorf("index document: %s", res.String()))
	}
	return id, nil
}

// Refresh makes recent upserts visible to search.
func (s *ElasticsearchStore) Refresh(ctx context.Context) error {
	res, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithIndex(s.index),
		s.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewStoreWriteError(s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewStoreWriteError(s.index, fmt.Errorf("refresh: %s", res.String()))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source struct {
				Content  string                 `json:"content"`
				Metadata map[string]interface{} `json:"metadata"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) Search(ctx context.Context, text string, k int, filter map[string]string) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	var query map[string]interface{}
	if s.embedder != nil {
		vecs, err := s.embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, apperrors.NewSearchFailedError(s.index, err)
		}
		query = buildKNNQuery(vecs[0], k, filter)
	} else {
		query = buildTextQuery(text, k, filter)
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewSearchFailedError(s.index, err)
	}
	defer res.Body.Close()

	// Nothing has been indexed yet.
	if res.StatusCode == http.StatusNotFound {
		s.logger.Debug("Similarity index missing, returning no hits", nil)
		return []Hit{}, nil
	}
	if res.IsError() {
		return nil, apperrors.NewSearchFailedError(s.index, fmt.Errorf("search: %s", res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchFailedError(s.index, fmt.Errorf("decode search response: %w", err))
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hit := Hit{
			ID:       h.ID,
			Content:  h.Source.Content,
			Metadata: h.Source.Metadata,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if hit.Metadata == nil {
			hit.Metadata = map[string]interface{}{}
		}
		hits = append(hits, hit)
	}

	s.logger.Debug("Similarity search completed", map[string]interface{}{
		"k":    k,
		"hits": len(hits),
		"knn":  s.embedder != nil,
	})
	return hits, nil
}
