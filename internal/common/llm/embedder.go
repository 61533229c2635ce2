// internal/common/llm/embedder.go
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	httpclient "quotegenius/internal/common/http"
	"quotegenius/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Embedder turns text into dense vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}

type EmbeddingsConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

type EmbeddingsClient struct {
	config EmbeddingsConfig
	http   *httpclient.Client
}

func NewEmbeddingsClient(config EmbeddingsConfig) *EmbeddingsClient {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &EmbeddingsClient{config: config, http: httpclient.NewClient(config.Timeout)}
}

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *EmbeddingsClient) Model() string {
	return c.config.Model
}

func (c *EmbeddingsClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{Model: c.config.Model, Input: clean, Dimensions: c.config.Dimensions}
	var resp embeddingsResponse
	if err := c.http.PostJSON(ctx, endpoint(c.config.BaseURL, "/v1/embeddings"), authHeaders(c.config.APIKey), req, &resp); err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("embeddings response missing index %d", i)
		}
	}
	return out, nil
}

// CachedEmbedder memoises vectors in Redis keyed by model and text hash.
// Cache failures fall through to the wrapped embedder.
type CachedEmbedder struct {
	inner  Embedder
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedEmbedder(inner Embedder, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "embedding-cache"}),
	}
}

func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// CacheKey is the Redis key for a text under the given model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", model, hex.EncodeToString(sum[:]))
}

func (c *CachedEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = CacheKey(c.inner.Model(), in)
	}

	var missing []int
	cached, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Embedding cache read failed", map[string]interface{}{"error": err.Error()})
		cached = make([]interface{}, len(inputs))
	}
	for i, v := range cached {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			missing = append(missing, i)
			continue
		}
		out[i] = vec
	}

	if len(missing) == 0 {
		return out, nil
	}

	texts := make([]string, len(missing))
	for j, i := range missing {
		texts[j] = inputs[i]
	}
	fresh, err := c.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	pipe := c.redis.Pipeline()
	for j, i := range missing {
		out[i] = fresh[j]
		if data, err := json.Marshal(fresh[j]); err == nil {
			pipe.Set(ctx, keys[i], data, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Embedding cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return out, nil
}
