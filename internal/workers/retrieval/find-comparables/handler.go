// internal/workers/retrieval/find-comparables/handler.go
package findcomparables

import (
	"context"
	"encoding/json"
	"errors"

	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/store/relational"
	"quotegenius/internal/store/similarity"
)

const (
	TaskType = "find-comparables"
)

// Context sources reported in Output.Degraded.
const (
	SourceSimilarProjects  = "similar_projects"
	SourceCustomerHistory  = "customer_history"
	SourceSuccessfulQuotes = "successful_quotes"
)

var (
	ErrInputRequired = errors.New("INPUT_REQUIRED")
)

type Handler struct {
	config   *Config
	projects similarity.Store
	quotes   relational.Store
	logger   logger.Logger
}

func NewHandler(config *Config, projects similarity.Store, quotes relational.Store, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		projects: projects,
		quotes:   quotes,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute gathers similar past projects and the customer's own quote history.
// Read failures on either source degrade to an empty list.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}
	out := &Output{}

	similar := []models.Comparable{}
	hits, err := h.projects.Search(ctx, input.ProjectDescription, h.config.SimilarProjectsK, nil)
	if err != nil {
		h.logger.Warn("Similar project search failed, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
		out.Degraded = append(out.Degraded, SourceSimilarProjects)
	} else {
		for _, hit := range hits {
			similar = append(similar, ComparableFromHit(hit))
		}
	}

	history := []models.Comparable{}
	if input.CustomerID != "" {
		quotes, err := h.quotes.GetCustomerQuotes(ctx, input.CustomerID)
		if err != nil {
			h.logger.Warn("Customer history lookup failed, continuing without it", map[string]interface{}{
				"customerId": input.CustomerID,
				"error":      err.Error(),
			})
			out.Degraded = append(out.Degraded, SourceCustomerHistory)
		} else {
			for _, q := range quotes {
				history = append(history, models.ComparableFromQuote(q))
			}
		}
	}

	out.Comparables = MergeComparables(similar, history, h.config.MaxComparables)

	h.logger.Info("Comparables gathered", map[string]interface{}{
		"similar":  len(similar),
		"history":  len(history),
		"returned": len(out.Comparables),
	})
	return out, nil
}

// FindSuccessful returns accepted quotes priced within the configured band of
// the given total, newest first. The quote itself is never included.
func (h *Handler) FindSuccessful(ctx context.Context, input *SuccessfulInput) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}
	minPrice, maxPrice := PriceRange(input.TotalPrice, h.config.PriceBand)

	out := &Output{Comparables: []models.Comparable{}}
	quotes, err := h.quotes.FindAcceptedQuotesInRange(ctx, minPrice, maxPrice, input.QuoteID, h.config.SuccessfulLimit)
	if err != nil {
		h.logger.Warn("Successful comparables lookup failed, continuing without them", map[string]interface{}{
			"quoteId": input.QuoteID,
			"error":   err.Error(),
		})
		out.Degraded = append(out.Degraded, SourceSuccessfulQuotes)
		return out, nil
	}

	for _, q := range quotes {
		out.Comparables = append(out.Comparables, models.ComparableFromQuote(q))
	}
	return out, nil
}

// PriceRange is the inclusive [min, max] window of band around total.
func PriceRange(total, band float64) (float64, float64) {
	lo, hi := total*(1-band), total*(1+band)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// MergeComparables puts similarity results first, then appends history
// entries whose id has not been seen, and truncates to limit. No id appears
// twice in the result.
func MergeComparables(similar, history []models.Comparable, limit int) []models.Comparable {
	if limit < 0 {
		limit = 0
	}
	out := make([]models.Comparable, 0, minInt(limit, len(similar)+len(history)))
	seen := make(map[string]struct{}, len(similar)+len(history))

	for _, list := range [][]models.Comparable{similar, history} {
		for _, c := range list {
			if len(out) == limit {
				return out
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// ComparableFromHit adapts a project search hit. The identity key is the
// project_id metadata, or the content address when that is missing.
func ComparableFromHit(hit similarity.Hit) models.Comparable {
	c := models.Comparable{
		ID:          hit.MetadataString("project_id"),
		Name:        hit.MetadataString("project_name"),
		Description: hit.Content,
		CustomerID:  hit.MetadataString("customer_id"),
		Status:      hit.MetadataString("status"),
		Challenges:  hit.MetadataString("challenges"),
		Source:      models.ComparableSourceSimilarity,
	}
	if c.ID == "" {
		c.ID = hit.ID
	}

	score := hit.Score
	c.SimilarityScore = &score

	if v, ok := toFloat(hit.Metadata["total_price"]); ok {
		c.TotalPrice = v
	}
	if v, ok := toFloat(hit.Metadata["profit_margin"]); ok {
		c.ProfitMargin = &v
	}
	if v, ok := hit.Metadata["customer_satisfied"].(bool); ok {
		c.Satisfied = &v
	}
	if raw, ok := hit.Metadata["breakdown"].(map[string]interface{}); ok {
		c.Breakdown = make(map[string]float64, len(raw))
		for k, v := range raw {
			if f, ok := toFloat(v); ok {
				c.Breakdown[k] = f
			}
		}
	}
	return c
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
