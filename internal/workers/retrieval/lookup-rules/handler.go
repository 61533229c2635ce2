// internal/workers/retrieval/lookup-rules/handler.go
package lookuprules

import (
	"context"
	"errors"
	"fmt"

	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/store/similarity"
)

const (
	TaskType = "lookup-rules"

	GeneralCategory = "general"

	generalRulesQuery = "General business rules for quoting"
)

// Context sources reported in Output.Degraded.
const (
	SourceCustomerRules = "customer_rules"
	SourceGeneralRules  = "general_rules"
)

var (
	ErrInputRequired = errors.New("INPUT_REQUIRED")
)

// DefaultRules stand in when the index returns nothing, so generation never
// runs without pricing rules.
func DefaultRules() models.RuleSet {
	return models.RuleSet{
		GeneralCategory: {
			{ID: "default-1", Category: GeneralCategory, Description: "Standard markup for materials is 15%", Relevance: 1.0},
			{ID: "default-2", Category: GeneralCategory, Description: "Apply 25% overhead rate to labor costs", Relevance: 1.0},
			{ID: "default-3", Category: GeneralCategory, Description: "Add 10% contingency for complex projects", Relevance: 1.0},
		},
	}
}

type Handler struct {
	config *Config
	rules  similarity.Store
	logger logger.Logger
}

func NewHandler(config *Config, rules similarity.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		rules:  rules,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}
	out := &Output{}

	var hits []similarity.Hit
	if input.CustomerID != "" {
		customerHits, err := h.rules.Search(ctx, CustomerRulesQuery(input.CustomerID), h.config.CustomerRulesK,
			map[string]string{"customer_id": input.CustomerID})
		if err != nil {
			h.logger.Warn("Customer rule lookup failed", map[string]interface{}{
				"customerId": input.CustomerID,
				"error":      err.Error(),
			})
			out.Degraded = append(out.Degraded, SourceCustomerRules)
		}
		hits = append(hits, customerHits...)
	}

	generalHits, err := h.rules.Search(ctx, generalRulesQuery, h.config.GeneralRulesK,
		map[string]string{"rule_type": GeneralCategory})
	if err != nil {
		h.logger.Warn("General rule lookup failed", map[string]interface{}{"error": err.Error()})
		out.Degraded = append(out.Degraded, SourceGeneralRules)
	}
	hits = append(hits, generalHits...)

	out.Rules = GroupRules(hits)
	if out.Rules.Len() == 0 {
		out.Rules = DefaultRules()
		out.UsedDefault = true
	}

	h.logger.Info("Business rules resolved", map[string]interface{}{
		"rules":       out.Rules.Len(),
		"categories":  len(out.Rules),
		"usedDefault": out.UsedDefault,
	})
	return out, nil
}

func CustomerRulesQuery(customerID string) string {
	return fmt.Sprintf("Business rules for customer %s", customerID)
}

// GroupRules buckets hits by their rule_type metadata, keeping search order
// within each bucket.
func GroupRules(hits []similarity.Hit) models.RuleSet {
	set := models.RuleSet{}
	for _, hit := range hits {
		category := hit.MetadataString("rule_type")
		if category == "" {
			category = GeneralCategory
		}
		id := hit.MetadataString("rule_id")
		if id == "" {
			id = "unknown"
		}
		set[category] = append(set[category], models.BusinessRule{
			ID:          id,
			Category:    category,
			Description: hit.Content,
			Relevance:   hit.Score,
		})
	}
	return set
}
