// internal/workers/agents/optimize-pricing/handler.go
package optimizepricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/store/relational"
)

const (
	TaskType = "optimize-pricing"

	noCustomerText    = "No customer history available"
	noComparablesText = "No similar projects found in our database."
)

// Context sources reported in Output.Degraded.
const (
	SourceCustomerRecord  = "customer_record"
	SourceCustomerHistory = "customer_history"
)

var (
	ErrInputRequired      = errors.New("INPUT_REQUIRED")
	ErrOptimizationFailed = errors.New("OPTIMIZATION_FAILED")
)

type Handler struct {
	config    *Config
	oracle    llm.Oracle
	customers relational.Store
	logger    logger.Logger
}

func NewHandler(config *Config, oracle llm.Oracle, customers relational.Store, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		oracle:    oracle,
		customers: customers,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}

	customer, degraded := h.customerInfo(ctx, input.Quote.CustomerID)

	text, err := llm.Ask(ctx, h.oracle, h.buildPrompt(input, customer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}

	recommendations := models.DecodePayload(text)
	optimized := ApplyOptimization(input.Quote, recommendations)

	if recommendations.Degraded() {
		h.logger.Warn("Optimization reply was not a JSON object, repricing from breakdown only", map[string]interface{}{
			"quoteId": input.Quote.ID,
		})
	}
	h.logger.Info("Pricing optimized", map[string]interface{}{
		"quoteId":               optimized.ID,
		"originalPrice":         optimized.Optimization.OriginalPrice,
		"totalPrice":            optimized.TotalPrice,
		"priceChangePercentage": optimized.Optimization.PriceChangePercentage,
	})

	return &Output{
		Quote:           optimized,
		Recommendations: recommendations,
		Degraded:        degraded,
	}, nil
}

// customerInfo loads the customer record and derives metrics from their quote
// history. Missing customers and failed reads both yield nil.
func (h *Handler) customerInfo(ctx context.Context, customerID string) (*CustomerInfo, []string) {
	if customerID == "" || h.customers == nil {
		return nil, nil
	}

	customer, err := h.customers.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCustomerNotFound) {
			return nil, nil
		}
		h.logger.Warn("Customer lookup failed, optimizing without customer context", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
		return nil, []string{SourceCustomerRecord}
	}

	info := &CustomerInfo{Customer: *customer}
	history, err := h.customers.GetCustomerQuotes(ctx, customerID)
	if err != nil {
		h.logger.Warn("Customer history lookup failed, metrics left empty", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
		return info, []string{SourceCustomerHistory}
	}
	info.CustomerMetrics = ComputeCustomerMetrics(history)
	return info, nil
}

// ApplyOptimization returns an optimized copy of q; q itself is untouched.
// Numeric line_item_adjustments overwrite or add breakdown entries. The new
// total is recommended_total_price when numeric, otherwise the breakdown sum.
func ApplyOptimization(q models.Quote, recommendations models.Payload) models.Quote {
	out := q.Clone()
	original := q.TotalPrice

	var (
		total    float64
		hasTotal bool
	)
	if !recommendations.Degraded() {
		if adjustments, ok := recommendations.Value["line_item_adjustments"].(map[string]interface{}); ok {
			for category, v := range adjustments {
				if n, ok := models.NumberValue(v); ok {
					out.Breakdown[category] = n
				}
			}
		}
		total, hasTotal = recommendations.Value["recommended_total_price"].(float64)
	}
	if !hasTotal {
		total = models.BreakdownSum(out.Breakdown)
	}
	out.TotalPrice = total

	out.Optimization = &models.Optimization{
		Recommendations:       recommendations,
		OriginalPrice:         original,
		PriceChangePercentage: PriceChangePercentage(original, total),
	}
	return out
}

// PriceChangePercentage is 0 when there is no usable original price.
func PriceChangePercentage(original, updated float64) float64 {
	if original == 0 {
		return 0
	}
	pct := (updated - original) / original * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct
}

// ComputeCustomerMetrics summarises a customer's quote history.
func ComputeCustomerMetrics(history []models.Quote) models.CustomerMetrics {
	m := models.CustomerMetrics{TotalProjects: len(history)}
	if len(history) == 0 {
		return m
	}

	accepted := 0
	var sum float64
	for _, q := range history {
		if q.Status == models.QuoteStatusAccepted {
			accepted++
		}
		sum += q.TotalPrice
	}
	m.WinRate = float64(accepted) / float64(len(history))
	m.AverageProjectSize = sum / float64(len(history))
	return m
}

// FormatComparablePricing lists each comparable's price, status and
// breakdown, with categories in name order.
func FormatComparablePricing(comparables []models.Comparable) string {
	if len(comparables) == 0 {
		return noComparablesText
	}

	blocks := make([]string, 0, len(comparables))
	for i, c := range comparables {
		name := c.Name
		if name == "" {
			name = "Unnamed"
		}
		status := c.Status
		if status == "" {
			status = "unknown"
		}

		lines := []string{
			fmt.Sprintf("Project %d: %s", i+1, name),
			fmt.Sprintf("  - Total Price: %s", models.FormatMoney(c.TotalPrice)),
			fmt.Sprintf("  - Status: %s", status),
		}
		if len(c.Breakdown) > 0 {
			lines = append(lines, "  - Cost Breakdown:")
			categories := make([]string, 0, len(c.Breakdown))
			for k := range c.Breakdown {
				categories = append(categories, k)
			}
			sort.Strings(categories)
			for _, k := range categories {
				lines = append(lines, fmt.Sprintf("    * %s: %s", capitalize(k), models.FormatMoney(c.Breakdown[k])))
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *Handler) buildPrompt(input *Input, customer *CustomerInfo) string {
	var parts []string

	parts = append(parts, "You are an expert manufacturing pricing strategist with years of experience.")

	parts = append(parts, "\n## Quote Details")
	quoteJSON, _ := json.MarshalIndent(input.Quote, "", "  ")
	parts = append(parts, string(quoteJSON))

	parts = append(parts, "\n## Similar Projects Pricing")
	parts = append(parts, FormatComparablePricing(input.Comparables))

	parts = append(parts, "\n## Customer Information")
	if customer != nil {
		customerJSON, _ := json.MarshalIndent(customer, "", "  ")
		parts = append(parts, string(customerJSON))
	} else {
		parts = append(parts, noCustomerText)
	}

	parts = append(parts, "\n## Market Conditions")
	parts = append(parts, fmt.Sprintf("Materials costs are %s and competition is %s.", h.config.MaterialsTrend, h.config.CompetitionLevel))
	parts = append(parts, fmt.Sprintf("The labor market is %s and the economic outlook is %s.", h.config.LaborMarket, h.config.EconomicOutlook))

	parts = append(parts, "\n## Optimization Task")
	parts = append(parts, "Optimize the pricing in this quote to maximize win probability while maintaining healthy margins.")
	parts = append(parts, "Consider the customer's history, competitive positioning, project risk, cost structure and the strategic value of the project.")

	parts = append(parts, "\nRespond with a single JSON object of this shape:")
	parts = append(parts, `{"line_item_adjustments": {"<category>": <new amount>}, "recommended_total_price": <number>, "strategy": "...", "justification": "...", "impact": {"win_probability": "...", "profit_margin": "..."}}`)
	parts = append(parts, "Only include categories you want to change in line_item_adjustments.")

	return strings.Join(parts, "\n")
}
