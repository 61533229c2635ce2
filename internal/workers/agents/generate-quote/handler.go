// internal/workers/agents/generate-quote/handler.go
package generatequote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
)

const (
	TaskType = "generate-quote"

	noComparablesText = "No similar projects found in historical data."
)

var (
	ErrInputRequired    = errors.New("INPUT_REQUIRED")
	ErrGenerationFailed = errors.New("GENERATION_FAILED")
)

type Handler struct {
	oracle llm.Oracle
	logger logger.Logger
	newID  func() string
	now    func() time.Time
}

func NewHandler(oracle llm.Oracle, log logger.Logger) *Handler {
	return &Handler{
		oracle: oracle,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		newID:  func() string { return uuid.New().String() },
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}

	text, err := llm.Ask(ctx, h.oracle, h.buildPrompt(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	generation := models.DecodePayload(text)
	quote := BuildQuote(input.Request, generation, h.newID(), h.now())

	if generation.Degraded() {
		h.logger.Warn("Generation reply was not a JSON object, quote has no priced breakdown", map[string]interface{}{
			"quoteId": quote.ID,
		})
	} else {
		h.logger.Info("Quote generated", map[string]interface{}{
			"quoteId":         quote.ID,
			"totalPrice":      quote.TotalPrice,
			"lineItems":       len(quote.Breakdown),
			"confidenceScore": quote.ConfidenceScore,
		})
	}

	return &Output{Quote: quote}, nil
}

// BuildQuote turns a generation payload into a pending quote. The total is the
// explicit total_price when numeric, otherwise the breakdown sum. A degraded
// payload yields an empty, zero-priced quote that still carries the raw text.
func BuildQuote(req models.QuoteRequest, generation models.Payload, id string, now time.Time) models.Quote {
	q := models.Quote{
		ID:          id,
		CustomerID:  req.CustomerID,
		ProjectName: req.ProjectName,
		CreatedAt:   now,
		Breakdown:   map[string]float64{},
		Status:      models.QuoteStatusPending,
		Generation:  generation,
	}
	if generation.Degraded() {
		return q
	}

	if raw, ok := generation.Value["breakdown"].(map[string]interface{}); ok {
		for category, v := range raw {
			if n, ok := models.NumberValue(v); ok {
				q.Breakdown[category] = n
			}
		}
	}

	if total, ok := generation.Value["total_price"].(float64); ok {
		q.TotalPrice = total
	} else {
		q.TotalPrice = models.BreakdownSum(q.Breakdown)
	}

	if score, ok := generation.Value["confidence_score"].(float64); ok {
		q.ConfidenceScore = models.ClampConfidence(score)
	}
	return q
}

// SummarizeComparables renders comparables as plain text for the prompt, in
// the order given.
func SummarizeComparables(comparables []models.Comparable) string {
	if len(comparables) == 0 {
		return noComparablesText
	}

	blocks := make([]string, 0, len(comparables))
	for i, c := range comparables {
		var b strings.Builder
		name := c.Name
		if name == "" {
			name = "Unnamed"
		}
		fmt.Fprintf(&b, "Project %d: %s\n", i+1, name)
		fmt.Fprintf(&b, "  - Final Cost: %s\n", models.FormatMoney(c.TotalPrice))
		if c.Status != "" {
			fmt.Fprintf(&b, "  - Status: %s\n", c.Status)
		}
		if c.ProfitMargin != nil {
			fmt.Fprintf(&b, "  - Profit Margin: %.1f%%\n", *c.ProfitMargin)
		}
		satisfied := "Unknown"
		if c.Satisfied != nil {
			satisfied = "No"
			if *c.Satisfied {
				satisfied = "Yes"
			}
		}
		fmt.Fprintf(&b, "  - Customer Satisfied: %s\n", satisfied)
		challenges := c.Challenges
		if challenges == "" {
			challenges = "None recorded"
		}
		fmt.Fprintf(&b, "  - Key Challenges: %s", challenges)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// FormatRules renders a rule set with categories in name order.
func FormatRules(rules models.RuleSet) string {
	if rules.Len() == 0 {
		return "None"
	}
	categories := make([]string, 0, len(rules))
	for c := range rules {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var lines []string
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("%s:", c))
		for _, r := range rules[c] {
			lines = append(lines, fmt.Sprintf("- [%s] %s", r.ID, r.Description))
		}
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) buildPrompt(input *Input) string {
	req := input.Request
	var parts []string

	parts = append(parts, "You are an expert manufacturing quote generator with years of experience.")

	parts = append(parts, "\n## Project Details")
	parts = append(parts, fmt.Sprintf("Customer: %s", req.CustomerID))
	parts = append(parts, fmt.Sprintf("Project Name: %s", req.ProjectName))
	parts = append(parts, fmt.Sprintf("Description: %s", req.ProjectDescription))
	parts = append(parts, fmt.Sprintf("Materials Required: %s", req.MaterialsText()))
	parts = append(parts, fmt.Sprintf("Labor Hours (estimated): %s", req.LaborHoursText()))
	parts = append(parts, fmt.Sprintf("Deadline: %s", req.DeadlineText()))
	parts = append(parts, fmt.Sprintf("Special Requirements: %s", req.SpecialRequirementsText()))

	parts = append(parts, "\n## Requirements Analysis")
	analysisJSON, _ := json.MarshalIndent(input.Analysis, "", "  ")
	parts = append(parts, string(analysisJSON))

	parts = append(parts, "\n## Historical Data Insights")
	parts = append(parts, SummarizeComparables(input.Comparables))

	parts = append(parts, "\n## Business Rules")
	parts = append(parts, FormatRules(input.Rules))

	parts = append(parts, "\n## Instructions")
	parts = append(parts, "Generate a detailed manufacturing quote covering:")
	parts = append(parts, "1. Line-item breakdown of all materials with quantities and unit prices")
	parts = append(parts, "2. Labor costs with hourly rates and estimated hours")
	parts = append(parts, "3. Equipment and machinery costs")
	parts = append(parts, "4. Overhead percentage")
	parts = append(parts, "5. Profit margin considering customer relationship, project complexity and market conditions")
	parts = append(parts, "6. Any discounts or special pricing considerations")
	parts = append(parts, "7. Timeline for delivery with key milestones")
	parts = append(parts, "8. Terms and conditions summary")

	parts = append(parts, "\nRespond with a single JSON object of this shape:")
	parts = append(parts, `{"breakdown": {"<category>": <amount>}, "total_price": <number>, "confidence_score": <0-100>, "timeline": "...", "terms": "..."}`)
	parts = append(parts, "The confidence score reflects the quality of the available information.")

	return strings.Join(parts, "\n")
}
