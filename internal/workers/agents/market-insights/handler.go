// internal/workers/agents/market-insights/handler.go
package marketinsights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
)

const (
	TaskType = "market-insights"
)

var (
	ErrInputRequired  = errors.New("INPUT_REQUIRED")
	ErrInsightsFailed = errors.New("INSIGHTS_FAILED")
)

type Handler struct {
	oracle llm.Oracle
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(oracle llm.Oracle, log logger.Logger) *Handler {
	return &Handler{
		oracle: oracle,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// execute keeps the oracle's report as free text; there is no structured
// shape to decode.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}

	text, err := llm.Ask(ctx, h.oracle, h.buildPrompt(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsightsFailed, err)
	}

	report := input.Analytics
	h.logger.Info("Market insights generated", map[string]interface{}{
		"totalQuotes":    report.TotalCount,
		"overallWinRate": report.OverallWinRate,
		"months":         len(report.MonthlyTrends),
	})

	return &Output{Report: newReport(input, strings.TrimSpace(text), h.now())}, nil
}

func newReport(input *Input, insights string, at time.Time) models.InsightsReport {
	return models.InsightsReport{
		Analytics:   input.Analytics,
		Insights:    insights,
		GeneratedAt: at,
	}
}

func (h *Handler) buildPrompt(input *Input) string {
	var parts []string

	parts = append(parts, "You are an expert data analyst specializing in manufacturing quoting trends.")

	parts = append(parts, "\n## Quote Analytics")
	if input.Analytics.TotalCount == 0 {
		parts = append(parts, "No quotes have been recorded yet.")
	} else {
		analyticsJSON, _ := json.MarshalIndent(input.Analytics, "", "  ")
		parts = append(parts, string(analyticsJSON))
	}

	parts = append(parts, "\n## Task")
	parts = append(parts, "Based on this data, provide strategic insights about:")
	parts = append(parts, "1. Win rate trends and potential factors affecting them")
	parts = append(parts, "2. Pricing strategies that seem most effective")
	parts = append(parts, "3. Industry or customer segments that show the most promising opportunities")
	parts = append(parts, "4. Recommendations for optimizing our quoting process")

	parts = append(parts, "\nFormat your insights as a concise, actionable report with clear recommendations.")

	return strings.Join(parts, "\n")
}
