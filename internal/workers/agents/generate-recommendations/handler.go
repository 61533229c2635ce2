// internal/workers/agents/generate-recommendations/handler.go
package generaterecommendations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
)

const (
	TaskType = "generate-recommendations"
)

var (
	ErrInputRequired         = errors.New("INPUT_REQUIRED")
	ErrRecommendationsFailed = errors.New("RECOMMENDATIONS_FAILED")
)

// bulletMarkers are checked in order and at most one is stripped per line.
var bulletMarkers = []string{"- ", "* ", "• ", "· ", "1. ", "2. ", "3. ", "4. ", "5. "}

type Handler struct {
	oracle llm.Oracle
	logger logger.Logger
}

func NewHandler(oracle llm.Oracle, log logger.Logger) *Handler {
	return &Handler{
		oracle: oracle,
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

	text, err := llm.Ask(ctx, h.oracle, h.buildPrompt(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationsFailed, err)
	}

	recommendations := NormalizeRecommendations(text)
	h.logger.Info("Recommendations generated", map[string]interface{}{
		"quoteId": input.Quote.ID,
		"count":   len(recommendations),
	})

	return &Output{Recommendations: recommendations}, nil
}

// NormalizeRecommendations splits oracle text into one entry per non-blank
// line, stripping a single leading bullet or list number.
func NormalizeRecommendations(text string) []string {
	out := []string{}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range bulletMarkers {
			if strings.HasPrefix(line, marker) {
				line = line[len(marker):]
				break
			}
		}
		out = append(out, line)
	}
	return out
}

func (h *Handler) buildPrompt(input *Input) string {
	var parts []string

	parts = append(parts, "You are an expert manufacturing consultant with extensive industry knowledge.")

	parts = append(parts, "\n## Quote Details")
	quoteJSON, _ := json.MarshalIndent(input.Quote, "", "  ")
	parts = append(parts, string(quoteJSON))

	parts = append(parts, "\n## Task")
	parts = append(parts, "Based on this manufacturing quote, provide strategic recommendations to:")
	parts = append(parts, "1. Increase the likelihood of winning the project")
	parts = append(parts, "2. Identify potential cost-saving opportunities")
	parts = append(parts, "3. Highlight risk factors that may require mitigation")
	parts = append(parts, "4. Suggest value-added services that could enhance the proposal")

	parts = append(parts, "\nFormat your recommendations as concise, actionable bullet points, one per line, that a manufacturing company could use when discussing this quote with the client.")

	return strings.Join(parts, "\n")
}
