// internal/workers/agents/analyze-requirements/handler.go
package analyzerequirements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
)

const (
	TaskType = "analyze-requirements"
)

var (
	ErrInputRequired  = errors.New("INPUT_REQUIRED")
	ErrAnalysisFailed = errors.New("ANALYSIS_FAILED")
)

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
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysis := models.DecodePayload(text)
	if analysis.Degraded() {
		h.logger.Warn("Analysis reply was not a JSON object, keeping raw text", map[string]interface{}{
			"projectName": input.Request.ProjectName,
			"length":      len(text),
		})
	} else {
		h.logger.Info("Project requirements analyzed", map[string]interface{}{
			"projectName": input.Request.ProjectName,
			"sections":    len(analysis.Value),
		})
	}

	return &Output{Analysis: analysis}, nil
}

func (h *Handler) buildPrompt(input *Input) string {
	req := input.Request
	var parts []string

	parts = append(parts, "You are an expert data analyst specializing in manufacturing projects and quotes.")

	parts = append(parts, "\n## Project Details")
	parts = append(parts, fmt.Sprintf("Project Name: %s", req.ProjectName))
	parts = append(parts, fmt.Sprintf("Description: %s", req.ProjectDescription))
	parts = append(parts, fmt.Sprintf("Materials Required: %s", req.MaterialsText()))
	parts = append(parts, fmt.Sprintf("Labor Hours (estimated): %s", req.LaborHoursText()))
	parts = append(parts, fmt.Sprintf("Deadline: %s", req.DeadlineText()))
	parts = append(parts, fmt.Sprintf("Special Requirements: %s", req.SpecialRequirementsText()))

	parts = append(parts, "\n## Task")
	parts = append(parts, "Analyze this project and identify what will drive an accurate manufacturing quote:")
	parts = append(parts, "1. Complexity factors that might impact cost")
	parts = append(parts, "2. Risks that should be accounted for in pricing")
	parts = append(parts, "3. Material considerations such as availability and price volatility")
	parts = append(parts, "4. Labor intensity and specialized skills required")
	parts = append(parts, "5. Timeline feasibility and potential bottlenecks")

	parts = append(parts, "\nRespond with a single JSON object with one key per area: complexity, risks, materials, labor, timeline.")

	return strings.Join(parts, "\n")
}
