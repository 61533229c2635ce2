// internal/workers/quote/generate-market-insights/handler.go
package generatemarketinsights

import (
	"context"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quotegenius/internal/common/camunda"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
)

const TaskType = "generate-market-insights"

var ErrInsightsFailed = errors.New("MARKET_INSIGHTS_FAILED")

type Coordinator interface {
	MarketInsights(ctx context.Context) (*models.InsightsReport, error)
}

type Handler struct {
	config      *Config
	coordinator Coordinator
	jobs        *camunda.Jobs
	logger      logger.Logger
}

func NewHandler(config *Config, coordinator Coordinator, jobs *camunda.Jobs, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		coordinator: coordinator,
		jobs:        jobs,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	done := h.jobs.Begin(ctx, TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	output, err := h.execute(ctx, &Input{})
	if err == nil {
		err = h.jobs.Complete(ctx, client, job, output)
	} else {
		h.jobs.Fail(ctx, client, job, err)
	}
	done(err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	report, err := h.coordinator.MarketInsights(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsightsFailed, err)
	}

	h.logger.Info("market insights generated", map[string]interface{}{
		"totalQuotes": report.Analytics.TotalCount,
	})
	return &Output{Report: *report}, nil
}
