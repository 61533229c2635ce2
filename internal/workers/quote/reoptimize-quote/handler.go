// internal/workers/quote/reoptimize-quote/handler.go
package reoptimizequote

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

const TaskType = "reoptimize-quote"

var (
	ErrInputRequired    = errors.New("INPUT_REQUIRED")
	ErrReoptimizeFailed = errors.New("REOPTIMIZE_FAILED")
)

type Coordinator interface {
	ReoptimizeQuote(ctx context.Context, quoteID string) (*models.QuoteResponse, error)
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

	var input Input
	if err := camunda.DecodeVariables(job, InputSchema, &input); err != nil {
		done(err)
		h.jobs.Fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrInputRequired
	}

	resp, err := h.coordinator.ReoptimizeQuote(ctx, input.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReoptimizeFailed, err)
	}

	out := &Output{
		QuoteID:    resp.QuoteID,
		TotalPrice: resp.TotalPrice,
		Persisted:  resp.Persisted,
		Quote:      *resp,
	}
	if resp.Optimization != nil {
		out.PriceChangePercentage = resp.Optimization.PriceChangePercentage
	}

	h.logger.Info("quote reoptimized", map[string]interface{}{
		"quoteId":               out.QuoteID,
		"totalPrice":            out.TotalPrice,
		"priceChangePercentage": out.PriceChangePercentage,
	})
	return out, nil
}
