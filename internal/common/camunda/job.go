// internal/common/camunda/job.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/common/metrics"
	"quotegenius/internal/common/observability"
	"quotegenius/internal/common/validation"
)

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Jobs is the completion and failure plumbing shared by the worker handlers.
type Jobs struct {
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
	logger logger.Logger
}

func NewJobs(obs *observability.Observability, log logger.Logger) *Jobs {
	return &Jobs{
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
		logger: log,
	}
}

// DecodeVariables validates the job variables against schema and unmarshals
// them into v.
func DecodeVariables(job entities.Job, schema *validation.Schema, v interface{}) error {
	raw := []byte(job.Variables)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.NewInvalidInputError("parse job variables: " + err.Error())
	}
	return nil
}

// Begin marks a job active and returns the function that records its outcome.
func (j *Jobs) Begin(ctx context.Context, taskType string) func(err error) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()

	return func(err error) {
		elapsed := time.Since(started)
		metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		outcome := statusCompleted
		if err != nil {
			outcome = statusFailed
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.Normalize(err).Code)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		j.obs.RecordJobProcessed(ctx, taskType, outcome)
		j.obs.RecordJobDuration(ctx, taskType, elapsed, outcome)
	}
}

// Complete sends the job's output variables back to the broker.
func (j *Jobs) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		j.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

// Fail retries or throws the job according to the error taxonomy.
func (j *Jobs) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	j.errors.HandleJobError(ctx, client, job, err)
}
