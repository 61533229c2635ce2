// internal/coordinator/step.go
package coordinator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/metrics"
	"quotegenius/internal/models"
)

// step runs fn as one traced, timed and logged workflow state. Errors come
// back as StandardErrors annotated with workflow, stage and quoteId. A state
// outside wf's sequence fails with INTERNAL_ERROR and fn is not run.
func (c *Coordinator) step(ctx context.Context, wf Workflow, st State, quoteID string, fn func(ctx context.Context) error) error {
	if !wf.visits(st) {
		return apperrors.Annotate(
			apperrors.NewInternalError(fmt.Errorf("state %s is not part of workflow %s", st, wf)),
			map[string]interface{}{"workflow": string(wf), "stage": string(st)})
	}

	ctx, span := c.tracer.Start(ctx, string(wf)+"/"+string(st), trace.WithAttributes(
		attribute.String("workflow", string(wf)),
		attribute.String("stage", string(st)),
		attribute.String("quote.id", quoteID),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(string(wf), string(st)).Observe(elapsed.Seconds())

	if err != nil {
		fields := map[string]interface{}{
			"workflow": string(wf),
			"stage":    string(st),
		}
		if quoteID != "" {
			fields["quoteId"] = quoteID
		}
		annotated := apperrors.Annotate(err, fields)

		metrics.StageFailures.WithLabelValues(string(wf), string(st), string(annotated.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(annotated.Code))

		logFields := map[string]interface{}{
			"errorCode":  string(annotated.Code),
			"retryable":  annotated.Retryable,
			"durationMs": elapsed.Milliseconds(),
			"error":      err.Error(),
		}
		for k, v := range fields {
			logFields[k] = v
		}
		c.logger.Error("Workflow stage failed", logFields)
		return annotated
	}

	c.logger.Debug("Workflow stage completed", map[string]interface{}{
		"workflow":   string(wf),
		"stage":      string(st),
		"quoteId":    quoteID,
		"durationMs": elapsed.Milliseconds(),
	})
	return nil
}

// finish counts a workflow run by outcome.
func (c *Coordinator) finish(wf Workflow, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.Workflows.WithLabelValues(string(wf), outcome).Inc()
}

func (c *Coordinator) recordDegraded(sources []string) {
	for _, source := range sources {
		metrics.RetrievalDegraded.WithLabelValues(source).Inc()
	}
}

func (c *Coordinator) recordDecode(st State, p models.Payload) {
	if p.Degraded() {
		metrics.DecodeFailures.WithLabelValues(string(st)).Inc()
	}
}
