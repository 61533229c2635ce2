// internal/notify/notifier.go

// Package notify publishes feedback events to the pricing optimizer hook.
// Publishing is advisory: callers log failures and carry on.
package notify

import (
	"context"
	"errors"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/common/metrics"
	"quotegenius/internal/models"
)

const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkSNS   = "sns"
	SinkSES   = "ses"
)

type Notifier interface {
	Name() string
	Notify(ctx context.Context, event models.FeedbackEvent) error
}

// LogNotifier writes the event to the structured log.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithFields(map[string]interface{}{"sink": SinkLog})}
}

func (n *LogNotifier) Name() string { return SinkLog }

func (n *LogNotifier) Notify(_ context.Context, event models.FeedbackEvent) error {
	n.logger.Info("Quote feedback recorded", map[string]interface{}{
		"quoteId":  event.QuoteID,
		"accepted": event.Accepted,
		"status":   string(event.Status),
	})
	return nil
}

// Multi fans an event out to every sink in order. Every sink is attempted and
// the failures are joined.
type Multi struct {
	sinks  []Notifier
	logger logger.Logger
}

func NewMulti(log logger.Logger, sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks, logger: log}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Sinks() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}

func (m *Multi) Notify(ctx context.Context, event models.FeedbackEvent) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, event); err != nil {
			metrics.Notifications.WithLabelValues(sink.Name(), "failure").Inc()
			m.logger.Warn("Notification sink failed", map[string]interface{}{
				"sink":    sink.Name(),
				"quoteId": event.QuoteID,
				"error":   err.Error(),
			})
			errs = append(errs, apperrors.NewNotificationSendFailedError(sink.Name(), err))
			continue
		}
		metrics.Notifications.WithLabelValues(sink.Name(), "success").Inc()
	}
	return errors.Join(errs...)
}
