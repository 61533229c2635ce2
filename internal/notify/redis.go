// internal/notify/redis.go
package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quotegenius/internal/models"
)

const DefaultStream = "quote:feedback"

// StreamNotifier appends events to a Redis stream capped at maxLen entries.
type StreamNotifier struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewStreamNotifier(client redis.Cmdable, stream string, maxLen int64) *StreamNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

func (n *StreamNotifier) Name() string { return SinkRedis }

func (n *StreamNotifier) Notify(ctx context.Context, event models.FeedbackEvent) error {
	return n.client.XAdd(ctx, streamArgs(n.stream, n.maxLen, event)).Err()
}

func streamArgs(stream string, maxLen int64, event models.FeedbackEvent) *redis.XAddArgs {
	payload, _ := json.Marshal(event)
	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Values: []interface{}{
			"quoteId", event.QuoteID,
			"accepted", strconv.FormatBool(event.Accepted),
			"status", string(event.Status),
			"recordedAt", event.RecordedAt.UTC().Format(time.RFC3339),
			"event", string(payload),
		},
	}
}
