// internal/notify/factory.go
package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	awsclient "quotegenius/internal/common/aws"
	"quotegenius/internal/common/config"
	"quotegenius/internal/common/logger"
)

// Build assembles the sinks named in cfg.Sinks. The redis sink needs a
// client; AWS clients are created on demand.
func Build(ctx context.Context, cfg config.NotificationConfig, rdb redis.Cmdable, log logger.Logger) (*Multi, error) {
	sinks := make([]Notifier, 0, len(cfg.Sinks))
	for _, name := range cfg.Sinks {
		switch name {
		case SinkLog:
			sinks = append(sinks, NewLogNotifier(log))
		case SinkRedis:
			if rdb == nil {
				return nil, fmt.Errorf("notification sink %q requires a redis client", name)
			}
			sinks = append(sinks, NewStreamNotifier(rdb, cfg.RedisStream, cfg.StreamMaxLen))
		case SinkSNS:
			client, err := awsclient.NewSNSClient(ctx, cfg.AWS.Region)
			if err != nil {
				return nil, fmt.Errorf("sns client: %w", err)
			}
			sinks = append(sinks, NewTopicNotifier(client, cfg.AWS.SNS.TopicARN))
		case SinkSES:
			client, err := awsclient.NewSESClient(ctx, cfg.AWS.Region)
			if err != nil {
				return nil, fmt.Errorf("ses client: %w", err)
			}
			sinks = append(sinks, NewEmailNotifier(client, cfg.AWS.SES.FromEmail, cfg.AWS.SES.To))
		default:
			return nil, fmt.Errorf("unknown notification sink %q", name)
		}
	}
	return NewMulti(log, sinks...), nil
}
