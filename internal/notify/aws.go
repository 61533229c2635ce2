// internal/notify/aws.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	awsclient "quotegenius/internal/common/aws"
	"quotegenius/internal/models"
)

// TopicNotifier publishes the event JSON to an SNS topic.
type TopicNotifier struct {
	client   awsclient.SNSAPI
	topicARN string
}

func NewTopicNotifier(client awsclient.SNSAPI, topicARN string) *TopicNotifier {
	return &TopicNotifier{client: client, topicARN: topicARN}
}

func (n *TopicNotifier) Name() string { return SinkSNS }

func (n *TopicNotifier) Notify(ctx context.Context, event models.FeedbackEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject(event)),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"status": {DataType: aws.String("String"), StringValue: aws.String(string(event.Status))},
		},
	})
	return err
}

// EmailNotifier mails the pricing team through SES.
type EmailNotifier struct {
	client awsclient.SESAPI
	from   string
	to     []string
}

func NewEmailNotifier(client awsclient.SESAPI, from string, to []string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, to: to}
}

func (n *EmailNotifier) Name() string { return SinkSES }

func (n *EmailNotifier) Notify(ctx context.Context, event models.FeedbackEvent) error {
	if len(n.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	body := fmt.Sprintf("Quote %s was marked %s.\n\nCustomer feedback:\n%s\n", event.QuoteID, event.Status, event.Feedback)
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: n.to,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject(event))},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	return err
}

func subject(event models.FeedbackEvent) string {
	return fmt.Sprintf("Quote %s %s", event.QuoteID, event.Status)
}
