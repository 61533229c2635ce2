package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotegenius/internal/common/config"
	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/common/metrics"
	"quotegenius/internal/models"
)

func sampleEvent() models.FeedbackEvent {
	return models.FeedbackEvent{
		QuoteID:    "q-1",
		Accepted:   true,
		Status:     models.QuoteStatusAccepted,
		Feedback:   "Price works for us",
		RecordedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Redis stream
// ==========================

func TestStreamNotifier_XAdd(t *testing.T) {
	db, mock := redismock.NewClientMock()
	n := NewStreamNotifier(db, "", 500)

	mock.ExpectXAdd(streamArgs(DefaultStream, 500, sampleEvent())).SetVal("1-0")
	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectXAdd(streamArgs(DefaultStream, 500, sampleEvent())).SetErr(errors.New("READONLY"))
	assert.Error(t, n.Notify(context.Background(), sampleEvent()))
}

func TestStreamNotifier_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	n := NewStreamNotifier(rdb, "quote:feedback:test", 0)
	require.NoError(t, n.Notify(context.Background(), sampleEvent()))

	entries, err := rdb.XRange(context.Background(), "quote:feedback:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "q-1", entries[0].Values["quoteId"])
	assert.Equal(t, "true", entries[0].Values["accepted"])
	assert.Equal(t, "2025-04-01T12:00:00Z", entries[0].Values["recordedAt"])
	assert.Contains(t, entries[0].Values["event"], `"feedback":"Price works for us"`)
}

// ==========================
// AWS sinks
// ==========================

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{}, f.err
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{}, f.err
}

func TestTopicNotifier(t *testing.T) {
	client := &fakeSNS{}
	n := NewTopicNotifier(client, "arn:aws:sns:us-east-1:123:quote-feedback")

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	assert.Equal(t, "arn:aws:sns:us-east-1:123:quote-feedback", *client.input.TopicArn)
	assert.Equal(t, "Quote q-1 accepted", *client.input.Subject)
	assert.Contains(t, *client.input.Message, `"quoteId":"q-1"`)
	assert.Equal(t, "accepted", *client.input.MessageAttributes["status"].StringValue)
}

func TestEmailNotifier(t *testing.T) {
	tests := []struct {
		name    string
		to      []string
		err     error
		wantErr bool
	}{
		{name: "sent", to: []string{"pricing@example.com"}},
		{name: "no recipients", wantErr: true},
		{name: "ses failure", to: []string{"pricing@example.com"}, err: errors.New("throttled"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSES{err: tt.err}
			n := NewEmailNotifier(client, "quotes@example.com", tt.to)

			err := n.Notify(context.Background(), sampleEvent())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "quotes@example.com", *client.input.Source)
			assert.Equal(t, tt.to, client.input.Destination.ToAddresses)
			assert.Contains(t, *client.input.Message.Body.Text.Data, "Price works for us")
		})
	}
}

// ==========================
// Multi
// ==========================

type failingSink struct{ name string }

func (f failingSink) Name() string { return f.name }

func (f failingSink) Notify(context.Context, models.FeedbackEvent) error {
	return errors.New("unreachable")
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	log := logger.NewTestLogger(t)
	client := &fakeSNS{}
	m := NewMulti(log, failingSink{name: "broken-test-sink"}, NewTopicNotifier(client, "arn"))

	before := testutil.ToFloat64(metrics.Notifications.WithLabelValues(SinkSNS, "success"))
	err := m.Notify(context.Background(), sampleEvent())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
	assert.NotNil(t, client.input, "later sinks still run after a failure")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Notifications.WithLabelValues(SinkSNS, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Notifications.WithLabelValues("broken-test-sink", "failure")))
}

func TestBuild(t *testing.T) {
	log := logger.NewNoOpLogger()
	db, _ := redismock.NewClientMock()

	m, err := Build(context.Background(), config.NotificationConfig{Sinks: []string{SinkLog, SinkRedis}}, db, log)
	require.NoError(t, err)
	assert.Equal(t, []string{SinkLog, SinkRedis}, m.Sinks())

	_, err = Build(context.Background(), config.NotificationConfig{Sinks: []string{SinkRedis}}, nil, log)
	assert.Error(t, err)

	_, err = Build(context.Background(), config.NotificationConfig{Sinks: []string{"pager"}}, db, log)
	assert.Error(t, err)
}
